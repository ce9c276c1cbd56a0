// Package memdom implements the dom interfaces over a parsed HTML tree held in
// memory. It backs the tests and the --html dry run, and lets callers mutate
// the tree, attach frame documents and fire events the way a page would.
package memdom

import (
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"github.com/zeebo/errs"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Philanthropists/autofinish/internal/dom"
)

var Error = errs.Class("memdom")

type listener struct {
	event string
	once  bool
	fn    func()
}

type observer struct {
	node *html.Node
	fn   func()
}

type nodeState struct {
	elem      *Element
	listeners []*listener
	frame     *Document
	clicks    int
	playing   bool
	volume    float64
}

// Document is a parsed HTML document. All access goes through its mutex;
// callbacks run after it is released so they may query the document again.
type Document struct {
	mu sync.Mutex

	root       *html.Node
	nodes      map[*html.Node]*nodeState
	observers  []*observer
	suppressed []string
	reloads    int
}

var _ dom.Document = (*Document)(nil)

func Parse(s string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return nil, Error.Wrap(err)
	}

	return &Document{
		root:  root,
		nodes: make(map[*html.Node]*nodeState),
	}, nil
}

// MustParse is Parse for fixtures known to be valid.
func MustParse(s string) *Document {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Document) state(n *html.Node) *nodeState {
	st, ok := d.nodes[n]
	if !ok {
		st = &nodeState{
			elem:   &Element{doc: d, node: n},
			volume: 1,
		}
		d.nodes[n] = st
	}
	return st
}

func (d *Document) element(n *html.Node) *Element {
	if n == nil {
		return nil
	}
	return d.state(n).elem
}

func (d *Document) Body() (dom.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	body := findFirst(d.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Body
	})
	if body == nil {
		return nil, nil
	}
	return d.element(body), nil
}

// MustBody returns the body as a concrete element.
func (d *Document) MustBody() *Element {
	b, err := d.Body()
	if err != nil || b == nil {
		panic("memdom: document has no body")
	}
	return b.(*Element)
}

// ByID returns the element with the given id, or nil.
func (d *Document) ByID(id string) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := findFirst(d.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && attr(n, "id") == id
	})
	return d.element(n)
}

func (d *Document) SuppressEvent(event string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.suppressed = append(d.suppressed, event)
	return nil
}

// Suppressed lists the events passed to SuppressEvent.
func (d *Document) Suppressed() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]string(nil), d.suppressed...)
}

func (d *Document) Reload() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.reloads++
	return nil
}

func (d *Document) Reloads() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.reloads
}

// Observers reports how many subtree observations are live.
func (d *Document) Observers() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.observers)
}

// mutated collects the observers watching n or one of its ancestors. Callers
// hold the lock and run the returned callbacks after releasing it.
func (d *Document) mutated(n *html.Node) []func() {
	var fns []func()
	for _, o := range d.observers {
		if isAncestorOrSelf(o.node, n) {
			fns = append(fns, o.fn)
		}
	}
	return fns
}

func (d *Document) fire(n *html.Node, event string) []func() {
	st, ok := d.nodes[n]
	if !ok {
		return nil
	}

	var fns []func()
	kept := st.listeners[:0]
	for _, l := range st.listeners {
		if l.event != event {
			kept = append(kept, l)
			continue
		}
		fns = append(fns, l.fn)
		if !l.once {
			kept = append(kept, l)
		}
	}
	st.listeners = kept
	return fns
}

func run(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}

func findFirst(n *html.Node, pred func(*html.Node) bool) *html.Node {
	if pred(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, pred); found != nil {
			return found
		}
	}
	return nil
}

func isAncestorOrSelf(ancestor, n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func compile(selector string) (cascadia.Selector, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, Error.New("invalid selector %q: %v", selector, err)
	}
	return sel, nil
}
