package memdom

import (
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Philanthropists/autofinish/internal/dom"
)

// Element is a node of a Document. The same *Element is returned for a node
// every time, so elements can be compared by pointer.
type Element struct {
	doc  *Document
	node *html.Node
}

var (
	_ dom.Frame = (*Element)(nil)
	_ dom.Media = (*Element)(nil)
)

func (e *Element) TagName() string {
	return strings.ToUpper(e.node.Data)
}

func (e *Element) Attr(key string) string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	return attr(e.node, key)
}

func (e *Element) ID() string {
	return e.Attr("id")
}

func (e *Element) QuerySelector(selector string) (dom.Element, error) {
	sel, err := compile(selector)
	if err != nil {
		return nil, err
	}

	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if n := sel.MatchFirst(c); n != nil {
			return e.doc.element(n), nil
		}
	}
	return nil, nil
}

func (e *Element) QuerySelectorAll(selector string) ([]dom.Element, error) {
	sel, err := compile(selector)
	if err != nil {
		return nil, err
	}

	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	var out []dom.Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		for _, n := range sel.MatchAll(c) {
			out = append(out, e.doc.element(n))
		}
	}
	return out, nil
}

func (e *Element) Parent() (dom.Element, error) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	p := e.node.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil, nil
	}
	return e.doc.element(p), nil
}

func (e *Element) HasClass(name string) (bool, error) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	for _, c := range strings.Fields(attr(e.node, "class")) {
		if c == name {
			return true, nil
		}
	}
	return false, nil
}

func (e *Element) AddEventListener(event string, opts dom.ListenerOptions, fn func()) (dom.CancelFunc, error) {
	l := &listener{event: event, once: opts.Once, fn: fn}

	e.doc.mu.Lock()
	st := e.doc.state(e.node)
	st.listeners = append(st.listeners, l)
	e.doc.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.doc.mu.Lock()
			defer e.doc.mu.Unlock()

			kept := st.listeners[:0]
			for _, other := range st.listeners {
				if other != l {
					kept = append(kept, other)
				}
			}
			st.listeners = kept
		})
	}, nil
}

// Listeners reports how many listeners for event are registered.
func (e *Element) Listeners(event string) int {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	var n int
	for _, l := range e.doc.state(e.node).listeners {
		if l.event == event {
			n++
		}
	}
	return n
}

func (e *Element) Observe(onChange func()) (dom.CancelFunc, error) {
	o := &observer{node: e.node, fn: onChange}

	e.doc.mu.Lock()
	e.doc.observers = append(e.doc.observers, o)
	e.doc.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.doc.mu.Lock()
			defer e.doc.mu.Unlock()

			kept := e.doc.observers[:0]
			for _, other := range e.doc.observers {
				if other != o {
					kept = append(kept, other)
				}
			}
			e.doc.observers = kept
		})
	}, nil
}

// Dispatch fires event on the element.
func (e *Element) Dispatch(event string) {
	e.doc.mu.Lock()
	fns := e.doc.fire(e.node, event)
	e.doc.mu.Unlock()

	run(fns)
}

func (e *Element) Click() error {
	e.doc.mu.Lock()
	e.doc.state(e.node).clicks++
	fns := e.doc.fire(e.node, "click")
	e.doc.mu.Unlock()

	run(fns)
	return nil
}

func (e *Element) Clicks() int {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	return e.doc.state(e.node).clicks
}

// AppendHTML parses fragment in the context of the element and appends the
// resulting nodes as its last children.
func (e *Element) AppendHTML(fragment string) ([]*Element, error) {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), e.node)
	if err != nil {
		return nil, Error.Wrap(err)
	}

	e.doc.mu.Lock()
	var added []*Element
	for _, n := range nodes {
		e.node.AppendChild(n)
		if n.Type == html.ElementNode {
			added = append(added, e.doc.element(n))
		}
	}
	fns := e.doc.mutated(e.node)
	e.doc.mu.Unlock()

	run(fns)
	return added, nil
}

func (e *Element) AppendIFrame(src string) (dom.Element, error) {
	n := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Iframe,
		Data:     "iframe",
		Attr:     []html.Attribute{{Key: "src", Val: src}},
	}

	e.doc.mu.Lock()
	e.node.AppendChild(n)
	el := e.doc.element(n)
	fns := e.doc.mutated(e.node)
	e.doc.mu.Unlock()

	run(fns)
	return el, nil
}

// Remove detaches the element from its parent.
func (e *Element) Remove() {
	e.doc.mu.Lock()
	parent := e.node.Parent
	if parent == nil {
		e.doc.mu.Unlock()
		return
	}
	fns := e.doc.mutated(parent)
	parent.RemoveChild(e.node)
	e.doc.mu.Unlock()

	run(fns)
}

// AttachDocument sets the content document of an iframe and fires its load
// event.
func (e *Element) AttachDocument(d *Document) {
	e.doc.mu.Lock()
	e.doc.state(e.node).frame = d
	fns := e.doc.fire(e.node, "load")
	e.doc.mu.Unlock()

	run(fns)
}

func (e *Element) ContentDocument() (dom.Document, error) {
	if e.node.DataAtom != atom.Iframe {
		return nil, Error.New("<%s> is not a frame", e.node.Data)
	}

	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	if f := e.doc.state(e.node).frame; f != nil {
		return f, nil
	}
	return nil, nil
}

func (e *Element) isMedia() bool {
	return e.node.DataAtom == atom.Video || e.node.DataAtom == atom.Audio
}

func (e *Element) Play() error {
	if !e.isMedia() {
		return Error.New("<%s> is not a media element", e.node.Data)
	}

	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	e.doc.state(e.node).playing = true
	return nil
}

func (e *Element) SetVolume(v float64) error {
	if !e.isMedia() {
		return Error.New("<%s> is not a media element", e.node.Data)
	}
	if v < 0 || v > 1 {
		return Error.New("volume %v outside [0, 1]", v)
	}

	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	e.doc.state(e.node).volume = v
	return nil
}

func (e *Element) Playing() bool {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	return e.doc.state(e.node).playing
}

func (e *Element) Volume() float64 {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	return e.doc.state(e.node).volume
}
