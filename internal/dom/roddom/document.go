package roddom

import (
	"errors"

	"github.com/go-rod/rod"
	"github.com/zeebo/errs"

	"github.com/Philanthropists/autofinish/internal/dom"
	"github.com/Philanthropists/autofinish/internal/logging"
)

// Error wraps failures reported by the browser.
var Error = errs.Class("roddom")

var (
	_ dom.Document = (*Document)(nil)
	_ dom.Frame    = (*Element)(nil)
	_ dom.Media    = (*Element)(nil)
)

// Document is a page or frame of a live browser tab.
type Document struct {
	page *rod.Page
	top  *rod.Page
	reg  *registry
	log  *logging.Logger
}

func (d *Document) Body() (dom.Element, error) {
	els, err := d.page.Elements("body")
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if len(els) == 0 {
		return nil, nil
	}
	return d.wrap(els[0]), nil
}

func (d *Document) SuppressEvent(event string) error {
	_, err := d.page.Eval(suppressJS, event)
	return Error.Wrap(err)
}

func (d *Document) Reload() error {
	return Error.Wrap(d.top.Reload())
}

func (d *Document) wrap(el *rod.Element) *Element {
	return &Element{doc: d, el: el}
}

// Element is a node handle resolved in the browser.
type Element struct {
	doc *Document
	el  *rod.Element
}

// TagName returns "" when the browser cannot be asked, which no tag check
// accepts. The cause is logged.
func (e *Element) TagName() string {
	res, err := e.el.Eval(tagNameJS)
	if err != nil {
		e.doc.log.Debug("could not read tag name", logging.Error(Error.Wrap(err)))
		return ""
	}
	return res.Value.Str()
}

func (e *Element) QuerySelector(selector string) (dom.Element, error) {
	els, err := e.el.Elements(selector)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if len(els) == 0 {
		return nil, nil
	}
	return e.doc.wrap(els[0]), nil
}

func (e *Element) QuerySelectorAll(selector string) ([]dom.Element, error) {
	els, err := e.el.Elements(selector)
	if err != nil {
		return nil, Error.Wrap(err)
	}

	matches := make([]dom.Element, 0, len(els))
	for _, el := range els {
		matches = append(matches, e.doc.wrap(el))
	}
	return matches, nil
}

func (e *Element) Parent() (dom.Element, error) {
	parent, err := e.el.Parent()
	if err != nil {
		var notFound *rod.ElementNotFoundError
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, Error.Wrap(err)
	}
	return e.doc.wrap(parent), nil
}

func (e *Element) HasClass(name string) (bool, error) {
	res, err := e.el.Eval(hasClassJS, name)
	if err != nil {
		return false, Error.Wrap(err)
	}
	return res.Value.Bool(), nil
}

func (e *Element) AddEventListener(event string, opts dom.ListenerOptions, fn func()) (dom.CancelFunc, error) {
	id := e.doc.reg.add(opts.Once, fn)
	if _, err := e.el.Eval(listenJS, bindingName, id, event, opts.Once); err != nil {
		e.doc.reg.remove(id)
		return nil, Error.Wrap(err)
	}
	return e.release(id), nil
}

func (e *Element) Observe(onChange func()) (dom.CancelFunc, error) {
	id := e.doc.reg.add(false, onChange)
	if _, err := e.el.Eval(observeJS, bindingName, id); err != nil {
		e.doc.reg.remove(id)
		return nil, Error.Wrap(err)
	}
	return e.release(id), nil
}

// release drops the Go callback first, so a notification already in flight
// finds nothing to run.
func (e *Element) release(id string) dom.CancelFunc {
	return func() {
		e.doc.reg.remove(id)
		// the page may already be gone
		_, _ = e.el.Eval(releaseJS, id)
	}
}

func (e *Element) Click() error {
	_, err := e.el.Eval(clickJS)
	return Error.Wrap(err)
}

func (e *Element) AppendIFrame(src string) (dom.Element, error) {
	frame, err := e.el.ElementByJS(rod.Eval(appendFrameJS, src))
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return e.doc.wrap(frame), nil
}

// ContentDocument returns nil while the frame is still loading.
func (e *Element) ContentDocument() (dom.Document, error) {
	ready, err := e.el.Eval(frameReadyJS)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if !ready.Value.Bool() {
		return nil, nil
	}

	page, err := e.el.Frame()
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return &Document{page: page, top: e.doc.top, reg: e.doc.reg, log: e.doc.log}, nil
}

func (e *Element) Play() error {
	_, err := e.el.Evaluate(rod.Eval(playJS).ByPromise())
	return Error.Wrap(err)
}

func (e *Element) SetVolume(volume float64) error {
	if volume < 0 || volume > 1 {
		return Error.New("volume %v out of range", volume)
	}
	_, err := e.el.Eval(volumeJS, volume)
	return Error.Wrap(err)
}
