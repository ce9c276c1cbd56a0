// Package dom describes the slice of a browser document the automation needs.
// It is implemented over a live page by roddom and over parsed HTML by memdom.
package dom

// CancelFunc releases a listener or an observation. Calling it more than once
// is a no-op.
type CancelFunc func()

type ListenerOptions struct {
	// Once removes the listener after its first invocation.
	Once bool
}

// Document is a loaded document: the top level page or the content of a frame.
type Document interface {
	// Body returns the body element, or nil while the document has none.
	Body() (Element, error)
	// SuppressEvent installs a capture-phase listener on the document that
	// stops propagation of the named event.
	SuppressEvent(event string) error
	// Reload reloads the top level page.
	Reload() error
}

// Element is a node inside a Document.
type Element interface {
	// TagName is the upper-case tag name, e.g. "IFRAME".
	TagName() string
	// QuerySelector returns the first matching descendant, or nil.
	QuerySelector(selector string) (Element, error)
	// QuerySelectorAll returns every matching descendant in document order.
	QuerySelectorAll(selector string) ([]Element, error)
	// Parent returns the parent element, or nil at the root.
	Parent() (Element, error)
	HasClass(name string) (bool, error)

	// AddEventListener calls fn whenever event fires on the element. fn must
	// not block.
	AddEventListener(event string, opts ListenerOptions, fn func()) (CancelFunc, error)
	// Observe calls onChange after every batch of child additions or removals
	// anywhere in the element's subtree. onChange must not block.
	Observe(onChange func()) (CancelFunc, error)

	Click() error
	// AppendIFrame appends a new iframe pointing at src as the last child.
	AppendIFrame(src string) (Element, error)
}

// Frame is implemented by iframe elements.
type Frame interface {
	Element
	// ContentDocument returns the nested document, or nil while the frame
	// has not finished loading it.
	ContentDocument() (Document, error)
}

// Media is implemented by audio and video elements.
type Media interface {
	Element
	Play() error
	SetVolume(v float64) error
}
