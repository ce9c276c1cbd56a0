// Package locate finds elements in a dom tree, either right away or by waiting
// a bounded time for them to show up.
package locate

import (
	"github.com/Philanthropists/autofinish/internal/dom"
	"github.com/Philanthropists/autofinish/internal/types"
	"github.com/Philanthropists/autofinish/internal/types/result"
)

// Locator probes the DOM once, at call time.
type Locator func() result.Result[dom.Element]

// Query selects elements by CSS selector. When Tag is set, only elements with
// that upper-case tag name satisfy it.
type Query struct {
	Selector string
	Tag      string
}

func (q Query) accepts(el dom.Element) bool {
	return q.Tag == "" || el.TagName() == q.Tag
}

// FindOne returns the first descendant of root matching q.
func FindOne(root dom.Element, q Query) result.Result[dom.Element] {
	el, err := root.QuerySelector(q.Selector)
	if err != nil {
		return result.Fail[dom.Element](types.ErrElementNotFound.Wrap(err))
	}
	if el == nil || !q.accepts(el) {
		return result.Fail[dom.Element](types.ErrElementNotFound.New("%s", q.Selector))
	}
	return result.Succeed(el)
}

// FindAll returns every descendant of root matching q, in document order. It
// fails when nothing matches or when any match has the wrong tag.
func FindAll(root dom.Element, q Query) result.Result[[]dom.Element] {
	els, err := root.QuerySelectorAll(q.Selector)
	if err != nil {
		return result.Fail[[]dom.Element](types.ErrElementNotFound.Wrap(err))
	}
	if len(els) == 0 {
		return result.Fail[[]dom.Element](types.ErrElementNotFound.New("%s", q.Selector))
	}
	for _, el := range els {
		if !q.accepts(el) {
			return result.Fail[[]dom.Element](types.ErrElementNotFound.New("%s: unexpected <%s>", q.Selector, el.TagName()))
		}
	}
	return result.Succeed(els)
}

// One binds FindOne to root and q.
func One(root dom.Element, q Query) Locator {
	return func() result.Result[dom.Element] {
		return FindOne(root, q)
	}
}

// Body returns the body of doc, failing while the document has none.
func Body(doc dom.Document) result.Result[dom.Element] {
	body, err := doc.Body()
	if err != nil {
		return result.Fail[dom.Element](types.ErrElementNotFound.Wrap(err))
	}
	if body == nil {
		return result.Fail[dom.Element](types.ErrElementNotFound.New("body"))
	}
	return result.Succeed(body)
}
