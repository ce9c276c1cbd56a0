package memdom

import (
	"context"
	"sync"

	"github.com/Philanthropists/autofinish/internal/dom"
	"github.com/Philanthropists/autofinish/pkg/pipe"
)

// Host hands documents to a runner as if a browser had loaded them.
type Host struct {
	docs      chan dom.Document
	closeOnce sync.Once
}

func NewHost() *Host {
	return &Host{docs: make(chan dom.Document)}
}

func (h *Host) Documents(ctx context.Context) (<-chan dom.Document, error) {
	return pipe.OrDone(ctx.Done(), h.docs), nil
}

// Load delivers doc to the runner. It blocks until the runner takes it or
// ctx ends.
func (h *Host) Load(ctx context.Context, doc *Document) bool {
	return pipe.Send[dom.Document](ctx.Done(), h.docs, doc)
}

// Close ends the document stream.
func (h *Host) Close() {
	h.closeOnce.Do(func() {
		close(h.docs)
	})
}
