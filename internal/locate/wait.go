package locate

import (
	"context"
	"time"

	"github.com/Philanthropists/autofinish/internal/dom"
	"github.com/Philanthropists/autofinish/internal/types"
	"github.com/Philanthropists/autofinish/internal/types/result"
)

type WaitOptions struct {
	// Timeout bounds the wait once the first probe has failed.
	Timeout time.Duration
	// Root is observed for changes anywhere in its subtree.
	Root    dom.Element
	Locator Locator
}

// AwaitElement resolves opts.Locator right away when it already succeeds.
// Otherwise it re-probes on every change under opts.Root until a probe
// succeeds, the timeout elapses, or ctx ends. The observation and the timer
// are both released before it returns.
func AwaitElement(ctx context.Context, opts WaitOptions) result.Result[dom.Element] {
	if r := opts.Locator(); r.IsOk() {
		return r
	}

	found := make(chan dom.Element, 1)
	cancel, err := opts.Root.Observe(func() {
		el, ok := opts.Locator().Get()
		if !ok {
			return
		}
		select {
		case found <- el:
		default:
		}
	})
	if err != nil {
		return result.Fail[dom.Element](types.ErrElementNotFound.Wrap(err))
	}
	defer cancel()

	// the tree may have changed between the first probe and Observe
	if r := opts.Locator(); r.IsOk() {
		return r
	}

	timer := time.NewTimer(opts.Timeout)
	defer timer.Stop()

	select {
	case el := <-found:
		return result.Succeed(el)
	case <-timer.C:
		return result.Fail[dom.Element](types.ErrElementNotFound.New("not found within %s", opts.Timeout))
	case <-ctx.Done():
		return result.Fail[dom.Element](types.ErrElementNotFound.Wrap(ctx.Err()))
	}
}
