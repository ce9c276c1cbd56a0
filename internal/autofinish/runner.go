package autofinish

import (
	"context"
	"sync"

	"github.com/zeebo/errs"

	"github.com/Philanthropists/autofinish/internal/config"
	"github.com/Philanthropists/autofinish/internal/dom"
	"github.com/Philanthropists/autofinish/internal/logging"
	"github.com/Philanthropists/autofinish/pkg/pipe"
)

// ErrStreamClosed is returned by Runner.Run when the host stops delivering
// documents while the runner is still wanted, e.g. the browser went away.
var ErrStreamClosed = errs.Class("document stream closed")

// Host delivers a document every time the top level page finishes loading.
// The channel is closed when the host stops.
type Host interface {
	Documents(ctx context.Context) (<-chan dom.Document, error)
}

// Runner starts a Session for every document the host loads. A reload
// replaces the page, so the session of the previous document is cancelled.
type Runner struct {
	Config config.Config
	Host   Host

	mu sync.Mutex
}

// Reconfigure replaces the configuration used by sessions started from the
// next page load on. Running sessions keep their configuration.
func (r *Runner) Reconfigure(cfg config.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Config = cfg
}

func (r *Runner) config() config.Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Config
}

func (r *Runner) Run(ctx context.Context) error {
	log := logging.FromContext(ctx).Named(loggerName)

	docs, err := r.Host.Documents(ctx)
	if err != nil {
		return errs.Wrap(err)
	}

	var (
		wg     sync.WaitGroup
		cancel context.CancelFunc = func() {}
		loads  int
	)

	for doc := range pipe.OrDone(ctx.Done(), docs) {
		cancel()
		loads++
		log.Info("document loaded, starting session", logging.Int("load", loads))

		var sctx context.Context
		sctx, cancel = context.WithCancel(ctx)

		wg.Add(1)
		go func(ctx context.Context, cfg config.Config, doc dom.Document) {
			defer wg.Done()

			s := Session{Config: cfg, Doc: doc}
			s.Run(ctx)
		}(sctx, r.config(), doc)
	}

	cancel()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrStreamClosed.New("after %d loads", loads)
}
