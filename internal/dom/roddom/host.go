package roddom

import (
	"context"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/zeebo/errs"

	"github.com/Philanthropists/autofinish/internal/config"
	"github.com/Philanthropists/autofinish/internal/dom"
	"github.com/Philanthropists/autofinish/internal/logging"
	"github.com/Philanthropists/autofinish/pkg/pipe"
)

// Host drives a single browser tab and reports every finished page load.
type Host struct {
	cfg     config.Browser
	browser *rod.Browser
	page    *rod.Page
	reg     *registry
	unbind  func() error
}

// Launch connects to cfg.DebuggerURL, or starts a local browser when it is
// empty, and opens a blank tab.
func Launch(ctx context.Context, cfg config.Browser) (*Host, error) {
	log := logging.FromContext(ctx).Named("roddom")

	controlURL := cfg.DebuggerURL
	if controlURL == "" {
		l := launcher.New().Headless(cfg.Headless)
		if cfg.Bin != "" {
			l = l.Bin(cfg.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, Error.New("launch browser: %v", err)
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, Error.New("connect to browser: %v", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, errs.Combine(Error.Wrap(err), browser.Close())
	}

	reg := newRegistry(cfg.ListenerTTL)
	unbind, err := page.Expose(bindingName, reg.dispatch)
	if err != nil {
		return nil, errs.Combine(Error.Wrap(err), browser.Close())
	}

	log.Debug("browser connected", logging.String("control_url", controlURL))

	return &Host{
		cfg:     cfg,
		browser: browser,
		page:    page,
		reg:     reg,
		unbind:  unbind,
	}, nil
}

// Documents navigates to the configured URL and emits the tab's document
// after each load, including reloads the page triggers itself.
func (h *Host) Documents(ctx context.Context) (<-chan dom.Document, error) {
	log := logging.FromContext(ctx).Named("roddom")
	page := h.page.Context(ctx)
	out := make(chan dom.Document)

	wait := page.EachEvent(func(*proto.PageLoadEventFired) {
		log.Debug("page loaded", logging.String("url", h.cfg.URL))
		pipe.Send[dom.Document](ctx.Done(), out, &Document{page: page, top: page, reg: h.reg, log: log})
	})
	go func() {
		defer close(out)
		wait()
	}()

	if err := page.Navigate(h.cfg.URL); err != nil {
		return nil, Error.New("navigate to %q: %v", h.cfg.URL, err)
	}
	return out, nil
}

// Close releases the page binding and the browser connection.
func (h *Host) Close() error {
	return errs.Combine(Error.Wrap(h.unbind()), Error.Wrap(h.browser.Close()))
}
