// Package course reads the ordered course list of a lesson page and moves to
// the entry after the active one.
package course

import (
	"context"
	"time"

	"golang.org/x/exp/slices"

	"github.com/Philanthropists/autofinish/internal/config"
	"github.com/Philanthropists/autofinish/internal/dom"
	"github.com/Philanthropists/autofinish/internal/locate"
	"github.com/Philanthropists/autofinish/internal/logging"
	"github.com/Philanthropists/autofinish/internal/types"
	"github.com/Philanthropists/autofinish/internal/types/result"
)

const loggerName = "no-mouseout"

// Entry is one item of the course list.
type Entry struct {
	dom.Element
}

// IsActive reports whether the entry's parent carries class. It is read from
// the page on every call.
func (e Entry) IsActive(class string) bool {
	p, err := e.Parent()
	if err != nil || p == nil {
		return false
	}
	ok, err := p.HasClass(class)
	return err == nil && ok
}

type Navigator struct {
	Config config.Courses
}

func (n Navigator) log(ctx context.Context) *logging.Logger {
	return logging.FromContext(ctx).Named(loggerName)
}

// GetCourses waits for the course list in doc and returns its entries.
func (n Navigator) GetCourses(ctx context.Context, doc dom.Document) result.Result[[]Entry] {
	body := locate.Body(doc)

	list := result.AndThen(body, func(body dom.Element) result.Result[dom.Element] {
		return locate.AwaitElement(ctx, locate.WaitOptions{
			Timeout: n.Config.WaitTimeout,
			Root:    body,
			Locator: locate.One(body, locate.Query{Selector: n.Config.ListSelector, Tag: "DIV"}),
		})
	})

	return result.AndThen(list, func(list dom.Element) result.Result[[]Entry] {
		return result.Map(
			locate.FindAll(list, locate.Query{Selector: n.Config.EntrySelector, Tag: "SPAN"}),
			toEntries,
		)
	})
}

// GetNextCourse returns the entry after the first active one. It fails when
// no entry is active or the active entry is the last.
func (n Navigator) GetNextCourse(entries []Entry) result.Result[Entry] {
	cur := slices.IndexFunc(entries, func(e Entry) bool {
		return e.IsActive(n.Config.ActiveClass)
	})
	if cur < 0 {
		return result.Fail[Entry](types.ErrElementNotFound.New("no active course"))
	}
	if cur >= len(entries)-1 {
		return result.Fail[Entry](types.ErrElementNotFound.New("active course is the last one"))
	}
	return result.Succeed(entries[cur+1])
}

// AddRefreshing makes a click on any entry reload the page after the reload
// delay. The listeners are removed and pending reloads dropped when ctx ends.
// On error no listener is left behind.
func (n Navigator) AddRefreshing(ctx context.Context, doc dom.Document, entries []Entry) error {
	delay := n.Config.ReloadDelay

	cancels := make([]dom.CancelFunc, 0, len(entries))
	release := func() {
		for _, cancel := range cancels {
			cancel()
		}
	}

	for _, e := range entries {
		cancel, err := e.AddEventListener("click", dom.ListenerOptions{}, func() {
			go n.reloadAfter(ctx, doc, delay)
		})
		if err != nil {
			release()
			return err
		}
		cancels = append(cancels, cancel)
	}

	context.AfterFunc(ctx, release)
	return nil
}

func (n Navigator) reloadAfter(ctx context.Context, doc dom.Document, delay time.Duration) {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	if err := doc.Reload(); err != nil {
		n.log(ctx).Warn("could not reload page", logging.Error(err))
	}
}

// Setup installs the reload handlers on every course entry.
func (n Navigator) Setup(ctx context.Context, doc dom.Document) {
	log := n.log(ctx)

	entries, ok := n.GetCourses(ctx, doc).
		MapError(func(err error) error {
			log.Warn("course list not found", logging.Selector(n.Config.ListSelector), logging.Error(err))
			return err
		}).
		Get()
	if !ok {
		return
	}

	if err := n.AddRefreshing(ctx, doc, entries); err != nil {
		log.Warn("could not install reload handlers", logging.Error(err))
		return
	}
	log.Info("reload handlers installed", logging.Int("courses", len(entries)))
}

// Advance clicks the course after the active one.
func (n Navigator) Advance(ctx context.Context, doc dom.Document) result.Result[Entry] {
	log := n.log(ctx)

	next := result.AndThen(n.GetCourses(ctx, doc), n.GetNextCourse)
	next = result.AndThen(next, func(e Entry) result.Result[Entry] {
		// the page may have been replaced while the list was read
		if err := ctx.Err(); err != nil {
			return result.Fail[Entry](types.ErrElementNotFound.Wrap(err))
		}
		if err := e.Click(); err != nil {
			return result.Fail[Entry](types.ErrElementNotFound.Wrap(err))
		}
		return result.Succeed(e)
	})

	return next.MapError(func(err error) error {
		log.Info("no next course", logging.Error(err))
		return err
	})
}

func toEntries(els []dom.Element) []Entry {
	entries := make([]Entry, len(els))
	for i, el := range els {
		entries[i] = Entry{Element: el}
	}
	return entries
}
