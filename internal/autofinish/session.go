// Package autofinish runs the lesson automation against loaded documents.
package autofinish

import (
	"context"
	"sync"

	"github.com/Philanthropists/autofinish/internal/config"
	"github.com/Philanthropists/autofinish/internal/course"
	"github.com/Philanthropists/autofinish/internal/dom"
	"github.com/Philanthropists/autofinish/internal/logging"
	"github.com/Philanthropists/autofinish/internal/traversal"
)

const loggerName = "no-mouseout"

// Session automates a single loaded document.
type Session struct {
	Config config.Config
	Doc    dom.Document
}

// Run suppresses the page's mouseout handling, then runs the course setup and
// the video traversal as independent branches. It returns once both branches
// have stopped, with the state the traversal reached.
func (s *Session) Run(ctx context.Context) traversal.State {
	log := logging.FromContext(ctx).Named(loggerName)

	event := s.Config.Traversal.SuppressedEvent
	if err := s.Doc.SuppressEvent(event); err != nil {
		log.Warn("could not suppress event", logging.String("event", event), logging.Error(err))
	} else {
		log.Info("mouseout event fired!", logging.String("event", event))
	}

	nav := course.Navigator{Config: s.Config.Courses}
	machine := &traversal.Machine{
		Config:   s.Config.Traversal,
		Doc:      s.Doc,
		Advancer: nav,
	}

	var (
		wg    sync.WaitGroup
		state traversal.State
	)
	wg.Add(2)

	go func() {
		defer wg.Done()
		nav.Setup(ctx, s.Doc)
	}()

	go func() {
		defer wg.Done()
		state = machine.Run(ctx)
	}()

	wg.Wait()

	log.Info("session finished", logging.Stringer("state", state))
	return state
}
