// Package traversal walks from the lesson page through two nested frames to
// the video player, plays it, and moves on to the next course when it ends.
//
// The walk is a state machine:
//
//	PageReady → OuterFrameFound → InnerFrameFound → VideoFound
//	          → PlaybackStarted → CourseAdvanced
//
// Any stage may fail, which logs the reason and stops the walk in Failed (or
// Cancelled when the context ended). A frame whose document is not attached
// yet holds the walk in a pending-on-load sub-state until its load event,
// at most Config.MaxLoadDeferrals times.
package traversal

import (
	"context"
	"time"

	"github.com/Philanthropists/autofinish/internal/config"
	"github.com/Philanthropists/autofinish/internal/course"
	"github.com/Philanthropists/autofinish/internal/dom"
	"github.com/Philanthropists/autofinish/internal/locate"
	"github.com/Philanthropists/autofinish/internal/logging"
	"github.com/Philanthropists/autofinish/internal/types"
	"github.com/Philanthropists/autofinish/internal/types/result"
)

const loggerName = "no-mouseout"

type State int

const (
	PageReady State = iota
	OuterFrameFound
	InnerFrameFound
	VideoFound
	PlaybackStarted
	CourseAdvanced
	Failed
	Cancelled
)

func (s State) String() string {
	switch s {
	case PageReady:
		return "page-ready"
	case OuterFrameFound:
		return "outer-frame-found"
	case InnerFrameFound:
		return "inner-frame-found"
	case VideoFound:
		return "video-found"
	case PlaybackStarted:
		return "playback-started"
	case CourseAdvanced:
		return "course-advanced"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Advancer moves the page to the next course.
type Advancer interface {
	Advance(ctx context.Context, doc dom.Document) result.Result[course.Entry]
}

// Level is one document of the walk together with its body.
type Level struct {
	Doc  dom.Document
	Body dom.Element
}

type Machine struct {
	Config   config.Traversal
	Doc      dom.Document
	Advancer Advancer
}

// Run walks the page until the course advanced or a stage failed and returns
// the state it stopped in. Failures are logged, never returned.
func (m *Machine) Run(ctx context.Context) State {
	log := logging.FromContext(ctx).Named(loggerName)

	stop := func(msg string) func(error) error {
		return func(err error) error {
			log.Warn(msg, logging.Error(err))
			return err
		}
	}
	failed := func() State {
		if ctx.Err() != nil {
			return Cancelled
		}
		return Failed
	}

	page, ok := result.AndThen(locate.Body(m.Doc), func(body dom.Element) result.Result[Level] {
		return result.Succeed(Level{Doc: m.Doc, Body: body})
	}).MapError(stop("page has no body")).Get()
	if !ok {
		return failed()
	}

	outer, ok := m.enterFrame(ctx, page, m.Config.OuterFrameSelector).
		MapError(stop("iframe level 1 not found")).
		Get()
	if !ok {
		return failed()
	}
	log.Info("found iframe level 1!")

	inner, ok := m.enterFrame(ctx, outer, m.Config.InnerFrameSelector).
		MapError(stop("iframe level 2 not found")).
		Get()
	if !ok {
		return failed()
	}
	log.Info("found iframe level 2")

	video, ok := m.findVideo(ctx, inner).
		MapError(stop("Video not found!")).
		Get()
	if !ok {
		return failed()
	}
	log.Info("found video", logging.Duration("settle", m.Config.SettleDelay))

	playing, ok := result.AndThen(
		result.FromPair(video, sleep(ctx, m.Config.SettleDelay)),
		m.startPlayback,
	).MapError(stop("could not start playback")).Get()
	if !ok {
		return failed()
	}
	log.Info("video injected!", logging.Float("volume", m.Config.Volume))

	advanced := result.AndThenAsync(ctx, awaitEnded(ctx, playing), func(ctx context.Context, _ struct{}) result.Result[course.Entry] {
		return m.advance(ctx, page)
	})
	if !advanced.MapError(stop("course not advanced")).IsOk() {
		return failed()
	}
	return CourseAdvanced
}

func (m *Machine) enterFrame(ctx context.Context, parent Level, selector string) result.Result[Level] {
	el := locate.AwaitElement(ctx, locate.WaitOptions{
		Timeout: m.Config.WaitTimeout,
		Root:    parent.Body,
		Locator: locate.One(parent.Body, locate.Query{Selector: selector, Tag: "IFRAME"}),
	})

	doc := result.AndThen(el, func(el dom.Element) result.Result[dom.Document] {
		frame, ok := el.(dom.Frame)
		if !ok {
			return result.Fail[dom.Document](types.ErrElementNotFound.New("%s is not a frame", selector))
		}
		return m.contentDocument(ctx, frame)
	})

	return result.AndThen(doc, func(doc dom.Document) result.Result[Level] {
		return result.Map(locate.Body(doc), func(body dom.Element) Level {
			return Level{Doc: doc, Body: body}
		})
	})
}

// contentDocument returns the frame's document, waiting for load events
// while the frame is still loading.
func (m *Machine) contentDocument(ctx context.Context, frame dom.Frame) result.Result[dom.Document] {
	log := logging.FromContext(ctx).Named(loggerName)

	for deferrals := 0; ; deferrals++ {
		doc, loaded, cancel, err := probeFrame(frame)
		if err != nil {
			return result.Fail[dom.Document](types.ErrElementNotFound.Wrap(err))
		}
		if doc != nil {
			cancel()
			return result.Succeed(doc)
		}
		if deferrals >= m.Config.MaxLoadDeferrals {
			cancel()
			return result.Fail[dom.Document](types.ErrElementNotFound.New("frame not loaded after %d load events", deferrals))
		}

		log.Info("frame not loaded yet, waiting for load", logging.Int("deferral", deferrals+1))
		select {
		case <-loaded:
		case <-ctx.Done():
			cancel()
			return result.Fail[dom.Document](types.ErrElementNotFound.Wrap(ctx.Err()))
		}
	}
}

// probeFrame registers for the next load event before reading the content
// document, so a load in between is not missed.
func probeFrame(frame dom.Frame) (dom.Document, <-chan struct{}, dom.CancelFunc, error) {
	loaded := make(chan struct{}, 1)
	cancel, err := frame.AddEventListener("load", dom.ListenerOptions{Once: true}, func() {
		select {
		case loaded <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return nil, nil, nil, err
	}

	doc, err := frame.ContentDocument()
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return doc, loaded, cancel, nil
}

func (m *Machine) findVideo(ctx context.Context, level Level) result.Result[dom.Media] {
	el := locate.AwaitElement(ctx, locate.WaitOptions{
		Timeout: m.Config.WaitTimeout,
		Root:    level.Body,
		Locator: locate.One(level.Body, locate.Query{Selector: m.Config.VideoSelector, Tag: "VIDEO"}),
	})

	return result.AndThen(el, func(el dom.Element) result.Result[dom.Media] {
		media, ok := el.(dom.Media)
		if !ok {
			return result.Fail[dom.Media](types.ErrElementNotFound.New("%s is not a media element", m.Config.VideoSelector))
		}
		return result.Succeed(media)
	})
}

// playback is a started video: ended receives once when it ends, release
// drops the listener.
type playback struct {
	ended   <-chan struct{}
	release dom.CancelFunc
}

// startPlayback plays the video at the configured volume and listens for the
// end of it.
func (m *Machine) startPlayback(video dom.Media) result.Result[playback] {
	if err := video.Play(); err != nil {
		return result.Fail[playback](types.ErrElementNotFound.Wrap(err))
	}
	if err := video.SetVolume(m.Config.Volume); err != nil {
		return result.Fail[playback](types.ErrElementNotFound.Wrap(err))
	}

	ended := make(chan struct{}, 1)
	release, err := video.AddEventListener("ended", dom.ListenerOptions{Once: true}, func() {
		select {
		case ended <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return result.Fail[playback](types.ErrElementNotFound.Wrap(err))
	}
	return result.Succeed(playback{ended: ended, release: release})
}

func awaitEnded(ctx context.Context, p playback) result.Result[struct{}] {
	defer p.release()

	select {
	case <-p.ended:
		return result.Succeed(struct{}{})
	case <-ctx.Done():
		return result.Fail[struct{}](types.ErrElementNotFound.Wrap(ctx.Err()))
	}
}

func (m *Machine) advance(ctx context.Context, page Level) result.Result[course.Entry] {
	log := logging.FromContext(ctx).Named(loggerName)

	if _, err := page.Body.AppendIFrame(m.Config.AudioSource); err != nil {
		log.Warn("could not inject audio iframe", logging.Error(err))
	} else {
		log.Info("injected audio iframe", logging.String("src", m.Config.AudioSource))
	}

	if err := sleep(ctx, m.Config.AdvanceDelay); err != nil {
		return result.Fail[course.Entry](err)
	}
	return m.Advancer.Advance(ctx, m.Doc)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return types.ErrElementNotFound.Wrap(ctx.Err())
	}
}
