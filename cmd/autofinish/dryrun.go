package main

import (
	"context"
	"os"

	"github.com/zeebo/errs"

	"github.com/Philanthropists/autofinish/internal/autofinish"
	"github.com/Philanthropists/autofinish/internal/config"
	"github.com/Philanthropists/autofinish/internal/dom/memdom"
	"github.com/Philanthropists/autofinish/internal/logging"
)

// loadChain parses page and attaches every frame file to the first matching
// iframe of the previous document, outer frame first.
func loadChain(cfg config.Traversal, page string, frames []string) (*memdom.Document, error) {
	doc, err := parseFile(page)
	if err != nil {
		return nil, err
	}

	selectors := []string{cfg.OuterFrameSelector, cfg.InnerFrameSelector}
	current := doc
	for i, path := range frames {
		selector := cfg.InnerFrameSelector
		if i < len(selectors) {
			selector = selectors[i]
		}

		body := current.MustBody()
		frame, err := body.QuerySelector(selector)
		if err != nil {
			return nil, err
		}
		if frame == nil {
			return nil, errs.New("%s: no frame matches %q", path, selector)
		}

		next, err := parseFile(path)
		if err != nil {
			return nil, err
		}
		frame.(*memdom.Element).AttachDocument(next)
		current = next
	}

	return doc, nil
}

func parseFile(path string) (*memdom.Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return memdom.Parse(string(b))
}

func dryRun(ctx context.Context, cfg config.Config, page string, frames []string) error {
	log := logging.FromContext(ctx)

	doc, err := loadChain(cfg.Traversal, page, frames)
	if err != nil {
		log.Error("could not load page", logging.Error(err))
		return err
	}

	state := (&autofinish.Session{Config: cfg, Doc: doc}).Run(ctx)
	log.Info("dry run finished",
		logging.Stringer("state", state),
		logging.Int("reloads", doc.Reloads()),
	)
	return nil
}
