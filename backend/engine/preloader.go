package engine

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"
)

// MediaLoader fetches one asset so that later playback or display hits a
// warm cache.
type MediaLoader interface {
	Load(ctx context.Context, url string) error
}

type GroupReady struct {
	Index       int
	AudioFailed bool
	ImageFailed bool
}

// Preloader warms group media strictly in test order. The image and audio of
// one group load together; the next group starts only after both settle.
type Preloader struct {
	loader   MediaLoader
	resolver MediaResolver
	logger   *log.Logger
}

func NewPreloader(loader MediaLoader, resolver MediaResolver, logger *log.Logger) *Preloader {
	return &Preloader{loader: loader, resolver: resolver, logger: logger}
}

// Run marks every group ready exactly once, failed loads included. It stops
// starting new groups once ctx is cancelled, but loads already in flight are
// left to finish on their own.
func (p *Preloader) Run(ctx context.Context, groups []QuestionGroup, onReady func(GroupReady)) {
	for i, g := range groups {
		if ctx.Err() != nil {
			return
		}
		ready := p.loadGroup(context.WithoutCancel(ctx), i, g)
		if ctx.Err() != nil {
			return
		}
		if onReady != nil {
			onReady(ready)
		}
	}
}

func (p *Preloader) loadGroup(ctx context.Context, index int, g QuestionGroup) GroupReady {
	ready := GroupReady{Index: index}
	var eg errgroup.Group

	if g.ImageURL != "" {
		eg.Go(func() error {
			if err := p.load(ctx, g.ImageURL); err != nil {
				p.logf("preload image group=%d src=%s: %v", index, g.ImageURL, err)
				ready.ImageFailed = true
			}
			return nil
		})
	}
	if g.AudioURL != "" {
		eg.Go(func() error {
			if err := p.load(ctx, g.AudioURL); err != nil {
				p.logf("preload audio group=%d src=%s: %v", index, g.AudioURL, err)
				ready.AudioFailed = true
			}
			return nil
		})
	}
	_ = eg.Wait()
	return ready
}

func (p *Preloader) load(ctx context.Context, raw string) error {
	url := raw
	if p.resolver != nil {
		url = p.resolver.Resolve(raw)
	}
	return p.loader.Load(ctx, url)
}

func (p *Preloader) logf(format string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Printf(format, args...)
	}
}
