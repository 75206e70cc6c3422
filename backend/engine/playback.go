package engine

import (
	"errors"
	"log"
	"time"
)

// DefaultAutoAdvanceDelay is the grace period between the end of a listening
// group's audio and the automatic move to the next group.
const DefaultAutoAdvanceDelay = 2 * time.Second

// PlaybackHandle is the audio element of one session. It is passed to the
// session that owns it and never shared.
type PlaybackHandle interface {
	Load(src string) error
	// Play returns ErrAutoplayDenied when the runtime refuses to start
	// playback without a user gesture.
	Play() error
	Stop()
}

// PlaybackGate binds the handle to the current group and turns the end of
// playback into the audioEnded flag plus a delayed advance request. It is
// driven by its Session and relies on the session lock.
type PlaybackGate struct {
	clock     Clock
	handle    PlaybackHandle
	resolver  MediaResolver
	delay     time.Duration
	onAdvance func(fromGroup int)
	logger    *log.Logger

	group      int
	src        string
	audioEnded bool
	grace      Timer
}

func NewPlaybackGate(clock Clock, handle PlaybackHandle, resolver MediaResolver, delay time.Duration, onAdvance func(int), logger *log.Logger) *PlaybackGate {
	if delay <= 0 {
		delay = DefaultAutoAdvanceDelay
	}
	return &PlaybackGate{
		clock:     clock,
		handle:    handle,
		resolver:  resolver,
		delay:     delay,
		onAdvance: onAdvance,
		logger:    logger,
		group:     -1,
	}
}

// Enter points the gate at a newly current group. Any pending advance from
// the previous group is cancelled. When there is nothing to wait for, or
// playback cannot start, audioEnded is set right away.
func (g *PlaybackGate) Enter(index int, group QuestionGroup, audioUnavailable bool) {
	g.cancelGrace()
	g.group = index
	g.audioEnded = false
	g.src = ""

	if !group.IsListening() || !group.HasAudio() || audioUnavailable {
		if g.handle != nil {
			g.handle.Stop()
		}
		g.audioEnded = true
		return
	}

	g.src = group.AudioURL
	if g.resolver != nil {
		g.src = g.resolver.Resolve(group.AudioURL)
	}
	if g.handle == nil {
		g.audioEnded = true
		return
	}
	if err := g.handle.Load(g.src); err != nil {
		g.logf("load audio group=%d src=%s: %v", index, g.src, err)
		g.audioEnded = true
		return
	}
	if err := g.handle.Play(); err != nil {
		if errors.Is(err, ErrAutoplayDenied) {
			g.logf("autoplay denied group=%d", index)
		} else {
			g.logf("play audio group=%d: %v", index, err)
		}
		g.audioEnded = true
	}
}

// Ended handles the native end-of-playback signal for the given group.
// A grace timer is armed only when a next group exists.
func (g *PlaybackGate) Ended(index int, hasNext bool) error {
	if index != g.group {
		return ErrStaleEvent
	}
	g.audioEnded = true
	g.cancelGrace()
	if hasNext && g.onAdvance != nil {
		g.grace = g.clock.AfterFunc(g.delay, func() { g.onAdvance(index) })
	}
	return nil
}

// Denied records that playback was refused. The user is never left waiting
// on audio that will not play, but nothing advances automatically.
func (g *PlaybackGate) Denied(index int) error {
	if index != g.group {
		return ErrStaleEvent
	}
	g.audioEnded = true
	return nil
}

func (g *PlaybackGate) AudioEnded() bool { return g.audioEnded }

// release opens the gate for a group whose audio turned out to be
// unavailable after the group was entered.
func (g *PlaybackGate) release(index int) {
	if index == g.group {
		g.audioEnded = true
	}
}

// Source is the resolved audio URL of the current group, empty when the
// group has nothing to play.
func (g *PlaybackGate) Source() string { return g.src }

func (g *PlaybackGate) advancePending() bool { return g.grace != nil }

// Shutdown cancels the grace timer and stops the handle.
func (g *PlaybackGate) Shutdown() {
	g.cancelGrace()
	if g.handle != nil {
		g.handle.Stop()
	}
	g.src = ""
}

func (g *PlaybackGate) clearGrace() { g.grace = nil }

func (g *PlaybackGate) cancelGrace() {
	if g.grace != nil {
		g.grace.Stop()
		g.grace = nil
	}
}

func (g *PlaybackGate) logf(format string, args ...interface{}) {
	if g.logger != nil {
		g.logger.Printf(format, args...)
	}
}
