package engine

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"time"
)

type FinishReason string

const (
	FinishNone    FinishReason = ""
	FinishManual  FinishReason = "manual"
	FinishLast    FinishReason = "last_group"
	FinishTimeout FinishReason = "timeout"
)

type SubmissionState string

const (
	SubmissionNone      SubmissionState = "none"
	SubmissionPending   SubmissionState = "pending"
	SubmissionSubmitted SubmissionState = "submitted"
	SubmissionFailed    SubmissionState = "failed"
	SubmissionSkipped   SubmissionState = "skipped"
)

const defaultSubmitTimeout = 15 * time.Second

type SubmissionStatus struct {
	State    SubmissionState `json:"state"`
	ResultID uint            `json:"resultId,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// Options wires a session to its collaborators. Only Clock is required to be
// meaningful; a nil Clock means the real clock.
type Options struct {
	Clock            Clock
	Loader           MediaLoader
	Resolver         MediaResolver
	Playback         PlaybackHandle
	Submitter        ResultSubmitter
	Scale            ScaleConverter
	Observer         Observer
	Logger           *log.Logger
	AutoAdvanceDelay time.Duration
	SubmitTimeout    time.Duration
}

type Snapshot struct {
	TestID               uint             `json:"testId"`
	Title                string           `json:"title"`
	CurrentGroupIndex    int              `json:"currentGroupIndex"`
	GroupCount           int              `json:"groupCount"`
	TimeRemainingSeconds int              `json:"timeRemainingSeconds"`
	AudioEnded           bool             `json:"audioEnded"`
	AudioSrc             string           `json:"audioSrc,omitempty"`
	CanAdvance           bool             `json:"canAdvance"`
	PreloadedGroups      []int            `json:"preloadedGroups"`
	AnsweredCount        int              `json:"answeredCount"`
	Completed            bool             `json:"completed"`
	FinishReason         FinishReason     `json:"finishReason,omitempty"`
	ScrollResets         int              `json:"scrollResets"`
	CompletionMinutes    int              `json:"completionTimeInMinutes,omitempty"`
	Score                *ScoreReport     `json:"score,omitempty"`
	Submission           SubmissionStatus `json:"submission"`
}

// Session runs one attempt. Every state transition happens under mu, which
// plays the role of the single execution context: navigation requests,
// timer ticks, media callbacks and auto-advance are applied one at a time.
type Session struct {
	opts Options
	def  TestDefinition

	mu          sync.Mutex
	started     bool
	closed      bool
	completed   bool
	reason      FinishReason
	current     int
	remaining   int
	ledger      *Ledger
	questions   map[uint]Question
	gate        *PlaybackGate
	timer       *CountdownTimer
	preloaded   map[int]bool
	audioFailed map[int]bool
	listened    map[int]bool
	scrolls     int
	minutes     int
	score       *ScoreReport
	submission  SubmissionStatus
	startedAt   time.Time
	cancel      context.CancelFunc
	outbox      []Event

	preloadDone chan struct{}
	submitDone  chan struct{}
}

// NewSession validates the definition and orders its groups by part. The
// session does nothing until Start.
func NewSession(def TestDefinition, opts Options) (*Session, error) {
	if len(def.Groups) == 0 {
		return nil, ErrEmptyTest
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Scale == nil {
		opts.Scale = LinearScale{}
	}
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = defaultSubmitTimeout
	}
	def.Groups = SortGroups(def.Groups)

	s := &Session{
		opts:        opts,
		def:         def,
		ledger:      NewLedger(),
		questions:   make(map[uint]Question),
		preloaded:   make(map[int]bool),
		audioFailed: make(map[int]bool),
		listened:    make(map[int]bool),
		remaining:   Untimed,
		submission:  SubmissionStatus{State: SubmissionNone},
		preloadDone: make(chan struct{}),
		submitDone:  make(chan struct{}),
	}
	for _, g := range def.Groups {
		for _, q := range g.Questions {
			s.questions[q.ID] = q
		}
	}
	s.gate = NewPlaybackGate(opts.Clock, opts.Playback, opts.Resolver, opts.AutoAdvanceDelay, s.advanceRequested, opts.Logger)
	if def.DurationMinutes > 0 {
		s.remaining = def.DurationMinutes * 60
		s.timer = NewCountdownTimer(opts.Clock, s.remaining, s.onTick, s.onExpire)
	}
	return s, nil
}

// Start enters the first group, starts the countdown and launches the
// preloader. Cancelling ctx has the same effect on the preloader as Close.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.startedAt = s.opts.Clock.Now()
	ctx, s.cancel = context.WithCancel(ctx)
	s.enterLocked(0)
	if s.timer != nil {
		s.timer.Start()
	}
	events := s.drainLocked()
	s.mu.Unlock()
	s.dispatch(events)

	if s.opts.Loader == nil {
		close(s.preloadDone)
		return
	}
	pre := NewPreloader(s.opts.Loader, s.opts.Resolver, s.opts.Logger)
	go func() {
		defer close(s.preloadDone)
		pre.Run(ctx, s.def.Groups, s.groupReady)
		s.do(func() error {
			s.emit(Event{Kind: EventPreloadDone})
			return nil
		})
	}()
}

func (s *Session) Groups() []QuestionGroup { return s.def.Groups }

// Next moves forward when the current group allows it. From the last group it
// completes the session instead.
func (s *Session) Next() error {
	return s.do(func() error {
		if err := s.activeLocked(); err != nil {
			return err
		}
		if !s.canAdvanceLocked() {
			return ErrGated
		}
		if s.current == len(s.def.Groups)-1 {
			s.finishLocked(FinishLast)
			return nil
		}
		s.enterLocked(s.current + 1)
		return nil
	})
}

// Previous is never gated.
func (s *Session) Previous() error {
	return s.do(func() error {
		if err := s.activeLocked(); err != nil {
			return err
		}
		if s.current == 0 {
			return ErrAtFirstGroup
		}
		s.enterLocked(s.current - 1)
		return nil
	})
}

func (s *Session) SelectAnswer(questionID uint, optionKey string) error {
	return s.do(func() error {
		if err := s.activeLocked(); err != nil {
			return err
		}
		q, ok := s.questions[questionID]
		if !ok {
			return ErrUnknownQuestion
		}
		key := NormalizeKey(optionKey)
		if key == "" || (len(q.Options) > 0 && !q.HasOption(key)) {
			return ErrInvalidOption
		}
		return s.ledger.Record(questionID, key)
	})
}

func (s *Session) FinishNow() error {
	return s.do(func() error {
		if err := s.activeLocked(); err != nil {
			return err
		}
		s.finishLocked(FinishManual)
		return nil
	})
}

// AudioEnded is the native end-of-playback signal for groupIndex.
func (s *Session) AudioEnded(groupIndex int) error {
	return s.do(func() error {
		if err := s.activeLocked(); err != nil {
			return err
		}
		if err := s.playableLocked(groupIndex); err != nil {
			return err
		}
		hasNext := groupIndex < len(s.def.Groups)-1
		if err := s.gate.Ended(groupIndex, hasNext); err != nil {
			return err
		}
		s.listened[groupIndex] = true
		s.emit(Event{Kind: EventAudioEnded, GroupIndex: groupIndex})
		return nil
	})
}

// AutoplayDenied releases the audio gate without scheduling an advance.
func (s *Session) AutoplayDenied(groupIndex int) error {
	return s.do(func() error {
		if err := s.activeLocked(); err != nil {
			return err
		}
		if err := s.playableLocked(groupIndex); err != nil {
			return err
		}
		if err := s.gate.Denied(groupIndex); err != nil {
			return err
		}
		s.listened[groupIndex] = true
		s.emit(Event{Kind: EventAudioEnded, GroupIndex: groupIndex})
		return nil
	})
}

// Close tears the session down without completing it. Timers are cancelled
// and late preloader callbacks are dropped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gate.Shutdown()
	s.outbox = nil
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	ready := make([]int, 0, len(s.preloaded))
	for i := range s.preloaded {
		ready = append(ready, i)
	}
	sort.Ints(ready)

	snap := Snapshot{
		TestID:               s.def.TestID,
		Title:                s.def.Title,
		CurrentGroupIndex:    s.current,
		GroupCount:           len(s.def.Groups),
		TimeRemainingSeconds: s.remaining,
		AudioEnded:           s.gate.AudioEnded(),
		AudioSrc:             s.gate.Source(),
		CanAdvance:           !s.closed && !s.completed && s.canAdvanceLocked(),
		PreloadedGroups:      ready,
		AnsweredCount:        s.ledger.Len(),
		Completed:            s.completed,
		FinishReason:         s.reason,
		ScrollResets:         s.scrolls,
		CompletionMinutes:    s.minutes,
		Submission:           s.submission,
	}
	if s.score != nil {
		score := *s.score
		snap.Score = &score
	}
	return snap
}

// CurrentGroup returns the index and content of the group being shown.
func (s *Session) CurrentGroup() (int, QuestionGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.def.Groups[s.current]
}

func (s *Session) Answers() map[uint]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Snapshot()
}

// Score returns the report computed at completion.
func (s *Session) Score() (ScoreReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.score == nil {
		return ScoreReport{}, ErrNotCompleted
	}
	return *s.score, nil
}

// PreloadDone is closed once the preloader has processed every group or
// stopped because the session was closed.
func (s *Session) PreloadDone() <-chan struct{} { return s.preloadDone }

// SubmissionDone is closed once the result submission has settled.
func (s *Session) SubmissionDone() <-chan struct{} { return s.submitDone }

func (s *Session) activeLocked() error {
	if s.closed {
		return ErrClosed
	}
	if s.completed {
		return ErrCompleted
	}
	return nil
}

// playableLocked accepts audio signals only for the current group, and only
// when that group actually has audio that could have played.
func (s *Session) playableLocked(index int) error {
	if index != s.current {
		return ErrStaleEvent
	}
	g := s.def.Groups[index]
	if !g.IsListening() || !g.HasAudio() || s.audioFailed[index] {
		return ErrNoAudio
	}
	return nil
}

// canAdvanceLocked evaluates the gating rule for the current group. Audio
// gating is satisfied once the group's audio has ended at any point in the
// attempt, so a revisited listening group can be left without listening
// again.
func (s *Session) canAdvanceLocked() bool {
	g := s.def.Groups[s.current]
	if g.IsListening() {
		if !g.HasAudio() || s.audioFailed[s.current] || s.listened[s.current] {
			return true
		}
		return s.gate.AudioEnded()
	}
	return s.ledger.AllAnswered(g)
}

func (s *Session) enterLocked(index int) {
	s.current = index
	s.scrolls++
	s.gate.Enter(index, s.def.Groups[index], s.audioFailed[index])
	s.emit(Event{Kind: EventGroupChanged, GroupIndex: index})
	s.emit(Event{Kind: EventScrollToTop, GroupIndex: index})
}

func (s *Session) finishLocked(reason FinishReason) {
	if s.completed {
		return
	}
	s.completed = true
	s.reason = reason
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gate.Shutdown()
	s.minutes = s.completionMinutesLocked()

	report := ScoreWith(s.def.Groups, s.ledger.Snapshot(), s.opts.Scale)
	s.score = &report
	s.emit(Event{Kind: EventCompleted, GroupIndex: s.current, Reason: reason})

	if s.opts.Submitter == nil {
		s.submission = SubmissionStatus{State: SubmissionSkipped}
		close(s.submitDone)
		return
	}
	s.submission = SubmissionStatus{State: SubmissionPending}
	result := SessionResult{
		TestID:                  s.def.TestID,
		CompletionTimeInMinutes: s.minutes,
		UserAnswers:             s.ledger.Entries(),
	}
	go s.submit(result)
}

// completionMinutesLocked rounds the elapsed time up to whole minutes, with
// a minimum of one.
func (s *Session) completionMinutesLocked() int {
	elapsed := s.opts.Clock.Now().Sub(s.startedAt)
	minutes := int(math.Ceil(elapsed.Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

func (s *Session) submit(result SessionResult) {
	defer close(s.submitDone)

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.SubmitTimeout)
	defer cancel()
	receipt, err := s.opts.Submitter.Submit(ctx, result)

	s.do(func() error {
		if err != nil {
			s.submission = SubmissionStatus{State: SubmissionFailed, Message: err.Error()}
			s.logf("submit result test=%d: %v", result.TestID, err)
			s.emit(Event{Kind: EventSubmissionFailed, Err: fmt.Errorf("submit result: %w", err)})
			return nil
		}
		s.submission = SubmissionStatus{State: SubmissionSubmitted, ResultID: receipt.ResultID}
		s.emit(Event{Kind: EventSubmitted})
		return nil
	})
}

func (s *Session) onTick(remaining int) {
	s.do(func() error {
		if s.closed || s.completed {
			return nil
		}
		s.remaining = remaining
		s.emit(Event{Kind: EventTick, Remaining: remaining})
		return nil
	})
}

func (s *Session) onExpire() {
	s.do(func() error {
		if s.closed {
			return nil
		}
		s.remaining = 0
		s.finishLocked(FinishTimeout)
		return nil
	})
}

// advanceRequested runs when the grace period after a group's audio ends.
// It is dropped if the user has moved on or the session is over.
func (s *Session) advanceRequested(fromGroup int) {
	s.do(func() error {
		if s.gate.group == fromGroup {
			s.gate.clearGrace()
		}
		if s.closed || s.completed || s.current != fromGroup {
			return nil
		}
		if fromGroup >= len(s.def.Groups)-1 || !s.canAdvanceLocked() {
			return nil
		}
		s.enterLocked(fromGroup + 1)
		return nil
	})
}

func (s *Session) groupReady(r GroupReady) {
	s.do(func() error {
		if s.closed || s.preloaded[r.Index] {
			return nil
		}
		s.preloaded[r.Index] = true
		if r.AudioFailed {
			s.audioFailed[r.Index] = true
			if r.Index == s.current && !s.completed {
				s.gate.release(r.Index)
			}
		}
		s.emit(Event{Kind: EventGroupReady, GroupIndex: r.Index})
		return nil
	})
}

// do runs fn under the session lock and dispatches the events it queued
// after the lock is released.
func (s *Session) do(fn func() error) error {
	s.mu.Lock()
	err := fn()
	events := s.drainLocked()
	s.mu.Unlock()
	s.dispatch(events)
	return err
}

func (s *Session) emit(e Event) {
	if s.opts.Observer != nil && !s.closed {
		s.outbox = append(s.outbox, e)
	}
}

func (s *Session) drainLocked() []Event {
	events := s.outbox
	s.outbox = nil
	return events
}

func (s *Session) dispatch(events []Event) {
	for _, e := range events {
		s.opts.Observer.OnEvent(e)
	}
}

func (s *Session) logf(format string, args ...interface{}) {
	if s.opts.Logger != nil {
		s.opts.Logger.Printf(format, args...)
	}
}
