package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

var epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func opts(keys ...string) []Option {
	out := make([]Option, 0, len(keys))
	for _, k := range keys {
		out = append(out, Option{Key: k, Text: "option " + k})
	}
	return out
}

func question(id uint, correct string) Question {
	return Question{ID: id, Prompt: "question", Options: opts("A", "B", "C", "D"), CorrectAnswer: correct}
}

func listening(part int, audio string, qs ...Question) QuestionGroup {
	return QuestionGroup{Part: part, AudioURL: audio, Questions: qs}
}

func reading(part int, qs ...Question) QuestionGroup {
	return QuestionGroup{Part: part, Passage: "passage", Questions: qs}
}

type fakePlayback struct {
	mu      sync.Mutex
	loaded  []string
	plays   int
	stops   int
	playErr error
	loadErr error
}

func (p *fakePlayback) Load(src string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return p.loadErr
	}
	p.loaded = append(p.loaded, src)
	return nil
}

func (p *fakePlayback) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plays++
	return p.playErr
}

func (p *fakePlayback) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
}

func (p *fakePlayback) Loaded() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.loaded...)
}

type fakeLoader struct {
	mu     sync.Mutex
	fail   map[string]bool
	log    []string
	block  map[string]chan struct{}
	loaded []string
}

func (l *fakeLoader) Load(_ context.Context, url string) error {
	l.mu.Lock()
	l.log = append(l.log, "start "+url)
	wait := l.block[url]
	l.mu.Unlock()

	if wait != nil {
		<-wait
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.log = append(l.log, "end "+url)
	l.loaded = append(l.loaded, url)
	if l.fail[url] {
		return errors.New("network error")
	}
	return nil
}

func (l *fakeLoader) Log() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.log...)
}

type fakeSubmitter struct {
	mu     sync.Mutex
	got    []SessionResult
	err    error
	result uint
}

func (f *fakeSubmitter) Submit(_ context.Context, r SessionResult) (SubmitReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, r)
	if f.err != nil {
		return SubmitReceipt{}, f.err
	}
	return SubmitReceipt{ResultID: f.result}, nil
}

func (f *fakeSubmitter) Results() []SessionResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SessionResult(nil), f.got...)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) OnEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) Kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

func (r *eventRecorder) Has(kind EventKind) bool {
	for _, k := range r.Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

func waitClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for channel")
	}
}
