package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mrsinham/oeukintake/internal/questionnaire"
)

// manualScheduler records timers and fires them only when told to.
type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	mu      sync.Mutex
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (s *manualScheduler) AfterFunc(_ time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{f: f}
	s.timers = append(s.timers, t)
	return t
}

// FireActive runs every timer that was neither stopped nor fired.
func (s *manualScheduler) FireActive() int {
	n := 0
	for _, t := range s.snapshot() {
		t.mu.Lock()
		run := !t.stopped && !t.fired
		t.fired = t.fired || run
		t.mu.Unlock()
		if run {
			t.f()
			n++
		}
	}
	return n
}

// FireAll also runs stopped timers, as if each fired just before Stop.
func (s *manualScheduler) FireAll() {
	for _, t := range s.snapshot() {
		t.mu.Lock()
		t.fired = true
		t.mu.Unlock()
		t.f()
	}
}

func (s *manualScheduler) Active() int {
	n := 0
	for _, t := range s.snapshot() {
		t.mu.Lock()
		if !t.stopped && !t.fired {
			n++
		}
		t.mu.Unlock()
	}
	return n
}

func (s *manualScheduler) snapshot() []*manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*manualTimer, len(s.timers))
	copy(out, s.timers)
	return out
}

// fakeSubmitter records submissions and answers with a canned result.
type fakeSubmitter struct {
	mu      sync.Mutex
	calls   []Submission
	receipt Receipt
	err     error
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeSubmitter) Submit(ctx context.Context, s Submission) (Receipt, error) {
	f.mu.Lock()
	f.calls = append(f.calls, s)
	block, entered := f.block, f.entered
	receipt, err := f.receipt, f.err
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return Receipt{}, ctx.Err()
		}
	}
	return receipt, err
}

func (f *fakeSubmitter) Calls() []Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Submission, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeSubmitter) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// eventLog collects listener events.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) record(ev Event) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) count(kind EventKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, ev := range l.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func (l *eventLog) last(kind EventKind) (Event, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.events) - 1; i >= 0; i-- {
		if l.events[i].Kind == kind {
			return l.events[i], true
		}
	}
	return Event{}, false
}

// offshoreCatalog is a small questionnaire with one conditional branch:
//
//	0 surname (required text)
//	1 works_offshore (yesno)
//	2 rig_name (text, only when works_offshore == Yes)
//	3 shift (radio)
//	4 cigarettes (number)
//	5 notes (textarea)
func offshoreCatalog(t *testing.T) *questionnaire.Catalog {
	t.Helper()
	c, err := questionnaire.NewCatalog(
		questionnaire.Step{ID: "surname", Section: "Background", Field: "surname",
			Type: questionnaire.TypeText, Question: "Surname?", Required: true},
		questionnaire.Step{ID: "offshore", Section: "Job", Field: "works_offshore",
			Type: questionnaire.TypeYesNo, Question: "Offshore?"},
		questionnaire.Step{ID: "rig", Section: "Job", Field: "rig_name",
			Type: questionnaire.TypeText, Question: "Rig?",
			ShowIf: questionnaire.Equals("works_offshore", "Yes")},
		questionnaire.Step{ID: "shift", Section: "Job", Field: "shift",
			Type: questionnaire.TypeRadio, Question: "Shift?", Options: []string{"14/14", "21/21"}},
		questionnaire.Step{ID: "cigarettes", Section: "Habits", Field: "cigarettes",
			Type: questionnaire.TypeNumber, Question: "Per day?"},
		questionnaire.Step{ID: "notes", Section: "Habits", Field: "notes",
			Type: questionnaire.TypeTextarea, Question: "Anything else?"},
	)
	require.NoError(t, err)
	return c
}

type harness struct {
	eng   *Engine
	sched *manualScheduler
	sub   *fakeSubmitter
	log   *eventLog
}

func newHarness(t *testing.T, cat *questionnaire.Catalog) *harness {
	t.Helper()
	h := &harness{
		sched: &manualScheduler{},
		sub:   &fakeSubmitter{receipt: Receipt{ID: 42, Message: "Medical record saved successfully"}},
		log:   &eventLog{},
	}
	h.eng = New(cat, h.sub,
		WithScheduler(h.sched),
		WithListener(h.log.record),
	)
	t.Cleanup(h.eng.Close)
	return h
}

// walkToEnd fills the surname and advances until the last visible step.
func (h *harness) walkToEnd(t *testing.T) {
	t.Helper()
	h.eng.SetField("surname", "Smith", false)
	for !h.eng.IsLastVisible() {
		require.True(t, h.eng.Advance(context.Background()), "advance from step %d", h.eng.CurrentIndex())
	}
}
