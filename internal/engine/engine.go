// Package engine drives the questionnaire wizard: visibility, navigation,
// progress, debounced auto-advance and submission.
//
// Visibility is never cached. Every query re-evaluates the steps' rules
// against the current answers, so changing an early answer is reflected by
// the next call.
package engine

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mrsinham/oeukintake/internal/questionnaire"
)

// DefaultAutoAdvanceDelay leaves the selection highlighted briefly before moving on.
const DefaultAutoAdvanceDelay = 300 * time.Millisecond

// User-facing submission errors.
const (
	MsgSubmitFailed      = "Error submitting form. Please try again."
	MsgConnectionFailure = "Error connecting to server. Please try again."
)

var (
	// ErrTransport marks submission errors where the server was never reached.
	ErrTransport = errors.New("submission transport failure")
	// ErrSubmitInFlight is returned when a submission is already running.
	ErrSubmitInFlight = errors.New("submission already in flight")
	// ErrAlreadySubmitted is returned after a successful submission until Reset.
	ErrAlreadySubmitted = errors.New("questionnaire already submitted")
)

// Submission is the frozen payload handed to a Submitter.
type Submission struct {
	// Key identifies the attempt. Retries of unchanged answers reuse it.
	Key     string
	Answers questionnaire.Answers
}

// Receipt is a successful submission response.
type Receipt struct {
	ID      int64
	Message string
}

// Submitter delivers a completed questionnaire.
type Submitter interface {
	Submit(ctx context.Context, s Submission) (Receipt, error)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, s Submission) (Receipt, error)

func (f SubmitterFunc) Submit(ctx context.Context, s Submission) (Receipt, error) {
	return f(ctx, s)
}

// Engine is safe for concurrent use. Its state only changes through the
// exported methods and the auto-advance timer.
type Engine struct {
	mu sync.Mutex

	steps     []questionnaire.Step
	initial   questionnaire.Answers
	numeric   map[string]bool
	submitter Submitter
	delay     time.Duration
	sched     Scheduler
	listener  func(Event)
	logger    zerolog.Logger
	baseCtx   context.Context
	newKey    func() string

	current   int
	answers   questionnaire.Answers
	version   uint64
	submitted bool
	lastError string
	receipt   Receipt

	pending Timer
	gen     uint64

	inFlight   bool
	epoch      uint64
	key        string
	keyVersion uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithAutoAdvanceDelay overrides DefaultAutoAdvanceDelay.
func WithAutoAdvanceDelay(d time.Duration) Option {
	return func(e *Engine) { e.delay = d }
}

// WithScheduler replaces the time.AfterFunc based scheduler.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.sched = s }
}

// WithListener registers a callback run after every state change. It is
// called without the engine lock held and may call back into the engine.
func WithListener(fn func(Event)) Option {
	return func(e *Engine) { e.listener = fn }
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithContext sets the context used by submissions the timer triggers.
func WithContext(ctx context.Context) Option {
	return func(e *Engine) { e.baseCtx = ctx }
}

// WithKeyFunc overrides the idempotency key generator.
func WithKeyFunc(fn func() string) Option {
	return func(e *Engine) { e.newKey = fn }
}

// New creates an engine positioned on the first step with empty answers.
func New(cat *questionnaire.Catalog, sub Submitter, opts ...Option) *Engine {
	e := &Engine{
		steps:     cat.Steps,
		initial:   cat.Defaults(),
		numeric:   make(map[string]bool),
		submitter: sub,
		delay:     DefaultAutoAdvanceDelay,
		sched:     realScheduler{},
		logger:    zerolog.Nop(),
		baseCtx:   context.Background(),
		newKey:    newULID,
	}
	for _, s := range cat.Steps {
		if s.Type == questionnaire.TypeNumber {
			e.numeric[s.Field] = true
		}
	}
	for _, opt := range opts {
		opt(e)
	}
	e.answers = e.initial.Clone()
	return e
}

func newULID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(rand.Reader, 0)).String()
}

// VisibleCount returns the number of steps visible for the current answers.
func (e *Engine) VisibleCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visibleCountLocked()
}

func (e *Engine) visibleCountLocked() int {
	n := 0
	for _, s := range e.steps {
		if s.Visible(e.answers) {
			n++
		}
	}
	return n
}

// CurrentVisibleRank is the 1-based position of the current step among the
// visible steps.
func (e *Engine) CurrentVisibleRank() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rankLocked()
}

func (e *Engine) rankLocked() int {
	n := 0
	for i := 0; i <= e.current && i < len(e.steps); i++ {
		if e.steps[i].Visible(e.answers) {
			n++
		}
	}
	return n
}

// Progress returns rank/total as a percentage.
func (e *Engine) Progress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := e.visibleCountLocked()
	if total == 0 {
		return 0
	}
	return float64(e.rankLocked()) / float64(total) * 100
}

// ProgressLabel renders "rank → total | SECTION: ID".
func (e *Engine) ProgressLabel() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	step := e.steps[e.current]
	upper := cases.Upper(language.Und)
	return fmt.Sprintf("%d → %d | %s: %s", e.rankLocked(), e.visibleCountLocked(),
		upper.String(step.Section), upper.String(step.ID))
}

// NextVisibleIndex returns the first visible step after from. ok is false
// when from is the last visible step.
func (e *Engine) NextVisibleIndex(from int) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nextLocked(from)
}

func (e *Engine) nextLocked(from int) (int, bool) {
	for i := max(from+1, 0); i < len(e.steps); i++ {
		if e.steps[i].Visible(e.answers) {
			return i, true
		}
	}
	return -1, false
}

// PreviousVisibleIndex returns the last visible step before from.
func (e *Engine) PreviousVisibleIndex(from int) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.previousLocked(from)
}

func (e *Engine) previousLocked(from int) (int, bool) {
	for i := min(from-1, len(e.steps)-1); i >= 0; i-- {
		if e.steps[i].Visible(e.answers) {
			return i, true
		}
	}
	return -1, false
}

// CanAdvance is false only when the current step is required and one of its
// fields is empty.
func (e *Engine) CanAdvance() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canAdvanceLocked()
}

func (e *Engine) canAdvanceLocked() bool {
	step := e.steps[e.current]
	if !step.Required {
		return true
	}
	for _, key := range step.Keys() {
		if e.answers.IsEmpty(key) {
			return false
		}
	}
	return true
}

// SetField stores value for field. Number fields keep digits only. Any
// pending auto-advance is cancelled; when autoAdvance is set a new one is
// scheduled, so the last change within the delay wins.
func (e *Engine) SetField(field string, value any, autoAdvance bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s, ok := value.(string); ok && e.numeric[field] {
		value = questionnaire.FilterDigits(s)
	}
	e.answers = e.answers.With(field, value)
	e.version++
	e.cancelPendingLocked()

	if autoAdvance {
		gen, at := e.gen, e.current
		e.pending = e.sched.AfterFunc(e.delay, func() { e.fireAutoAdvance(gen, at) })
		e.logger.Debug().Str("field", field).Int("step", at).Msg("auto-advance scheduled")
	}
}

// ToggleCheckbox flips a boolean field.
func (e *Engine) ToggleCheckbox(field string) {
	e.mu.Lock()
	v := !e.answers.Bool(field)
	e.mu.Unlock()
	e.SetField(field, v, false)
}

// cancelPendingLocked stops the pending timer and invalidates any callback
// that already fired and is waiting for the lock.
func (e *Engine) cancelPendingLocked() {
	if e.pending != nil {
		e.pending.Stop()
		e.pending = nil
	}
	e.gen++
}

func (e *Engine) fireAutoAdvance(gen uint64, at int) {
	e.mu.Lock()
	if gen != e.gen || at != e.current || e.submitted || e.inFlight {
		e.mu.Unlock()
		e.logger.Debug().Int("step", at).Msg("stale auto-advance ignored")
		return
	}
	e.pending = nil
	if !e.canAdvanceLocked() {
		e.mu.Unlock()
		return
	}
	next, ok := e.nextLocked(e.current)
	if ok {
		ev := e.moveLocked(next, true)
		e.mu.Unlock()
		e.emit(ev)
		return
	}
	e.mu.Unlock()
	_ = e.Submit(e.baseCtx)
}

// Advance moves to the next visible step, or submits from the last one.
// It reports whether anything happened.
func (e *Engine) Advance(ctx context.Context) bool {
	e.mu.Lock()
	if e.submitted || e.inFlight || !e.canAdvanceLocked() {
		e.mu.Unlock()
		return false
	}
	e.cancelPendingLocked()
	next, ok := e.nextLocked(e.current)
	if ok {
		ev := e.moveLocked(next, false)
		e.mu.Unlock()
		e.emit(ev)
		return true
	}
	e.mu.Unlock()

	err := e.Submit(ctx)
	return !errors.Is(err, ErrSubmitInFlight) && !errors.Is(err, ErrAlreadySubmitted)
}

// Retreat moves to the previous visible step. It is a no-op on the first one.
func (e *Engine) Retreat() bool {
	e.mu.Lock()
	if e.submitted || e.inFlight {
		e.mu.Unlock()
		return false
	}
	prev, ok := e.previousLocked(e.current)
	if !ok {
		e.mu.Unlock()
		return false
	}
	e.cancelPendingLocked()
	ev := e.moveLocked(prev, false)
	e.mu.Unlock()
	e.emit(ev)
	return true
}

func (e *Engine) moveLocked(to int, auto bool) Event {
	from := e.current
	e.current = to
	e.logger.Debug().Int("from", from).Int("to", to).Bool("auto", auto).Msg("navigate")
	return Event{Kind: EventNavigated, From: from, To: to, Auto: auto}
}

// Submit sends a frozen copy of the answers. Only one submission runs at a
// time. On failure the answers and position are kept and LastError is set.
func (e *Engine) Submit(ctx context.Context) error {
	e.mu.Lock()
	if e.submitted {
		e.mu.Unlock()
		return ErrAlreadySubmitted
	}
	if e.inFlight {
		e.mu.Unlock()
		return ErrSubmitInFlight
	}
	e.cancelPendingLocked()
	e.inFlight = true
	e.lastError = ""
	if e.key == "" || e.keyVersion != e.version {
		e.key = e.newKey()
		e.keyVersion = e.version
	}
	sub := Submission{Key: e.key, Answers: e.answers.Clone()}
	epoch := e.epoch
	e.mu.Unlock()

	e.emit(Event{Kind: EventSubmitting})
	receipt, err := e.submitter.Submit(ctx, sub)

	e.mu.Lock()
	e.inFlight = false
	if epoch != e.epoch {
		e.mu.Unlock()
		e.logger.Info().Str("key", sub.Key).Msg("submission finished after reset, result dropped")
		return err
	}
	if err != nil {
		e.lastError = messageFor(err)
		e.mu.Unlock()
		e.logger.Warn().Err(err).Str("key", sub.Key).Msg("submission failed")
		e.emit(Event{Kind: EventSubmitFailed, Err: err})
		return err
	}
	e.submitted = true
	e.receipt = receipt
	e.mu.Unlock()

	e.logger.Info().Int64("id", receipt.ID).Str("key", sub.Key).Msg("questionnaire submitted")
	e.emit(Event{Kind: EventSubmitted, Receipt: receipt})
	return nil
}

func messageFor(err error) string {
	if errors.Is(err, ErrTransport) {
		return MsgConnectionFailure
	}
	return MsgSubmitFailed
}

// Reset restores the initial answers and the first step. A submission still
// in flight completes but its result is discarded.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.cancelPendingLocked()
	e.answers = e.initial.Clone()
	e.version++
	e.current = 0
	e.submitted = false
	e.lastError = ""
	e.receipt = Receipt{}
	e.key = ""
	e.epoch++
	e.mu.Unlock()
	e.emit(Event{Kind: EventReset})
}

// Close cancels any pending auto-advance.
func (e *Engine) Close() {
	e.mu.Lock()
	e.cancelPendingLocked()
	e.mu.Unlock()
}

func (e *Engine) emit(ev Event) {
	if e.listener != nil {
		e.listener(ev)
	}
}

// Current returns the step at the current position.
func (e *Engine) Current() questionnaire.Step {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.steps[e.current]
}

func (e *Engine) CurrentIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Answers returns a copy of the current answers.
func (e *Engine) Answers() questionnaire.Answers {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.answers.Clone()
}

func (e *Engine) Value(field string) any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.answers[field]
}

func (e *Engine) Submitted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitted
}

func (e *Engine) Submitting() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inFlight
}

// LastError is the message of the last failed submission, or "".
func (e *Engine) LastError() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastError
}

func (e *Engine) Receipt() Receipt {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.receipt
}

// IsLastVisible reports whether advancing from here submits.
func (e *Engine) IsLastVisible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.nextLocked(e.current)
	return !ok
}

// AutoAdvancePending reports whether an auto-advance is scheduled.
func (e *Engine) AutoAdvancePending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending != nil
}
