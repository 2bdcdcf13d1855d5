// Package session runs the single-writer mood engine. One goroutine owns the
// fuser, ledger, crisis state, schedulers, pet and transcript. Every input is
// a handler that runs to completion on that goroutine.
package session

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/sweeney/moodfuse/internal/chat"
	"github.com/sweeney/moodfuse/internal/log"
	"github.com/sweeney/moodfuse/internal/logic"
	"github.com/sweeney/moodfuse/internal/mqtt"
	"github.com/sweeney/moodfuse/internal/status"
)

// Errors returned by engine operations.
var (
	ErrStopped      = errors.New("session: engine stopped")
	ErrEmptyMessage = errors.New("session: empty message")
)

// ChatClient sends a user message to the conversational backend.
// *chat.Client satisfies it.
type ChatClient interface {
	Send(ctx context.Context, req chat.Request) (chat.Response, error)
}

// Options configures an Engine. Zero durations take the logic defaults.
type Options struct {
	SessionID string
	UserName  string
	Fusion    logic.FusionConfig

	Tick          time.Duration
	DecayInterval time.Duration
	NudgeDelay    time.Duration
	FollowUpDelay time.Duration
	Heartbeat     time.Duration // zero disables HEARTBEAT events

	Chat      ChatClient // nil disables the backend; triage still runs
	Publisher mqtt.Publisher
	Tracker   *status.Tracker

	// Now and Ticks replace the wall clock in tests.
	Now   func() time.Time
	Ticks <-chan time.Time
}

// Engine is the session's single writer.
type Engine struct {
	opts    Options
	cmds    chan func(now time.Time)
	done    chan struct{}
	entropy io.Reader

	// Owned by the Run goroutine.
	runCtx     context.Context
	fuser      *logic.Fuser
	ledger     *logic.Ledger
	trend      logic.Trend
	crisis     logic.CrisisState
	nudge      *logic.NudgeScheduler
	followUp   logic.ScheduledTask
	pet        *logic.Pet
	transcript logic.Transcript
	counts     logic.EventCounts
	disabled   map[logic.Modality]string
	attached   map[logic.Modality]int
	lastDecay  time.Time
	lastBeat   time.Time

	chatSeq    uint64
	chatCancel context.CancelFunc
	chatWG     sync.WaitGroup
}

// New creates an engine. Call Run to start it.
func New(opts Options) *Engine {
	if opts.SessionID == "" {
		opts.SessionID = uuid.New().String()
	}
	if opts.UserName == "" {
		opts.UserName = "Friend"
	}
	if opts.Fusion.Window == 0 {
		opts.Fusion = logic.DefaultFusionConfig()
	}
	if opts.Tick <= 0 {
		opts.Tick = time.Second
	}
	if opts.DecayInterval <= 0 {
		opts.DecayInterval = logic.DefaultDecayInterval
	}
	if opts.NudgeDelay <= 0 {
		opts.NudgeDelay = logic.DefaultNudgeDelay
	}
	if opts.FollowUpDelay <= 0 {
		opts.FollowUpDelay = logic.DefaultFollowUpDelay
	}
	if opts.Publisher == nil {
		opts.Publisher = mqtt.NopPublisher{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Tracker == nil {
		opts.Tracker = status.NewTracker(opts.Now(), opts.SessionID, status.Config{UserName: opts.UserName})
	}

	return &Engine{
		opts:     opts,
		cmds:     make(chan func(time.Time), 64),
		done:     make(chan struct{}),
		entropy:  ulid.Monotonic(rand.Reader, 0),
		runCtx:   context.Background(),
		fuser:    logic.NewFuser(opts.Fusion),
		ledger:   logic.NewLedger(),
		trend:    logic.TrendNeutral,
		crisis:   logic.NewCrisisState(),
		nudge:    logic.NewNudgeScheduler(opts.NudgeDelay),
		pet:      logic.NewPet(logic.DefaultPetStats),
		disabled: make(map[logic.Modality]string),
		attached: make(map[logic.Modality]int),
	}
}

// SessionID returns the session identifier.
func (e *Engine) SessionID() string {
	return e.opts.SessionID
}

// Tracker returns the status tracker the engine writes to.
func (e *Engine) Tracker() *status.Tracker {
	return e.opts.Tracker
}

// Run processes inputs and ticks until ctx is done, then tears the session
// down: the in-flight chat request is cancelled and every pending timer is
// dropped.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)

	ticks := e.opts.Ticks
	if ticks == nil {
		t := time.NewTicker(e.opts.Tick)
		defer t.Stop()
		ticks = t.C
	}

	e.runCtx = ctx
	now := e.opts.Now()
	e.lastDecay = now
	e.lastBeat = now
	e.publishPet(now, "")
	e.sync()
	log.Info("session started", "session", e.opts.SessionID, "backend", e.opts.Chat != nil)

	for {
		select {
		case <-ctx.Done():
			e.teardown()
			return nil
		case fn := <-e.cmds:
			fn(e.opts.Now())
		case <-ticks:
			e.onTick(e.opts.Now())
		}
	}
}

// Done is closed once Run has returned.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

func (e *Engine) teardown() {
	if e.chatCancel != nil {
		e.chatCancel()
		e.chatCancel = nil
	}
	e.chatWG.Wait()
	nudge := e.nudge.Cancel()
	followUp := e.followUp.Cancel()
	log.Info("session ended",
		"session", e.opts.SessionID,
		"entries", e.ledger.Len(),
		"messages", e.transcript.Len(),
		"dropped_nudge", nudge,
		"dropped_follow_up", followUp)
}

// post queues fn for the engine goroutine without waiting for it to run.
func (e *Engine) post(fn func(now time.Time)) error {
	select {
	case <-e.done:
		return ErrStopped
	default:
	}
	select {
	case e.cmds <- fn:
		return nil
	case <-e.done:
		return ErrStopped
	}
}

// call queues fn and waits until it has run.
func (e *Engine) call(ctx context.Context, fn func(now time.Time)) error {
	ran := make(chan struct{})
	err := e.post(func(now time.Time) {
		fn(now)
		close(ran)
	})
	if err != nil {
		return err
	}
	select {
	case <-ran:
		return nil
	case <-e.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// enqueue posts adapter input. Input arriving after shutdown is dropped.
func (e *Engine) enqueue(input string, m logic.Modality, fn func(now time.Time)) {
	if err := e.post(fn); err != nil {
		log.Debug("adapter input dropped", "input", input, "modality", m, "error", err)
	}
}

// SubmitSample feeds a raw classifier sample to the modality's smoothing window.
func (e *Engine) SubmitSample(m logic.Modality, s logic.EmotionSample) {
	e.enqueue("sample", m, func(now time.Time) { e.onSample(m, s, now) })
}

// ResetModality empties a modality's smoothing window without emitting.
func (e *Engine) ResetModality(m logic.Modality) {
	e.enqueue("reset", m, func(now time.Time) { e.onReset(m) })
}

// AdapterAttached marks a modality as streaming.
func (e *Engine) AdapterAttached(m logic.Modality) {
	e.enqueue("attached", m, func(now time.Time) { e.onAttached(m, now) })
}

// AdapterFailed disables a modality. Other modalities are unaffected.
func (e *Engine) AdapterFailed(m logic.Modality, err error) {
	e.enqueue("failed", m, func(now time.Time) { e.onFailed(m, err, now) })
}

// AdapterDetached marks a modality's adapter as gone.
func (e *Engine) AdapterDetached(m logic.Modality) {
	e.enqueue("detached", m, func(now time.Time) { e.onDetached(m, now) })
}

// Choose records a quick-reply mood choice. Choices bypass smoothing and cooldown.
func (e *Engine) Choose(ctx context.Context, mood logic.Mood) (logic.MoodEntry, error) {
	if _, err := logic.ParseMood(string(mood)); err != nil {
		return logic.MoodEntry{}, err
	}
	var entry logic.MoodEntry
	var err error
	if cerr := e.call(ctx, func(now time.Time) { entry, err = e.onChoose(mood, now) }); cerr != nil {
		return logic.MoodEntry{}, cerr
	}
	return entry, err
}

// SendMessage runs crisis triage on text and hands it to the backend.
// It returns the detected crisis level without waiting for the reply,
// which arrives later as a MESSAGE event.
func (e *Engine) SendMessage(ctx context.Context, text string) (logic.CrisisLevel, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return logic.CrisisNone, ErrEmptyMessage
	}
	var level logic.CrisisLevel
	if err := e.call(ctx, func(now time.Time) { level = e.onMessage(text, now) }); err != nil {
		return logic.CrisisNone, err
	}
	return level, nil
}

// PetAction applies a user action to the companion.
func (e *Engine) PetAction(ctx context.Context, a logic.PetAction) (logic.ActionResult, error) {
	var res logic.ActionResult
	var err error
	if cerr := e.call(ctx, func(now time.Time) { res, err = e.onPetAction(a, now) }); cerr != nil {
		return logic.ActionResult{}, cerr
	}
	return res, err
}

// DismissCrisis resets the crisis level after the user confirms they are safe.
// It reports whether a crisis was active.
func (e *Engine) DismissCrisis(ctx context.Context) (bool, error) {
	var changed bool
	if err := e.call(ctx, func(now time.Time) { changed = e.onDismiss(now) }); err != nil {
		return false, err
	}
	return changed, nil
}

// StartBreathing sends the breathing exercise and schedules the follow-up.
func (e *Engine) StartBreathing(ctx context.Context) error {
	return e.call(ctx, func(now time.Time) { e.onBreathing(now) })
}

// newID returns a time-sortable entry ID.
func (e *Engine) newID(now time.Time) string {
	id, err := ulid.New(ulid.Timestamp(now), e.entropy)
	if err != nil {
		// Monotonic entropy overflows only within one millisecond.
		log.Warn("entry id", "error", err)
		return ulid.Make().String()
	}
	return id.String()
}
