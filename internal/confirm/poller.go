// Package confirm bridges the race between the purchaser's redirect back to
// the storefront and the webhook write of the order record: it polls the
// order lookup until the record appears or an attempt budget runs out.
package confirm

import (
	"context"
	"errors"
	"sync"
	"time"

	"storefront-service/internal/entity"
)

// State is one node of the poller's state machine.
type State int

const (
	StateIdle State = iota
	StateWaitingForIdentity
	StateFetching
	StateNotFoundRetrying
	StateFound
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaitingForIdentity:
		return "waiting-for-identity"
	case StateFetching:
		return "fetching"
	case StateNotFoundRetrying:
		return "not-found-retrying"
	case StateFound:
		return "found"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal user-facing messages. The failed state always carries a specific
// message, never a blank screen.
const (
	MsgSignInRequired   = "Please sign in to view your order."
	MsgMissingSessionID = "Missing session ID. Please check the URL."
	MsgOrderNotFound    = "Order not found"
)

const (
	defaultMaxRetries = 3
	defaultInterval   = 2 * time.Second
)

// LookupFunc asks the order lookup responder for a record. It returns
// entity.ErrOrderNotFound while the record has not been written yet.
type LookupFunc func(ctx context.Context, email, sessionID string) (*entity.Order, error)

// IdentityFunc resolves the purchaser identity. It blocks until identity
// resolution finishes; an error or empty email means the purchaser is not
// signed in.
type IdentityFunc func(ctx context.Context) (string, error)

// Scheduler schedules a single callback after a delay and hands back a
// cancel. Injecting it keeps retry timing testable without wall-clock waits.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) (cancel func())
}

type timerScheduler struct{}

func (timerScheduler) Schedule(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// NewTimerScheduler returns the production scheduler backed by time.AfterFunc.
func NewTimerScheduler() Scheduler {
	return timerScheduler{}
}

// Result is the poller's terminal outcome: the order on success, a
// user-facing message on failure.
type Result struct {
	Order   *entity.Order
	Message string
}

type Config struct {
	SessionID  string
	Lookup     LookupFunc
	Identity   IdentityFunc
	Scheduler  Scheduler     // nil -> timer scheduler
	Interval   time.Duration // 0 -> 2s fixed, deliberately not exponential
	MaxRetries int           // 0 -> 3 retries after the initial attempt
}

// Poller drives the confirmation state machine for a single session.
type Poller struct {
	mu          sync.Mutex
	state       State
	attempts    int
	maxRetries  int
	interval    time.Duration
	lookup      LookupFunc
	identity    IdentityFunc
	scheduler   Scheduler
	sessionID   string
	email       string
	cancelRetry func()
	stopped     bool
	result      Result
	done        chan struct{}
}

func New(cfg Config) *Poller {
	p := &Poller{
		state:      StateIdle,
		maxRetries: cfg.MaxRetries,
		interval:   cfg.Interval,
		lookup:     cfg.Lookup,
		identity:   cfg.Identity,
		scheduler:  cfg.Scheduler,
		sessionID:  cfg.SessionID,
		done:       make(chan struct{}),
	}
	if p.maxRetries <= 0 {
		p.maxRetries = defaultMaxRetries
	}
	if p.interval <= 0 {
		p.interval = defaultInterval
	}
	if p.scheduler == nil {
		p.scheduler = NewTimerScheduler()
	}
	return p
}

// Start resolves the purchaser identity and runs the first lookup attempt.
// Retries are scheduled asynchronously; wait on Done for the terminal state.
// Start returns immediately if the poller already ran.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.state != StateIdle || p.stopped {
		p.mu.Unlock()
		return
	}
	p.state = StateWaitingForIdentity
	p.mu.Unlock()

	if p.sessionID == "" {
		p.fail(MsgMissingSessionID)
		return
	}

	email, err := p.identity(ctx)
	if err != nil || email == "" {
		// Identity resolution is never silently retried.
		p.fail(MsgSignInRequired)
		return
	}

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.email = email
	p.mu.Unlock()

	p.attempt(ctx)
}

func (p *Poller) attempt(ctx context.Context) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.state = StateFetching
	p.attempts++
	p.mu.Unlock()

	order, err := p.lookup(ctx, p.email, p.sessionID)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}

	if err == nil {
		p.state = StateFound
		p.result = Result{Order: order}
		close(p.done)
		return
	}

	// Any lookup failure with budget left takes the same retry path:
	// not-found is usually just the webhook still in flight, and the caller
	// cannot tell a wrong id from a slow write anyway.
	if p.attempts <= p.maxRetries {
		p.state = StateNotFoundRetrying
		p.cancelRetry = p.scheduler.Schedule(p.interval, func() { p.attempt(ctx) })
		return
	}

	p.state = StateFailed
	if errors.Is(err, entity.ErrOrderNotFound) {
		p.result = Result{Message: MsgOrderNotFound}
	} else {
		p.result = Result{Message: err.Error()}
	}
	close(p.done)
}

func (p *Poller) fail(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.state = StateFailed
	p.result = Result{Message: msg}
	close(p.done)
}

// Stop tears the poller down: a pending scheduled retry will not fire and no
// state transition happens afterwards.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.stopped = true
	if p.cancelRetry != nil {
		p.cancelRetry()
		p.cancelRetry = nil
	}
	if p.state != StateFound && p.state != StateFailed {
		close(p.done)
	}
}

// State returns the current state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Attempts returns how many lookups ran so far (initial attempt included).
func (p *Poller) Attempts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}

// Result returns the terminal outcome; only meaningful after Done is closed.
func (p *Poller) Result() Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

// Done is closed when the poller reaches Found or Failed, or is stopped.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}
