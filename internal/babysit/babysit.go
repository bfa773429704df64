// Package babysit implements the supervision engine: a polling loop that
// evaluates registered targets, escalates failures through restarts and
// notifications, and aggregates each cycle into a single digest.
package babysit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"babysitter/internal/check"
	"babysitter/internal/models"
	"babysitter/internal/notify"
	"babysitter/internal/restart"
)

var (
	// ErrDuplicateTarget is returned when a target name is already registered.
	ErrDuplicateTarget = errors.New("babysit: duplicate target name")
	// ErrRunning is returned when an operation requires a stopped engine.
	ErrRunning = errors.New("babysit: engine is running")
)

// DefaultCheckTimeout bounds a single check evaluation.
const DefaultCheckTimeout = 15 * time.Second

// Target binds a named check to its remediation policy. A nil Restart makes
// the target notify-only.
type Target struct {
	Name            string
	Check           check.Check
	Restart         restart.Action
	RestartCooldown time.Duration
}

// targetState is owned exclusively by the polling loop and never persisted.
type targetState struct {
	consecutiveFailures  int
	lastRestartAt        time.Time
	lastNotifiedFailures int
	// notified is true once a failure notification went out for the
	// current outage; it gates the one-time recovery notification.
	notified   bool
	lastPassed bool
	lastDetail string
	evaluated  bool
}

// Recorder receives one record per completed cycle.
type Recorder interface {
	Append(models.CycleRecord) error
}

// Config configures a Babysitter.
type Config struct {
	Logger  zerolog.Logger
	Channel notify.Channel

	// Recorder, if set, receives cycle records for the status API.
	Recorder Recorder

	// Policy decides repeat-notification cadence. Default: PowerOfTwo.
	Policy ThresholdPolicy

	// CheckTimeout bounds each check evaluation. Default: DefaultCheckTimeout.
	CheckTimeout time.Duration

	// Concurrency is the number of checks evaluated in parallel within one
	// cycle. Results are still collected before any escalation runs.
	// Default: 1 (sequential).
	Concurrency int

	Heartbeat HeartbeatConfig

	// StartupNotice sends a "babysitter running" email when Run starts.
	StartupNotice bool

	// Now is a clock hook for tests. Default: time.Now.
	Now func() time.Time
}

// Babysitter owns an ordered set of targets and their state.
type Babysitter struct {
	logger        zerolog.Logger
	channel       notify.Channel
	recorder      Recorder
	policy        ThresholdPolicy
	checkTimeout  time.Duration
	concurrency   int
	heartbeat     HeartbeatConfig
	startupNotice bool
	now           func() time.Time

	mu      sync.Mutex
	targets []Target
	states  map[string]*targetState
	running bool

	lastHeartbeatDay int

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// New creates an engine with no targets registered.
func New(cfg Config) *Babysitter {
	if cfg.Channel == nil {
		cfg.Channel = notify.Nop{}
	}
	if cfg.Policy == nil {
		cfg.Policy = PowerOfTwo
	}
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = DefaultCheckTimeout
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Babysitter{
		logger:        cfg.Logger.With().Str("component", "babysit").Logger(),
		channel:       cfg.Channel,
		recorder:      cfg.Recorder,
		policy:        cfg.Policy,
		checkTimeout:  cfg.CheckTimeout,
		concurrency:   cfg.Concurrency,
		heartbeat:     cfg.Heartbeat,
		startupNotice: cfg.StartupNotice,
		now:           cfg.Now,
		states:        make(map[string]*targetState),
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// Register adds a target. Names must be unique; registration is only
// allowed before Run.
func (b *Babysitter) Register(t Target) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return ErrRunning
	}
	if _, exists := b.states[t.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTarget, t.Name)
	}

	b.targets = append(b.targets, t)
	b.states[t.Name] = &targetState{}
	b.logger.Info().Str("target", t.Name).Bool("restartable", t.Restart != nil).Msg("target registered")
	return nil
}

// Run blocks, executing one cycle immediately and then one per interval,
// until Stop is called or ctx is cancelled. An in-progress cycle is always
// finished before Run returns.
func (b *Babysitter) Run(ctx context.Context, interval time.Duration) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return ErrRunning
	}
	b.running = true
	b.mu.Unlock()
	defer close(b.doneCh)

	if b.startupNotice {
		b.sendStartupNotice(ctx)
	}

	b.RunCycle(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.RunCycle(ctx)
		case <-b.stopCh:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stop requests cooperative termination and waits for the loop to finish
// its in-progress cycle. Calling Stop on an engine that never ran is a
// no-op.
func (b *Babysitter) Stop() {
	b.mu.Lock()
	running := b.running
	b.mu.Unlock()
	if !running {
		return
	}

	b.stopOnce.Do(func() { close(b.stopCh) })
	<-b.doneCh
}

// RunCycle executes one full poll-evaluate-act cycle and returns its
// digest. Exposed so tests and callers can drive cycles directly.
func (b *Babysitter) RunCycle(ctx context.Context) Digest {
	now := b.now()
	digest := Digest{CycleTime: now}

	results := b.evaluateAll(ctx)

	outcomes := make([]models.TargetOutcome, 0, len(b.targets))
	for i, t := range b.targets {
		res := results[i]
		st := b.states[t.Name]
		action := ""

		if res.Passed {
			if st.consecutiveFailures > 0 && st.notified {
				digest.Entries = append(digest.Entries, Entry{
					Target: t.Name,
					Detail: res.Detail,
					Kind:   KindRecovery,
					Notify: true,
				})
			}
			st.consecutiveFailures = 0
			st.lastNotifiedFailures = 0
			st.notified = false
		} else {
			st.consecutiveFailures++
			action = b.escalateRestart(ctx, t, st, now)

			shouldNotify := b.policy(st.consecutiveFailures, st.lastNotifiedFailures)
			if shouldNotify {
				st.lastNotifiedFailures = st.consecutiveFailures
				st.notified = true
			}
			digest.Entries = append(digest.Entries, Entry{
				Target: t.Name,
				Detail: res.Detail,
				Action: action,
				Kind:   KindFailure,
				Notify: shouldNotify,
			})
		}

		st.lastPassed = res.Passed
		st.lastDetail = res.Detail
		st.evaluated = true

		outcomes = append(outcomes, models.TargetOutcome{
			Name:   t.Name,
			Passed: res.Passed,
			Detail: res.Detail,
			Action: action,
		})

		evt := b.logger.Info()
		if !res.Passed {
			evt = b.logger.Warn()
		}
		evt.Str("target", t.Name).
			Bool("passed", res.Passed).
			Str("detail", res.Detail).
			Str("action", action).
			Int("consecutive_failures", st.consecutiveFailures).
			Msg("target evaluated")
	}

	notified := b.sendDigest(ctx, digest)
	b.maybeHeartbeat(ctx, now)

	if b.recorder != nil {
		record := models.CycleRecord{Timestamp: now.UTC(), Outcomes: outcomes, Notified: notified}
		if err := b.recorder.Append(record); err != nil {
			b.logger.Error().Err(err).Msg("record cycle")
		}
	}

	return digest
}

// escalateRestart invokes the target's restart action if one exists and the
// cooldown has elapsed. Restart errors are captured in the returned action
// text; they never propagate out of the cycle.
func (b *Babysitter) escalateRestart(ctx context.Context, t Target, st *targetState, now time.Time) string {
	if t.Restart == nil {
		return ""
	}
	if !st.lastRestartAt.IsZero() && now.Sub(st.lastRestartAt) < t.RestartCooldown {
		return ""
	}

	st.lastRestartAt = now
	if err := invokeRestart(ctx, t.Restart); err != nil {
		return "restart attempted, failed: " + err.Error()
	}
	return "restart attempted"
}

func invokeRestart(ctx context.Context, a restart.Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("restart panicked: %v", r)
		}
	}()
	return a.Invoke(ctx)
}

// sendDigest delivers at most one notification per cycle. A transport
// failure is logged and dropped; the next cycle re-raises whatever is still
// failing.
func (b *Babysitter) sendDigest(ctx context.Context, d Digest) bool {
	if len(d.Notifiable()) == 0 {
		return false
	}

	subject, body := buildEmail(d)
	if err := b.channel.Send(ctx, subject, body); err != nil {
		b.logger.Error().Err(err).Str("subject", subject).Msg("digest notification failed")
		return false
	}
	return true
}

// evaluateAll runs every target's check and collects all results before any
// escalation logic touches state. Checks may run concurrently, bounded by
// the configured concurrency; the collection is a barrier, not a pipeline.
func (b *Babysitter) evaluateAll(ctx context.Context) []check.Result {
	results := make([]check.Result, len(b.targets))

	if b.concurrency == 1 {
		for i, t := range b.targets {
			results[i] = b.evaluate(ctx, t.Check)
		}
		return results
	}

	sem := make(chan struct{}, b.concurrency)
	var wg sync.WaitGroup
	for i := range b.targets {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = b.evaluate(ctx, b.targets[i].Check)
		}(i)
	}
	wg.Wait()

	return results
}

// evaluate isolates one check: its own timeout, errors mapped to failed
// results, panics contained. No check can take down the cycle or another
// target.
func (b *Babysitter) evaluate(ctx context.Context, c check.Check) (res check.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = check.Result{Passed: false, Detail: fmt.Sprintf("check panicked: %v", r)}
		}
	}()

	cctx, cancel := context.WithTimeout(ctx, b.checkTimeout)
	defer cancel()

	r, err := c.Evaluate(cctx)
	if err != nil {
		return check.Result{Passed: false, Detail: err.Error()}
	}
	return r
}
