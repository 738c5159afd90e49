package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/blocktrail/blocktrail-go/internal/restclient"
)

// ErrRetriesExhausted is returned when a call keeps failing past MaxRetries.
var ErrRetriesExhausted = errors.New("retries exhausted")

// DefaultRetrySleep is the pause after every retryable failure.
const DefaultRetrySleep = 15 * time.Second

// Outcome describes how one attempt ended.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeThrottled   Outcome = "throttled"
	OutcomeServerFault Outcome = "server_fault"
	OutcomeTransport   Outcome = "transport"
	OutcomeFailed      Outcome = "failed"
)

// Retryable reports whether the dispatcher retries after this outcome.
func (o Outcome) Retryable() bool {
	switch o {
	case OutcomeThrottled, OutcomeServerFault, OutcomeTransport:
		return true
	default:
		return false
	}
}

// RetryPolicy controls the pauses between attempts.
type RetryPolicy struct {
	ThrottleSleep  time.Duration
	ServerSleep    time.Duration
	TransportSleep time.Duration
	// MaxRetries caps retries per call. Zero retries forever.
	MaxRetries int
}

// DefaultRetryPolicy sleeps 15s after every transient failure and never gives up.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		ThrottleSleep:  DefaultRetrySleep,
		ServerSleep:    DefaultRetrySleep,
		TransportSleep: DefaultRetrySleep,
	}
}

func (p RetryPolicy) pause(o Outcome) time.Duration {
	switch o {
	case OutcomeThrottled:
		return p.ThrottleSleep
	case OutcomeServerFault:
		return p.ServerSleep
	case OutcomeTransport:
		return p.TransportSleep
	default:
		return 0
	}
}

// Attempt is reported to the Observer after every try.
type Attempt struct {
	Label     string
	Number    int
	QuotaWait time.Duration
	Duration  time.Duration
	Outcome   Outcome
	Err       error
}

// Observer receives one Attempt per try.
type Observer func(Attempt)

// Dispatcher runs API calls under a Tracker and retries transient failures.
type Dispatcher struct {
	Tracker  *Tracker
	Policy   RetryPolicy
	Sleep    func(ctx context.Context, d time.Duration) error
	Clock    func() time.Time
	Logger   Logger
	Observer Observer
}

// NewDispatcher returns a dispatcher with the default retry policy.
func NewDispatcher(tracker *Tracker) *Dispatcher {
	return &Dispatcher{
		Tracker: tracker,
		Policy:  DefaultRetryPolicy(),
	}
}

// Do runs op until it succeeds, fails permanently, the context ends or
// MaxRetries is exceeded. Every attempt is counted against the tracker.
func (d *Dispatcher) Do(ctx context.Context, label string, op func(ctx context.Context) error) error {
	if op == nil {
		return fmt.Errorf("dispatch %s: nil operation", label)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tracker := d.tracker()
	retries := 0

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		wait, ticket, err := tracker.Acquire(ctx)
		if err != nil {
			return err
		}

		started := d.now()
		opErr := op(ctx)
		outcome := Classify(opErr)
		if outcome == OutcomeTransport && ctx.Err() != nil {
			outcome = OutcomeFailed
		}

		d.observe(Attempt{
			Label:     label,
			Number:    attempt,
			QuotaWait: wait,
			Duration:  d.now().Sub(started),
			Outcome:   outcome,
			Err:       opErr,
		})

		if !outcome.Retryable() {
			return opErr
		}

		retries++
		if d.Policy.MaxRetries > 0 && retries > d.Policy.MaxRetries {
			return fmt.Errorf("%s: %w after %d attempts: %w", label, ErrRetriesExhausted, attempt, opErr)
		}

		pause := d.Policy.pause(outcome)
		d.warn("Retrying API call",
			zap.String("call", label),
			zap.String("outcome", string(outcome)),
			zap.Int("attempt", attempt),
			zap.Duration("sleep", pause),
			zap.Error(opErr))

		if err := d.sleep(ctx, pause); err != nil {
			return err
		}
		if outcome == OutcomeThrottled {
			// Concurrent callers throttled in the same window restart it once.
			if _, err := tracker.ResetIfCurrent(ctx, ticket); err != nil {
				return err
			}
		}
	}
}

// Execute runs op through d and returns its value.
func Execute[T any](ctx context.Context, d *Dispatcher, label string, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := d.Do(ctx, label, func(ctx context.Context) error {
		value, err := op(ctx)
		if err != nil {
			return err
		}
		result = value
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// Classify maps an operation error to an Outcome.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return OutcomeFailed
	}

	switch restclient.KindOf(err) {
	case restclient.KindThrottled:
		return OutcomeThrottled
	case restclient.KindGenericHTTP, restclient.KindServer:
		return OutcomeServerFault
	case restclient.KindConnection:
		return OutcomeTransport
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return OutcomeTransport
	}
	return OutcomeFailed
}

func (d *Dispatcher) tracker() *Tracker {
	if d.Tracker == nil {
		d.Tracker = NewTracker(d.Clock)
	}
	return d.Tracker
}

func (d *Dispatcher) now() time.Time {
	if d.Clock != nil {
		return d.Clock()
	}
	return time.Now().UTC()
}

func (d *Dispatcher) sleep(ctx context.Context, dur time.Duration) error {
	if d.Sleep != nil {
		return d.Sleep(ctx, dur)
	}
	return sleepContext(ctx, dur)
}

func (d *Dispatcher) observe(a Attempt) {
	if d.Observer != nil {
		d.Observer(a)
	}
}

func (d *Dispatcher) warn(msg string, fields ...zap.Field) {
	if d.Logger != nil {
		d.Logger.Warn(msg, fields...)
	}
}
