// Package retry provides the failure-classification policy and exponential
// backoff loop used by the authenticated HTTP client.
package retry

import (
	"context"
	stderr "errors"
	"fmt"
	"time"

	"github.com/collectorkit/collectorkit/pkg/errors"
)

const (
	// DefaultMaxAttempts bounds the total number of attempts, including the
	// initial one.
	DefaultMaxAttempts = 10

	// DefaultBaseDelay is the backoff base; the delay after failed attempt n
	// is BaseDelay * 2^n.
	DefaultBaseDelay = 500 * time.Millisecond
)

// Action is the outcome of a retry decision.
type Action int

const (
	ActionFail Action = iota
	ActionRetry
)

// Failure describes one failed attempt. Status is the HTTP status when a
// response was received, or zero for a network-level failure that never
// produced one.
type Failure struct {
	Status int
	Err    error
}

// IsNetworkError reports whether the attempt failed without a response.
func (f Failure) IsNetworkError() bool {
	return f.Status == 0
}

// Decision is the result of classifying a failed attempt.
type Decision struct {
	Action Action
	Delay  time.Duration
}

// Policy defines retry behavior. The zero value is usable and applies the
// package defaults.
type Policy struct {
	// MaxAttempts is the maximum number of attempts, including the initial one.
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`

	// BaseDelay is the exponential backoff base.
	BaseDelay time.Duration `yaml:"base_delay" json:"base_delay"`
}

// DefaultPolicy returns the policy applied when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, BaseDelay: DefaultBaseDelay}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	return p
}

// Decide classifies a failed attempt. Attempt numbering starts at 1.
//
// 400 and 404 fail immediately: the request is malformed or the resource is
// missing, and repeating it cannot help. Any other status below 500 except
// 429 is likewise a client error and fails after the single attempt. Network
// failures, 5xx responses, and 429 are retried with a deterministic delay of
// BaseDelay * 2^attempt until MaxAttempts is reached. No jitter is applied.
func (p Policy) Decide(attempt int, f Failure) Decision {
	p = p.normalized()

	switch {
	case f.Status == 400 || f.Status == 404:
		return Decision{Action: ActionFail}
	case attempt >= p.MaxAttempts:
		return Decision{Action: ActionFail}
	case f.Status != 0 && f.Status < 500 && f.Status != 429:
		return Decision{Action: ActionFail}
	default:
		return Decision{Action: ActionRetry, Delay: p.BaseDelay * (1 << attempt)}
	}
}

// Retryer runs an operation under a Policy.
type Retryer struct {
	policy  Policy
	onRetry func(attempt int, err error, delay time.Duration)
}

// New creates a Retryer with the given policy.
func New(policy Policy) *Retryer {
	return &Retryer{policy: policy.normalized()}
}

// WithOnRetry returns a Retryer that invokes callback before each retry sleep.
func (r *Retryer) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Retryer {
	return &Retryer{policy: r.policy, onRetry: callback}
}

// Do executes fn until it succeeds, the policy decides to fail, or the
// context is canceled. The failure of the final attempt is returned as-is.
func (r *Retryer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("operation canceled: %w", ctx.Err())
		default:
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}

		decision := r.policy.Decide(attempt, Classify(err))
		if decision.Action == ActionFail {
			return err
		}

		if r.onRetry != nil {
			r.onRetry(attempt, err, decision.Delay)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("operation canceled after %d attempts: %w", attempt, ctx.Err())
		case <-time.After(decision.Delay):
		}
	}
}

// Classify derives a Failure from an error. Collector errors carrying an
// HTTP status classify by that status; anything else is treated as a
// network-level failure.
func Classify(err error) Failure {
	var cerr *errors.CollectorError
	if stderr.As(err, &cerr) && cerr.Status != 0 {
		return Failure{Status: cerr.Status, Err: err}
	}
	return Failure{Err: err}
}
