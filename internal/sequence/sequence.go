package sequence

import (
	"context"
	"sync"
	"time"
)

// Throttle is the shared delay inserted between remote requests. The retry
// layer raises it when the remote service pushes back, so later sequenced
// requests slow down too. The current value is read before every wait rather
// than captured once.
type Throttle struct {
	mu    sync.Mutex
	delay time.Duration
}

// minDoubledDelay keeps Double effective when the throttle sits at zero
const minDoubledDelay = time.Second

// NewThrottle creates a throttle with the given base delay
func NewThrottle(base time.Duration) *Throttle {
	return &Throttle{delay: base}
}

// Delay returns the current inter-request delay
func (t *Throttle) Delay() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.delay
}

// Increase raises the delay by step
func (t *Throttle) Increase(step time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.delay += step
}

// Double doubles the delay. A zero delay becomes minDoubledDelay so the
// penalty is never a no-op.
func (t *Throttle) Double() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.delay == 0 {
		t.delay = minDoubledDelay
		return
	}
	t.delay *= 2
}

// Wait sleeps for the current delay. A zero delay still goes through the
// timer so the caller yields the scheduler between operations.
func (t *Throttle) Wait(ctx context.Context) error {
	timer := time.NewTimer(t.Delay())
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Op is a single operation executed by Run
type Op func(context.Context) error

// Collect executes ops strictly one at a time, in order: an operation does
// not start until the previous one completed and the throttle delay elapsed
// after its completion. Results preserve input order. The first error aborts
// the sequence immediately and the remaining operations never start.
func Collect[T any](ctx context.Context, throttle *Throttle, ops []func(context.Context) (T, error)) ([]T, error) {
	results := make([]T, 0, len(ops))
	for i, op := range ops {
		if i > 0 {
			if err := throttle.Wait(ctx); err != nil {
				return nil, err
			}
		}
		result, err := op(ctx)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// Run is Collect for operations that produce no value
func Run(ctx context.Context, throttle *Throttle, ops ...Op) error {
	wrapped := make([]func(context.Context) (struct{}, error), 0, len(ops))
	for _, op := range ops {
		wrapped = append(wrapped, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, op(ctx)
		})
	}
	_, err := Collect(ctx, throttle, wrapped)
	return err
}
