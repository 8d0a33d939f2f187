package streamutil

import "time"

// OverflowPolicy controls what Throttle does with an item that arrives
// while a previous item is still waiting out the minimum interval.
type OverflowPolicy int

const (
	// Block stops reading from the input channel until the pending item
	// has been emitted. No items are lost.
	Block OverflowPolicy = iota

	// DropOldest keeps reading and overwrites the pending item, so only
	// the newest item is emitted when the interval elapses.
	DropOldest
)

type throttleConfig struct {
	policy OverflowPolicy
}

// ThrottleOption configures Throttle.
type ThrottleOption func(*throttleConfig)

// WithOverflowPolicy sets the policy for items that arrive while another
// item is pending. The default is Block.
func WithOverflowPolicy(policy OverflowPolicy) ThrottleOption {
	return func(c *throttleConfig) {
		c.policy = policy
	}
}

// Throttle emits items from in no faster than one per minInterval. The
// first item is emitted immediately. When in closes, a pending item is
// still emitted after its interval elapses, then the returned channel is
// closed.
func Throttle[T any](in <-chan T, minInterval time.Duration, opts ...ThrottleOption) <-chan T {
	config := &throttleConfig{policy: Block}
	for _, opt := range opts {
		opt(config)
	}
	out := make(chan T)
	go func() {
		defer close(out)
		if config.policy == Block {
			throttleBlocking(in, out, minInterval)
			return
		}
		throttleDropOldest(in, out, minInterval)
	}()
	return out
}

// throttleBlocking reads one item at a time, so upstream is naturally
// held back while the interval elapses.
func throttleBlocking[T any](in <-chan T, out chan<- T, minInterval time.Duration) {
	var last time.Time
	for item := range in {
		if wait := minInterval - time.Since(last); wait > 0 {
			time.Sleep(wait)
		}
		out <- item
		last = time.Now()
	}
}

// throttleDropOldest keeps reading while an item is pending, overwriting
// the pending slot so only the newest item is emitted.
func throttleDropOldest[T any](in <-chan T, out chan<- T, minInterval time.Duration) {
	// The timer starts stopped and drained; it is armed only after an
	// emission, so ready flips back to true exactly once per interval.
	timer := time.NewTimer(minInterval)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	var pending T
	hasPending := false
	ready := true
	for {
		if hasPending && ready {
			out <- pending
			hasPending = false
			ready = false
			timer.Reset(minInterval)
		}
		select {
		case item, ok := <-in:
			if !ok {
				if hasPending {
					<-timer.C
					out <- pending
				}
				return
			}
			pending = item
			hasPending = true
		case <-timer.C:
			ready = true
		}
	}
}
