// Package streamutil provides temporal shaping stages for event channels:
// batching (Debounce), rate limiting (Throttle), and text merging
// (Coalesce). The stages are generic over the item type and compose by
// chaining channels.
package streamutil

import "time"

// Debounce batches items from in, emitting the accumulated batch once the
// interval has elapsed since the previous emission. Batches are never
// empty. When in closes, any buffered items are flushed as a final batch
// and the returned channel is closed.
func Debounce[T any](in <-chan T, interval time.Duration) <-chan []T {
	out := make(chan []T)
	go func() {
		defer close(out)
		timer := time.NewTimer(interval)
		defer timer.Stop()
		var batch []T
		for {
			select {
			case item, ok := <-in:
				if !ok {
					if len(batch) > 0 {
						out <- batch
					}
					return
				}
				batch = append(batch, item)
			case <-timer.C:
				if len(batch) > 0 {
					out <- batch
					batch = nil
				}
				timer.Reset(interval)
			}
		}
	}()
	return out
}
