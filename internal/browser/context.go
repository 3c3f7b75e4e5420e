// internal/browser/context.go
package browser

import (
	"context"
	"time"
)

// combineContext derives a context from primary (which carries the CDP target
// values) that is also canceled when secondary is done. chromedp operations
// must run on the session's context chain, but each action brings its own
// operational deadline; this joins the two lifecycles.
func combineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(primary)

	go func() {
		select {
		case <-secondary.Done():
			cancel()
		case <-combined.Done():
		}
	}()

	return combined, cancel
}

// valueOnlyContext inherits values from its parent but ignores the parent's
// deadline and cancellation. Used for cleanup work that must outlive a
// canceled action context while keeping the CDP connection values.
type valueOnlyContext struct {
	context.Context
}

func (valueOnlyContext) Deadline() (deadline time.Time, ok bool) { return }
func (valueOnlyContext) Done() <-chan struct{}                   { return nil }
func (valueOnlyContext) Err() error                              { return nil }

// detach returns a context that inherits values from ctx but is never
// canceled by it.
func detach(ctx context.Context) context.Context {
	return valueOnlyContext{ctx}
}
