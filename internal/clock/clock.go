// Package clock provides the repeating one-second countdown timer owned by
// a playing lobby. The clock never touches lobby state itself: each firing
// invokes a callback that injects a tick event into the lobby's inbox, so
// ticks go through the same serialization as player messages.
package clock

import (
	"sync"
	"time"
)

type Clock struct {
	stop chan struct{}
	once sync.Once
}

// Start runs tick every interval until Stop is called. The callback runs on
// the clock's own goroutine and must not block.
func Start(interval time.Duration, tick func()) *Clock {
	c := &Clock{stop: make(chan struct{})}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-t.C:
				// Re-check so a tick racing Stop is dropped.
				select {
				case <-c.stop:
					return
				default:
				}
				tick()
			}
		}
	}()
	return c
}

// Stop cancels the clock. Safe to call more than once; no tick fires after
// the first call returns from the firing goroutine's perspective.
func (c *Clock) Stop() {
	c.once.Do(func() { close(c.stop) })
}
