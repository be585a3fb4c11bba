package broadcast

import (
	"errors"
	"time"
)

// ErrorWaitChannel coordinates graceful shutdown: each long-running loop
// subscribes, and Await publishes a reply channel to every subscriber then
// collects their shutdown errors.
type ErrorWaitChannel struct {
	bc *BroadcastChannel[chan error]
}

func NewErrorWaitChannel() *ErrorWaitChannel {
	return &ErrorWaitChannel{
		bc: NewBroadcastChannel[chan error](),
	}
}

func (e *ErrorWaitChannel) Subscribe() chan chan error {
	return e.bc.Subscribe()
}

// Await returns the joined shutdown errors, or nil if the timeout elapsed
// before all subscribers replied.
func (e *ErrorWaitChannel) Await(timeout time.Duration) error {
	ch := make(chan error)

	e.bc.mu.RLock()
	defer e.bc.mu.RUnlock()

	if len(e.bc.listeners) == 0 {
		return nil
	}

	go func() {
		for _, listener := range e.bc.listeners {
			listener <- ch
		}
	}()

	timer := time.After(timeout)
	errs := make([]error, 0, len(e.bc.listeners))
	for {
		select {
		case err := <-ch:
			errs = append(errs, err)
			if len(errs) == len(e.bc.listeners) {
				return errors.Join(errs...)
			}
		case <-timer:
			return nil
		}
	}
}
