// Package state holds the process-wide UI status shared by every store: a
// loading indicator and the most recent error message.
//
// Loading is an in-flight counter, so one action finishing never clears the
// indicator while another is still running. The error slot is
// last-writer-wins and is a convenience view only; every action also
// returns its own error.
package state

import "sync"

type Root struct {
	mu       sync.RWMutex
	inFlight int
	lastErr  string
}

func NewRoot() *Root {
	return &Root{}
}

// Begin marks an action as in flight. Call the returned func when it ends.
func (r *Root) Begin() (end func()) {
	r.mu.Lock()
	r.inFlight++
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			r.inFlight--
			r.mu.Unlock()
		})
	}
}

func (r *Root) Loading() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.inFlight > 0
}

func (r *Root) SetError(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastErr = msg
}

func (r *Root) ClearError() {
	r.SetError("")
}

// Error returns the last recorded message, "" when none.
func (r *Root) Error() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}
