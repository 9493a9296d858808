package submissions

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"njoj_client/internal/common"
	"njoj_client/internal/domain/model"
)

const (
	DefaultPollInterval    = 2 * time.Second
	DefaultPollMaxAttempts = 30
)

var ErrPollTimeout = errors.New("submission still judging after max poll attempts")

// pollTimeoutMessage is the root error shown when polling gives up.
const pollTimeoutMessage = "Judging is taking longer than expected"

type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int // total fetches, including the first
}

func (c PollConfig) withDefaults() PollConfig {
	if c.Interval <= 0 {
		c.Interval = DefaultPollInterval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultPollMaxAttempts
	}
	return c
}

type PollState int

const (
	PollPolling PollState = iota
	PollSettled
	PollTimedOut
	PollCancelled
	PollFailed
)

func (s PollState) String() string {
	switch s {
	case PollPolling:
		return "polling"
	case PollSettled:
		return "settled"
	case PollTimedOut:
		return "timed-out"
	case PollCancelled:
		return "cancelled"
	case PollFailed:
		return "failed"
	}
	return "unknown"
}

// Poll is a running status poll for one submission.
type Poll struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.RWMutex
	state  PollState
	result *model.Submission
	err    error
}

func (p *Poll) State() PollState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Done is closed once the poll leaves the polling state.
func (p *Poll) Done() <-chan struct{} { return p.done }

// Stop cancels the poll. It is a no-op once the poll has finished.
func (p *Poll) Stop() { p.cancel() }

// Result is the settled submission, or the last one fetched with the error
// that ended the poll.
func (p *Poll) Result() (*model.Submission, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.result, p.err
}

// Wait blocks until the poll finishes or ctx is done. Giving up on ctx does
// not stop the poll.
func (p *Poll) Wait(ctx context.Context) (*model.Submission, error) {
	select {
	case <-p.done:
		return p.Result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// PollSubmissionStatus fetches the submission now and then once per
// interval until its status is terminal, MaxAttempts fetches have been
// made, a fetch fails, or the poll is stopped.
func (s *Store) PollSubmissionStatus(ctx context.Context, id string) *Poll {
	ctx, cancel := context.WithCancel(ctx)
	p := &Poll{id: id, cancel: cancel, done: make(chan struct{})}
	go s.runPoll(ctx, p)
	return p
}

func (s *Store) runPoll(ctx context.Context, p *Poll) {
	defer p.cancel()
	defer close(p.done)

	log := slog.Default().With("component", "poller", "submission_id", p.id)
	log.Debug("polling started", "interval", s.poll.Interval, "max_attempts", s.poll.MaxAttempts)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			p.finish(PollCancelled, nil, ctx.Err())
			log.Debug("polling cancelled", "attempts", attempt-1)
			return
		case <-timer.C:
		}

		sub, err := s.get(ctx, p.id)
		if err != nil {
			if ctx.Err() != nil {
				p.finish(PollCancelled, nil, ctx.Err())
				log.Debug("polling cancelled", "attempts", attempt)
				return
			}
			s.root.SetError(common.Message(err, "Failed to get submission status"))
			p.finish(PollFailed, nil, err)
			log.Info("polling failed", "attempt", attempt, "error", err)
			return
		}

		if !sub.Status.InProgress() {
			p.finish(PollSettled, sub, nil)
			log.Info("submission judged", "status", sub.Status, "attempts", attempt)
			return
		}
		if attempt >= s.poll.MaxAttempts {
			s.root.SetError(pollTimeoutMessage)
			p.finish(PollTimedOut, sub, ErrPollTimeout)
			log.Info("polling timed out", "status", sub.Status, "attempts", attempt)
			return
		}
		timer.Reset(s.poll.Interval)
	}
}

func (p *Poll) finish(st PollState, sub *model.Submission, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = st
	p.result = sub
	p.err = err
}
