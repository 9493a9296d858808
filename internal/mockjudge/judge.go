package mockjudge

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"njoj_client/internal/domain/model"
)

const judgeQueueSize = 256

// verdictDirective lets test code pick its own verdict, for example
// "// verdict: wrong_answer". Nothing is ever compiled or run.
var verdictDirective = regexp.MustCompile(`verdict:\s*([a-z_]+)`)

// Judge moves each queued submission from pending to judging to a final
// verdict, one submission at a time.
type Judge struct {
	repo  *memRepository
	delay time.Duration
	queue chan string
	log   *slog.Logger
}

func newJudge(repo *memRepository, delay time.Duration) *Judge {
	return &Judge{
		repo:  repo,
		delay: delay,
		queue: make(chan string, judgeQueueSize),
		log:   slog.Default().With("component", "judge"),
	}
}

// Enqueue schedules a submission. When the queue is full the submission is
// settled as a system error instead of blocking the request.
func (j *Judge) Enqueue(id string) {
	select {
	case j.queue <- id:
	default:
		j.log.Warn("judge queue full", "submission_id", id)
		j.settle(context.Background(), id, model.StatusSystemError)
	}
}

func (j *Judge) Start(ctx context.Context) {
	j.log.Info("judge started", "delay", j.delay)
	for {
		select {
		case <-ctx.Done():
			j.log.Info("judge stopping")
			return
		case id := <-j.queue:
			j.process(ctx, id)
		}
	}
}

func (j *Judge) process(ctx context.Context, id string) {
	if !j.sleep(ctx) {
		return
	}
	sub, err := j.repo.FindSubmission(ctx, id)
	if err != nil {
		j.log.Error("submission vanished before judging", "submission_id", id, "error", err)
		return
	}
	sub.Status = model.StatusJudging
	if err := j.repo.UpdateSubmission(ctx, sub); err != nil {
		j.log.Error("failed to mark submission judging", "submission_id", id, "error", err)
		return
	}

	if !j.sleep(ctx) {
		return
	}
	j.settle(ctx, id, verdictFor(sub.Code))
}

func (j *Judge) settle(ctx context.Context, id string, verdict model.SubmissionStatus) {
	sub, err := j.repo.FindSubmission(ctx, id)
	if err != nil {
		j.log.Error("submission vanished before settling", "submission_id", id, "error", err)
		return
	}
	problem, err := j.repo.FindProblem(ctx, sub.ProblemID)
	if err != nil {
		verdict = model.StatusSystemError
	}

	sub.Status = verdict
	sub.TestCaseResults = []model.TestCaseResult{}
	if problem != nil && verdict != model.StatusSystemError && verdict != model.StatusCompilationError {
		for i := range problem.TestCases {
			tc := model.TestCaseResult{
				TestCaseID: problemCaseID(i),
				Status:     model.StatusAccepted,
				TimeUsed:   1 + i,
				MemoryUsed: 1024,
			}
			if i == len(problem.TestCases)-1 {
				tc.Status = verdict
			}
			sub.TestCaseResults = append(sub.TestCaseResults, tc)
			sub.TimeUsed = max(sub.TimeUsed, tc.TimeUsed)
			sub.MemoryUsed = max(sub.MemoryUsed, tc.MemoryUsed)
		}
	}
	if verdict == model.StatusCompilationError {
		msg := "empty source"
		sub.ErrorMessage = &msg
	}

	if err := j.repo.UpdateSubmission(ctx, sub); err != nil {
		j.log.Error("failed to store verdict", "submission_id", id, "error", err)
		return
	}
	if verdict == model.StatusAccepted {
		j.repo.CountAccepted(ctx, sub.ProblemID)
		j.repo.MarkSolved(ctx, sub.UserID, sub.ProblemID)
	}
	j.log.Info("submission judged", "submission_id", id, "status", verdict)
}

// sleep waits one judge delay. It reports false if ctx ended first.
func (j *Judge) sleep(ctx context.Context) bool {
	if j.delay <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(j.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func verdictFor(code string) model.SubmissionStatus {
	if strings.TrimSpace(code) == "" {
		return model.StatusCompilationError
	}
	if m := verdictDirective.FindStringSubmatch(code); m != nil {
		st := model.SubmissionStatus(m[1])
		if !st.InProgress() {
			return st
		}
	}
	return model.StatusAccepted
}

func problemCaseID(i int) string {
	return "tc" + strconv.Itoa(i+1)
}
