package mockjudge

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"sync"

	"njoj_client/internal/common"
	"njoj_client/internal/domain/model"
)

var (
	errProblemNotFound    = common.NewAPIError(http.StatusNotFound, "Problem not found")
	errSubmissionNotFound = common.NewAPIError(http.StatusNotFound, "Submission not found")
)

// userRecord is a stored account. The hash never leaves the package.
type userRecord struct {
	model.User
	HashedPassword string
}

type ProblemFilter struct {
	Skip, Limit   int
	Difficulty    model.ProblemDifficulty
	Tags          []string
	IncludeHidden bool
}

type SubmissionFilter struct {
	Skip, Limit int
	UserID      string // "" matches every user
	ProblemID   string
	Status      model.SubmissionStatus
}

// memRepository keeps every record in process memory behind one lock.
// Values are copied in and out so callers never share state with it.
type memRepository struct {
	mu          sync.RWMutex
	users       map[string]*userRecord
	problems    map[string]*model.Problem
	order       []string // problem IDs in creation order
	submissions map[string]*model.Submission
	config      model.SystemConfig
}

func newMemRepository() *memRepository {
	now := model.Now()
	return &memRepository{
		users:       make(map[string]*userRecord),
		problems:    make(map[string]*model.Problem),
		submissions: make(map[string]*model.Submission),
		config:      model.SystemConfig{ID: "system_config", AllowSignup: true, CreatedAt: now, UpdatedAt: now},
	}
}

func (r *memRepository) CreateUser(_ context.Context, u *userRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return common.NewAPIError(http.StatusBadRequest, "Username already registered")
		}
		if u.Email != "" && existing.Email == u.Email {
			return common.NewAPIError(http.StatusBadRequest, "Email already registered")
		}
	}
	rec := *u
	r.users[u.ID] = &rec
	return nil
}

func (r *memRepository) FindUserByID(_ context.Context, id string) (*userRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	rec := *u
	rec.SolvedProblems = slices.Clone(u.SolvedProblems)
	return &rec, nil
}

func (r *memRepository) FindUserByUsername(_ context.Context, username string) (*userRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username {
			rec := *u
			rec.SolvedProblems = slices.Clone(u.SolvedProblems)
			return &rec, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memRepository) UpdateUser(_ context.Context, u *userRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return common.ErrNotFound
	}
	rec := *u
	r.users[u.ID] = &rec
	return nil
}

func (r *memRepository) CreateProblem(_ context.Context, p *model.Problem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkCustomIDLocked(p); err != nil {
		return err
	}
	rec := *p
	r.problems[p.ID] = &rec
	r.order = append(r.order, p.ID)
	return nil
}

func (r *memRepository) UpdateProblem(_ context.Context, p *model.Problem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.problems[p.ID]; !ok {
		return errProblemNotFound
	}
	if err := r.checkCustomIDLocked(p); err != nil {
		return err
	}
	rec := *p
	r.problems[p.ID] = &rec
	return nil
}

func (r *memRepository) checkCustomIDLocked(p *model.Problem) error {
	if p.CustomID == nil || *p.CustomID == "" {
		return nil
	}
	for _, other := range r.problems {
		if other.ID != p.ID && other.CustomID != nil && *other.CustomID == *p.CustomID {
			return common.NewAPIError(http.StatusBadRequest, fmt.Sprintf("Problem with custom ID '%s' already exists", *p.CustomID))
		}
	}
	return nil
}

func (r *memRepository) DeleteProblem(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.problems[id]; !ok {
		return errProblemNotFound
	}
	delete(r.problems, id)
	r.order = slices.DeleteFunc(r.order, func(pid string) bool { return pid == id })
	return nil
}

// FindProblem looks a problem up by custom ID first, then by ID.
func (r *memRepository) FindProblem(_ context.Context, ref string) (*model.Problem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		p := r.problems[id]
		if p.CustomID != nil && *p.CustomID == ref {
			return cloneProblem(p), nil
		}
	}
	if p, ok := r.problems[ref]; ok {
		return cloneProblem(p), nil
	}
	return nil, errProblemNotFound
}

func (r *memRepository) ListProblems(_ context.Context, f ProblemFilter) ([]model.Problem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.Problem{}
	matched := 0
	for _, id := range r.order {
		p := r.problems[id]
		if !f.IncludeHidden && !p.IsPublic {
			continue
		}
		if f.Difficulty != "" && p.Difficulty != f.Difficulty {
			continue
		}
		if !hasAllTags(p.Tags, f.Tags) {
			continue
		}
		matched++
		if matched <= f.Skip {
			continue
		}
		if len(out) >= f.Limit {
			break
		}
		out = append(out, *cloneProblem(p))
	}
	return out, nil
}

func (r *memRepository) CountSubmission(_ context.Context, problemID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.problems[problemID]; ok {
		p.SubmissionCount++
	}
}

func (r *memRepository) CountAccepted(_ context.Context, problemID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.problems[problemID]; ok {
		p.AcceptedCount++
	}
}

func (r *memRepository) MarkSolved(_ context.Context, userID, problemID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok && !slices.Contains(u.SolvedProblems, problemID) {
		u.SolvedProblems = append(u.SolvedProblems, problemID)
	}
}

func (r *memRepository) CreateSubmission(_ context.Context, s *model.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := *s
	r.submissions[s.ID] = &rec
	return nil
}

func (r *memRepository) UpdateSubmission(_ context.Context, s *model.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.submissions[s.ID]; !ok {
		return common.ErrNotFound
	}
	rec := *s
	r.submissions[s.ID] = &rec
	return nil
}

func (r *memRepository) FindSubmission(_ context.Context, id string) (*model.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.submissions[id]
	if !ok {
		return nil, errSubmissionNotFound
	}
	rec := *s
	rec.TestCaseResults = slices.Clone(s.TestCaseResults)
	return &rec, nil
}

// ListSubmissions returns matches newest first, without source code.
func (r *memRepository) ListSubmissions(_ context.Context, f SubmissionFilter) ([]model.Submission, error) {
	r.mu.RLock()
	all := make([]model.Submission, 0, len(r.submissions))
	for _, s := range r.submissions {
		if f.UserID != "" && s.UserID != f.UserID {
			continue
		}
		if f.ProblemID != "" && s.ProblemID != f.ProblemID {
			continue
		}
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		rec := *s
		rec.Code = ""
		rec.TestCaseResults = nil
		all = append(all, rec)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].SubmittedAt.Equal(all[j].SubmittedAt.Time) {
			return all[i].ID > all[j].ID
		}
		return all[i].SubmittedAt.After(all[j].SubmittedAt.Time)
	})
	if f.Skip >= len(all) {
		return []model.Submission{}, nil
	}
	all = all[f.Skip:]
	if len(all) > f.Limit {
		all = all[:f.Limit]
	}
	return all, nil
}

func (r *memRepository) GetConfig(_ context.Context) model.SystemConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config
}

func (r *memRepository) SetConfig(_ context.Context, cfg model.SystemConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config = cfg
}

func cloneProblem(p *model.Problem) *model.Problem {
	c := *p
	c.Tags = slices.Clone(p.Tags)
	c.TestCases = slices.Clone(p.TestCases)
	c.SampleTestCases = slices.Clone(p.SampleTestCases)
	return &c
}

func hasAllTags(have, want []string) bool {
	for _, t := range want {
		if !slices.Contains(have, t) {
			return false
		}
	}
	return true
}
