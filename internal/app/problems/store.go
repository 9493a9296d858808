// Package problems is the client-side problem catalogue: the last fetched
// page and the problem currently open.
package problems

import (
	"context"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"sync"

	"njoj_client/internal/api/client"
	"njoj_client/internal/app/state"
	"njoj_client/internal/common"
	"njoj_client/internal/domain/model"
)

const DefaultLimit = 20

type Query struct {
	Skip       int
	Limit      int // 0 means DefaultLimit
	Difficulty model.ProblemDifficulty
	Tags       []string
}

func (q Query) values() url.Values {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	v := url.Values{}
	v.Set("skip", strconv.Itoa(q.Skip))
	v.Set("limit", strconv.Itoa(limit))
	if q.Difficulty != "" {
		v.Set("difficulty", string(q.Difficulty))
	}
	for _, tag := range q.Tags {
		v.Add("tags", tag)
	}
	return v
}

type Store struct {
	api  *client.Client
	root *state.Root

	mu      sync.RWMutex
	list    []model.Problem
	current *model.Problem
	total   int
}

func NewStore(api *client.Client, root *state.Root) *Store {
	return &Store{api: api, root: root}
}

// Problems returns a copy of the last fetched page.
func (s *Store) Problems() []model.Problem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.list)
}

func (s *Store) Current() *model.Problem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	p := *s.current
	return &p
}

// Total is the length of the last fetched page. The backend returns bare
// arrays, so it is not a catalogue-wide count.
func (s *Store) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

func (s *Store) FetchProblems(ctx context.Context, q Query) ([]model.Problem, error) {
	defer s.root.Begin()()

	var list []model.Problem
	if err := s.api.Get(ctx, "/problems", q.values(), &list); err != nil {
		s.root.SetError(common.Message(err, "Failed to fetch problems"))
		return nil, err
	}
	if list == nil {
		list = []model.Problem{}
	}

	s.mu.Lock()
	s.list = list
	s.total = len(list)
	s.mu.Unlock()
	return slices.Clone(list), nil
}

// FetchProblem loads one problem and makes it current. TestCases is never
// nil on the result.
func (s *Store) FetchProblem(ctx context.Context, id string) (*model.Problem, error) {
	defer s.root.Begin()()

	var p model.Problem
	if err := s.api.Get(ctx, "/problems/"+url.PathEscape(id), nil, &p); err != nil {
		s.root.SetError(common.Message(err, "Failed to fetch problem"))
		return nil, err
	}
	if p.TestCases == nil {
		p.TestCases = []model.TestCase{}
	}

	s.mu.Lock()
	s.current = &p
	s.mu.Unlock()
	out := p
	return &out, nil
}

func (s *Store) CreateProblem(ctx context.Context, data model.ProblemCreate) (*model.Problem, error) {
	defer s.root.Begin()()

	var p model.Problem
	if err := s.api.Post(ctx, "/problems", data, &p); err != nil {
		s.root.SetError(common.Message(err, "Failed to create problem"))
		return nil, err
	}
	return &p, nil
}

func (s *Store) UpdateProblem(ctx context.Context, id string, data model.ProblemUpdate) (*model.Problem, error) {
	defer s.root.Begin()()

	var p model.Problem
	if err := s.api.Put(ctx, "/problems/"+url.PathEscape(id), data, &p); err != nil {
		s.root.SetError(common.Message(err, "Failed to update problem"))
		return nil, err
	}
	return &p, nil
}

// DeleteProblem removes a problem and reloads the first page. The result
// reflects the delete only; a failed reload shows up as the root error.
func (s *Store) DeleteProblem(ctx context.Context, id string) error {
	end := s.root.Begin()
	err := s.api.Delete(ctx, "/problems/"+url.PathEscape(id), nil)
	if err != nil {
		s.root.SetError(common.Message(err, "Failed to delete problem"))
	}
	end()
	if err != nil {
		return err
	}
	if _, err := s.FetchProblems(ctx, Query{}); err != nil {
		slog.Warn("reload after delete failed", "problem_id", id, "error", err)
	}
	return nil
}
