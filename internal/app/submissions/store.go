// Package submissions tracks code submissions and polls the judge until a
// verdict is in.
package submissions

import (
	"context"
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
	Skip      int
	Limit     int // 0 means DefaultLimit
	ProblemID string
	Status    model.SubmissionStatus
}

func (q Query) values() url.Values {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	v := url.Values{}
	v.Set("skip", strconv.Itoa(q.Skip))
	v.Set("limit", strconv.Itoa(limit))
	if q.ProblemID != "" {
		v.Set("problem_id", q.ProblemID)
	}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	return v
}

type Store struct {
	api  *client.Client
	root *state.Root
	poll PollConfig

	mu      sync.RWMutex
	list    []model.Submission
	current *model.Submission
}

func NewStore(api *client.Client, root *state.Root, poll PollConfig) *Store {
	return &Store{api: api, root: root, poll: poll.withDefaults()}
}

func (s *Store) Submissions() []model.Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.list)
}

// Total is the length of the last fetched page.
func (s *Store) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.list)
}

func (s *Store) Current() *model.Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	sub := *s.current
	return &sub
}

// FetchSubmissions replaces the list with one page. An empty page for a
// filtered query is a valid result.
func (s *Store) FetchSubmissions(ctx context.Context, q Query) ([]model.Submission, error) {
	defer s.root.Begin()()

	var list []model.Submission
	if err := s.api.Get(ctx, "/submissions", q.values(), &list); err != nil {
		s.root.SetError(common.Message(err, "Failed to fetch submissions"))
		return nil, err
	}
	if list == nil {
		list = []model.Submission{}
	}

	s.mu.Lock()
	s.list = list
	s.mu.Unlock()
	return slices.Clone(list), nil
}

func (s *Store) FetchSubmission(ctx context.Context, id string) (*model.Submission, error) {
	defer s.root.Begin()()

	sub, err := s.get(ctx, id)
	if err != nil {
		s.root.SetError(common.Message(err, "Failed to fetch submission"))
		return nil, err
	}
	return sub, nil
}

func (s *Store) SubmitCode(ctx context.Context, data model.SubmissionCreate) (*model.Submission, error) {
	defer s.root.Begin()()

	if data.Language == "" {
		data.Language = model.LanguageCPP
	}
	var sub model.Submission
	if err := s.api.Post(ctx, "/submissions", data, &sub); err != nil {
		s.root.SetError(common.Message(err, "Failed to submit code"))
		return nil, err
	}
	return &sub, nil
}

// get fetches one submission and makes it current.
func (s *Store) get(ctx context.Context, id string) (*model.Submission, error) {
	var sub model.Submission
	if err := s.api.Get(ctx, "/submissions/"+url.PathEscape(id), nil, &sub); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.current = &sub
	s.mu.Unlock()
	out := sub
	return &out, nil
}
