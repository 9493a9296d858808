package problems

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"njoj_client/internal/api/client"
	"njoj_client/internal/app/state"
	"njoj_client/internal/domain/model"
)

func newStore(t *testing.T, mux *http.ServeMux) (*Store, *state.Root) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	root := state.NewRoot()
	return NewStore(client.New(srv.URL), root), root
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestFetchProblemsQuery(t *testing.T) {
	testCases := []struct {
		name  string
		query Query
		want  string
	}{
		{"defaults", Query{}, "limit=20&skip=0"},
		{"paged", Query{Skip: 40, Limit: 10}, "limit=10&skip=40"},
		{"filtered", Query{Difficulty: model.DifficultyHard, Tags: []string{"dp", "graph"}},
			"difficulty=hard&limit=20&skip=0&tags=dp&tags=graph"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			mux := http.NewServeMux()
			mux.HandleFunc("GET /problems", func(w http.ResponseWriter, r *http.Request) {
				got = r.URL.RawQuery
				writeJSON(w, http.StatusOK, []model.Problem{{ID: "a"}, {ID: "b"}})
			})
			s, _ := newStore(t, mux)

			list, err := s.FetchProblems(context.Background(), tc.query)
			if err != nil {
				t.Fatalf("FetchProblems failed: %v", err)
			}
			if got != tc.want {
				t.Errorf("Expected query %q, got %q", tc.want, got)
			}
			if len(list) != 2 || s.Total() != 2 || len(s.Problems()) != 2 {
				t.Errorf("Expected 2 problems, got list=%d total=%d", len(list), s.Total())
			}
		})
	}
}

func TestFetchProblemsFailureKeepsList(t *testing.T) {
	var fail atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("GET /problems", func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, []model.Problem{{ID: "a"}})
	})
	s, root := newStore(t, mux)
	ctx := context.Background()

	if _, err := s.FetchProblems(ctx, Query{}); err != nil {
		t.Fatal(err)
	}
	fail.Store(true)
	if _, err := s.FetchProblems(ctx, Query{}); err == nil {
		t.Fatal("Expected error")
	}
	if root.Error() != "Failed to fetch problems" {
		t.Errorf("Unexpected root error %q", root.Error())
	}
	if len(s.Problems()) != 1 {
		t.Errorf("Expected list untouched on failure, got %d", len(s.Problems()))
	}
}

func TestFetchProblemNormalizesTestCases(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /problems/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "bare":
			w.Write([]byte(`{"id":"bare","title":"A+B"}`))
		case "full":
			w.Write([]byte(`{"id":"full","test_cases":[{"input":"1 2","output":"3","is_sample":true}]}`))
		default:
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Problem not found"})
		}
	})
	s, root := newStore(t, mux)
	ctx := context.Background()

	p, err := s.FetchProblem(ctx, "bare")
	if err != nil {
		t.Fatal(err)
	}
	if p.TestCases == nil || len(p.TestCases) != 0 {
		t.Errorf("Expected empty non-nil test cases, got %#v", p.TestCases)
	}
	if cur := s.Current(); cur == nil || cur.ID != "bare" || cur.TestCases == nil {
		t.Errorf("Expected current problem set, got %+v", cur)
	}

	p, err = s.FetchProblem(ctx, "full")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.TestCases) != 1 || p.TestCases[0].Output != "3" {
		t.Errorf("Expected server test cases kept, got %+v", p.TestCases)
	}

	if _, err := s.FetchProblem(ctx, "missing"); err == nil {
		t.Fatal("Expected not found")
	}
	if root.Error() != "Problem not found" {
		t.Errorf("Expected server detail, got %q", root.Error())
	}
	if s.Current().ID != "full" {
		t.Error("Failed fetch must not replace current problem")
	}
}

func TestCreateAndUpdateProblem(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /problems", func(w http.ResponseWriter, r *http.Request) {
		var in model.ProblemCreate
		json.NewDecoder(r.Body).Decode(&in)
		writeJSON(w, http.StatusOK, model.Problem{ID: "new", Title: in.Title})
	})
	mux.HandleFunc("PUT /problems/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "Not enough permissions"})
	})
	s, root := newStore(t, mux)
	ctx := context.Background()

	p, err := s.CreateProblem(ctx, model.ProblemCreate{Title: "Two Sum", Difficulty: model.DifficultyEasy})
	if err != nil {
		t.Fatal(err)
	}
	if p.ID != "new" || p.Title != "Two Sum" {
		t.Errorf("Unexpected created problem %+v", p)
	}

	title := "Three Sum"
	if _, err := s.UpdateProblem(ctx, "new", model.ProblemUpdate{Title: &title}); err == nil {
		t.Fatal("Expected forbidden")
	}
	if root.Error() != "Not enough permissions" {
		t.Errorf("Unexpected root error %q", root.Error())
	}
}

func TestDeleteProblemRefetches(t *testing.T) {
	var deleted, listed atomic.Int32
	var query string
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /problems/{id}", func(w http.ResponseWriter, r *http.Request) {
		deleted.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /problems", func(w http.ResponseWriter, r *http.Request) {
		listed.Add(1)
		query = r.URL.RawQuery
		writeJSON(w, http.StatusOK, []model.Problem{{ID: "left"}})
	})
	s, root := newStore(t, mux)

	if err := s.DeleteProblem(context.Background(), "gone"); err != nil {
		t.Fatalf("DeleteProblem failed: %v", err)
	}
	if deleted.Load() != 1 || listed.Load() != 1 {
		t.Errorf("Expected one delete and one refetch, got %d/%d", deleted.Load(), listed.Load())
	}
	if query != "limit=20&skip=0" {
		t.Errorf("Expected default paging on refetch, got %q", query)
	}
	if s.Total() != 1 || root.Loading() {
		t.Errorf("Unexpected state: total=%d loading=%v", s.Total(), root.Loading())
	}
}

func TestFetchProblemsEmptyPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /problems", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	s, _ := newStore(t, mux)

	list, err := s.FetchProblems(context.Background(), Query{Difficulty: model.DifficultyHard})
	if err != nil {
		t.Fatal(err)
	}
	if list == nil || s.Problems() == nil {
		t.Error("Expected an empty page to stay non-nil")
	}
	if s.Total() != 0 {
		t.Errorf("Expected total 0, got %d", s.Total())
	}
}

func TestDeleteProblemSucceedsWhenReloadFails(t *testing.T) {
	var deleted atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /problems/{id}", func(w http.ResponseWriter, r *http.Request) {
		deleted.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /problems", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	s, root := newStore(t, mux)

	if err := s.DeleteProblem(context.Background(), "gone"); err != nil {
		t.Fatalf("Expected delete to report success, got %v", err)
	}
	if deleted.Load() != 1 {
		t.Errorf("Expected one delete, got %d", deleted.Load())
	}
	if root.Error() != "Failed to fetch problems" {
		t.Errorf("Expected reload failure on the root error, got %q", root.Error())
	}
	if root.Loading() {
		t.Error("Expected loading to settle")
	}
}
