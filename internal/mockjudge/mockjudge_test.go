package mockjudge

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"njoj_client/internal/api/client"
	"njoj_client/internal/app/problems"
	"njoj_client/internal/app/session"
	"njoj_client/internal/app/settings"
	"njoj_client/internal/app/state"
	"njoj_client/internal/app/submissions"
	"njoj_client/internal/common"
	"njoj_client/internal/common/security"
	"njoj_client/internal/domain/model"
	"njoj_client/internal/platform/storage"
	"njoj_client/internal/router"
)

const (
	adminUser = "admin"
	adminPass = "admin-pass"
)

type harness struct {
	svc  *Service
	url  string
	api  *client.Client
	root *state.Root
	nav  *router.Navigator
	sess *session.Manager
	prob *problems.Store
	subs *submissions.Store
	conf *settings.Store
}

func newBackend(t *testing.T) (*Service, string) {
	t.Helper()
	svc := NewService(security.NewTokenAuth([]byte("test-secret")), time.Hour, time.Millisecond)
	if err := svc.Seed(context.Background(), adminUser, adminPass); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go svc.Judge().Start(ctx)

	srv := httptest.NewServer(NewRouter(svc))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return svc, srv.URL + APIPrefix
}

// newClient builds a full client stack against baseURL.
func newClient(t *testing.T, svc *Service, baseURL string) *harness {
	t.Helper()
	h := &harness{svc: svc, url: baseURL, api: client.New(baseURL), root: state.NewRoot()}
	h.nav = router.NewNavigator(router.DefaultTable())
	h.sess = session.NewManager(h.api, storage.NewMemory(), h.root, h.nav)
	h.nav.UseAuth(h.sess)
	h.prob = problems.NewStore(h.api, h.root)
	h.subs = submissions.NewStore(h.api, h.root, submissions.PollConfig{Interval: 5 * time.Millisecond, MaxAttempts: 200})
	h.conf = settings.NewStore(h.api, h.root)
	return h
}

func newHarness(t *testing.T) *harness {
	svc, base := newBackend(t)
	return newClient(t, svc, base)
}

func (h *harness) login(t *testing.T, user, pass string) {
	t.Helper()
	if err := h.sess.Login(context.Background(), model.LoginCredentials{Username: user, Password: pass}); err != nil {
		t.Fatalf("Login(%s) failed: %v", user, err)
	}
}

func (h *harness) signup(t *testing.T, user string) {
	t.Helper()
	err := h.sess.Signup(context.Background(), model.SignupRequest{Username: user, Email: user + "@example.com", Password: "pw-" + user})
	if err != nil {
		t.Fatalf("Signup(%s) failed: %v", user, err)
	}
}

func TestAdminLoginAndCatalogue(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.login(t, adminUser, adminPass)

	if !h.sess.IsAdmin() {
		t.Fatal("Expected seeded admin to be admin")
	}
	if exp := h.sess.ExpiresAt(); exp.Before(time.Now().Add(30 * time.Minute)) {
		t.Errorf("Expected token to expire in about an hour, got %v", exp)
	}

	list, err := h.prob.FetchProblems(ctx, problems.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected 3 seeded problems, got %d", len(list))
	}

	dp, err := h.prob.FetchProblems(ctx, problems.Query{Tags: []string{"dp", "graph"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(dp) != 1 || dp[0].Title != "Shortest Paths" {
		t.Errorf("Expected only problems with every tag, got %+v", dp)
	}

	p, err := h.prob.FetchProblem(ctx, "P1001")
	if err != nil {
		t.Fatal(err)
	}
	if p.Slug != "a-b-problem" {
		t.Errorf("Expected slug a-b-problem, got %q", p.Slug)
	}
	if len(p.TestCases) != 2 {
		t.Errorf("Expected admin to see 2 test cases, got %d", len(p.TestCases))
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h := newHarness(t)

	err := h.sess.Login(context.Background(), model.LoginCredentials{Username: adminUser, Password: "nope"})
	if !errors.Is(err, common.ErrUnauthenticated) {
		t.Fatalf("Expected unauthenticated, got %v", err)
	}
	if h.root.Error() != "Incorrect username or password" {
		t.Errorf("Unexpected root error %q", h.root.Error())
	}
	if h.sess.IsLoggedIn() {
		t.Error("Expected to stay logged out")
	}
}

func TestLoginAcceptsURLEncodedForm(t *testing.T) {
	_, base := newBackend(t)

	resp, err := http.PostForm(base+"/auth/login", url.Values{"username": {adminUser}, "password": {adminPass}})
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}

func TestSubmitAndPollUntilJudged(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signup(t, "alice")

	p, err := h.prob.FetchProblem(ctx, "P1001")
	if err != nil {
		t.Fatal(err)
	}
	if p.TestCases == nil || len(p.TestCases) != 0 {
		t.Errorf("Expected hidden test cases normalized to empty, got %#v", p.TestCases)
	}

	sub, err := h.subs.SubmitCode(ctx, model.SubmissionCreate{ProblemID: p.ID, Code: "int main(){}"})
	if err != nil {
		t.Fatal(err)
	}
	if sub.Status != model.StatusPending {
		t.Errorf("Expected pending submission, got %s", sub.Status)
	}

	poll := h.subs.PollSubmissionStatus(ctx, sub.ID)
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	judged, err := poll.Wait(waitCtx)
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if judged.Status != model.StatusAccepted || len(judged.TestCaseResults) != 2 {
		t.Errorf("Expected accepted with 2 results, got %s with %d", judged.Status, len(judged.TestCaseResults))
	}

	mine, err := h.subs.FetchSubmissions(ctx, submissions.Query{ProblemID: p.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || mine[0].Code != "" {
		t.Errorf("Expected one listed submission without code, got %+v", mine)
	}

	again, _ := h.prob.FetchProblem(ctx, "P1001")
	if again.SubmissionCount != 1 || again.AcceptedCount != 1 {
		t.Errorf("Expected counters 1/1, got %d/%d", again.SubmissionCount, again.AcceptedCount)
	}
}

func TestVerdictDirective(t *testing.T) {
	testCases := []struct {
		code string
		want model.SubmissionStatus
	}{
		{"int main(){}", model.StatusAccepted},
		{"// verdict: wrong_answer\nint main(){}", model.StatusWrongAnswer},
		{"// verdict: judging", model.StatusAccepted},
		{"   ", model.StatusCompilationError},
	}
	for _, tc := range testCases {
		if got := verdictFor(tc.code); got != tc.want {
			t.Errorf("verdictFor(%q): expected %s, got %s", tc.code, tc.want, got)
		}
	}
}

func TestSubmissionsAreScopedToOwner(t *testing.T) {
	svc, base := newBackend(t)
	ctx := context.Background()
	alice := newClient(t, svc, base)
	bob := newClient(t, svc, base)
	alice.signup(t, "alice")
	bob.signup(t, "bob")

	p, _ := alice.prob.FetchProblem(ctx, "P1002")
	sub, err := alice.subs.SubmitCode(ctx, model.SubmissionCreate{ProblemID: p.ID, Code: "x"})
	if err != nil {
		t.Fatal(err)
	}

	list, err := bob.subs.FetchSubmissions(ctx, submissions.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("Expected bob to see no submissions, got %d", len(list))
	}
	if _, err := bob.subs.FetchSubmission(ctx, sub.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected not found for another user's submission, got %v", err)
	}

	admin := newClient(t, svc, base)
	admin.login(t, adminUser, adminPass)
	all, err := admin.subs.FetchSubmissions(ctx, submissions.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("Expected admin to see 1 submission, got %d", len(all))
	}
}

func TestAdminOnlyEndpoints(t *testing.T) {
	svc, base := newBackend(t)
	ctx := context.Background()
	user := newClient(t, svc, base)
	user.signup(t, "carol")

	_, err := user.prob.CreateProblem(ctx, model.ProblemCreate{Title: "Nope"})
	if !errors.Is(err, common.ErrForbidden) {
		t.Fatalf("Expected forbidden, got %v", err)
	}
	if user.root.Error() != "Not enough permissions" {
		t.Errorf("Unexpected root error %q", user.root.Error())
	}

	admin := newClient(t, svc, base)
	admin.login(t, adminUser, adminPass)
	created, err := admin.prob.CreateProblem(ctx, model.ProblemCreate{Title: "Hidden Gem", Difficulty: model.DifficultyHard})
	if err != nil {
		t.Fatal(err)
	}
	if created.IsPublic {
		t.Error("Expected problem private by default")
	}
	if _, err := user.prob.FetchProblem(ctx, created.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected private problem hidden from users, got %v", err)
	}

	public := true
	if _, err := admin.prob.UpdateProblem(ctx, created.ID, model.ProblemUpdate{IsPublic: &public}); err != nil {
		t.Fatal(err)
	}
	if _, err := user.prob.FetchProblem(ctx, created.ID); err != nil {
		t.Errorf("Expected published problem visible, got %v", err)
	}

	if err := admin.prob.DeleteProblem(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	if admin.prob.Total() != 3 {
		t.Errorf("Expected refetched catalogue of 3, got %d", admin.prob.Total())
	}
	if err := admin.prob.DeleteProblem(ctx, created.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected not found on second delete, got %v", err)
	}
}

func TestSignupSwitch(t *testing.T) {
	svc, base := newBackend(t)
	ctx := context.Background()

	admin := newClient(t, svc, base)
	admin.login(t, adminUser, adminPass)
	off := false
	cfg, err := admin.conf.UpdateConfig(ctx, model.SystemConfigUpdate{AllowSignup: &off})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AllowSignup {
		t.Fatal("Expected signup disabled")
	}

	guest := newClient(t, svc, base)
	if cfg, err := guest.conf.FetchConfig(ctx); err != nil || cfg.AllowSignup {
		t.Errorf("Expected public config with signup off, got %+v, %v", cfg, err)
	}
	err = guest.sess.Signup(ctx, model.SignupRequest{Username: "dave", Email: "d@x", Password: "pw"})
	if !errors.Is(err, common.ErrForbidden) {
		t.Fatalf("Expected forbidden signup, got %v", err)
	}
	if guest.root.Error() != "User registration is currently disabled" {
		t.Errorf("Unexpected root error %q", guest.root.Error())
	}

	if _, err := admin.conf.UpdateConfig(ctx, model.SystemConfigUpdate{}); !errors.Is(err, common.ErrBadRequest) {
		t.Errorf("Expected bad request for empty update, got %v", err)
	}
}

func TestDuplicateSignup(t *testing.T) {
	h := newHarness(t)
	h.signup(t, "erin")
	h.sess.Logout(context.Background())

	err := h.sess.Signup(context.Background(), model.SignupRequest{Username: "erin", Email: "other@example.com", Password: "pw"})
	if !errors.Is(err, common.ErrBadRequest) {
		t.Fatalf("Expected bad request, got %v", err)
	}
	if h.root.Error() != "Username already registered" {
		t.Errorf("Unexpected root error %q", h.root.Error())
	}
}

func TestRejectedTokenEndsSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signup(t, "frank")
	h.nav.Push("/submissions")

	other := NewService(security.NewTokenAuth([]byte("other-secret")), time.Hour, 0)
	forged, _ := security.GenerateToken(other.auth, h.sess.CurrentUser().ID, model.RoleAdmin, time.Hour)
	h.api.SetTokenSource(func() string { return forged })

	_, err := h.subs.FetchSubmissions(ctx, submissions.Query{})
	if !common.IsUnauthenticated(err) {
		t.Fatalf("Expected unauthenticated, got %v", err)
	}
	if h.sess.IsLoggedIn() {
		t.Error("Expected session cleared")
	}
	if h.nav.Current().Route.Name != router.Login {
		t.Errorf("Expected navigation to login, got %s", h.nav.Current().Route.Name)
	}
}

func TestUpdateProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signup(t, "grace")

	name := "Grace Hopper"
	if err := h.sess.UpdateProfile(ctx, model.UserUpdate{FullName: &name}); err != nil {
		t.Fatal(err)
	}
	if u := h.sess.CurrentUser(); u.FullName == nil || *u.FullName != name {
		t.Errorf("Expected full name updated, got %+v", u)
	}

	newPass := "s3cret"
	if err := h.sess.UpdateProfile(ctx, model.UserUpdate{Password: &newPass}); err != nil {
		t.Fatal(err)
	}
	h.sess.Logout(ctx)
	h.login(t, "grace", newPass)
}

func TestHealth(t *testing.T) {
	svc := NewService(security.NewTokenAuth([]byte("x")), time.Hour, 0)
	rec := httptest.NewRecorder()
	NewRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("Unexpected health response %d %q", rec.Code, rec.Body.String())
	}
}
