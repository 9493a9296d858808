// Package router is the client-side route table and navigation guard.
//
// Paths use chi patterns and are matched with a chi.Mux that never serves
// a request: it only resolves a path to the route that owns it.
package router

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
)

const (
	Home               = "home"
	Problems           = "problems"
	ProblemDetail      = "problem-detail"
	Submissions        = "submissions"
	SubmissionDetail   = "submission-detail"
	Login              = "login"
	Signup             = "signup"
	Profile            = "profile"
	Admin              = "admin"
	AdminProblems      = "admin-problems"
	AdminProblemCreate = "admin-problem-create"
	AdminProblemEdit   = "admin-problem-edit"
	AdminSettings      = "admin-settings"
	About              = "about"
	NotFound           = "not-found"
)

const (
	HomePath  = "/"
	LoginPath = "/login"
)

type Route struct {
	Name          string
	Path          string // chi pattern
	View          string // view the front end renders for this route
	RequiresAuth  bool
	RequiresAdmin bool
	GuestOnly     bool
}

// Routes is the application's route table.
var Routes = []Route{
	{Name: Home, Path: "/", View: "HomeView"},
	{Name: Problems, Path: "/problems", View: "ProblemListView"},
	{Name: ProblemDetail, Path: "/problems/{id}", View: "ProblemDetailView"},
	{Name: Submissions, Path: "/submissions", View: "SubmissionListView", RequiresAuth: true},
	{Name: SubmissionDetail, Path: "/submissions/{id}", View: "SubmissionDetailView", RequiresAuth: true},
	{Name: Login, Path: "/login", View: "LoginView", GuestOnly: true},
	{Name: Signup, Path: "/signup", View: "SignupView", GuestOnly: true},
	{Name: Profile, Path: "/profile", View: "ProfileView", RequiresAuth: true},
	{Name: Admin, Path: "/admin", View: "AdminDashboardView", RequiresAuth: true, RequiresAdmin: true},
	{Name: AdminProblems, Path: "/admin/problems", View: "ProblemManagementView", RequiresAuth: true, RequiresAdmin: true},
	{Name: AdminProblemCreate, Path: "/admin/problems/create", View: "ProblemEditView", RequiresAuth: true, RequiresAdmin: true},
	{Name: AdminProblemEdit, Path: "/admin/problems/{id}/edit", View: "ProblemEditView", RequiresAuth: true, RequiresAdmin: true},
	{Name: AdminSettings, Path: "/admin/settings", View: "SystemSettingsView", RequiresAuth: true, RequiresAdmin: true},
	{Name: About, Path: "/about", View: "AboutView"},
	{Name: NotFound, Path: "/*", View: "NotFoundView"},
}

// Location is a resolved navigation target.
type Location struct {
	Route    Route
	Path     string // without query
	FullPath string // path plus query, as requested
	Params   map[string]string
	Query    url.Values
}

type Table struct {
	mux       *chi.Mux
	byPattern map[string]Route
	byName    map[string]Route
}

func NewTable(routes []Route) *Table {
	t := &Table{
		mux:       chi.NewRouter(),
		byPattern: make(map[string]Route, len(routes)),
		byName:    make(map[string]Route, len(routes)),
	}
	noop := func(http.ResponseWriter, *http.Request) {}
	for _, r := range routes {
		t.mux.Get(r.Path, noop)
		t.byPattern[r.Path] = r
		t.byName[r.Name] = r
	}
	return t
}

// DefaultTable is built from Routes.
func DefaultTable() *Table {
	return NewTable(Routes)
}

func (t *Table) Lookup(name string) (Route, bool) {
	r, ok := t.byName[name]
	return r, ok
}

// Resolve matches a path (optionally with a query string) to its route.
// Paths no route claims resolve to the not-found route.
func (t *Table) Resolve(raw string) (Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("invalid path %q: %w", raw, err)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	loc := Location{
		Path:     path,
		FullPath: path,
		Params:   map[string]string{},
		Query:    u.Query(),
	}
	if u.RawQuery != "" {
		loc.FullPath = path + "?" + u.RawQuery
	}

	rctx := chi.NewRouteContext()
	if t.mux.Match(rctx, http.MethodGet, path) {
		if r, ok := t.byPattern[rctx.RoutePattern()]; ok {
			loc.Route = r
			for i, key := range rctx.URLParams.Keys {
				if key == "*" {
					continue
				}
				loc.Params[key] = rctx.URLParams.Values[i]
			}
			return loc, nil
		}
	}
	loc.Route = t.byName[NotFound]
	return loc, nil
}

// Href builds the path of a named route, filling {param} placeholders.
func (t *Table) Href(name string, params map[string]string) (string, error) {
	r, ok := t.byName[name]
	if !ok {
		return "", fmt.Errorf("unknown route %q", name)
	}
	path := r.Path
	for key, value := range params {
		path = strings.ReplaceAll(path, "{"+key+"}", url.PathEscape(value))
	}
	if strings.ContainsAny(path, "{}*") {
		return "", fmt.Errorf("missing parameters for route %q: %s", name, path)
	}
	return path, nil
}
