package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"njoj_client/internal/api/client"
	"njoj_client/internal/app/problems"
	"njoj_client/internal/app/session"
	"njoj_client/internal/app/settings"
	"njoj_client/internal/app/state"
	"njoj_client/internal/app/submissions"
	"njoj_client/internal/common"
	"njoj_client/internal/domain/model"
	"njoj_client/internal/platform/config"
	"njoj_client/internal/platform/storage"
	"njoj_client/internal/router"
)

var errUsage = errors.New("usage")

// app is one judgecli invocation: the client stores wired together the way
// a browser front end would wire them.
type app struct {
	out io.Writer
	in  io.Reader

	root *state.Root
	nav  *router.Navigator
	sess *session.Manager
	prob *problems.Store
	subs *submissions.Store
	conf *settings.Store
}

func newApp(cfg *config.Config, store storage.Store, in io.Reader, out io.Writer, opts ...client.Option) *app {
	opts = append([]client.Option{
		client.WithTimeout(cfg.HTTPTimeout),
		client.WithLogger(slog.Default().With("component", "api")),
	}, opts...)
	api := client.New(cfg.APIBaseURL, opts...)
	root := state.NewRoot()
	nav := router.NewNavigator(router.DefaultTable())
	sess := session.NewManager(api, store, root, nav)
	nav.UseAuth(sess)

	return &app{
		out:  out,
		in:   in,
		root: root,
		nav:  nav,
		sess: sess,
		prob: problems.NewStore(api, root),
		subs: submissions.NewStore(api, root, submissions.PollConfig{
			Interval:    cfg.PollInterval,
			MaxAttempts: cfg.PollMaxAttempts,
		}),
		conf: settings.NewStore(api, root),
	}
}

type command struct {
	usage string
	run   func(a *app, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"login":       {"login <username> [password]", (*app).login},
	"signup":      {"signup <username> <email> [password]", (*app).signup},
	"logout":      {"logout", (*app).logout},
	"whoami":      {"whoami", (*app).whoami},
	"profile":     {"profile [-email E] [-name N] [-password P]", (*app).profile},
	"problems":    {"problems [-skip N] [-limit N] [-difficulty D] [-tag T]...", (*app).problems},
	"problem":     {"problem <id>", (*app).problem},
	"submit":      {"submit <problem-id> <file> [-lang L] [-wait]", (*app).submit},
	"submissions": {"submissions [-skip N] [-limit N] [-problem ID] [-status S]", (*app).submissions},
	"submission":  {"submission <id>", (*app).submission},
	"settings":    {"settings [-allow-signup=true|false]", (*app).settings},
	"open":        {"open <path>", (*app).open},
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		a.usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
	if err := a.sess.InitAuth(ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	err := cmd.run(a, ctx, args[1:])
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprintln(a.out, "usage: judgecli", cmd.usage)
	case common.IsUnauthenticated(err):
		fmt.Fprintln(a.out, "Session is no longer valid. Run `judgecli login` to sign in again.")
	}
	return err
}

func (a *app) usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(a.out, "usage: judgecli [-api URL] [-storage DRIVER] [-v] <command> [args]")
	fmt.Fprintln(a.out, "commands:")
	for _, name := range names {
		fmt.Fprintln(a.out, "  "+commands[name].usage)
	}
}

// visit navigates to path and fails when the guard sends the visitor
// elsewhere.
func (a *app) visit(path string) (router.Location, error) {
	want, err := a.nav.Table().Resolve(path)
	if err != nil {
		return router.Location{}, err
	}
	loc, err := a.nav.Navigate(path)
	if err != nil {
		return loc, err
	}
	if loc.Route.Name != want.Route.Name {
		switch {
		case want.Route.GuestOnly:
			return loc, fmt.Errorf("already logged in as %s", a.sess.CurrentUser().Username)
		case loc.Route.Name == router.Login:
			return loc, fmt.Errorf("%s requires login (redirected to %s)", path, loc.FullPath)
		case want.Route.RequiresAdmin:
			return loc, fmt.Errorf("%s requires an admin account", path)
		default:
			return loc, fmt.Errorf("%s is not available (redirected to %s)", path, loc.FullPath)
		}
	}
	return loc, nil
}

func (a *app) href(name string, params map[string]string) string {
	p, err := a.nav.Table().Href(name, params)
	if err != nil {
		return router.HomePath
	}
	return p
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	if _, err := a.visit(router.LoginPath); err != nil {
		return err
	}
	password, err := a.passwordArg(args, 1)
	if err != nil {
		return err
	}
	if err := a.sess.Login(ctx, model.LoginCredentials{Username: args[0], Password: password}); err != nil {
		return err
	}
	u := a.sess.CurrentUser()
	fmt.Fprintf(a.out, "Logged in as %s (%s)\n", u.Username, u.Role)
	a.nav.Push(a.nav.RedirectTarget())
	return nil
}

func (a *app) signup(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return errUsage
	}
	if _, err := a.visit(a.href(router.Signup, nil)); err != nil {
		return err
	}
	password, err := a.passwordArg(args, 2)
	if err != nil {
		return err
	}
	req := model.SignupRequest{Username: args[0], Email: args[1], Password: password}
	if err := a.sess.Signup(ctx, req); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s\n", a.sess.CurrentUser().Username)
	return nil
}

// passwordArg returns args[i], or reads one line from stdin when absent.
func (a *app) passwordArg(args []string, i int) (string, error) {
	if len(args) > i {
		return args[i], nil
	}
	fmt.Fprint(a.out, "Password: ")
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *app) logout(ctx context.Context, _ []string) error {
	a.sess.Logout(ctx)
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *app) whoami(_ context.Context, _ []string) error {
	u := a.sess.CurrentUser()
	if !a.sess.IsLoggedIn() || u == nil {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Username:\t%s\n", u.Username)
	fmt.Fprintf(tw, "Email:\t%s\n", u.Email)
	fmt.Fprintf(tw, "Role:\t%s\n", u.Role)
	fmt.Fprintf(tw, "Solved:\t%d\n", len(u.SolvedProblems))
	if exp := a.sess.ExpiresAt(); !exp.IsZero() {
		fmt.Fprintf(tw, "Session expires:\t%s\n", exp.Local().Format(time.RFC1123))
	}
	return tw.Flush()
}

func (a *app) profile(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	fs.SetOutput(a.out)
	email := fs.String("email", "", "New email")
	name := fs.String("name", "", "New full name")
	password := fs.String("password", "", "New password")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if _, err := a.visit(a.href(router.Profile, nil)); err != nil {
		return err
	}

	var upd model.UserUpdate
	if *email != "" {
		upd.Email = email
	}
	if *name != "" {
		upd.FullName = name
	}
	if *password != "" {
		upd.Password = password
	}
	if upd != (model.UserUpdate{}) {
		if err := a.sess.UpdateProfile(ctx, upd); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Profile updated")
	}
	return a.whoami(ctx, nil)
}

type tagList []string

func (t *tagList) String() string     { return strings.Join(*t, ",") }
func (t *tagList) Set(v string) error { *t = append(*t, v); return nil }

func (a *app) problems(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("problems", flag.ContinueOnError)
	fs.SetOutput(a.out)
	var q problems.Query
	var tags tagList
	fs.IntVar(&q.Skip, "skip", 0, "Problems to skip")
	fs.IntVar(&q.Limit, "limit", problems.DefaultLimit, "Page size")
	difficulty := fs.String("difficulty", "", "easy, medium or hard")
	fs.Var(&tags, "tag", "Required tag (repeatable)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	q.Difficulty = model.ProblemDifficulty(*difficulty)
	q.Tags = tags

	if _, err := a.visit(a.href(router.Problems, nil)); err != nil {
		return err
	}
	list, err := a.prob.FetchProblems(ctx, q)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tDIFFICULTY\tTAGS\tACCEPTED")
	for _, p := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\n",
			problemRef(p), p.Title, p.Difficulty, strings.Join(p.Tags, ","), p.AcceptedCount, p.SubmissionCount)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d problem(s) on this page\n", a.prob.Total())
	return nil
}

func problemRef(p model.Problem) string {
	if p.CustomID != nil && *p.CustomID != "" {
		return *p.CustomID
	}
	return p.ID
}

func (a *app) problem(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	loc, err := a.visit(a.href(router.ProblemDetail, map[string]string{"id": args[0]}))
	if err != nil {
		return err
	}
	p, err := a.prob.FetchProblem(ctx, loc.Params["id"])
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s  %s  [%s]\n", problemRef(*p), p.Title, p.Difficulty)
	fmt.Fprintf(a.out, "Limits: %d ms, %d MB   Tags: %s\n\n", p.TimeLimit, p.MemoryLimit, strings.Join(p.Tags, ", "))
	fmt.Fprintln(a.out, p.Description)
	for i, tc := range p.SampleTestCases {
		fmt.Fprintf(a.out, "\nSample %d input:\n%s\nSample %d output:\n%s\n", i+1, tc.Input, i+1, tc.Output)
	}
	if len(p.TestCases) > 0 {
		fmt.Fprintf(a.out, "\n%d judge test case(s)\n", len(p.TestCases))
	}
	return nil
}

func (a *app) submit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	fs.SetOutput(a.out)
	lang := fs.String("lang", model.LanguageCPP, "Source language")
	wait := fs.Bool("wait", false, "Poll until the judge returns a verdict")
	pos, err := parseInterleaved(fs, args)
	if err != nil || len(pos) != 2 {
		return errUsage
	}
	problemID, file := pos[0], pos[1]

	if _, err := a.visit(a.href(router.ProblemDetail, map[string]string{"id": problemID})); err != nil {
		return err
	}
	code, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	// Submissions reference the internal problem ID.
	p, err := a.prob.FetchProblem(ctx, problemID)
	if err != nil {
		return err
	}
	sub, err := a.subs.SubmitCode(ctx, model.SubmissionCreate{ProblemID: p.ID, Code: string(code), Language: *lang})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Submitted %s (%s)\n", sub.ID, sub.Status)
	if !*wait {
		return nil
	}

	if _, err := a.visit(a.href(router.SubmissionDetail, map[string]string{"id": sub.ID})); err != nil {
		return err
	}
	poll := a.subs.PollSubmissionStatus(ctx, sub.ID)
	defer poll.Stop()
	judged, err := poll.Wait(ctx)
	if err != nil {
		if errors.Is(err, submissions.ErrPollTimeout) && judged != nil {
			fmt.Fprintf(a.out, "Still %s\n", judged.Status)
		}
		return err
	}
	a.printSubmission(judged)
	return nil
}

// parseInterleaved lets flags follow positional arguments.
func parseInterleaved(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return pos, nil
		}
		pos = append(pos, args[0])
		args = args[1:]
	}
}

func (a *app) submissions(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("submissions", flag.ContinueOnError)
	fs.SetOutput(a.out)
	var q submissions.Query
	fs.IntVar(&q.Skip, "skip", 0, "Submissions to skip")
	fs.IntVar(&q.Limit, "limit", submissions.DefaultLimit, "Page size")
	fs.StringVar(&q.ProblemID, "problem", "", "Only this problem ID")
	status := fs.String("status", "", "Only this status, e.g. accepted")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	q.Status = model.SubmissionStatus(*status)

	if _, err := a.visit(a.href(router.Submissions, nil)); err != nil {
		return err
	}
	list, err := a.subs.FetchSubmissions(ctx, q)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No submissions")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPROBLEM\tLANG\tSTATUS\tTIME\tMEMORY\tSUBMITTED")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d ms\t%d KB\t%s\n",
			s.ID, s.ProblemID, s.Language, s.Status, s.TimeUsed, s.MemoryUsed, s.SubmittedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func (a *app) submission(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	loc, err := a.visit(a.href(router.SubmissionDetail, map[string]string{"id": args[0]}))
	if err != nil {
		return err
	}
	sub, err := a.subs.FetchSubmission(ctx, loc.Params["id"])
	if err != nil {
		return err
	}
	a.printSubmission(sub)
	return nil
}

func (a *app) printSubmission(s *model.Submission) {
	fmt.Fprintf(a.out, "Submission %s: %s\n", s.ID, s.Status)
	fmt.Fprintf(a.out, "Time %d ms, memory %d KB\n", s.TimeUsed, s.MemoryUsed)
	if s.ErrorMessage != nil {
		fmt.Fprintf(a.out, "Error: %s\n", *s.ErrorMessage)
	}
	if len(s.TestCaseResults) == 0 {
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CASE\tSTATUS\tTIME\tMEMORY")
	for _, r := range s.TestCaseResults {
		fmt.Fprintf(tw, "%s\t%s\t%d ms\t%d KB\n", r.TestCaseID, r.Status, r.TimeUsed, r.MemoryUsed)
	}
	tw.Flush()
}

func (a *app) settings(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("settings", flag.ContinueOnError)
	fs.SetOutput(a.out)
	allow := fs.String("allow-signup", "", "true or false")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if _, err := a.visit(a.href(router.AdminSettings, nil)); err != nil {
		return err
	}

	var cfg *model.SystemConfig
	var err error
	switch *allow {
	case "":
		cfg, err = a.conf.FetchConfig(ctx)
	case "true", "false":
		v := *allow == "true"
		cfg, err = a.conf.UpdateConfig(ctx, model.SystemConfigUpdate{AllowSignup: &v})
	default:
		return errUsage
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signup allowed: %t\n", cfg.AllowSignup)
	return nil
}

// open reports where the guard sends the visitor for path.
func (a *app) open(_ context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	loc, err := a.nav.Navigate(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s -> %s (%s)\n", args[0], loc.FullPath, loc.Route.Name)
	for k, v := range loc.Params {
		fmt.Fprintf(a.out, "  %s = %s\n", k, v)
	}
	return nil
}
