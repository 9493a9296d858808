package mockjudge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"njoj_client/internal/common"
	"njoj_client/internal/common/security"
	"njoj_client/internal/domain/model"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

var (
	errBadCredentials  = common.NewAPIError(http.StatusUnauthorized, "Incorrect username or password")
	errSignupDisabled  = common.NewAPIError(http.StatusForbidden, "User registration is currently disabled")
	errProblemHidden   = common.NewAPIError(http.StatusNotFound, "Problem not found or access denied")
	errSubmissionOwner = common.NewAPIError(http.StatusNotFound, "Submission not found or access denied")
	errNoConfigFields  = common.NewAPIError(http.StatusBadRequest, "No valid fields to update")
)

// Caller is the authenticated account behind a request.
type Caller struct {
	ID   string
	Role string
}

func (c Caller) IsAdmin() bool { return c.Role == model.RoleAdmin }

// Service holds the fake backend's business rules. Handlers only decode
// requests and encode results.
type Service struct {
	repo     *memRepository
	auth     *jwtauth.JWTAuth
	tokenTTL time.Duration
	judge    *Judge
	log      *slog.Logger
}

func NewService(auth *jwtauth.JWTAuth, tokenTTL, judgeDelay time.Duration) *Service {
	repo := newMemRepository()
	return &Service{
		repo:     repo,
		auth:     auth,
		tokenTTL: tokenTTL,
		judge:    newJudge(repo, judgeDelay),
		log:      slog.Default().With("component", "mockjudge"),
	}
}

// Judge is the loop that settles queued submissions. Run it with Start.
func (s *Service) Judge() *Judge { return s.judge }

// SeedUser creates an account directly, bypassing the signup switch.
func (s *Service) SeedUser(ctx context.Context, username, password, role string) (*model.User, error) {
	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	now := model.Now()
	rec := &userRecord{
		User: model.User{
			ID:             uuid.NewString(),
			Username:       username,
			Email:          username + "@njoj.local",
			Role:           role,
			IsActive:       true,
			SolvedProblems: []string{},
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		HashedPassword: hash,
	}
	if err := s.repo.CreateUser(ctx, rec); err != nil {
		return nil, err
	}
	return &rec.User, nil
}

func (s *Service) Signup(ctx context.Context, req model.SignupRequest) (*model.TokenResponse, error) {
	if !s.repo.GetConfig(ctx).AllowSignup {
		return nil, errSignupDisabled
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, common.NewAPIError(http.StatusUnprocessableEntity, "username, email and password are required")
	}
	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	now := model.Now()
	rec := &userRecord{
		User: model.User{
			ID:             uuid.NewString(),
			Username:       req.Username,
			Email:          req.Email,
			FullName:       req.FullName,
			Role:           model.RoleUser,
			IsActive:       true,
			SolvedProblems: []string{},
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		HashedPassword: hash,
	}
	if err := s.repo.CreateUser(ctx, rec); err != nil {
		return nil, err
	}
	s.log.Info("user signed up", "username", rec.Username, "user_id", rec.ID)
	return s.issue(&rec.User)
}

func (s *Service) Login(ctx context.Context, username, password string) (*model.TokenResponse, error) {
	rec, err := s.repo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !security.CheckPasswordHash(password, rec.HashedPassword) {
		return nil, errBadCredentials
	}
	return s.issue(&rec.User)
}

func (s *Service) issue(u *model.User) (*model.TokenResponse, error) {
	token, err := security.GenerateToken(s.auth, u.ID, u.Role, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &model.TokenResponse{AccessToken: token, TokenType: "bearer"}, nil
}

// Authenticate resolves a token subject to an active account.
func (s *Service) Authenticate(ctx context.Context, userID string) (*model.User, error) {
	rec, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, common.NewAPIError(http.StatusUnauthorized, "Could not validate credentials")
	}
	if !rec.IsActive {
		return nil, common.NewAPIError(http.StatusBadRequest, "Inactive user")
	}
	return &rec.User, nil
}

func (s *Service) Me(ctx context.Context, c Caller) (*model.User, error) {
	rec, err := s.repo.FindUserByID(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &rec.User, nil
}

func (s *Service) UpdateMe(ctx context.Context, c Caller, upd model.UserUpdate) (*model.User, error) {
	rec, err := s.repo.FindUserByID(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if upd.Email != nil {
		rec.Email = *upd.Email
	}
	if upd.FullName != nil {
		rec.FullName = upd.FullName
	}
	if upd.IsActive != nil {
		rec.IsActive = *upd.IsActive
	}
	if upd.Password != nil {
		hash, err := security.HashPassword(*upd.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		rec.HashedPassword = hash
	}
	rec.UpdatedAt = model.Now()
	if err := s.repo.UpdateUser(ctx, rec); err != nil {
		return nil, err
	}
	return &rec.User, nil
}

// visible reports whether c may see p. Admins and authors see hidden
// problems too.
func visible(p *model.Problem, c Caller) bool {
	return p.IsPublic || c.IsAdmin() || p.AuthorID == c.ID
}

func (s *Service) ListProblems(ctx context.Context, c Caller, f ProblemFilter) ([]model.Problem, error) {
	f.Limit = clampLimit(f.Limit)
	f.IncludeHidden = c.IsAdmin()
	list, err := s.repo.ListProblems(ctx, f)
	if err != nil {
		return nil, err
	}
	if !c.IsAdmin() {
		for i := range list {
			list[i].TestCases = nil
		}
	}
	return list, nil
}

// GetProblem accepts either a custom ID such as "P1001" or the internal ID.
// Only admins and the author receive the hidden test cases.
func (s *Service) GetProblem(ctx context.Context, c Caller, ref string) (*model.Problem, error) {
	p, err := s.repo.FindProblem(ctx, ref)
	if err != nil || !visible(p, c) {
		return nil, errProblemHidden
	}
	if !c.IsAdmin() && p.AuthorID != c.ID {
		p.TestCases = nil
	}
	return p, nil
}

func (s *Service) CreateProblem(ctx context.Context, c Caller, req model.ProblemCreate) (*model.Problem, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, common.NewAPIError(http.StatusUnprocessableEntity, "title is required")
	}
	now := model.Now()
	p := &model.Problem{
		ID:               uuid.NewString(),
		CustomID:         req.CustomID,
		Slug:             slug.Make(req.Title),
		Title:            req.Title,
		Description:      req.Description,
		Difficulty:       req.Difficulty,
		Tags:             nonNil(req.Tags),
		TimeLimit:        req.TimeLimit,
		MemoryLimit:      req.MemoryLimit,
		IsPublic:         req.IsPublic,
		HasSpecialJudge:  req.HasSpecialJudge,
		SpecialJudgeCode: req.SpecialJudgeCode,
		TestCases:        nonNil(req.TestCases),
		SampleTestCases:  nonNil(req.SampleTestCases),
		AuthorID:         c.ID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if p.Difficulty == "" {
		p.Difficulty = model.DifficultyEasy
	}
	if err := s.repo.CreateProblem(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("problem created", "problem_id", p.ID, "slug", p.Slug)
	return p, nil
}

func (s *Service) UpdateProblem(ctx context.Context, id string, upd model.ProblemUpdate) (*model.Problem, error) {
	p, err := s.repo.FindProblem(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		p.Title = *upd.Title
		p.Slug = slug.Make(p.Title)
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Difficulty != nil {
		p.Difficulty = *upd.Difficulty
	}
	if upd.Tags != nil {
		p.Tags = upd.Tags
	}
	if upd.TimeLimit != nil {
		p.TimeLimit = *upd.TimeLimit
	}
	if upd.MemoryLimit != nil {
		p.MemoryLimit = *upd.MemoryLimit
	}
	if upd.IsPublic != nil {
		p.IsPublic = *upd.IsPublic
	}
	if upd.HasSpecialJudge != nil {
		p.HasSpecialJudge = *upd.HasSpecialJudge
	}
	if upd.SpecialJudgeCode != nil {
		p.SpecialJudgeCode = upd.SpecialJudgeCode
	}
	if upd.TestCases != nil {
		p.TestCases = upd.TestCases
	}
	if upd.SampleTestCases != nil {
		p.SampleTestCases = upd.SampleTestCases
	}
	p.UpdatedAt = model.Now()
	if err := s.repo.UpdateProblem(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) DeleteProblem(ctx context.Context, id string) error {
	return s.repo.DeleteProblem(ctx, id)
}

// Submit stores a pending submission and queues it for the judge loop.
func (s *Service) Submit(ctx context.Context, c Caller, req model.SubmissionCreate) (*model.Submission, error) {
	p, err := s.repo.FindProblem(ctx, req.ProblemID)
	if err != nil || !visible(p, c) {
		return nil, errProblemHidden
	}
	if req.Language == "" {
		req.Language = model.LanguageCPP
	}
	sub := &model.Submission{
		ID:              uuid.NewString(),
		ProblemID:       p.ID,
		UserID:          c.ID,
		Code:            req.Code,
		Language:        req.Language,
		Status:          model.StatusPending,
		SubmittedAt:     model.Now(),
		TestCaseResults: []model.TestCaseResult{},
	}
	if err := s.repo.CreateSubmission(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}
	s.repo.CountSubmission(ctx, p.ID)
	s.judge.Enqueue(sub.ID)
	return sub, nil
}

func (s *Service) GetSubmission(ctx context.Context, c Caller, id string) (*model.Submission, error) {
	sub, err := s.repo.FindSubmission(ctx, id)
	if err != nil {
		return nil, errSubmissionOwner
	}
	if !c.IsAdmin() && sub.UserID != c.ID {
		return nil, errSubmissionOwner
	}
	return sub, nil
}

// ListSubmissions scopes non-admins to their own submissions. Admins may
// narrow by user.
func (s *Service) ListSubmissions(ctx context.Context, c Caller, f SubmissionFilter) ([]model.Submission, error) {
	f.Limit = clampLimit(f.Limit)
	if !c.IsAdmin() {
		f.UserID = c.ID
	}
	return s.repo.ListSubmissions(ctx, f)
}

func (s *Service) Config(ctx context.Context) model.SystemConfig {
	return s.repo.GetConfig(ctx)
}

func (s *Service) UpdateConfig(ctx context.Context, upd model.SystemConfigUpdate) (model.SystemConfig, error) {
	if upd.AllowSignup == nil {
		return model.SystemConfig{}, errNoConfigFields
	}
	cfg := s.repo.GetConfig(ctx)
	cfg.AllowSignup = *upd.AllowSignup
	cfg.UpdatedAt = model.Now()
	s.repo.SetConfig(ctx, cfg)
	s.log.Info("system config updated", "allow_signup", cfg.AllowSignup)
	return cfg, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
