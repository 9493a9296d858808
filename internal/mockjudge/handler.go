package mockjudge

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"njoj_client/internal/common"
	"njoj_client/internal/domain/model"
)

type AuthHandler struct {
	svc *Service
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.login)
	r.Post("/signup", h.signup)
}

// login reads OAuth2 password form fields, multipart or urlencoded.
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		common.RespondWithError(w, http.StatusUnprocessableEntity, "Invalid form: "+err.Error())
		return
	}
	username, password := r.FormValue("username"), r.FormValue("password")
	if username == "" || password == "" {
		common.RespondWithError(w, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	resp, err := h.svc.Login(r.Context(), username, password)
	if err != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		respondError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusUnprocessableEntity, "Invalid request payload: "+err.Error())
		return
	}
	resp, err := h.svc.Signup(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

type UserHandler struct {
	svc *Service
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Use(Authenticator(h.svc))
	r.Get("/me", h.me)
	r.Put("/me", h.updateMe)
}

func (h *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	c, _ := CallerFromContext(r.Context())
	u, err := h.svc.Me(r.Context(), c)
	if err != nil {
		respondError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, u)
}

func (h *UserHandler) updateMe(w http.ResponseWriter, r *http.Request) {
	var upd model.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		common.RespondWithError(w, http.StatusUnprocessableEntity, "Invalid request payload: "+err.Error())
		return
	}
	c, _ := CallerFromContext(r.Context())
	u, err := h.svc.UpdateMe(r.Context(), c, upd)
	if err != nil {
		respondError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, u)
}

type ProblemHandler struct {
	svc *Service
}

func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Use(Authenticator(h.svc))
	r.Get("/", h.listProblems)
	r.Get("/{problemID}", h.getProblem)

	r.Group(func(admin chi.Router) {
		admin.Use(AdminOnly)
		admin.Post("/", h.createProblem)
		admin.Put("/{problemID}", h.updateProblem)
		admin.Delete("/{problemID}", h.deleteProblem)
	})
}

func (h *ProblemHandler) listProblems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := ProblemFilter{
		Skip:       queryInt(q.Get("skip"), 0),
		Limit:      queryInt(q.Get("limit"), defaultListLimit),
		Difficulty: model.ProblemDifficulty(q.Get("difficulty")),
		Tags:       q["tags"],
	}
	c, _ := CallerFromContext(r.Context())
	list, err := h.svc.ListProblems(r.Context(), c, f)
	if err != nil {
		respondError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, list)
}

func (h *ProblemHandler) getProblem(w http.ResponseWriter, r *http.Request) {
	c, _ := CallerFromContext(r.Context())
	p, err := h.svc.GetProblem(r.Context(), c, chi.URLParam(r, "problemID"))
	if err != nil {
		respondError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, p)
}

func (h *ProblemHandler) createProblem(w http.ResponseWriter, r *http.Request) {
	var req model.ProblemCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusUnprocessableEntity, "Invalid request: "+err.Error())
		return
	}
	c, _ := CallerFromContext(r.Context())
	p, err := h.svc.CreateProblem(r.Context(), c, req)
	if err != nil {
		respondError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, p)
}

func (h *ProblemHandler) updateProblem(w http.ResponseWriter, r *http.Request) {
	var upd model.ProblemUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		common.RespondWithError(w, http.StatusUnprocessableEntity, "Invalid request: "+err.Error())
		return
	}
	p, err := h.svc.UpdateProblem(r.Context(), chi.URLParam(r, "problemID"), upd)
	if err != nil {
		respondError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, p)
}

func (h *ProblemHandler) deleteProblem(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteProblem(r.Context(), chi.URLParam(r, "problemID")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type SubmissionHandler struct {
	svc *Service
}

func (h *SubmissionHandler) RegisterRoutes(r chi.Router) {
	r.Use(Authenticator(h.svc))
	r.Get("/", h.listSubmissions)
	r.Get("/{submissionID}", h.getSubmission)
	r.Post("/", h.createSubmission)
}

func (h *SubmissionHandler) createSubmission(w http.ResponseWriter, r *http.Request) {
	var req model.SubmissionCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusUnprocessableEntity, "Invalid request: "+err.Error())
		return
	}
	c, _ := CallerFromContext(r.Context())
	sub, err := h.svc.Submit(r.Context(), c, req)
	if err != nil {
		respondError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, sub)
}

func (h *SubmissionHandler) getSubmission(w http.ResponseWriter, r *http.Request) {
	c, _ := CallerFromContext(r.Context())
	sub, err := h.svc.GetSubmission(r.Context(), c, chi.URLParam(r, "submissionID"))
	if err != nil {
		respondError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, sub)
}

func (h *SubmissionHandler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := SubmissionFilter{
		Skip:      queryInt(q.Get("skip"), 0),
		Limit:     queryInt(q.Get("limit"), defaultListLimit),
		UserID:    q.Get("user_id"),
		ProblemID: q.Get("problem_id"),
		Status:    model.SubmissionStatus(q.Get("status")),
	}
	c, _ := CallerFromContext(r.Context())
	list, err := h.svc.ListSubmissions(r.Context(), c, f)
	if err != nil {
		respondError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, list)
}

type ConfigHandler struct {
	svc *Service
}

func (h *ConfigHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.getConfig)
	r.With(Authenticator(h.svc), AdminOnly).Put("/", h.updateConfig)
}

func (h *ConfigHandler) getConfig(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, h.svc.Config(r.Context()))
}

func (h *ConfigHandler) updateConfig(w http.ResponseWriter, r *http.Request) {
	var upd model.SystemConfigUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		common.RespondWithError(w, http.StatusUnprocessableEntity, "Invalid request: "+err.Error())
		return
	}
	cfg, err := h.svc.UpdateConfig(r.Context(), upd)
	if err != nil {
		respondError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, cfg)
}

func queryInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
