// Package mockjudge is an in-memory stand-in for the judge backend. It
// serves the same /api/v1 surface the client consumes, issues real HS256
// tokens, and settles submissions on a timer without running any code.
package mockjudge

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

const APIPrefix = "/api/v1"

func NewRouter(svc *Service) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Puts the verified token, if any, in the request context.
	r.Use(jwtauth.Verifier(svc.auth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route(APIPrefix, func(v1 chi.Router) {
		v1.Route("/auth", (&AuthHandler{svc: svc}).RegisterRoutes)
		v1.Route("/users", (&UserHandler{svc: svc}).RegisterRoutes)
		v1.Route("/problems", (&ProblemHandler{svc: svc}).RegisterRoutes)
		v1.Route("/submissions", (&SubmissionHandler{svc: svc}).RegisterRoutes)
		v1.Route("/system-config", (&ConfigHandler{svc: svc}).RegisterRoutes)
	})

	return r
}
