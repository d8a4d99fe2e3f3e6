package auth

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kazz187/agentboard/pkg/cerr"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Routes serves the JSON authentication API. Successful logins also set the
// session cookie so browsers and the CLI share one endpoint.
func (s *Service) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(cerr.NewJSONResponseChiMiddleware())
	r.Post("/register", s.handleRegister)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)
	r.Get("/me", s.handleMe)
	return r
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentials, error) {
	var c credentials
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&c); err != nil {
		return c, cerr.NewError(cerr.InvalidArgument, "invalid json", err)
	}
	return c, nil
}

func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !s.enabled {
		cerr.SetNewJSONError(ctx, cerr.FailedPrecondition, "authentication is disabled", nil)
		return
	}
	c, err := decodeCredentials(w, r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	sess, err := s.Register(ctx, c.Email, c.Password)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	SetCookie(w, r, sess)
	cerr.SetJSONResponseStatus(ctx, http.StatusCreated, sess)
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !s.enabled {
		cerr.SetNewJSONError(ctx, cerr.FailedPrecondition, "authentication is disabled", nil)
		return
	}
	c, err := decodeCredentials(w, r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	sess, err := s.Login(ctx, c.Email, c.Password, ClientAddr(r))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	SetCookie(w, r, sess)
	cerr.SetJSONResponse(ctx, sess)
}

func (s *Service) handleLogout(w http.ResponseWriter, r *http.Request) {
	ClearCookie(w)
	cerr.SetJSONResponse(r.Context(), struct{}{})
}

func (s *Service) handleMe(_ http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := FromContext(ctx)
	if !ok {
		cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "not signed in", nil)
		return
	}
	cerr.SetJSONResponse(ctx, p)
}
