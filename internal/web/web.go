// Package web renders the board as HTML and accepts form posts for every
// board operation.
package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kazz187/agentboard/internal/auth"
	"github.com/kazz187/agentboard/internal/board"
	"github.com/kazz187/agentboard/internal/eventbus"
	"github.com/kazz187/agentboard/internal/session"
	"github.com/kazz187/agentboard/internal/task"
	"github.com/kazz187/agentboard/pkg/cerr"
)

//go:embed templates
var templateFS embed.FS

const (
	themeCookie = "agentboard_theme"
	flashCookie = "agentboard_flash"
)

type Handler struct {
	sessions *session.Manager
	auth     *auth.Service
	bus      *eventbus.Bus
	tmpl     *template.Template
}

func NewHandler(sessions *session.Manager, authService *auth.Service, bus *eventbus.Bus) (*Handler, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"tagClass":   task.TagClass,
		"priorities": priorities,
		"dict":       dict,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Handler{sessions: sessions, auth: authService, bus: bus, tmpl: tmpl}, nil
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handleBoard)
	r.Get("/static/board.css", h.handleCSS)
	r.Get("/events", h.handleEvents)
	r.Post("/theme", h.handleTheme)
	r.Post("/signin", h.handleSignIn)
	r.Post("/signup", h.handleSignUp)
	r.Post("/signout", h.handleSignOut)

	r.Group(func(r chi.Router) {
		r.Use(h.requireUser)
		r.Post("/tasks", h.handleCreateTask)
		r.Post("/tasks/{id}/move", h.handleMoveTask)
		r.Post("/tasks/{id}/assign", h.handleAssignTask)
		r.Post("/tasks/{id}/delete", h.handleDeleteTask)
		r.Post("/agents", h.handleCreateAgent)
		r.Post("/agents/{id}/delete", h.handleDeleteAgent)
	})
	return r
}

type taskForm struct {
	Draft    board.Draft
	Priority int
	Error    string
}

type page struct {
	Theme        string
	Principal    auth.Principal
	SignedIn     bool
	AuthEnabled  bool
	ShowAuthForm bool
	AuthEmail    string
	AuthError    string
	Sprint       string
	Board        board.View
	Banner       string
	Form         *taskForm
}

func (h *Handler) newPage(w http.ResponseWriter, r *http.Request) *page {
	p := &page{
		Theme:       theme(r),
		AuthEnabled: h.auth.Enabled(),
		Sprint:      board.ParseSprintFilter(r.FormValue("sprint")).String(),
		Banner:      takeFlash(w, r),
	}
	if principal, ok := auth.FromContext(r.Context()); ok {
		p.Principal = principal
		p.SignedIn = true
	}
	p.ShowAuthForm = !p.SignedIn && p.AuthEnabled
	return p
}

// render loads the caller's board into p and writes the page. A failed load
// still renders the (empty) board with the failure in the banner.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, p *page, status int) {
	ctx := r.Context()
	view, err := h.sessions.Get(auth.UserID(ctx)).Board(ctx, board.ParseSprintFilter(p.Sprint))
	if err != nil && p.Banner == "" {
		p.Banner = bannerMessage(err)
	}
	p.Board = view

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.tmpl.ExecuteTemplate(w, "page", p); err != nil {
		slog.ErrorContext(ctx, "failed to render page", "error", err)
	}
}

func (h *Handler) handleBoard(w http.ResponseWriter, r *http.Request) {
	p := h.newPage(w, r)
	if p.SignedIn && r.FormValue("new") != "" {
		p.Form = &taskForm{Priority: task.DefaultPriority}
	}
	h.render(w, r, p, http.StatusOK)
}

func (h *Handler) handleCSS(w http.ResponseWriter, r *http.Request) {
	data, err := templateFS.ReadFile("templates/board.css")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "max-age=3600")
	_, _ = w.Write(data)
}

func (h *Handler) handleTheme(w http.ResponseWriter, r *http.Request) {
	next := "dark"
	if theme(r) == "dark" {
		next = "light"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     themeCookie,
		Value:    next,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		SameSite: http.SameSiteLaxMode,
	})
	redirectBoard(w, r, r.FormValue("sprint"))
}

func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	priority, _ := strconv.Atoi(r.FormValue("priority"))
	form := &taskForm{
		Draft: board.Draft{
			Title:       r.FormValue("title"),
			Description: r.FormValue("description"),
			Priority:    priority,
			Tags:        r.FormValue("tags"),
			Sprint:      r.FormValue("sprint"),
		},
		Priority: task.PriorityOrDefault(priority),
	}
	filter := r.FormValue("sprint_filter")

	_, err := h.sessions.Get(auth.UserID(ctx)).CreateTask(ctx, form.Draft)
	if cerr.IsCode(err, cerr.InvalidArgument) {
		form.Error = userMessage(err)
		p := h.newPage(w, r)
		p.Sprint = board.ParseSprintFilter(filter).String()
		p.Form = form
		h.render(w, r, p, http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		setFlash(w, bannerMessage(err))
	}
	redirectBoard(w, r, filter)
}

func (h *Handler) handleMoveTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dir, ok := board.ParseDirection(r.FormValue("dir"))
	if !ok {
		http.Error(w, "invalid direction", http.StatusBadRequest)
		return
	}
	if _, _, err := h.sessions.Get(auth.UserID(ctx)).MoveTask(ctx, chi.URLParam(r, "id"), dir); err != nil {
		setFlash(w, bannerMessage(err))
	}
	redirectBoard(w, r, r.FormValue("sprint"))
}

func (h *Handler) handleAssignTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := h.sessions.Get(auth.UserID(ctx)).AssignTask(ctx, chi.URLParam(r, "id"), r.FormValue("agent")); err != nil {
		setFlash(w, bannerMessage(err))
	}
	redirectBoard(w, r, r.FormValue("sprint"))
}

func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.sessions.Get(auth.UserID(ctx)).DeleteTask(ctx, chi.URLParam(r, "id")); err != nil {
		setFlash(w, bannerMessage(err))
	}
	redirectBoard(w, r, r.FormValue("sprint"))
}

func (h *Handler) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	_, err := h.sessions.Get(auth.UserID(ctx)).CreateAgent(ctx, session.AgentDraft{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
	})
	if err != nil {
		setFlash(w, bannerMessage(err))
	}
	redirectBoard(w, r, r.FormValue("sprint"))
}

func (h *Handler) handleDeleteAgent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.sessions.Get(auth.UserID(ctx)).DeleteAgent(ctx, chi.URLParam(r, "id")); err != nil {
		setFlash(w, bannerMessage(err))
	}
	redirectBoard(w, r, r.FormValue("sprint"))
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	sess, err := h.auth.Login(r.Context(), r.FormValue("email"), r.FormValue("password"), auth.ClientAddr(r))
	h.finishSignIn(w, r, sess, err)
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	sess, err := h.auth.Register(r.Context(), r.FormValue("email"), r.FormValue("password"))
	h.finishSignIn(w, r, sess, err)
}

func (h *Handler) finishSignIn(w http.ResponseWriter, r *http.Request, sess auth.Session, err error) {
	if !h.auth.Enabled() {
		redirectBoard(w, r, "")
		return
	}
	if err != nil {
		p := h.newPage(w, r)
		p.AuthEmail = r.FormValue("email")
		p.AuthError = userMessage(err)
		status := cerr.Normalize(r.Context(), err).Code.HTTPCode()
		h.render(w, r, p, status)
		return
	}
	auth.SetCookie(w, r, sess)
	redirectBoard(w, r, "")
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if p, ok := auth.FromContext(r.Context()); ok {
		h.sessions.Drop(p.UserID)
	}
	auth.ClearCookie(w)
	redirectBoard(w, r, "")
}

func (h *Handler) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.UserID(r.Context()) == "" {
			redirectBoard(w, r, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func redirectBoard(w http.ResponseWriter, r *http.Request, sprint string) {
	target := "/"
	if f := board.ParseSprintFilter(sprint); f != board.AllSprints {
		target += "?sprint=" + url.QueryEscape(f.String())
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func theme(r *http.Request) string {
	if c, err := r.Cookie(themeCookie); err == nil && c.Value == "dark" {
		return "dark"
	}
	return "light"
}

func setFlash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func takeFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})
	msg, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return msg
}

func userMessage(err error) string {
	var ce *cerr.Error
	if errors.As(err, &ce) {
		return ce.Msg
	}
	return "unexpected error"
}

func bannerMessage(err error) string {
	msg := userMessage(err)
	if cerr.IsCode(err, cerr.NotFound) || cerr.IsCode(err, cerr.InvalidArgument) {
		return msg
	}
	return "Could not save your changes: " + strings.TrimSuffix(msg, ".")
}

func priorities() []int {
	out := make([]int, 0, task.MaxPriority-task.MinPriority+1)
	for p := task.MinPriority; p <= task.MaxPriority; p++ {
		out = append(out, p)
	}
	return out
}

func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, errors.New("dict needs key/value pairs")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			return nil, errors.New("dict keys must be strings")
		}
		m[k] = kv[i+1]
	}
	return m, nil
}
