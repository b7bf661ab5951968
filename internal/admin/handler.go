// Package admin serves the server-rendered frontend of the user directory.
// It talks to the REST API only through the client SDK.
package admin

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-user-directory/pkg/apperr"
	"github.com/ovaphlow/pitchfork/service-user-directory/pkg/client"
)

//go:embed templates/*.html
var templateFS embed.FS

const sessionName = "user-directory-admin"

// Flash messages.
const (
	FlashCreated = "User created successfully"
	FlashUpdated = "User updated successfully"
	FlashDeleted = "User deleted successfully"
)

// UserAPI is the part of the client SDK the frontend uses.
type UserAPI interface {
	ListUsers(ctx context.Context) ([]client.User, error)
	GetUser(ctx context.Context, id string) (*client.User, error)
	CreateUser(ctx context.Context, in client.UserInput) (*client.User, error)
	UpdateUser(ctx context.Context, id string, in client.UserInput) (*client.User, error)
	DeleteUser(ctx context.Context, id string) error
}

var _ UserAPI = (*client.Client)(nil)

// Options configures the frontend handler.
type Options struct {
	SessionKey []byte
	// Secure marks the session cookie as HTTPS only.
	Secure bool
}

// Handler renders the admin pages.
type Handler struct {
	api    UserAPI
	logger *zap.SugaredLogger
	store  *sessions.CookieStore
	tpl    *template.Template
}

// NewHandler parses the embedded templates and prepares the cookie store
// that carries flash messages between redirects.
func NewHandler(api UserAPI, logger *zap.SugaredLogger, opts Options) (*Handler, error) {
	if len(opts.SessionKey) == 0 {
		return nil, errors.New("admin: session key is required")
	}
	tpl, err := template.New("").Funcs(template.FuncMap{
		"join": strings.Join,
		"date": func(t time.Time) string { return t.Local().Format("2006-01-02 15:04") },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	store := sessions.NewCookieStore(opts.SessionKey)
	store.MaxAge(3600)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = opts.Secure
	store.Options.SameSite = http.SameSiteLaxMode

	return &Handler{api: api, logger: logger, store: store, tpl: tpl}, nil
}

// Routes mounts the admin pages on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/users", http.StatusFound)
	})
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/new", h.New)
		r.Get("/{id}", h.Detail)
		r.Post("/{id}", h.Update)
		r.Get("/{id}/edit", h.Edit)
		r.Get("/{id}/delete", h.ConfirmDelete)
		r.Post("/{id}/delete", h.Delete)
	})
}

type listPage struct {
	Flashes []string
	Query   string
	Stats   Stats
	Users   []client.User
}

type detailPage struct {
	Flashes []string
	User    *client.User
}

type formPage struct {
	Flashes []string
	Title   string
	Action  string
	Form    Form
	Error   string
}

type errorPage struct {
	Status  int
	Message string
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.api.ListUsers(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	q := r.URL.Query().Get("q")
	h.render(w, http.StatusOK, "list.html", listPage{
		Flashes: h.flashes(w, r),
		Query:   q,
		Stats:   computeStats(users),
		Users:   filterUsers(users, q),
	})
}

func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	u, err := h.api.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, http.StatusOK, "detail.html", detailPage{Flashes: h.flashes(w, r), User: u})
}

func (h *Handler) New(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "form.html", formPage{Title: "Add user", Action: "/users"})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, apperr.Wrap(apperr.Validation, err, "Invalid form submission"))
		return
	}
	page := formPage{Title: "Add user", Action: "/users", Form: formFromValues(r.PostForm)}
	in, err := page.Form.Input()
	if err != nil {
		page.Error = "Failed to create user: " + errorMessage(err)
		h.render(w, http.StatusBadRequest, "form.html", page)
		return
	}
	u, err := h.api.CreateUser(r.Context(), in)
	if err != nil {
		if status, ok := rejected(err); ok {
			page.Error = "Failed to create user: " + errorMessage(err)
			h.render(w, status, "form.html", page)
			return
		}
		h.renderError(w, r, err)
		return
	}
	h.logger.Infow("user created via admin", "id", u.ID)
	h.flash(w, r, FlashCreated)
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	u, err := h.api.GetUser(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, http.StatusOK, "form.html", formPage{
		Title:  "Edit user",
		Action: "/users/" + id,
		Form:   formFromUser(u),
	})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, apperr.Wrap(apperr.Validation, err, "Invalid form submission"))
		return
	}
	page := formPage{Title: "Edit user", Action: "/users/" + id, Form: formFromValues(r.PostForm)}
	in, err := page.Form.Input()
	if err != nil {
		page.Error = "Failed to update user: " + errorMessage(err)
		h.render(w, http.StatusBadRequest, "form.html", page)
		return
	}
	if _, err := h.api.UpdateUser(r.Context(), id, in); err != nil {
		if status, ok := rejected(err); ok && status != http.StatusNotFound {
			page.Error = "Failed to update user: " + errorMessage(err)
			h.render(w, status, "form.html", page)
			return
		}
		h.renderError(w, r, err)
		return
	}
	h.logger.Infow("user updated via admin", "id", id)
	h.flash(w, r, FlashUpdated)
	http.Redirect(w, r, "/users/"+id, http.StatusSeeOther)
}

func (h *Handler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	u, err := h.api.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, http.StatusOK, "delete.html", detailPage{User: u})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.api.DeleteUser(r.Context(), id); err != nil {
		h.renderError(w, r, err)
		return
	}
	h.logger.Infow("user deleted via admin", "id", id)
	h.flash(w, r, FlashDeleted)
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// rejected reports whether the API refused the request, as opposed to
// failing or being unreachable.
func rejected(err error) (int, bool) {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status, true
	}
	return 0, false
}

func errorMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	if apperr.KindOf(err) == apperr.Validation {
		return apperr.MessageOf(err)
	}
	return "Unknown error"
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	page := errorPage{Status: http.StatusBadGateway, Message: errorMessage(err)}
	if status, ok := rejected(err); ok {
		page.Status = status
	} else if apperr.KindOf(err) == apperr.Validation {
		page.Status = http.StatusBadRequest
	} else {
		h.logger.Errorw("admin request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	h.render(w, page.Status, "error.html", page)
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.tpl.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Errorw("render template", "template", name, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) flash(w http.ResponseWriter, r *http.Request, msg string) {
	// a cookie signed with a rotated key fails to decode; a fresh session is fine
	session, _ := h.store.Get(r, sessionName)
	session.AddFlash(msg)
	if err := session.Save(r, w); err != nil {
		h.logger.Warnw("save session", "err", err)
	}
}

func (h *Handler) flashes(w http.ResponseWriter, r *http.Request) []string {
	session, _ := h.store.Get(r, sessionName)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := session.Save(r, w); err != nil {
		h.logger.Warnw("save session", "err", err)
	}
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
