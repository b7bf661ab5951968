package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-user-directory/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-user-directory/internal/user/validation"
	"github.com/ovaphlow/pitchfork/service-user-directory/pkg/httpx"
)

// Handler exposes HTTP endpoints for the user directory.
type Handler struct {
	svc    *UserService
	logger *zap.SugaredLogger
}

func NewHandler(svc *UserService, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// ListResponse is the body of GET /api/users.
type ListResponse struct {
	Success bool           `json:"success"`
	Count   int            `json:"count"`
	Data    []*entity.User `json:"data"`
}

// UserResponse wraps a single user.
type UserResponse struct {
	Success bool         `json:"success"`
	Data    *entity.User `json:"data"`
}

// DeleteResponse confirms a deletion.
type DeleteResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    struct{} `json:"data"`
}

// Routes mounts the user endpoints on r. Errors go through tr.
func (h *Handler) Routes(r chi.Router, tr *httpx.Translator) {
	r.Get("/", tr.Wrap(h.List))
	r.Post("/", tr.Wrap(h.Create))
	r.Get("/{id}", tr.Wrap(h.Get))
	r.Put("/{id}", tr.Wrap(h.Update))
	r.Delete("/{id}", tr.Wrap(h.Delete))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) error {
	users, err := h.svc.List(r.Context())
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, http.StatusOK, ListResponse{Success: true, Count: len(users), Data: users})
	return nil
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) error {
	u, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, http.StatusOK, UserResponse{Success: true, Data: u})
	return nil
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) error {
	var c entity.Candidate
	if err := validation.Decode(r.Body, &c); err != nil {
		return err
	}
	u, err := h.svc.Create(r.Context(), c)
	if err != nil {
		return err
	}
	h.logger.Infow("user created", "id", u.ID)
	httpx.WriteJSON(w, http.StatusCreated, UserResponse{Success: true, Data: u})
	return nil
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) error {
	var p entity.Patch
	if err := validation.Decode(r.Body, &p); err != nil {
		return err
	}
	id := chi.URLParam(r, "id")
	u, err := h.svc.Update(r.Context(), id, p)
	if err != nil {
		return err
	}
	h.logger.Infow("user updated", "id", id)
	httpx.WriteJSON(w, http.StatusOK, UserResponse{Success: true, Data: u})
	return nil
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		return err
	}
	h.logger.Infow("user deleted", "id", id)
	httpx.WriteJSON(w, http.StatusOK, DeleteResponse{Success: true, Message: MsgDeleted})
	return nil
}
