package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-keeper/internal/middleware"
	"github.com/iliyamo/notes-keeper/internal/queue"
	"github.com/iliyamo/notes-keeper/internal/repository"
	queue_publisher "github.com/iliyamo/notes-keeper/internal/service"
)

// Notes is the cache-aside store surface the handlers call.
// *store.NoteStore satisfies it.
type Notes interface {
	Create(ctx context.Context, requesterID uint64, title, content string) (*repository.Note, error)
	Get(ctx context.Context, requesterID, id uint64) (*repository.Note, error)
	List(ctx context.Context, requesterID uint64) ([]*repository.Note, error)
	Update(ctx context.Context, requesterID, id uint64, title, content string) (*repository.Note, error)
	Patch(ctx context.Context, requesterID, id uint64, title, content *string) (*repository.Note, error)
	Delete(ctx context.Context, requesterID, id uint64) (*repository.Note, error)
}

// NoteHandler maps note CRUD onto the cache-aside store and the response
// envelope. Publish is called after every committed mutation; it defaults
// to the RabbitMQ publisher and its failures are ignored.
type NoteHandler struct {
	Store    Notes
	Validate *validator.Validate
	Publish  func(ctx context.Context, ev queue.NoteActivityEvent) error
}

func NewNoteHandler(s Notes) *NoteHandler {
	return &NoteHandler{
		Store:    s,
		Validate: validator.New(),
		Publish:  queue_publisher.PublishNoteActivity,
	}
}

// ----- DTOs -----

// Owner and User are accepted and discarded: the stored owner is always
// the authenticated requester, never client input.
type noteReq struct {
	Title   string  `json:"title" validate:"required,max=255"`
	Content string  `json:"content" validate:"required"`
	Owner   *uint64 `json:"owner"`
	User    *uint64 `json:"user"`
}

type notePatchReq struct {
	Title   *string `json:"title" validate:"omitempty,max=255"`
	Content *string `json:"content"`
	Owner   *uint64 `json:"owner"`
	User    *uint64 `json:"user"`
}

// noteError maps the closed store error set onto HTTP statuses.
func noteError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "persistence failure"})
	}
}

func noteParam(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

func (h *NoteHandler) publish(action string, n *repository.Note) {
	if h.Publish == nil {
		return
	}
	ev := queue.NoteActivityEvent{
		EventID:    uuid.NewString(),
		Action:     action,
		NoteID:     n.ID,
		OwnerID:    n.OwnerID,
		Title:      n.Title,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	// Fail-soft: the durable write already committed, an unsent event is
	// only a missing audit line.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = h.Publish(ctx, ev)
}

// Create handles POST /v1/notes.
func (h *NoteHandler) Create(c echo.Context) error {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "authentication required"})
	}
	var req noteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fieldErrors(err)})
	}
	n, err := h.Store.Create(c.Request().Context(), uid, req.Title, req.Content)
	if err != nil {
		return noteError(c, err)
	}
	h.publish(queue.ActionCreated, n)
	return c.JSON(http.StatusCreated, echo.Map{"data": n})
}

// List handles GET /v1/notes; responses are always scoped to the
// requester's own notes.
func (h *NoteHandler) List(c echo.Context) error {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "authentication required"})
	}
	notes, err := h.Store.List(c.Request().Context(), uid)
	if err != nil {
		return noteError(c, err)
	}
	if notes == nil {
		notes = []*repository.Note{}
	}
	return c.JSON(http.StatusOK, echo.Map{"data": notes})
}

// Get handles GET /v1/notes/:id.
func (h *NoteHandler) Get(c echo.Context) error {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "authentication required"})
	}
	id, err := noteParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	n, err := h.Store.Get(c.Request().Context(), uid, id)
	if err != nil {
		return noteError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": n})
}

// Update handles PUT /v1/notes/:id, a full replacement of title and
// content.
func (h *NoteHandler) Update(c echo.Context) error {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "authentication required"})
	}
	id, err := noteParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req noteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fieldErrors(err)})
	}
	n, err := h.Store.Update(c.Request().Context(), uid, id, req.Title, req.Content)
	if err != nil {
		return noteError(c, err)
	}
	h.publish(queue.ActionUpdated, n)
	return c.JSON(http.StatusOK, echo.Map{"data": n})
}

// Patch handles PATCH /v1/notes/:id; absent fields keep their values.
func (h *NoteHandler) Patch(c echo.Context) error {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "authentication required"})
	}
	id, err := noteParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req notePatchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fieldErrors(err)})
	}
	n, err := h.Store.Patch(c.Request().Context(), uid, id, req.Title, req.Content)
	if err != nil {
		return noteError(c, err)
	}
	h.publish(queue.ActionUpdated, n)
	return c.JSON(http.StatusOK, echo.Map{"data": n})
}

// Delete handles DELETE /v1/notes/:id.
func (h *NoteHandler) Delete(c echo.Context) error {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "authentication required"})
	}
	id, err := noteParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	n, err := h.Store.Delete(c.Request().Context(), uid, id)
	if err != nil {
		return noteError(c, err)
	}
	h.publish(queue.ActionDeleted, n)
	return c.NoContent(http.StatusNoContent)
}
