package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-keeper/internal/config"
	"github.com/iliyamo/notes-keeper/internal/middleware"
	"github.com/iliyamo/notes-keeper/internal/policy"
	"github.com/iliyamo/notes-keeper/internal/repository"
)

// UserDirectory is the slice of the user repository the profile endpoints
// need. *repository.UserRepo satisfies it.
type UserDirectory interface {
	GetByID(ctx context.Context, id uint64) (repository.User, error)
	List(ctx context.Context) ([]repository.User, error)
	UpdateUsername(ctx context.Context, id uint64, username string) error
	UpdatePassword(ctx context.Context, id uint64, password string, cost int) error
	Delete(ctx context.Context, id uint64) error
}

// UserHandler serves the principal listing (elevated only) and own-profile
// reads and writes.
type UserHandler struct {
	Cfg      config.Config
	Users    UserDirectory
	Validate *validator.Validate
}

func NewUserHandler(cfg config.Config, u UserDirectory) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u, Validate: validator.New()}
}

type userUpdateReq struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required,max=128"`
}

type userPatchReq struct {
	Username *string `json:"username" validate:"omitempty,min=1,max=150"`
	Password *string `json:"password" validate:"omitempty,max=128"`
}

// List handles GET /v1/users. The elevated-role gate runs in middleware;
// this handler only shapes the response.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]userPart, 0, len(users))
	for _, u := range users {
		out = append(out, publicUser(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// Get handles GET /v1/users/:id; a principal may only read its own
// profile.
func (h *UserHandler) Get(c echo.Context) error {
	id, ok, err := h.ownParam(c)
	if !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": publicUser(u)})
}

// Update handles PUT /v1/users/:id, a full replacement of the requester's
// own profile: both username and password are required.
func (h *UserHandler) Update(c echo.Context) error {
	id, ok, err := h.ownParam(c)
	if !ok {
		return err
	}
	var req userUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fieldErrors(err)})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.UpdateUsername(ctx, id, req.Username); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if err := h.Users.UpdatePassword(ctx, id, req.Password, h.Cfg.BcryptCost); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": publicUser(u)})
}

// Patch handles PATCH /v1/users/:id, updating username and/or password of
// the requester's own profile.
func (h *UserHandler) Patch(c echo.Context) error {
	id, ok, err := h.ownParam(c)
	if !ok {
		return err
	}
	var req userPatchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fieldErrors(err)})
	}
	if req.Username == nil && req.Password == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if req.Username != nil {
		if err := h.Users.UpdateUsername(ctx, id, *req.Username); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	if req.Password != nil {
		if err := h.Users.UpdatePassword(ctx, id, *req.Password, h.Cfg.BcryptCost); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": publicUser(u)})
}

// Delete handles DELETE /v1/users/:id. Removing the principal cascades to
// its token rows, so every session of the account dies with it.
func (h *UserHandler) Delete(c echo.Context) error {
	id, ok, err := h.ownParam(c)
	if !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ownParam parses the :id parameter and enforces the own-profile policy.
// When ok is false the response has already been written.
func (h *UserHandler) ownParam(c echo.Context) (id uint64, ok bool, err error) {
	uid, authed := middleware.CurrentUserID(c)
	if !authed {
		return 0, false, c.JSON(http.StatusForbidden, echo.Map{"error": "authentication required"})
	}
	id, perr := strconv.ParseUint(c.Param("id"), 10, 64)
	if perr != nil {
		return 0, false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if !policy.OwnProfile(uid, id) {
		return 0, false, c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return id, true, nil
}
