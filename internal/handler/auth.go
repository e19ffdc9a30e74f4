package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-keeper/internal/config"
	"github.com/iliyamo/notes-keeper/internal/middleware"
	"github.com/iliyamo/notes-keeper/internal/repository"
	"github.com/iliyamo/notes-keeper/internal/utils"
)

// UserAccounts is the slice of the user repository the auth endpoints
// need. *repository.UserRepo satisfies it.
type UserAccounts interface {
	CreateWithToken(ctx context.Context, username, password, role string, cost int, sign func(id uint64) (string, error)) (uint64, string, error)
	GetByUsername(ctx context.Context, username string) (repository.User, error)
	GetByID(ctx context.Context, id uint64) (repository.User, error)
}

// TokenIssuer is the slice of the token repository the auth endpoints
// need. *repository.TokenRepo satisfies it.
type TokenIssuer interface {
	Issue(ctx context.Context, userID uint64, token string) error
	Revoke(ctx context.Context, token string) error
}

// AuthHandler bundles dependencies for registration, login and logout.
type AuthHandler struct {
	Cfg      config.Config
	Users    UserAccounts
	Tokens   TokenIssuer
	Validate *validator.Validate
}

func NewAuthHandler(cfg config.Config, u UserAccounts, t TokenIssuer) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Validate: validator.New()}
}

// ----- DTOs -----

type registerReq struct {
	Username        string `json:"username" validate:"required,max=150"`
	Password        string `json:"password" validate:"required,max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}
type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userPart struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func publicUser(u repository.User) userPart {
	return userPart{ID: u.ID, Username: u.Username, Role: u.Role}
}

// fieldErrors flattens validator failures into a field -> message map so
// clients see which input was wrong rather than one opaque string.
func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["body"] = "invalid input"
		return out
	}
	for _, fe := range verrs {
		switch {
		case fe.Field() == "ConfirmPassword" && fe.Tag() == "eqfield":
			out["confirm_password"] = "Password fields didn't match."
		case fe.Tag() == "required":
			out[snake(fe.Field())] = "This field is required."
		default:
			out[snake(fe.Field())] = "Invalid value."
		}
	}
	return out
}

// snake maps the DTO field names used above to their json names.
func snake(field string) string {
	switch field {
	case "ConfirmPassword":
		return "confirm_password"
	default:
		return strings.ToLower(field)
	}
}

// Register creates a principal and issues a token immediately, so
// registration doubles as login. User row and token row land in one
// transaction: if the token cannot be stored, the username is not
// consumed and the client can retry cleanly.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fieldErrors(err)})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, token, err := h.Users.CreateWithToken(ctx, req.Username, req.Password, repository.RoleOrdinary, h.Cfg.BcryptCost,
		func(id uint64) (string, error) {
			access, err := utils.NewAccessToken(h.Cfg.JWTSecret, id, repository.RoleOrdinary, h.Cfg.AccessTTLMin)
			if err != nil {
				return "", err
			}
			return access.Token, nil
		})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"data":  userPart{ID: uid, Username: strings.ToLower(strings.TrimSpace(req.Username)), Role: repository.RoleOrdinary},
		"token": token,
	})
}

// Login verifies credentials and stores a fresh token row. Existing rows
// are untouched, so several devices can hold live tokens at once.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fieldErrors(err)})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials."})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	if err := h.Tokens.Issue(ctx, u.ID, access.Token); err != nil {
		// Two logins in the same second sign byte-identical tokens; the
		// row is already live, so the token can still be handed out.
		if !errors.Is(err, repository.ErrDuplicateToken) {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save token failed"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"token": access.Token})
}

// Logout revokes the token that authenticated this request. The signature
// stays valid until expiry but the store row is gone, so the Authenticator
// rejects the token from now on.
func (h *AuthHandler) Logout(c echo.Context) error {
	raw, ok := middleware.CurrentToken(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "authentication required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tokens.Revoke(ctx, raw); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated principal's public fields.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "authentication required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": publicUser(u)})
}
