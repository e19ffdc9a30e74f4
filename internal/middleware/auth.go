package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-keeper/internal/repository"
	"github.com/iliyamo/notes-keeper/internal/utils"
)

// PrincipalFinder resolves the principal a token claims to belong to.
// *repository.UserRepo satisfies it.
type PrincipalFinder interface {
	GetByID(ctx context.Context, id uint64) (repository.User, error)
}

// TokenChecker answers whether a token is still recorded as issued.
// *repository.TokenRepo satisfies it.
type TokenChecker interface {
	Exists(ctx context.Context, userID uint64, token string) (bool, error)
}

// Context keys set by Authenticate on success. The raw token is kept so
// logout can revoke exactly the session that made the request.
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxToken  = "token"
)

// Authenticate validates a Bearer access token against both the signature
// and the token store, then injects the resolved principal into the
// request context.
//
// A missing or non-Bearer Authorization header is a neutral outcome: the
// request continues anonymously and RequireAuth decides whether that is
// acceptable for the route. Any failure past that point — bad signature,
// expired claims, unknown principal, or a token absent from the store —
// rejects the request with 401. The store membership check is what makes
// revocation work: deleting a token row ends the session even though the
// signature would still verify.
func Authenticate(secret string, users PrincipalFinder, tokens TokenChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return next(c) // anonymous
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			u, err := users.GetByID(ctx, claims.UserID)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown principal"})
			}
			live, err := tokens.Exists(ctx, u.ID, raw)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token lookup failed"})
			}
			if !live {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token revoked"})
			}

			c.Set(ctxUserID, u.ID)
			c.Set(ctxRole, u.Role)
			c.Set(ctxToken, raw)
			return next(c)
		}
	}
}

// RequireAuth rejects anonymous requests on protected routes. The request
// was never authenticated, so the uniform answer is 403 rather than 401:
// the deny comes from policy, not from a broken credential.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := CurrentUserID(c); !ok {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "authentication required"})
			}
			return next(c)
		}
	}
}

// RequireRole enforces that the authenticated principal has one of the
// given roles. Requests with a missing or unlisted role get 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(ctxRole).(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// CurrentUserID returns the authenticated principal id, if any.
func CurrentUserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ctxUserID).(uint64)
	return id, ok
}

// CurrentToken returns the raw bearer token of the request, if any.
func CurrentToken(c echo.Context) (string, bool) {
	t, ok := c.Get(ctxToken).(string)
	return t, ok
}
