// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-keeper/internal/handler"
	"github.com/iliyamo/notes-keeper/internal/middleware"
	"github.com/iliyamo/notes-keeper/internal/repository"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check for load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers registration and login under /v1/auth, plus the
// token-holder endpoints (/v1/me, /v1/auth/logout). The Authenticate
// middleware is applied globally in main, so by the time these handlers
// run the context either carries a principal or the request is anonymous.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Logout revokes exactly the token that authenticated the call, so it
	// sits behind RequireAuth like any other protected route.
	g.POST("/logout", a.Logout, middleware.RequireAuth())

	auth := e.Group("/v1")
	auth.Use(middleware.RequireAuth())
	auth.GET("/me", a.Me)
}

// RegisterNotes registers the note CRUD endpoints. Every route requires an
// authenticated principal; ownership is enforced per object inside the
// store.
func RegisterNotes(e *echo.Echo, n *handler.NoteHandler) {
	g := e.Group("/v1/notes")
	g.Use(middleware.RequireAuth())
	g.POST("", n.Create)
	g.GET("", n.List)
	g.GET("/:id", n.Get)
	g.PUT("/:id", n.Update)
	g.PATCH("/:id", n.Patch)
	g.DELETE("/:id", n.Delete)
}

// RegisterUsers registers the principal listing (elevated role only) and
// the own-profile routes.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler) {
	g := e.Group("/v1/users")
	g.Use(middleware.RequireAuth())
	g.GET("", u.List, middleware.RequireRole(repository.RoleElevated))
	g.GET("/:id", u.Get)
	g.PUT("/:id", u.Update)
	g.PATCH("/:id", u.Patch)
	g.DELETE("/:id", u.Delete)
}
