// Package router wires handlers to their routes and applies the
// session and role middleware per group.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"librarydesk/internal/auth"
	"librarydesk/internal/config"
	"librarydesk/internal/handler"
	"librarydesk/internal/middleware"
	"librarydesk/internal/model"
)

// Handlers collects every handler the router mounts.
type Handlers struct {
	Auth    *handler.AuthHandler
	Books   *handler.BookHandler
	Shelves *handler.ShelfHandler
	Members *handler.MemberHandler
	Loans   *handler.LoanHandler
	WS      *handler.WSHandler
}

// Register mounts all routes.  Auth endpoints are rate-limited when
// Redis is available; catalog reads and loan queries require any valid
// session while mutations require staff roles.
func Register(e *echo.Echo, h Handlers, sessions auth.Store, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)
	e.GET("/ws", h.WS.Serve)

	limit := middleware.NewTokenBucket(rlCfg, rdb)
	authGroup := e.Group("/api/auth", limit)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/login-pin", h.Auth.LoginPIN)
	authGroup.POST("/login-qr", h.Auth.LoginQR)
	authGroup.POST("/validate-session", h.Auth.ValidateSession)
	authGroup.POST("/logout", h.Auth.Logout)

	api := e.Group("/api", middleware.RequireSession(sessions))
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleLibrarian)

	api.GET("/books", h.Books.List)
	api.GET("/books/:id", h.Books.Get)
	api.GET("/books/:id/availability", h.Books.Availability)
	api.GET("/books/:id/copies", h.Books.ListCopies)
	api.POST("/books", h.Books.Create, staff)
	api.PUT("/books/:id", h.Books.Update, staff)
	api.DELETE("/books/:id", h.Books.Delete, staff)

	api.POST("/copies", h.Books.CreateCopy, staff)
	api.PUT("/copies/:id", h.Books.UpdateCopy, staff)
	api.DELETE("/copies/:id", h.Books.DeleteCopy, staff)
	api.POST("/copies/:id/move", h.Books.MoveCopy, staff)

	api.GET("/shelves", h.Shelves.List)
	api.GET("/shelves/:id", h.Shelves.Get)
	api.POST("/shelves", h.Shelves.Create, staff)
	api.PUT("/shelves/:id", h.Shelves.Update, staff)
	api.DELETE("/shelves/:id", h.Shelves.Delete, staff)

	api.GET("/members", h.Members.List, staff)
	api.GET("/members/:id", h.Members.Get)
	api.GET("/members/:id/credentials", h.Members.Credentials, staff)
	api.POST("/members", h.Members.Create, staff)
	api.PUT("/members/:id", h.Members.Update, staff)
	api.DELETE("/members/:id", h.Members.Delete, staff)

	api.GET("/loans", h.Loans.ListAll)
	api.GET("/loans/active", h.Loans.ListActive)
	api.GET("/loans/overdue", h.Loans.ListOverdue)
	api.GET("/loans/member/:id", h.Loans.ListByMember)
	api.POST("/loans/borrow", h.Loans.Borrow, staff)
	api.POST("/loans/return", h.Loans.Return)
	api.POST("/loans/return-qr", h.Loans.ReturnQR)
}
