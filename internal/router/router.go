// Package router maps HTTP routes to handlers and attaches the
// middleware each group needs.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/standakozak/ticketsbooking/internal/config"
	"github.com/standakozak/ticketsbooking/internal/handler"
	"github.com/standakozak/ticketsbooking/internal/middleware"
)

// RegisterRoutes wires the public booking endpoints and the protected
// admin surface. The rate limiter guards the booking writes, the
// response cache sits on availability, and everything under /v1/admin
// except login requires an admin token.
func RegisterRoutes(e *echo.Echo, cfg config.Config, rdb *redis.Client, b *handler.BookingHandler, a *handler.AdminHandler) {
	e.GET("/healthz", handler.Health)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)

	v1 := e.Group("/v1")
	v1.POST("/bookings/standing", b.BookStanding, limiter)
	v1.POST("/bookings/tables", b.BookTables, limiter)
	v1.GET("/availability", b.Availability, cache)

	admin := v1.Group("/admin")
	admin.POST("/login", a.Login)

	protected := admin.Group("", middleware.AdminAuth(cfg.JWTSecret))
	protected.POST("/sweep", a.Sweep)
	protected.POST("/sweep/restore", a.RestoreSweep)
	protected.POST("/seats/:id/cancel", a.CancelSeat)
	protected.POST("/reconcile", a.Reconcile)
	protected.POST("/reconcile-and-sweep", a.ReconcileAndSweep)
	protected.GET("/statement", a.Statement)
	protected.GET("/attendees/search", a.FindAttendee)
	protected.GET("/attendees", a.ListAttendees)
	protected.DELETE("/attendees/:id", a.DeleteAttendee)
	protected.POST("/attendees/paid", a.SetPaid)
	protected.POST("/attendees/collected", a.SetCollected)
	protected.GET("/seats", a.ListSeats)
}
