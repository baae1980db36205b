package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/venue-reservation/internal/handler"
    "github.com/iliyamo/venue-reservation/internal/middleware"
    "github.com/iliyamo/venue-reservation/internal/model"
)

// RegisterUser registers end-user booking endpoints under /v1. All routes
// require a valid JWT and the USER role. Users submit bookings, follow
// their reservations and pre-approvals, and cancel their own approved
// bookings.
func RegisterUser(e *echo.Echo, b *handler.BookingHandler, n *handler.NotificationHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleUser),
    )

    g.POST("/bookings", b.Create)
    g.GET("/my-reservations", b.List)
    g.GET("/my-approvals", b.ListApprovals)
    g.GET("/reservations/:id", b.Get)
    g.POST("/reservations/:id/cancel", b.Cancel)

    registerNotifications(g, n)
}

// registerNotifications attaches the notification feed to an
// authenticated group. Every role gets the same feed.
func registerNotifications(g *echo.Group, n *handler.NotificationHandler) {
    g.GET("/notifications", n.List)
    g.GET("/notifications/unread-count", n.UnreadCount)
    g.POST("/notifications/:id/read", n.MarkRead)
    g.DELETE("/notifications/:id", n.Delete)
}
