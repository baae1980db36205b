package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/venue-reservation/internal/handler"
    "github.com/iliyamo/venue-reservation/internal/middleware"
    "github.com/iliyamo/venue-reservation/internal/model"
)

// RegisterStaff registers the approver surfaces. Admin and MDRR staff
// share the reservation queue and decision endpoints; the handler scopes
// MDRR listings to designated facilities and the workflow enforces which
// role may act on which reservation. Catalogue management, the
// orphaned-promotion queue, staff provisioning and the audit trail are
// admin only.
func RegisterStaff(e *echo.Echo, s *handler.StaffReservationHandler, fa *handler.AdminFacilityHandler, a *handler.AuthHandler, n *handler.NotificationHandler, jwtSecret string) {
    staff := e.Group(
        "/v1/staff",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleAdmin, model.RoleMDRR),
    )
    staff.GET("/reservations", s.List)
    staff.POST("/reservations/:id/approve", s.Approve)
    staff.POST("/reservations/:id/decline", s.Decline)
    staff.POST("/reservations/:id/cancel", s.Cancel)
    staff.POST("/reservations/:id/read", s.MarkRead)
    registerNotifications(staff, n)

    admin := e.Group(
        "/v1/admin",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleAdmin),
    )
    admin.GET("/facilities", fa.List)
    admin.POST("/facilities", fa.Create)
    admin.PUT("/facilities/:id", fa.Update)
    admin.PATCH("/facilities/:id", fa.Update)
    admin.DELETE("/facilities/:id", fa.Deactivate)

    admin.POST("/users", a.CreateStaff)

    admin.GET("/approvals/conflicted", s.ListConflicted)
    admin.POST("/approvals/:id/retry-promotion", s.RetryPromotion)
    admin.GET("/transactions", s.Transactions)
}

// RegisterCollector registers the payment collector's queue under
// /v1/collector. Approving a pre-approval promotes it into a pending
// reservation; declining ends the booking.
func RegisterCollector(e *echo.Echo, h *handler.CollectorHandler, n *handler.NotificationHandler, jwtSecret string) {
    g := e.Group(
        "/v1/collector",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RolePaymentCollector),
    )
    g.GET("/approvals", h.List)
    g.GET("/approvals/:id", h.Get)
    g.POST("/approvals/:id/approve", h.Approve)
    g.POST("/approvals/:id/decline", h.Decline)
    registerNotifications(g, n)
}
