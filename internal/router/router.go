package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/venue-reservation/internal/handler"
    "github.com/iliyamo/venue-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    // Health endpoint for load balancers and monitoring.
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers authentication routes. Unauthenticated
// operations live under /v1/auth, while /v1/me requires a valid access
// token of any role.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    g.POST("/refresh", a.Refresh)

    auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
    auth.GET("/me", a.Me)
    auth.POST("/logout", a.Logout)
}

// RegisterPublic registers the unauthenticated venue catalogue: browsing
// facilities, per-facility availability and fee quotes. The optional
// cache middleware keeps these hot read paths off the database.
func RegisterPublic(e *echo.Echo, f *handler.FacilityHandler, cache echo.MiddlewareFunc) {
    g := e.Group("/v1")
    if cache != nil {
        g.Use(cache)
    }
    g.GET("/facilities", f.List)
    g.GET("/facilities/:id", f.Get)
    g.GET("/facilities/:id/availability", f.Availability)
    g.GET("/facilities/:id/quote", f.Quote)
}
