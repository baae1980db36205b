package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Health reports service liveness.
func Health(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
