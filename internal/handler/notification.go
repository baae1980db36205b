package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/venue-reservation/internal/repository"
)

// NotificationHandler serves the per-user notification feed written by
// the workflow fan-out.
type NotificationHandler struct {
    Notifications *repository.NotificationRepo
}

func NewNotificationHandler(n *repository.NotificationRepo) *NotificationHandler {
    return &NotificationHandler{Notifications: n}
}

type notificationView struct {
    ID          uint64 `json:"id"`
    Message     string `json:"message"`
    ActionType  string `json:"action_type"`
    RelatedType string `json:"related_type"`
    RelatedID   uint64 `json:"related_id"`
    IsRead      bool   `json:"is_read"`
    CreatedAt   string `json:"created_at"`
}

// List returns the caller's notifications, newest first.
func (h *NotificationHandler) List(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    items, err := h.Notifications.ListByUser(c.Request().Context(), uid)
    if err != nil {
        return workflowError(c, err)
    }
    out := make([]notificationView, 0, len(items))
    for _, n := range items {
        out = append(out, notificationView{
            ID:          n.ID,
            Message:     n.Message,
            ActionType:  n.ActionType,
            RelatedType: n.RelatedType,
            RelatedID:   n.RelatedID,
            IsRead:      n.IsRead,
            CreatedAt:   n.CreatedAt.UTC().Format(time.RFC3339),
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"notifications": out})
}

// UnreadCount returns how many of the caller's notifications are unread.
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    n, err := h.Notifications.CountUnread(c.Request().Context(), uid)
    if err != nil {
        return workflowError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"unread": n})
}

// MarkRead marks one of the caller's notifications as read. Re-marking a
// read notification is a no-op.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid notification id"})
    }
    if err := h.Notifications.MarkRead(c.Request().Context(), id, uid); err != nil {
        return workflowError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "marked read"})
}

// Delete removes one of the caller's notifications.
func (h *NotificationHandler) Delete(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid notification id"})
    }
    if err := h.Notifications.Delete(c.Request().Context(), id, uid); err != nil {
        return workflowError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}
