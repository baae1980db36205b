package handler // handler defines http handlers

import (
    "errors"  // errors provides sentinel values used in getUserID
    "net/http"
    "strconv" // strconv converts strings to numeric types

    "github.com/labstack/echo/v4" // echo defines request context types

    "github.com/iliyamo/venue-reservation/internal/model"
    "github.com/iliyamo/venue-reservation/internal/repository"
    "github.com/iliyamo/venue-reservation/internal/workflow"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64.
// The JWT middleware stores the raw claim value, which the jwt library may
// surface as float64, so every plausible numeric shape is accepted.
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// getActor builds the workflow actor from the authenticated context.
func getActor(c echo.Context) (workflow.Actor, error) {
    uid, err := getUserID(c)
    if err != nil {
        return workflow.Actor{}, err
    }
    role, ok := c.Get("role").(string)
    if !ok || role == "" {
        return workflow.Actor{}, errors.New("invalid role in context")
    }
    return workflow.Actor{ID: uid, Role: role}, nil
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
    return strconv.ParseUint(c.Param(name), 10, 64)
}

// workflowError translates workflow and repository errors into JSON
// responses. Unknown errors become a generic 500 so internals never leak
// to clients.
func workflowError(c echo.Context, err error) error {
    var ve *workflow.ValidationError
    var te *workflow.InvalidTransitionError
    switch {
    case errors.Is(err, workflow.ErrSlotConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "slot_conflict", "message": err.Error()})
    case errors.Is(err, workflow.ErrAlreadyDecided):
        return c.JSON(http.StatusConflict, echo.Map{"error": "already_decided", "message": err.Error()})
    case errors.As(err, &ve):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "field": ve.Field, "message": ve.Reason})
    case errors.As(err, &te):
        return c.JSON(http.StatusConflict, echo.Map{"error": "invalid_transition", "message": te.Error()})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, repository.ErrFacilityNotFound),
        errors.Is(err, repository.ErrReservationNotFound),
        errors.Is(err, repository.ErrApprovalNotFound),
        errors.Is(err, repository.ErrNotificationNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": err.Error()})
    }
    c.Logger().Errorf("handler: %v", err)
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal"})
}

// statusFilter validates an optional ?status= query value.
func statusFilter(c echo.Context) (string, bool) {
    s := c.QueryParam("status")
    if s == "" || workflow.ValidStatus(s) {
        return s, true
    }
    return "", false
}

// warningsField returns nil for an empty warning list so the JSON field is
// omitted when every side effect succeeded.
func warningsField(ws []string) []string {
    if len(ws) == 0 {
        return nil
    }
    return ws
}

// reservationView is the single-reservation response shape.
type reservationView struct {
    ID                 uint64   `json:"id"`
    FacilityID         uint64   `json:"facility_id"`
    UserID             uint64   `json:"user_id"`
    BookerName         string   `json:"booker_name"`
    BookerEmail        string   `json:"booker_email"`
    BookerPhone        string   `json:"booker_phone"`
    StartTime          string   `json:"start_time"`
    EndTime            string   `json:"end_time"`
    Purpose            *string  `json:"purpose,omitempty"`
    Attendees          *uint32  `json:"attendees,omitempty"`
    SpecialRequests    *string  `json:"special_requests,omitempty"`
    ReceiptImageURL    *string  `json:"receipt_image_url,omitempty"`
    Status             string   `json:"status"`
    CancellationReason *string  `json:"cancellation_reason,omitempty"`
    Warnings           []string `json:"warnings,omitempty"`
}

func newReservationView(rsv *model.Reservation, warnings []string) reservationView {
    return reservationView{
        ID:                 rsv.ID,
        FacilityID:         rsv.FacilityID,
        UserID:             rsv.UserID,
        BookerName:         rsv.BookerName,
        BookerEmail:        rsv.BookerEmail,
        BookerPhone:        rsv.BookerPhone,
        StartTime:          rsv.StartTime.UTC().Format("2006-01-02T15:04:05Z07:00"),
        EndTime:            rsv.EndTime.UTC().Format("2006-01-02T15:04:05Z07:00"),
        Purpose:            rsv.Purpose,
        Attendees:          rsv.Attendees,
        SpecialRequests:    rsv.SpecialRequests,
        ReceiptImageURL:    rsv.ReceiptImageURL,
        Status:             rsv.Status,
        CancellationReason: rsv.CancellationReason,
        Warnings:           warningsField(warnings),
    }
}
