package handler

import (
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/venue-reservation/internal/model"
    "github.com/iliyamo/venue-reservation/internal/repository"
    "github.com/iliyamo/venue-reservation/internal/workflow"
)

// BookingHandler serves the end-user booking surface: submitting a
// booking, listing and inspecting own reservations and pre-approvals, and
// cancelling an own booking. Every state change goes through the workflow
// engine; the handler only parses, authorizes ownership and renders.
type BookingHandler struct {
    Engine       *workflow.Engine
    Reservations *repository.ReservationRepo
    Approvals    *repository.PaymentApprovalRepo
    Users        *repository.UserRepo
}

func NewBookingHandler(e *workflow.Engine, r *repository.ReservationRepo, a *repository.PaymentApprovalRepo, u *repository.UserRepo) *BookingHandler {
    return &BookingHandler{Engine: e, Reservations: r, Approvals: a, Users: u}
}

type bookingReq struct {
    FacilityID      uint64  `json:"facility_id"`
    StartTime       string  `json:"start_time"`
    EndTime         string  `json:"end_time"`
    Purpose         *string `json:"purpose"`
    Attendees       *uint32 `json:"attendees"`
    SpecialRequests *string `json:"special_requests"`
    ReceiptImageURL *string `json:"receipt_image_url"`
    // Optional contact overrides; the profile is the default snapshot.
    BookerName  string `json:"booker_name"`
    BookerPhone string `json:"booker_phone"`
}

// approvalView is the payment pre-approval response shape.
type approvalView struct {
    ID                    uint64   `json:"id"`
    FacilityID            uint64   `json:"facility_id"`
    UserID                uint64   `json:"user_id"`
    StartTime             string   `json:"start_time"`
    EndTime               string   `json:"end_time"`
    Status                string   `json:"status"`
    ReceiptImageURL       *string  `json:"receipt_image_url,omitempty"`
    PromotedReservationID *uint64  `json:"promoted_reservation_id,omitempty"`
    PromotionConflict     bool     `json:"promotion_conflict"`
    Warnings              []string `json:"warnings,omitempty"`
}

func newApprovalView(a *model.PaymentApproval, warnings []string) approvalView {
    return approvalView{
        ID:                    a.ID,
        FacilityID:            a.FacilityID,
        UserID:                a.UserID,
        StartTime:             a.StartTime.UTC().Format(time.RFC3339),
        EndTime:               a.EndTime.UTC().Format(time.RFC3339),
        Status:                a.Status,
        ReceiptImageURL:       a.ReceiptImageURL,
        PromotedReservationID: a.PromotedReservationID,
        PromotionConflict:     a.PromotionConflict,
        Warnings:              warningsField(warnings),
    }
}

// Create submits a booking. Free facilities yield a pending reservation;
// priced ones yield a payment pre-approval that a collector must clear
// first. The response names which one was created and the route it will
// travel.
func (h *BookingHandler) Create(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req bookingReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    start, err := time.Parse(time.RFC3339, req.StartTime)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time must be RFC3339"})
    }
    end, err := time.Parse(time.RFC3339, req.EndTime)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time must be RFC3339"})
    }

    ctx := c.Request().Context()
    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        return workflowError(c, err)
    }
    name := strings.TrimSpace(req.BookerName)
    if name == "" {
        name = u.FullName
    }
    phone := strings.TrimSpace(req.BookerPhone)
    if phone == "" {
        phone = u.Phone
    }

    result, err := h.Engine.CreateBooking(ctx, workflow.BookingInput{
        FacilityID:      req.FacilityID,
        UserID:          uid,
        BookerName:      name,
        BookerEmail:     u.Email,
        BookerPhone:     phone,
        StartTime:       start.UTC(),
        EndTime:         end.UTC(),
        Purpose:         req.Purpose,
        Attendees:       req.Attendees,
        SpecialRequests: req.SpecialRequests,
        ReceiptImageURL: req.ReceiptImageURL,
    })
    if err != nil {
        return workflowError(c, err)
    }

    resp := echo.Map{
        "route":         string(result.Route),
        "estimated_fee": result.EstimatedFee.StringFixed(2),
    }
    if result.Approval != nil {
        resp["kind"] = "payment_approval"
        resp["payment_approval"] = newApprovalView(result.Approval, result.Warnings)
    } else {
        resp["kind"] = "reservation"
        resp["reservation"] = newReservationView(result.Reservation, result.Warnings)
    }
    return c.JSON(http.StatusCreated, resp)
}

// List returns the caller's reservations, optionally filtered by status.
func (h *BookingHandler) List(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    status, ok := statusFilter(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
    }
    items, err := h.Reservations.ListDetails(c.Request().Context(), model.RoleUser, repository.ListFilter{
        Status: status,
        UserID: uid,
    })
    if err != nil {
        return workflowError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"reservations": items})
}

// ListApprovals returns the caller's payment pre-approvals so a booker can
// follow a priced booking before it becomes a reservation.
func (h *BookingHandler) ListApprovals(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    status, ok := statusFilter(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
    }
    items, err := h.Approvals.ListDetails(c.Request().Context(), repository.ApprovalFilter{
        Status: status,
        UserID: uid,
    })
    if err != nil {
        return workflowError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"payment_approvals": items})
}

// Get returns one of the caller's reservations.
func (h *BookingHandler) Get(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }
    rsv, err := h.Reservations.GetByID(c.Request().Context(), id)
    if err != nil {
        return workflowError(c, err)
    }
    if rsv.UserID != uid {
        return workflowError(c, repository.ErrForbidden)
    }
    return c.JSON(http.StatusOK, newReservationView(rsv, nil))
}

type cancelReq struct {
    Reason string `json:"reason"`
}

// Cancel withdraws one of the caller's own approved reservations. The
// workflow enforces ownership, the legal edge and the required reason.
func (h *BookingHandler) Cancel(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }
    var req cancelReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    actor := workflow.Actor{ID: uid, Role: model.RoleUser}
    res, err := h.Engine.Transition(c.Request().Context(), id, workflow.StatusCancelled, actor, req.Reason)
    if err != nil {
        return workflowError(c, err)
    }
    return c.JSON(http.StatusOK, newReservationView(res.Reservation, res.Warnings))
}
