package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/venue-reservation/internal/model"
    "github.com/iliyamo/venue-reservation/internal/repository"
    "github.com/iliyamo/venue-reservation/internal/workflow"
)

// StaffReservationHandler serves the approver surfaces shared by the
// admin and MDRR staff: role-scoped reservation queues with unread
// markers, the approve/decline/cancel decisions and acknowledgements.
// Admin-only endpoints (the orphaned-promotion queue, promotion retry and
// the audit trail) live here too; the router restricts them.
type StaffReservationHandler struct {
    Engine          *workflow.Engine
    Reservations    *repository.ReservationRepo
    Approvals       *repository.PaymentApprovalRepo
    Transactions    *repository.TransactionRepo
    MDRRFacilityIDs []uint64
}

func NewStaffReservationHandler(e *workflow.Engine, r *repository.ReservationRepo, a *repository.PaymentApprovalRepo, t *repository.TransactionRepo, mdrrIDs []uint64) *StaffReservationHandler {
    return &StaffReservationHandler{Engine: e, Reservations: r, Approvals: a, Transactions: t, MDRRFacilityIDs: mdrrIDs}
}

// List returns the reservation queue for the caller's role. MDRR staff
// see only their designated facilities; the admin sees everything for
// oversight, with the unread marker tracked per role either way.
func (h *StaffReservationHandler) List(c echo.Context) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    status, ok := statusFilter(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
    }
    f := repository.ListFilter{Status: status}
    if actor.Role == model.RoleMDRR {
        f.FacilityIDs = h.MDRRFacilityIDs
    }
    items, err := h.Reservations.ListDetails(c.Request().Context(), actor.Role, f)
    if err != nil {
        return workflowError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"reservations": items})
}

// decide runs one reservation transition on behalf of the caller.
func (h *StaffReservationHandler) decide(c echo.Context, to string) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }
    var req cancelReq
    if to == workflow.StatusCancelled {
        if err := c.Bind(&req); err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
        }
    }
    res, err := h.Engine.Transition(c.Request().Context(), id, to, actor, req.Reason)
    if err != nil {
        return workflowError(c, err)
    }
    return c.JSON(http.StatusOK, newReservationView(res.Reservation, res.Warnings))
}

// Approve confirms a pending reservation.
func (h *StaffReservationHandler) Approve(c echo.Context) error {
    return h.decide(c, workflow.StatusApproved)
}

// Decline rejects a pending reservation.
func (h *StaffReservationHandler) Decline(c echo.Context) error {
    return h.decide(c, workflow.StatusDeclined)
}

// Cancel withdraws an approved reservation with a reason.
func (h *StaffReservationHandler) Cancel(c echo.Context) error {
    return h.decide(c, workflow.StatusCancelled)
}

// MarkRead acknowledges a reservation for the caller's role without
// changing its status.
func (h *StaffReservationHandler) MarkRead(c echo.Context) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }
    if _, err := h.Reservations.GetByID(c.Request().Context(), id); err != nil {
        return workflowError(c, err)
    }
    if err := h.Reservations.MarkRead(c.Request().Context(), id, actor.Role); err != nil {
        return workflowError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "marked read"})
}

// ListConflicted returns approved pre-approvals whose promotion hit a
// fresh interval conflict and is waiting for an admin to retry.
func (h *StaffReservationHandler) ListConflicted(c echo.Context) error {
    items, err := h.Approvals.ListDetails(c.Request().Context(), repository.ApprovalFilter{ConflictedOnly: true})
    if err != nil {
        return workflowError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"payment_approvals": items})
}

// RetryPromotion re-runs an orphaned promotion once the conflicting slot
// has cleared. Returns 409 when the slot is still taken.
func (h *StaffReservationHandler) RetryPromotion(c echo.Context) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid approval id"})
    }
    res, err := h.Engine.RetryPromotion(c.Request().Context(), id, actor)
    if err != nil {
        return workflowError(c, err)
    }
    resp := echo.Map{"payment_approval": newApprovalView(res.Approval, nil)}
    if res.Reservation != nil {
        resp["reservation"] = newReservationView(res.Reservation, res.Warnings)
    }
    return c.JSON(http.StatusOK, resp)
}

// transactionView is the audit-record response shape. Details is raw JSON
// captured at action time and is passed through untouched.
type transactionView struct {
    ID           uint64 `json:"id"`
    UserID       uint64 `json:"user_id"`
    FacilityID   uint64 `json:"facility_id"`
    Action       string `json:"action"`
    ActionBy     uint64 `json:"action_by"`
    ActionByRole string `json:"action_by_role"`
    TargetUserID uint64 `json:"target_user_id"`
    Status       string `json:"status"`
    Details      string `json:"details"`
    CreatedAt    string `json:"created_at"`
}

// Transactions returns the most recent audit records, newest first.
func (h *StaffReservationHandler) Transactions(c echo.Context) error {
    limit := 100
    if v := c.QueryParam("limit"); v != "" {
        n, err := strconv.Atoi(v)
        if err != nil || n < 1 || n > 1000 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be 1-1000"})
        }
        limit = n
    }
    items, err := h.Transactions.ListRecent(c.Request().Context(), limit)
    if err != nil {
        return workflowError(c, err)
    }
    out := make([]transactionView, 0, len(items))
    for _, t := range items {
        out = append(out, transactionView{
            ID:           t.ID,
            UserID:       t.UserID,
            FacilityID:   t.FacilityID,
            Action:       t.Action,
            ActionBy:     t.ActionBy,
            ActionByRole: t.ActionByRole,
            TargetUserID: t.TargetUserID,
            Status:       t.Status,
            Details:      t.Details,
            CreatedAt:    t.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"transactions": out})
}
