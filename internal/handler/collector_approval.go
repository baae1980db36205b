package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/venue-reservation/internal/repository"
    "github.com/iliyamo/venue-reservation/internal/workflow"
)

// CollectorHandler serves the payment collector's queue of pre-approvals
// for priced facilities. Approving one promotes it into a pending
// reservation unless the slot was taken in the meantime.
type CollectorHandler struct {
    Engine    *workflow.Engine
    Approvals *repository.PaymentApprovalRepo
}

func NewCollectorHandler(e *workflow.Engine, a *repository.PaymentApprovalRepo) *CollectorHandler {
    return &CollectorHandler{Engine: e, Approvals: a}
}

// List returns pre-approvals, pending ones by default.
func (h *CollectorHandler) List(c echo.Context) error {
    status := c.QueryParam("status")
    if status == "" {
        status = workflow.StatusPending
    }
    if !workflow.ValidStatus(status) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
    }
    items, err := h.Approvals.ListDetails(c.Request().Context(), repository.ApprovalFilter{Status: status})
    if err != nil {
        return workflowError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"payment_approvals": items})
}

// Get returns a single pre-approval.
func (h *CollectorHandler) Get(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid approval id"})
    }
    a, err := h.Approvals.GetByID(c.Request().Context(), id)
    if err != nil {
        return workflowError(c, err)
    }
    return c.JSON(http.StatusOK, newApprovalView(a, nil))
}

// decide records the collector's disposition of a pre-approval.
func (h *CollectorHandler) decide(c echo.Context, approve bool) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid approval id"})
    }
    res, err := h.Engine.DecideApproval(c.Request().Context(), id, approve, actor)
    if err != nil {
        return workflowError(c, err)
    }
    resp := echo.Map{
        "payment_approval":   newApprovalView(res.Approval, res.Warnings),
        "promotion_conflict": res.PromotionConflict,
    }
    if res.Reservation != nil {
        resp["reservation"] = newReservationView(res.Reservation, nil)
    }
    return c.JSON(http.StatusOK, resp)
}

// Approve verifies the payment and promotes the booking onward.
func (h *CollectorHandler) Approve(c echo.Context) error {
    return h.decide(c, true)
}

// Decline rejects the payment; the booking ends here.
func (h *CollectorHandler) Decline(c echo.Context) error {
    return h.decide(c, false)
}
