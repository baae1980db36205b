package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/venue-reservation/internal/model"
    "github.com/iliyamo/venue-reservation/internal/repository"
)

// FacilityHandler serves the public venue catalogue: browsing, a per
// facility availability view and fee quotes. All endpoints are read only
// and unauthenticated.
type FacilityHandler struct {
    Facilities   *repository.FacilityRepo
    Reservations *repository.ReservationRepo
}

func NewFacilityHandler(f *repository.FacilityRepo, r *repository.ReservationRepo) *FacilityHandler {
    return &FacilityHandler{Facilities: f, Reservations: r}
}

// facilityView is the public JSON shape of a facility. The hourly rate is
// serialized as a decimal string to avoid float rounding in clients.
type facilityView struct {
    ID           uint64   `json:"id"`
    Name         string   `json:"name"`
    Location     string   `json:"location"`
    Latitude     *float64 `json:"latitude,omitempty"`
    Longitude    *float64 `json:"longitude,omitempty"`
    Capacity     uint32   `json:"capacity"`
    Type         string   `json:"type"`
    PricePerHour string   `json:"price_per_hour"`
    Priced       bool     `json:"priced"`
    IsActive     bool     `json:"is_active"`
}

func newFacilityView(f *model.Facility) facilityView {
    return facilityView{
        ID:           f.ID,
        Name:         f.Name,
        Location:     f.Location,
        Latitude:     f.Latitude,
        Longitude:    f.Longitude,
        Capacity:     f.Capacity,
        Type:         f.Type,
        PricePerHour: f.PricePerHour.StringFixed(2),
        Priced:       f.Priced(),
        IsActive:     f.IsActive,
    }
}

// List returns every facility currently accepting bookings.
func (h *FacilityHandler) List(c echo.Context) error {
    facs, err := h.Facilities.ListActive(c.Request().Context())
    if err != nil {
        return workflowError(c, err)
    }
    out := make([]facilityView, 0, len(facs))
    for i := range facs {
        out = append(out, newFacilityView(&facs[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"facilities": out})
}

// Get returns a single facility by id.
func (h *FacilityHandler) Get(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility id"})
    }
    f, err := h.Facilities.GetByID(c.Request().Context(), id)
    if err != nil {
        return workflowError(c, err)
    }
    return c.JSON(http.StatusOK, newFacilityView(f))
}

// Availability lists the occupied windows of a facility inside a range.
// Defaults to the next seven days when from/to are omitted. Pending
// windows are included because they already block new bookings.
func (h *FacilityHandler) Availability(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility id"})
    }
    if _, err := h.Facilities.GetByID(c.Request().Context(), id); err != nil {
        return workflowError(c, err)
    }

    from := time.Now().UTC()
    to := from.Add(7 * 24 * time.Hour)
    if v := c.QueryParam("from"); v != "" {
        t, err := time.Parse(time.RFC3339, v)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be RFC3339"})
        }
        from = t.UTC()
        to = from.Add(7 * 24 * time.Hour)
    }
    if v := c.QueryParam("to"); v != "" {
        t, err := time.Parse(time.RFC3339, v)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be RFC3339"})
        }
        to = t.UTC()
    }
    if !to.After(from) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be after from"})
    }

    busy, err := h.Reservations.ListBusyWindows(c.Request().Context(), id, from, to)
    if err != nil {
        return workflowError(c, err)
    }
    if busy == nil {
        busy = []repository.BusyWindow{}
    }
    return c.JSON(http.StatusOK, echo.Map{
        "facility_id": id,
        "from":        from.Format(time.RFC3339),
        "to":          to.Format(time.RFC3339),
        "busy":        busy,
    })
}

// Quote estimates the booking fee for an interval: hours times the hourly
// rate, partial hours billed pro rata, rounded to two decimal places.
func (h *FacilityHandler) Quote(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility id"})
    }
    start, err := time.Parse(time.RFC3339, c.QueryParam("start"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "start must be RFC3339"})
    }
    end, err := time.Parse(time.RFC3339, c.QueryParam("end"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "end must be RFC3339"})
    }
    if !end.After(start) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "end must be after start"})
    }

    f, err := h.Facilities.GetByID(c.Request().Context(), id)
    if err != nil {
        return workflowError(c, err)
    }
    hours := decimal.NewFromFloat(end.Sub(start).Hours())
    fee := f.PricePerHour.Mul(hours).Round(2)
    return c.JSON(http.StatusOK, echo.Map{
        "facility_id":    id,
        "price_per_hour": f.PricePerHour.StringFixed(2),
        "estimated_fee":  fee.StringFixed(2),
        "priced":         f.Priced(),
    })
}
