package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/venue-reservation/internal/model"
    "github.com/iliyamo/venue-reservation/internal/repository"
)

// AdminFacilityHandler manages the venue catalogue. Facilities are never
// deleted, only deactivated, so historical reservations keep a valid
// facility reference.
type AdminFacilityHandler struct {
    Facilities *repository.FacilityRepo
}

func NewAdminFacilityHandler(f *repository.FacilityRepo) *AdminFacilityHandler {
    return &AdminFacilityHandler{Facilities: f}
}

type facilityReq struct {
    Name         string   `json:"name"`
    Location     string   `json:"location"`
    Latitude     *float64 `json:"latitude"`
    Longitude    *float64 `json:"longitude"`
    Capacity     uint32   `json:"capacity"`
    Type         string   `json:"type"`
    PricePerHour string   `json:"price_per_hour"`
    IsActive     *bool    `json:"is_active"`
}

// toModel validates the request and fills a facility. Price defaults to
// zero (a free facility) when omitted.
func (req *facilityReq) toModel() (*model.Facility, string) {
    req.Name = strings.TrimSpace(req.Name)
    req.Location = strings.TrimSpace(req.Location)
    if req.Name == "" {
        return nil, "name required"
    }
    if req.Location == "" {
        return nil, "location required"
    }
    if req.Capacity == 0 {
        return nil, "capacity must be positive"
    }
    typ := strings.ToUpper(strings.TrimSpace(req.Type))
    if typ != model.FacilityIndoor && typ != model.FacilityOutdoor {
        return nil, "type must be INDOOR or OUTDOOR"
    }
    price := decimal.Zero
    if strings.TrimSpace(req.PricePerHour) != "" {
        p, err := decimal.NewFromString(strings.TrimSpace(req.PricePerHour))
        if err != nil || p.IsNegative() {
            return nil, "price_per_hour must be a non-negative decimal"
        }
        price = p
    }
    active := true
    if req.IsActive != nil {
        active = *req.IsActive
    }
    return &model.Facility{
        Name:         req.Name,
        Location:     req.Location,
        Latitude:     req.Latitude,
        Longitude:    req.Longitude,
        Capacity:     req.Capacity,
        Type:         typ,
        PricePerHour: price,
        IsActive:     active,
    }, ""
}

// List returns the full catalogue, inactive facilities included.
func (h *AdminFacilityHandler) List(c echo.Context) error {
    facs, err := h.Facilities.ListAll(c.Request().Context())
    if err != nil {
        return workflowError(c, err)
    }
    out := make([]facilityView, 0, len(facs))
    for i := range facs {
        out = append(out, newFacilityView(&facs[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"facilities": out})
}

// Create adds a facility to the catalogue.
func (h *AdminFacilityHandler) Create(c echo.Context) error {
    var req facilityReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    f, msg := req.toModel()
    if msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }
    if err := h.Facilities.Create(c.Request().Context(), f); err != nil {
        return workflowError(c, err)
    }
    return c.JSON(http.StatusCreated, newFacilityView(f))
}

// Update replaces the mutable attributes of a facility.
func (h *AdminFacilityHandler) Update(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility id"})
    }
    var req facilityReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    f, msg := req.toModel()
    if msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }
    f.ID = id
    if err := h.Facilities.Update(c.Request().Context(), f); err != nil {
        return workflowError(c, err)
    }
    return c.JSON(http.StatusOK, newFacilityView(f))
}

// Deactivate stops a facility from accepting new bookings. Existing
// reservations are untouched.
func (h *AdminFacilityHandler) Deactivate(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility id"})
    }
    if err := h.Facilities.Deactivate(c.Request().Context(), id); err != nil {
        return workflowError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "facility deactivated"})
}
