package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// FacilityType enumerates the allowed values of facilities.type.
const (
    FacilityIndoor  = "INDOOR"
    FacilityOutdoor = "OUTDOOR"
)

// Facility is a bookable venue as stored in the `facilities` table.
// Facilities are reference data for the reservation workflow: the workflow
// reads them to resolve display names and to decide the approval route
// (priced facilities pass through the payment collector, designated
// facilities are handled by MDRR staff) but never mutates them.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – display name of the venue.
//  Location     – free-text address or description of the location.
//  Latitude     – optional map coordinate (nullable).
//  Longitude    – optional map coordinate (nullable).
//  Capacity     – maximum number of attendees (> 0).
//  Type         – INDOOR or OUTDOOR.
//  PricePerHour – hourly rate; zero means the facility is free.
//  IsActive     – whether the facility accepts new bookings.
//  CreatedAt    – creation timestamp.
type Facility struct {
    ID           uint64          // facilities.id
    Name         string          // facilities.name
    Location     string          // facilities.location
    Latitude     *float64        // facilities.latitude (nullable)
    Longitude    *float64        // facilities.longitude (nullable)
    Capacity     uint32          // facilities.capacity
    Type         string          // facilities.type
    PricePerHour decimal.Decimal // facilities.price_per_hour
    IsActive     bool            // facilities.is_active
    CreatedAt    time.Time       // facilities.created_at
}

// Priced reports whether a booking for this facility requires a payment
// receipt and therefore a payment-collector pre-approval.
func (f *Facility) Priced() bool {
    return f.PricePerHour.IsPositive()
}
