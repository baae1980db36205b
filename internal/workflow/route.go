package workflow

import (
	"github.com/iliyamo/venue-reservation/internal/model"
)

// Route identifies the approver pool responsible for a booking.
type Route string

const (
	RoutePaymentCollector Route = "PAYMENT_COLLECTOR"
	RouteMDRRStaff        Route = "MDRR"
	RouteAdmin            Route = "ADMIN"
)

// Role returns the user role allowed to act on bookings assigned to the
// route.
func (r Route) Role() string {
	switch r {
	case RoutePaymentCollector:
		return model.RolePaymentCollector
	case RouteMDRRStaff:
		return model.RoleMDRR
	default:
		return model.RoleAdmin
	}
}

// RouteConfig maps facilities to specialized approver pools. Facilities
// listed in MDRRFacilityIDs are handled by MDRR staff; everything else falls
// to the general admin once any payment pre-approval has cleared. The
// mapping is configuration, not code: adding a facility to a pool is an
// environment change.
type RouteConfig struct {
	mdrr map[uint64]struct{}
}

// NewRouteConfig builds a RouteConfig from the set of MDRR-designated
// facility ids.
func NewRouteConfig(mdrrFacilityIDs []uint64) RouteConfig {
	m := make(map[uint64]struct{}, len(mdrrFacilityIDs))
	for _, id := range mdrrFacilityIDs {
		m[id] = struct{}{}
	}
	return RouteConfig{mdrr: m}
}

// MDRRFacility reports whether the facility is routed to MDRR staff.
func (rc RouteConfig) MDRRFacility(facilityID uint64) bool {
	_, ok := rc.mdrr[facilityID]
	return ok
}

// RouteFor decides the approver pool for a booking of the given facility.
// Priority order: a priced facility whose pre-approval has not yet been
// promoted routes to the payment collector; an MDRR-designated facility
// routes to MDRR staff; everything else routes to the general admin. The
// result is a pure function of the facility and the promotion flag.
func (rc RouteConfig) RouteFor(f *model.Facility, promoted bool) Route {
	if f.Priced() && !promoted {
		return RoutePaymentCollector
	}
	if rc.MDRRFacility(f.ID) {
		return RouteMDRRStaff
	}
	return RouteAdmin
}

// RouteForReservation decides the pool responsible for an existing
// reservation. A reservation exists only after any payment stage has been
// passed, so the payment-collector route never applies here.
func (rc RouteConfig) RouteForReservation(facilityID uint64) Route {
	if rc.MDRRFacility(facilityID) {
		return RouteMDRRStaff
	}
	return RouteAdmin
}
