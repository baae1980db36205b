// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to act on a record owned by someone else, while the
// not-found sentinels mark lookups of records that do not exist.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a record they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrFacilityNotFound is returned when a facility lookup matches no row.
var ErrFacilityNotFound = errors.New("facility not found")

// ErrReservationNotFound is returned when a reservation lookup matches no row.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrApprovalNotFound is returned when a payment-approval lookup matches no row.
var ErrApprovalNotFound = errors.New("payment approval not found")

// ErrNotificationNotFound is returned when a notification lookup matches no
// row for the requesting recipient.
var ErrNotificationNotFound = errors.New("notification not found")
