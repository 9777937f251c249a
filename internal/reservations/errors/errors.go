package errors

import "github.com/cockroachdb/errors"

var (
	ErrNotFound = errors.New("reservation not found")

	// ErrDuplicate is returned when a reservation for the payment reference
	// already exists. The webhook treats it as "already processed".
	ErrDuplicate = errors.New("reservation already exists for payment reference")

	ErrInvalidID = errors.New("invalid reservation id")

	// ErrNotClaimable is returned when a reservation is not failed, is
	// resolved, has moved past the expected attempt or is already claimed.
	ErrNotClaimable = errors.New("reservation cannot be claimed for sync retry")

	// ErrClaimLost is returned when a sync outcome arrives for a claim that
	// was released in the meantime, for example by a manual resolve.
	ErrClaimLost = errors.New("sync claim no longer held")
)
