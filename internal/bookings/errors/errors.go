package errors

import "errors"

var (
	ErrMissingRoomKey = errors.New("listing has no room key configured")

	ErrListingInactive = errors.New("listing is not open for booking")

	ErrTooManyGuests = errors.New("guests count exceeds the listing capacity")

	ErrCheckInPast = errors.New("check-in date cannot be in the past")

	ErrInvalidStay = errors.New("check-out date must be after check-in date")
)
