package model

import "time"

// CreateBookingRequest is the guest checkout request.
type CreateBookingRequest struct {
	ApartmentID  string            `json:"apartment_id" validate:"required,mongodb"`
	CheckInDate  string            `json:"check_in_date" validate:"required,datetime=2006-01-02"`
	CheckOutDate string            `json:"check_out_date" validate:"required,datetime=2006-01-02"`
	GuestName    string            `json:"guest_name" validate:"required,min=2,max=100"`
	GuestEmail   string            `json:"guest_email" validate:"required,email"`
	GuestPhone   string            `json:"guest_phone,omitempty" validate:"omitempty,e164"`
	GuestsCount  int               `json:"guests_count" validate:"required,min=1,max=50"`
	Amount       float64           `json:"amount" validate:"required,gt=0"`
	Currency     string            `json:"currency,omitempty" validate:"omitempty,supported_currency"`
	HotelID      int64             `json:"hotel_id,omitempty" validate:"omitempty,min=1"`
	Rooms        []ReservationRoom `json:"rooms,omitempty" validate:"omitempty,dive"`
}

type CreateBookingResponse struct {
	ClientSecret     string    `json:"client_secret"`
	PaymentReference string    `json:"payment_reference"`
	RoomKey          string    `json:"room_key"`
	LockExpiresAt    time.Time `json:"lock_expires_at"`
}

// AvailabilityResult is the answer of the booking ledger for a room and
// date range.
type AvailabilityResult struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}
