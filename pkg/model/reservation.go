package model

import "time"

const (
	ReservationStatusPending   = "pending"
	ReservationStatusConfirmed = "confirmed"
	ReservationStatusCancelled = "cancelled"
)

// Reservation is the durable record of a paid stay. Exactly one exists per
// payment reference.
type Reservation struct {
	ID               string            `json:"id,omitempty" bson:"_id,omitempty"`
	ApartmentID      string            `json:"apartment_id" bson:"apartment_id"`
	HotelID          int64             `json:"hotel_id,omitempty" bson:"hotel_id,omitempty"`
	RoomKey          string            `json:"room_key,omitempty" bson:"room_key,omitempty"`
	GuestName        string            `json:"guest_name" bson:"guest_name"`
	GuestEmail       string            `json:"guest_email" bson:"guest_email"`
	GuestPhone       string            `json:"guest_phone,omitempty" bson:"guest_phone,omitempty"`
	GuestAddress     string            `json:"guest_address,omitempty" bson:"guest_address,omitempty"`
	GuestCountryCode string            `json:"guest_country_code,omitempty" bson:"guest_country_code,omitempty"`
	CheckIn          time.Time         `json:"check_in" bson:"check_in"`
	CheckOut         time.Time         `json:"check_out" bson:"check_out"`
	GuestsCount      int               `json:"guests_count" bson:"guests_count"`
	Rooms            []ReservationRoom `json:"rooms,omitempty" bson:"rooms,omitempty"`
	TotalPrice       float64           `json:"total_price" bson:"total_price"`
	Currency         string            `json:"currency" bson:"currency"`
	PaymentReference string            `json:"payment_reference" bson:"payment_reference"`
	Status           string            `json:"status" bson:"status"`

	ExternalBookingID string     `json:"external_booking_id,omitempty" bson:"external_booking_id,omitempty"`
	SyncFailed        bool       `json:"sync_failed" bson:"sync_failed"`
	SyncError         string     `json:"sync_error,omitempty" bson:"sync_error,omitempty"`
	SyncFailedAt      *time.Time `json:"sync_failed_at,omitempty" bson:"sync_failed_at,omitempty"`
	SyncRetriedAt     *time.Time `json:"sync_retried_at,omitempty" bson:"sync_retried_at,omitempty"`
	SyncAttempts      int        `json:"sync_attempts" bson:"sync_attempts"`
	ManuallyResolved  bool       `json:"manually_resolved" bson:"manually_resolved"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty" bson:"resolved_at,omitempty"`
	ResolvedNotes     string     `json:"resolved_notes,omitempty" bson:"resolved_notes,omitempty"`

	// SyncClaim is held by the retry currently pushing this reservation.
	SyncClaim     string     `json:"-" bson:"sync_claim,omitempty"`
	SyncClaimedAt *time.Time `json:"-" bson:"sync_claimed_at,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// ReservationRoom is one room line of a stay as the booking ledger expects
// it. PricePerDay holds one entry per night starting at check-in.
type ReservationRoom struct {
	RoomID          int64                `json:"room_id" bson:"room_id"`
	PlanID          int64                `json:"plan_id" bson:"plan_id"`
	OfferID         int64                `json:"offer_id,omitempty" bson:"offer_id,omitempty"`
	Quantity        int                  `json:"quantity" bson:"quantity"`
	Price           float64              `json:"price" bson:"price"`
	PricePerDay     []float64            `json:"price_per_day" bson:"price_per_day"`
	NoGuests        int                  `json:"no_guests" bson:"no_guests"`
	VoucherCode     string               `json:"voucher_code,omitempty" bson:"voucher_code,omitempty"`
	VoucherDiscount float64              `json:"voucher_discount,omitempty" bson:"voucher_discount,omitempty"`
	Products        []ReservationProduct `json:"products,omitempty" bson:"products,omitempty"`
}

type ReservationProduct struct {
	ProductID int64   `json:"product_id" bson:"product_id"`
	Name      string  `json:"name" bson:"name"`
	Quantity  int     `json:"quantity" bson:"quantity"`
	Price     float64 `json:"price" bson:"price"`
	UnitPrice float64 `json:"unit_price,omitempty" bson:"unit_price,omitempty"`
	Persons   int     `json:"persons,omitempty" bson:"persons,omitempty"`
	Nights    int     `json:"nights,omitempty" bson:"nights,omitempty"`
}

// SyncOutcome is what a single push to the booking ledger produced. It is
// applied to a stored reservation in one update. A non-empty Claim makes the
// update conditional on that claim still being held, and releases it.
type SyncOutcome struct {
	Succeeded         bool
	ExternalBookingID string
	Error             string
	At                time.Time
	Retry             bool
	Claim             string
}

// SyncClaim marks a failed reservation as being retried. A claim older than
// StaleBefore is considered abandoned and can be taken over. When
// MatchAttempts is set the claim is only granted while the stored attempt
// count still equals Attempts.
type SyncClaim struct {
	Token         string
	At            time.Time
	StaleBefore   time.Time
	Attempts      int
	MatchAttempts bool
}

// RecoveryResult is returned by the operator recovery endpoints.
type RecoveryResult struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	Reservation *Reservation `json:"reservation,omitempty"`
}

type ResolveRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}
