package model

import "time"

// RoomLock is a time-bounded hold on a room for a date range while the
// guest completes payment. The interval is half-open: CheckOut is the
// departure day and is free for the next arrival.
type RoomLock struct {
	ID               string    `json:"id,omitempty" bson:"_id,omitempty"`
	RoomKey          string    `json:"room_key" bson:"room_key"`
	CheckIn          time.Time `json:"check_in" bson:"check_in"`
	CheckOut         time.Time `json:"check_out" bson:"check_out"`
	PaymentReference string    `json:"payment_reference" bson:"payment_reference"`
	ExpiresAt        time.Time `json:"expires_at" bson:"expires_at"`
	ApartmentID      string    `json:"apartment_id,omitempty" bson:"apartment_id,omitempty"`
	GuestName        string    `json:"guest_name,omitempty" bson:"guest_name,omitempty"`
	GuestEmail       string    `json:"guest_email,omitempty" bson:"guest_email,omitempty"`
	GuestPhone       string    `json:"guest_phone,omitempty" bson:"guest_phone,omitempty"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at"`
}

func (l *RoomLock) ActiveAt(now time.Time) bool {
	return l.ExpiresAt.After(now)
}

// CreateLockParams carries everything needed to place a lock except the
// expiry, which the lock service derives from its clock and TTL.
type CreateLockParams struct {
	RoomKey          string
	CheckIn          time.Time
	CheckOut         time.Time
	PaymentReference string
	ApartmentID      string
	GuestName        string
	GuestEmail       string
	GuestPhone       string
}
