package model

import "time"

const (
	EventReservationConfirmed     = "reservation.confirmed"
	EventReservationSynced        = "reservation.synced"
	EventReservationSyncFailed    = "reservation.sync_failed"
	EventReservationResolved      = "reservation.resolved"
	EventReservationPersistFailed = "reservation.persist_failed"
)

// ReservationEvent is published on the reservation events topic, keyed by
// payment reference.
type ReservationEvent struct {
	Type             string    `json:"type"`
	ReservationID    string    `json:"reservation_id,omitempty"`
	PaymentReference string    `json:"payment_reference"`
	ApartmentID      string    `json:"apartment_id,omitempty"`
	RoomKey          string    `json:"room_key,omitempty"`
	CheckIn          time.Time `json:"check_in,omitempty"`
	CheckOut         time.Time `json:"check_out,omitempty"`
	SyncAttempts     int       `json:"sync_attempts,omitempty"`
	Error            string    `json:"error,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

func NewReservationEvent(eventType string, r *Reservation, at time.Time) ReservationEvent {
	evt := ReservationEvent{Type: eventType, OccurredAt: at}
	if r == nil {
		return evt
	}
	evt.ReservationID = r.ID
	evt.PaymentReference = r.PaymentReference
	evt.ApartmentID = r.ApartmentID
	evt.RoomKey = r.RoomKey
	evt.CheckIn = r.CheckIn
	evt.CheckOut = r.CheckOut
	evt.SyncAttempts = r.SyncAttempts
	evt.Error = r.SyncError
	return evt
}
