package pynbooking

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"staylock/pkg/interval"
)

// FlexibleID accepts both numeric and string identifiers, since the ledger
// is not consistent about which one it returns.
type FlexibleID string

func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = FlexibleID(n.String())
	return nil
}

// LedgerReservation is one entry returned by the reservation search. It is
// never persisted.
type LedgerReservation struct {
	ID           FlexibleID `json:"id"`
	RoomName     string     `json:"roomName"`
	RoomType     string     `json:"roomType,omitempty"`
	CheckInDate  string     `json:"checkInDate"`
	CheckOutDate string     `json:"checkOutDate"`
	Status       string     `json:"status"`
	GuestName    string     `json:"guestName,omitempty"`
}

// parseLedgerDate reads the date part of values like "2024-06-10" or
// "2024-06-10 14:00:00".
func parseLedgerDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) > len(interval.DateLayout) && s[len(interval.DateLayout)] == ' ' {
		s = s[:len(interval.DateLayout)]
	}
	t, err := interval.ParseDate(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Stay returns the half-open interval of the entry. ok is false when the
// dates cannot be read.
func (r LedgerReservation) Stay() (interval.Range, bool) {
	in, ok := parseLedgerDate(r.CheckInDate)
	if !ok {
		return interval.Range{}, false
	}
	out, ok := parseLedgerDate(r.CheckOutDate)
	if !ok {
		return interval.Range{}, false
	}
	return interval.New(in, out), true
}

type SearchParams struct {
	Date   string
	Days   int
	RoomNo string
}

type AvailabilityParams struct {
	RoomKey  string
	CheckIn  time.Time
	CheckOut time.Time
	Currency string
}

type SendResult struct {
	ExternalBookingID string `json:"external_booking_id"`
	Status            string `json:"status,omitempty"`
	Message           string `json:"message,omitempty"`
}
