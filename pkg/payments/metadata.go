package payments

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"staylock/pkg/interval"
	"staylock/pkg/model"
)

const (
	metaApartment   = "apartment"
	metaGuestName   = "guestName"
	metaGuestEmail  = "guestEmail"
	metaGuestPhone  = "guestPhone"
	metaCheckIn     = "checkInDate"
	metaCheckOut    = "checkOutDate"
	metaGuestsCount = "guestsCount"
	metaTotalPrice  = "totalPrice"
	metaHotelID     = "hotelId"
	metaRooms       = "rooms"
	metaCurrency    = "currency"
	metaRoomKey     = "roomKey"
)

// BookingMetadata is the booking snapshot carried on a payment intent. The
// webhook rebuilds the reservation from it, so it must hold everything the
// ledger needs.
type BookingMetadata struct {
	ApartmentID string
	RoomKey     string
	GuestName   string
	GuestEmail  string
	GuestPhone  string
	CheckIn     time.Time
	CheckOut    time.Time
	GuestsCount int
	TotalPrice  float64
	HotelID     int64
	Currency    string
	Rooms       []model.ReservationRoom
}

func (m BookingMetadata) Map() (map[string]string, error) {
	rooms := m.Rooms
	if rooms == nil {
		rooms = []model.ReservationRoom{}
	}
	encodedRooms, err := json.Marshal(rooms)
	if err != nil {
		return nil, fmt.Errorf("encode rooms metadata: %w", err)
	}

	meta := map[string]string{
		metaApartment:   m.ApartmentID,
		metaGuestName:   m.GuestName,
		metaGuestEmail:  m.GuestEmail,
		metaCheckIn:     interval.FormatDate(m.CheckIn),
		metaCheckOut:    interval.FormatDate(m.CheckOut),
		metaGuestsCount: strconv.Itoa(m.GuestsCount),
		metaTotalPrice:  strconv.FormatFloat(m.TotalPrice, 'f', -1, 64),
		metaCurrency:    strings.ToUpper(m.Currency),
		metaRooms:       string(encodedRooms),
	}
	if m.RoomKey != "" {
		meta[metaRoomKey] = m.RoomKey
	}
	if m.GuestPhone != "" {
		meta[metaGuestPhone] = m.GuestPhone
	}
	if m.HotelID > 0 {
		meta[metaHotelID] = strconv.FormatInt(m.HotelID, 10)
	}
	return meta, nil
}

// ParseBookingMetadata reads what it can. Missing or unreadable fields are
// left zero so callers can fall back to other sources.
func ParseBookingMetadata(meta map[string]string) BookingMetadata {
	m := BookingMetadata{
		ApartmentID: strings.TrimSpace(meta[metaApartment]),
		RoomKey:     strings.TrimSpace(meta[metaRoomKey]),
		GuestName:   meta[metaGuestName],
		GuestEmail:  meta[metaGuestEmail],
		GuestPhone:  meta[metaGuestPhone],
		Currency:    strings.ToUpper(meta[metaCurrency]),
	}

	if t, err := interval.ParseDate(meta[metaCheckIn]); err == nil {
		m.CheckIn = t
	}
	if t, err := interval.ParseDate(meta[metaCheckOut]); err == nil {
		m.CheckOut = t
	}
	if n, err := strconv.Atoi(meta[metaGuestsCount]); err == nil {
		m.GuestsCount = n
	}
	if v, err := strconv.ParseFloat(meta[metaTotalPrice], 64); err == nil {
		m.TotalPrice = v
	}
	if v, err := strconv.ParseInt(meta[metaHotelID], 10, 64); err == nil {
		m.HotelID = v
	}
	if raw := meta[metaRooms]; raw != "" {
		var rooms []model.ReservationRoom
		if err := json.Unmarshal([]byte(raw), &rooms); err == nil && len(rooms) > 0 {
			m.Rooms = rooms
		}
	}
	return m
}
