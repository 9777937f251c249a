package pynbooking

import (
	"encoding/json"
	"testing"
	"time"

	"staylock/pkg/model"

	"github.com/google/go-cmp/cmp"
)

func testReservation() *model.Reservation {
	return &model.Reservation{
		HotelID:    42,
		GuestName:  "Ana Pop",
		GuestEmail: "ana@example.com",
		GuestPhone: "0722 123 456",
		CheckIn:    time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC),
		TotalPrice: 500,
		Currency:   "ron",
		Rooms: []model.ReservationRoom{{
			RoomID:      7,
			PlanID:      3,
			Quantity:    1,
			Price:       500,
			PricePerDay: []float64{250, 250},
			NoGuests:    2,
			Products:    []model.ReservationProduct{{ProductID: 1, Name: "Breakfast", Quantity: 2, Price: 60}},
		}},
	}
}

func TestBuildReservationPayload(t *testing.T) {
	got := BuildReservationPayload(testReservation(), PayloadOptions{})

	want := ReservationPayload{
		ArrivalDate:      "2024-06-10",
		DepartureDate:    "2024-06-12",
		GuestName:        "Ana Pop",
		GuestEmail:       "ana@example.com",
		GuestPhone:       "+40722123456",
		GuestCountryCode: "RO",
		Currency:         "RON",
		Language:         "RO",
		TotalPrice:       500,
		HotelID:          42,
		Rooms: []RoomPayload{{
			RoomID:      7,
			PlanID:      3,
			Quantity:    1,
			Price:       500,
			PricePerDay: []map[string]float64{{"2024-06-10": 250}, {"2024-06-11": 250}},
			NoGuests:    2,
			Products:    []ProductPayload{{ProductID: 1, Name: "Breakfast", Quantity: 2, Price: 60}},
		}},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildReservationPayload() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildReservationPayload_KeepsExplicitCountry(t *testing.T) {
	res := testReservation()
	res.GuestPhone = "+49 30 901820"
	res.GuestCountryCode = "at"

	got := BuildReservationPayload(res, PayloadOptions{Language: "en"})
	if got.GuestCountryCode != "AT" {
		t.Errorf("expected AT, got %q", got.GuestCountryCode)
	}
	if got.Language != "EN" {
		t.Errorf("expected EN, got %q", got.Language)
	}
}

func TestReservationPayload_Form(t *testing.T) {
	form, err := BuildReservationPayload(testReservation(), PayloadOptions{}).Form()
	if err != nil {
		t.Fatalf("Form() error: %v", err)
	}

	if form.Get("totalPrice") != "500" {
		t.Errorf("totalPrice = %q", form.Get("totalPrice"))
	}
	if form.Get("hotelId") != "42" {
		t.Errorf("hotelId = %q", form.Get("hotelId"))
	}

	var rooms []map[string]any
	if err := json.Unmarshal([]byte(form.Get("rooms")), &rooms); err != nil {
		t.Fatalf("rooms is not JSON: %v", err)
	}
	if len(rooms) != 1 || rooms[0]["roomId"] != float64(7) {
		t.Errorf("unexpected rooms payload: %v", rooms)
	}
}

func TestReservationPayload_FormOmitsMissingHotel(t *testing.T) {
	res := testReservation()
	res.HotelID = 0

	form, err := BuildReservationPayload(res, PayloadOptions{}).Form()
	if err != nil {
		t.Fatalf("Form() error: %v", err)
	}
	if _, ok := form["hotelId"]; ok {
		t.Error("hotelId should be omitted")
	}
}
