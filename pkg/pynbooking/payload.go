package pynbooking

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"staylock/pkg/interval"
	"staylock/pkg/locale"
	"staylock/pkg/model"
	"staylock/pkg/sanitizer"
)

const (
	DefaultLanguage = "RO"
	DefaultCurrency = "RON"
)

type ProductPayload struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	UnitPrice float64 `json:"unitPrice,omitempty"`
	Persons   int     `json:"persons,omitempty"`
	Nights    int     `json:"nights,omitempty"`
}

type RoomPayload struct {
	RoomID          int64                `json:"roomId"`
	PlanID          int64                `json:"planId"`
	OfferID         int64                `json:"offerId,omitempty"`
	Quantity        int                  `json:"quantity"`
	Price           float64              `json:"price"`
	PricePerDay     []map[string]float64 `json:"pricePerDay"`
	NoGuests        int                  `json:"noGuests"`
	VoucherCode     string               `json:"voucherCode,omitempty"`
	VoucherDiscount float64              `json:"voucherDiscount,omitempty"`
	Products        []ProductPayload     `json:"products,omitempty"`
}

// ReservationPayload is the booking request the ledger accepts. It is sent
// form-encoded with the rooms list as a JSON string.
type ReservationPayload struct {
	ArrivalDate      string
	DepartureDate    string
	GuestName        string
	GuestEmail       string
	GuestPhone       string
	GuestCountryCode string
	GuestAddress     string
	Currency         string
	Language         string
	TotalPrice       float64
	HotelID          int64
	Rooms            []RoomPayload
}

type PayloadOptions struct {
	Language      string
	DefaultRegion string
}

// BuildReservationPayload maps a stored reservation onto the ledger format.
// Each room's nightly prices become dated entries starting at check-in.
func BuildReservationPayload(res *model.Reservation, opts PayloadOptions) ReservationPayload {
	language := strings.ToUpper(strings.TrimSpace(opts.Language))
	if language == "" {
		language = DefaultLanguage
	}
	region := strings.ToUpper(strings.TrimSpace(opts.DefaultRegion))
	if region == "" {
		region = sanitizer.DefaultRegion
	}

	currency := strings.ToUpper(strings.TrimSpace(res.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}

	phone := guestPhone(res.GuestPhone, region)
	country := res.GuestCountryCode
	if country == "" {
		country = locale.CountryCodeForPhone(phone, region)
	}

	rooms := make([]RoomPayload, 0, len(res.Rooms))
	for _, r := range res.Rooms {
		rooms = append(rooms, roomPayload(r, res.CheckIn))
	}

	return ReservationPayload{
		ArrivalDate:      interval.FormatDate(res.CheckIn),
		DepartureDate:    interval.FormatDate(res.CheckOut),
		GuestName:        res.GuestName,
		GuestEmail:       res.GuestEmail,
		GuestPhone:       phone,
		GuestCountryCode: strings.ToUpper(country),
		GuestAddress:     res.GuestAddress,
		Currency:         currency,
		Language:         language,
		TotalPrice:       res.TotalPrice,
		HotelID:          res.HotelID,
		Rooms:            rooms,
	}
}

// guestPhone prefers E.164. A number that cannot be parsed still gets the
// region's dialing prefix, which is what the ledger expects.
func guestPhone(raw, region string) string {
	phone, ok := sanitizer.NormalizePhone(raw, region)
	if ok || phone == "" || strings.HasPrefix(phone, "+") {
		return phone
	}
	if c, found := locale.Lookup(region); found {
		return c.DialCode + phone
	}
	return phone
}

func roomPayload(r model.ReservationRoom, checkIn time.Time) RoomPayload {
	start := interval.StartOfDay(checkIn)
	perDay := make([]map[string]float64, 0, len(r.PricePerDay))
	for i, price := range r.PricePerDay {
		date := interval.FormatDate(start.AddDate(0, 0, i))
		perDay = append(perDay, map[string]float64{date: price})
	}

	var products []ProductPayload
	for _, p := range r.Products {
		products = append(products, ProductPayload{
			ProductID: p.ProductID,
			Name:      p.Name,
			Quantity:  p.Quantity,
			Price:     p.Price,
			UnitPrice: p.UnitPrice,
			Persons:   p.Persons,
			Nights:    p.Nights,
		})
	}

	return RoomPayload{
		RoomID:          r.RoomID,
		PlanID:          r.PlanID,
		OfferID:         r.OfferID,
		Quantity:        r.Quantity,
		Price:           r.Price,
		PricePerDay:     perDay,
		NoGuests:        r.NoGuests,
		VoucherCode:     r.VoucherCode,
		VoucherDiscount: r.VoucherDiscount,
		Products:        products,
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (p ReservationPayload) Form() (url.Values, error) {
	rooms, err := json.Marshal(p.Rooms)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("arrivalDate", p.ArrivalDate)
	form.Set("departureDate", p.DepartureDate)
	form.Set("guestName", p.GuestName)
	form.Set("guestEmail", p.GuestEmail)
	form.Set("guestPhone", p.GuestPhone)
	form.Set("guestCountryCode", p.GuestCountryCode)
	form.Set("guestAddress", p.GuestAddress)
	form.Set("currency", p.Currency)
	form.Set("language", p.Language)
	form.Set("totalPrice", formatAmount(p.TotalPrice))
	if p.HotelID > 0 {
		form.Set("hotelId", strconv.FormatInt(p.HotelID, 10))
	}
	form.Set("rooms", string(rooms))
	return form, nil
}
