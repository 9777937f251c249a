package model

const (
	ApartmentStatusActive   = "active"
	ApartmentStatusInactive = "inactive"
)

// Apartment is the listing a guest books. It is owned by the listings
// service; this module only reads it to resolve the external room key and
// the payout account.
type Apartment struct {
	ID              string  `json:"id,omitempty" bson:"_id,omitempty"`
	Name            string  `json:"name" bson:"name"`
	HotelID         int64   `json:"hotel_id,omitempty" bson:"hotel_id,omitempty"`
	RoomType        string  `json:"room_type" bson:"room_type"`
	RoomID          int64   `json:"room_id,omitempty" bson:"room_id,omitempty"`
	Price           float64 `json:"price" bson:"price"`
	MaxGuests       int     `json:"max_guests,omitempty" bson:"max_guests,omitempty"`
	PayoutAccountID string  `json:"payout_account_id,omitempty" bson:"payout_account_id,omitempty"`
	Status          string  `json:"status,omitempty" bson:"status,omitempty"`
}

// RoomKey is the identifier the booking ledger knows the room by.
func (a *Apartment) RoomKey() string {
	return a.RoomType
}
