package service

import (
	"context"
	"math"
	"strings"
	"time"

	apartmentrepo "staylock/internal/apartments/repository"
	bookingserrors "staylock/internal/bookings/errors"
	"staylock/internal/bookings/validator"
	lockservice "staylock/internal/roomlocks/service"
	"staylock/pkg/clock"
	"staylock/pkg/config"
	apperrors "staylock/pkg/errors"
	"staylock/pkg/interval"
	"staylock/pkg/logger"
	"staylock/pkg/model"
	"staylock/pkg/payments"
	"staylock/pkg/pynbooking"
	"staylock/pkg/sanitizer"

	"github.com/cockroachdb/errors"
)

const cancelTimeout = 10 * time.Second

type RoomLocker interface {
	FindActiveLock(ctx context.Context, roomKey string, checkIn, checkOut time.Time) (*model.RoomLock, error)
	CreateLock(ctx context.Context, params model.CreateLockParams, ttl time.Duration) (*model.RoomLock, error)
}

type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, params pynbooking.AvailabilityParams) (*model.AvailabilityResult, error)
}

type LedgerSearcher interface {
	SearchReservations(ctx context.Context, params pynbooking.SearchParams) ([]pynbooking.LedgerReservation, error)
}

// LedgerGateway is the read side of the booking ledger.
type LedgerGateway interface {
	AvailabilityChecker
	LedgerSearcher
}

type PaymentGateway interface {
	CreateIntent(ctx context.Context, params payments.CreateIntentParams) (*payments.Intent, error)
	CancelIntent(ctx context.Context, intentID string) error
}

type Options struct {
	LockTTL         time.Duration
	FeeSplitter     payments.FeeSplitter
	DefaultCurrency string
	DefaultRegion   string
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		LockTTL:         cfg.RoomLockTTL,
		FeeSplitter:     payments.NewFeeSplitter(cfg.PlatformFeePercentage),
		DefaultCurrency: cfg.DefaultCurrency,
		DefaultRegion:   cfg.PynBookingDefaultRegion,
	}
}

type BookingService interface {
	CreateBooking(ctx context.Context, req *model.CreateBookingRequest, idempotencyKey string) (*model.CreateBookingResponse, error)
	CheckAvailability(ctx context.Context, roomKey, checkIn, checkOut, currency string) (*model.AvailabilityResult, error)
	SearchLedger(ctx context.Context, params pynbooking.SearchParams) ([]pynbooking.LedgerReservation, error)
}

type bookingService struct {
	listings  apartmentrepo.ListingResolver
	locks     RoomLocker
	ledger    LedgerGateway
	payments  PaymentGateway
	validator *validator.BookingValidator
	opts      Options
	clock     clock.Clock
	log       *logger.Logger
}

func NewBookingService(
	listings apartmentrepo.ListingResolver,
	locks RoomLocker,
	ledger LedgerGateway,
	payments PaymentGateway,
	validator *validator.BookingValidator,
	opts Options,
	clk clock.Clock,
	log *logger.Logger,
) BookingService {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = lockservice.DefaultLockTTL
	}
	return &bookingService{
		listings:  listings,
		locks:     locks,
		ledger:    ledger,
		payments:  payments,
		validator: validator,
		opts:      opts,
		clock:     clk,
		log:       log.Component("bookings"),
	}
}

func (s *bookingService) sanitize(req *model.CreateBookingRequest) {
	req.ApartmentID = strings.TrimSpace(req.ApartmentID)
	req.CheckInDate = strings.TrimSpace(req.CheckInDate)
	req.CheckOutDate = strings.TrimSpace(req.CheckOutDate)
	req.GuestName = sanitizer.NormalizeName(req.GuestName)
	req.GuestEmail = sanitizer.NormalizeEmail(req.GuestEmail)
	req.GuestPhone, _ = sanitizer.NormalizePhone(req.GuestPhone, s.opts.DefaultRegion)
	req.Currency = sanitizer.NormalizeCurrency(req.Currency)
	if req.Currency == "" {
		req.Currency = sanitizer.NormalizeCurrency(s.opts.DefaultCurrency)
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, req *model.CreateBookingRequest, idempotencyKey string) (*model.CreateBookingResponse, error) {
	s.sanitize(req)

	stay, err := s.validator.Validate(req, s.clock.Now())
	if err != nil {
		s.log.Warn("Booking request validation failed",
			"apartment_id", req.ApartmentID,
			"check_in", req.CheckInDate,
			"check_out", req.CheckOutDate,
			"error", err,
		)
		return nil, apperrors.InvalidInput("Booking request validation failed").WithDetails(map[string]any{
			"error": err.Error(),
		})
	}

	listing, err := s.resolveListing(ctx, req)
	if err != nil {
		return nil, err
	}
	roomKey := listing.RoomKey()

	existing, err := s.locks.FindActiveLock(ctx, roomKey, stay.CheckIn, stay.CheckOut)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.log.Info("Room already held by another checkout",
			"room_key", roomKey,
			"check_in", req.CheckInDate,
			"check_out", req.CheckOutDate,
			"held_by", existing.PaymentReference,
		)
		return nil, apperrors.Conflict(lockservice.ConflictMessage)
	}

	availability, err := s.ledger.CheckAvailability(ctx, pynbooking.AvailabilityParams{
		RoomKey:  roomKey,
		CheckIn:  stay.CheckIn,
		CheckOut: stay.CheckOut,
		Currency: req.Currency,
	})
	switch {
	case err != nil:
		s.log.Warn("Availability check failed, continuing with booking",
			"room_key", roomKey,
			"error", err,
		)
	case !availability.Available:
		return nil, apperrors.InvalidInput(availability.Message)
	}

	intent, err := s.createIntent(ctx, req, listing, stay, idempotencyKey)
	if err != nil {
		return nil, err
	}

	lock, err := s.locks.CreateLock(ctx, model.CreateLockParams{
		RoomKey:          roomKey,
		CheckIn:          stay.CheckIn,
		CheckOut:         stay.CheckOut,
		PaymentReference: intent.ID,
		ApartmentID:      listing.ID,
		GuestName:        req.GuestName,
		GuestEmail:       req.GuestEmail,
		GuestPhone:       req.GuestPhone,
	}, s.opts.LockTTL)
	if err != nil {
		s.cancelIntent(ctx, intent.ID, err)
		if apperrors.IsConflict(err) {
			return nil, err
		}
		return nil, apperrors.Internal("Failed to hold the room", err)
	}

	s.log.Info("Booking checkout started",
		"payment_reference", intent.ID,
		"room_key", roomKey,
		"apartment_id", listing.ID,
		"check_in", req.CheckInDate,
		"check_out", req.CheckOutDate,
		"lock_expires_at", lock.ExpiresAt,
	)

	return &model.CreateBookingResponse{
		ClientSecret:     intent.ClientSecret,
		PaymentReference: intent.ID,
		RoomKey:          roomKey,
		LockExpiresAt:    lock.ExpiresAt,
	}, nil
}

func (s *bookingService) resolveListing(ctx context.Context, req *model.CreateBookingRequest) (*model.Apartment, error) {
	listing, err := s.listings.FindByID(ctx, req.ApartmentID)
	if err != nil {
		switch {
		case errors.Is(err, apartmentrepo.ErrNotFound):
			return nil, apperrors.NotFoundWithID("Apartment", req.ApartmentID)
		case errors.Is(err, apartmentrepo.ErrInvalidID):
			return nil, apperrors.InvalidInput("Invalid apartment ID format")
		}
		s.log.Error("Failed to resolve listing", "apartment_id", req.ApartmentID, "error", err)
		return nil, apperrors.Internal("Failed to resolve listing", err)
	}

	if strings.TrimSpace(listing.RoomKey()) == "" {
		return nil, apperrors.InvalidInput(bookingserrors.ErrMissingRoomKey.Error())
	}
	if listing.Status == model.ApartmentStatusInactive {
		return nil, apperrors.InvalidInput(bookingserrors.ErrListingInactive.Error())
	}
	if listing.MaxGuests > 0 && req.GuestsCount > listing.MaxGuests {
		return nil, apperrors.InvalidInput(bookingserrors.ErrTooManyGuests.Error()).WithDetails(map[string]any{
			"max_guests": listing.MaxGuests,
		})
	}
	return listing, nil
}

// defaultRooms prices the listing's room evenly across the stay when the
// request carries no line items.
func defaultRooms(req *model.CreateBookingRequest, listing *model.Apartment, stay *validator.Stay) []model.ReservationRoom {
	nights := interval.New(stay.CheckIn, stay.CheckOut).Nights()
	nightly := math.Round(req.Amount/float64(nights)*100) / 100

	perDay := make([]float64, nights)
	for i := range perDay {
		perDay[i] = nightly
	}

	return []model.ReservationRoom{{
		RoomID:      listing.RoomID,
		Quantity:    1,
		Price:       req.Amount,
		PricePerDay: perDay,
		NoGuests:    req.GuestsCount,
	}}
}

func (s *bookingService) createIntent(ctx context.Context, req *model.CreateBookingRequest, listing *model.Apartment, stay *validator.Stay, idempotencyKey string) (*payments.Intent, error) {
	rooms := req.Rooms
	if len(rooms) == 0 {
		rooms = defaultRooms(req, listing, stay)
	}
	hotelID := req.HotelID
	if hotelID == 0 {
		hotelID = listing.HotelID
	}

	metadata, err := payments.BookingMetadata{
		ApartmentID: listing.ID,
		RoomKey:     listing.RoomKey(),
		GuestName:   req.GuestName,
		GuestEmail:  req.GuestEmail,
		GuestPhone:  req.GuestPhone,
		CheckIn:     stay.CheckIn,
		CheckOut:    stay.CheckOut,
		GuestsCount: req.GuestsCount,
		TotalPrice:  req.Amount,
		HotelID:     hotelID,
		Currency:    req.Currency,
		Rooms:       rooms,
	}.Map()
	if err != nil {
		return nil, apperrors.Internal("Failed to build payment metadata", err)
	}

	intent, err := s.payments.CreateIntent(ctx, payments.CreateIntentParams{
		Amount:         req.Amount,
		Currency:       req.Currency,
		Metadata:       metadata,
		Split:          s.opts.FeeSplitter.Split(payments.ToMinorUnits(req.Amount), listing.PayoutAccountID),
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		s.log.Error("Failed to create payment intent",
			"apartment_id", listing.ID,
			"amount", req.Amount,
			"currency", req.Currency,
			"error", err,
		)
		return nil, apperrors.UnavailableWithCause("payment provider", err)
	}
	return intent, nil
}

// cancelIntent releases an intent whose lock could not be placed. Failure is
// only logged: an unpaid intent expires on the provider side.
func (s *bookingService) cancelIntent(ctx context.Context, intentID string, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cancelTimeout)
	defer cancel()

	if err := s.payments.CancelIntent(ctx, intentID); err != nil {
		s.log.Error("Failed to cancel payment intent after lock failure",
			"payment_reference", intentID,
			"lock_error", cause,
			"error", err,
		)
		return
	}
	s.log.Warn("Payment intent canceled after lock failure",
		"payment_reference", intentID,
		"lock_error", cause,
	)
}

func (s *bookingService) CheckAvailability(ctx context.Context, roomKey, checkIn, checkOut, currency string) (*model.AvailabilityResult, error) {
	roomKey = strings.TrimSpace(roomKey)
	if roomKey == "" {
		return nil, apperrors.InvalidInput("room_key is required")
	}
	in, err := interval.ParseDate(checkIn)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid check_in: " + err.Error())
	}
	out, err := interval.ParseDate(checkOut)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid check_out: " + err.Error())
	}

	result, err := s.ledger.CheckAvailability(ctx, pynbooking.AvailabilityParams{
		RoomKey:  roomKey,
		CheckIn:  in,
		CheckOut: out,
		Currency: sanitizer.NormalizeCurrency(currency),
	})
	if err != nil {
		return nil, s.mapLedgerError(err, "CheckAvailability")
	}
	return result, nil
}

func (s *bookingService) SearchLedger(ctx context.Context, params pynbooking.SearchParams) ([]pynbooking.LedgerReservation, error) {
	if params.Date != "" {
		if _, err := interval.ParseDate(params.Date); err != nil {
			return nil, apperrors.InvalidInput("invalid date: " + err.Error())
		}
	}

	entries, err := s.ledger.SearchReservations(ctx, params)
	if err != nil {
		return nil, s.mapLedgerError(err, "SearchReservations")
	}
	if entries == nil {
		entries = []pynbooking.LedgerReservation{}
	}
	return entries, nil
}

func (s *bookingService) mapLedgerError(err error, operation string) error {
	if !pynbooking.IsUnavailable(err) {
		return apperrors.InvalidInput(err.Error())
	}
	s.log.Error("Booking ledger call failed", "operation", operation, "error", err)
	return apperrors.UnavailableWithCause("booking ledger", err)
}
