package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apartmentrepo "staylock/internal/apartments/repository"
	"staylock/internal/bookings/validator"
	lockrepo "staylock/internal/roomlocks/repository"
	lockservice "staylock/internal/roomlocks/service"
	"staylock/pkg/clock"
	apperrors "staylock/pkg/errors"
	"staylock/pkg/logger"
	"staylock/pkg/model"
	"staylock/pkg/payments"
	"staylock/pkg/pynbooking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ────────────────────────────────────────────────
// Fakes
// ────────────────────────────────────────────────

type fakeLedger struct {
	availabilityFunc func(ctx context.Context, params pynbooking.AvailabilityParams) (*model.AvailabilityResult, error)
	searchFunc       func(ctx context.Context, params pynbooking.SearchParams) ([]pynbooking.LedgerReservation, error)
}

func (f *fakeLedger) CheckAvailability(ctx context.Context, params pynbooking.AvailabilityParams) (*model.AvailabilityResult, error) {
	if f.availabilityFunc != nil {
		return f.availabilityFunc(ctx, params)
	}
	return &model.AvailabilityResult{Available: true, Message: pynbooking.MessageAvailable}, nil
}

func (f *fakeLedger) SearchReservations(ctx context.Context, params pynbooking.SearchParams) ([]pynbooking.LedgerReservation, error) {
	if f.searchFunc != nil {
		return f.searchFunc(ctx, params)
	}
	return nil, nil
}

type fakePayments struct {
	mu         sync.Mutex
	createFunc func(ctx context.Context, params payments.CreateIntentParams) (*payments.Intent, error)
	cancelErr  error
	created    []payments.CreateIntentParams
	canceled   []string
	next       int
}

func (f *fakePayments) CreateIntent(ctx context.Context, params payments.CreateIntentParams) (*payments.Intent, error) {
	f.mu.Lock()
	f.created = append(f.created, params)
	f.next++
	id := "pi_" + string(rune('a'+f.next-1))
	f.mu.Unlock()

	if f.createFunc != nil {
		return f.createFunc(ctx, params)
	}
	return &payments.Intent{ID: id, ClientSecret: id + "_secret"}, nil
}

func (f *fakePayments) CancelIntent(_ context.Context, intentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canceled = append(f.canceled, intentID)
	return f.cancelErr
}

// lockerFunc lets a test replace CreateLock on top of a real lock service.
type lockerFunc struct {
	RoomLocker
	create func(ctx context.Context, params model.CreateLockParams, ttl time.Duration) (*model.RoomLock, error)
}

func (l *lockerFunc) CreateLock(ctx context.Context, params model.CreateLockParams, ttl time.Duration) (*model.RoomLock, error) {
	return l.create(ctx, params, ttl)
}

const apartmentID = "665f1c2e9b1e8a0012345678"

var start = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc      BookingService
	locks    lockservice.LockService
	ledger   *fakeLedger
	payments *fakePayments
	clock    *clock.MockClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := clock.NewMockClock(start)
	f := &fixture{
		locks:    lockservice.NewLockService(lockrepo.NewMemoryRoomLockRepository(), clk, logger.NewNop()),
		ledger:   &fakeLedger{},
		payments: &fakePayments{},
		clock:    clk,
	}
	f.svc = f.build(f.locks)
	return f
}

func (f *fixture) build(locks RoomLocker, apartments ...*model.Apartment) BookingService {
	if len(apartments) == 0 {
		apartments = []*model.Apartment{{
			ID:              apartmentID,
			HotelID:         42,
			RoomType:        "R101",
			RoomID:          7,
			MaxGuests:       4,
			PayoutAccountID: "acct_1",
			Status:          model.ApartmentStatusActive,
		}}
	}
	log := logger.NewNop()
	return NewBookingService(
		apartmentrepo.NewMemoryListingResolver(apartments...),
		locks,
		f.ledger,
		f.payments,
		validator.NewBookingValidator([]string{"ron", "eur"}, log),
		Options{LockTTL: 15 * time.Minute, FeeSplitter: payments.NewFeeSplitter(0.2), DefaultCurrency: "ron", DefaultRegion: "RO"},
		f.clock,
		log,
	)
}

func request(in, out string) *model.CreateBookingRequest {
	return &model.CreateBookingRequest{
		ApartmentID:  apartmentID,
		CheckInDate:  in,
		CheckOutDate: out,
		GuestName:    "  Ana   Pop ",
		GuestEmail:   "Ana@Example.com",
		GuestPhone:   "0722 123 456",
		GuestsCount:  2,
		Amount:       750,
	}
}

// ────────────────────────────────────────────────
// CreateBooking
// ────────────────────────────────────────────────

func TestCreateBooking_HoldsRoomAndCreatesIntent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	resp, err := f.svc.CreateBooking(ctx, request("2024-06-10", "2024-06-13"), "idem-1")
	require.NoError(t, err)
	assert.Equal(t, "pi_a", resp.PaymentReference)
	assert.Equal(t, "pi_a_secret", resp.ClientSecret)
	assert.Equal(t, "R101", resp.RoomKey)
	assert.Equal(t, start.Add(15*time.Minute), resp.LockExpiresAt)

	require.Len(t, f.payments.created, 1)
	params := f.payments.created[0]
	assert.Equal(t, "ron", params.Currency)
	assert.Equal(t, "idem-1", params.IdempotencyKey)
	require.NotNil(t, params.Split)
	assert.EqualValues(t, 15000, params.Split.ApplicationFeeAmount)
	assert.Equal(t, "acct_1", params.Split.Destination)

	meta := payments.ParseBookingMetadata(params.Metadata)
	assert.Equal(t, apartmentID, meta.ApartmentID)
	assert.Equal(t, "Ana Pop", meta.GuestName)
	assert.Equal(t, "ana@example.com", meta.GuestEmail)
	assert.Equal(t, "+40722123456", meta.GuestPhone)
	assert.EqualValues(t, 42, meta.HotelID)
	require.Len(t, meta.Rooms, 1)
	assert.Equal(t, []float64{250, 250, 250}, meta.Rooms[0].PricePerDay)
	assert.EqualValues(t, 7, meta.Rooms[0].RoomID)

	lock, err := f.locks.GetLock(ctx, "pi_a")
	require.NoError(t, err)
	assert.Equal(t, apartmentID, lock.ApartmentID)
	assert.Equal(t, "ana@example.com", lock.GuestEmail)
}

func TestCreateBooking_R101Scenarios(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.CreateBooking(ctx, request("2024-06-10", "2024-06-13"), "")
	require.NoError(t, err)

	_, err = f.svc.CreateBooking(ctx, request("2024-06-12", "2024-06-14"), "")
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Len(t, f.payments.created, 1, "no intent is created for a held room")

	_, err = f.svc.CreateBooking(ctx, request("2024-06-13", "2024-06-15"), "")
	assert.NoError(t, err, "a stay starting on the previous check-out day proceeds")
}

func TestCreateBooking_ExpiredLockDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.CreateBooking(ctx, request("2024-06-10", "2024-06-13"), "")
	require.NoError(t, err)

	f.clock.Add(15 * time.Minute)
	_, err = f.svc.CreateBooking(ctx, request("2024-06-11", "2024-06-12"), "")
	assert.NoError(t, err)
}

func TestCreateBooking_LedgerUnavailableRoom(t *testing.T) {
	f := newFixture(t)
	f.ledger.availabilityFunc = func(context.Context, pynbooking.AvailabilityParams) (*model.AvailabilityResult, error) {
		return &model.AvailabilityResult{Available: false, Message: pynbooking.MessageUnavailable}, nil
	}

	_, err := f.svc.CreateBooking(context.Background(), request("2024-06-10", "2024-06-13"), "")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
	assert.Equal(t, pynbooking.MessageUnavailable, apperrors.AsAppError(err).Message)
	assert.Empty(t, f.payments.created)
}

func TestCreateBooking_LedgerErrorIsTolerated(t *testing.T) {
	f := newFixture(t)
	f.ledger.availabilityFunc = func(context.Context, pynbooking.AvailabilityParams) (*model.AvailabilityResult, error) {
		return nil, errors.New("connection refused")
	}

	_, err := f.svc.CreateBooking(context.Background(), request("2024-06-10", "2024-06-13"), "")
	assert.NoError(t, err)
}

func TestCreateBooking_PaymentProviderDown(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.payments.createFunc = func(context.Context, payments.CreateIntentParams) (*payments.Intent, error) {
		return nil, errors.New("provider down")
	}

	_, err := f.svc.CreateBooking(ctx, request("2024-06-10", "2024-06-13"), "")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnavailable))

	locks, err := f.locks.ListActiveLocks(ctx)
	require.NoError(t, err)
	assert.Empty(t, locks, "no lock without an intent")
}

func TestCreateBooking_LockRaceCancelsIntent(t *testing.T) {
	f := newFixture(t)
	svc := f.build(&lockerFunc{
		RoomLocker: f.locks,
		create: func(context.Context, model.CreateLockParams, time.Duration) (*model.RoomLock, error) {
			return nil, apperrors.Conflict(lockservice.ConflictMessage)
		},
	})

	_, err := svc.CreateBooking(context.Background(), request("2024-06-10", "2024-06-13"), "")
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, []string{"pi_a"}, f.payments.canceled)
}

func TestCreateBooking_LockFailureCancelsIntentEvenIfCancelFails(t *testing.T) {
	f := newFixture(t)
	f.payments.cancelErr = errors.New("cancel failed")
	svc := f.build(&lockerFunc{
		RoomLocker: f.locks,
		create: func(context.Context, model.CreateLockParams, time.Duration) (*model.RoomLock, error) {
			return nil, apperrors.Internal("Failed to create room lock", errors.New("db down"))
		},
	})

	_, err := svc.CreateBooking(context.Background(), request("2024-06-10", "2024-06-13"), "")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))
	assert.Equal(t, []string{"pi_a"}, f.payments.canceled)
}

func TestCreateBooking_ListingChecks(t *testing.T) {
	tests := []struct {
		name      string
		apartment *model.Apartment
		req       func() *model.CreateBookingRequest
		code      string
	}{
		{
			name:      "unknown listing",
			apartment: &model.Apartment{ID: "665f1c2e9b1e8a0000000000", RoomType: "R101"},
			req:       func() *model.CreateBookingRequest { return request("2024-06-10", "2024-06-13") },
			code:      apperrors.CodeNotFound,
		},
		{
			name:      "missing room key",
			apartment: &model.Apartment{ID: apartmentID},
			req:       func() *model.CreateBookingRequest { return request("2024-06-10", "2024-06-13") },
			code:      apperrors.CodeInvalidInput,
		},
		{
			name:      "inactive listing",
			apartment: &model.Apartment{ID: apartmentID, RoomType: "R101", Status: model.ApartmentStatusInactive},
			req:       func() *model.CreateBookingRequest { return request("2024-06-10", "2024-06-13") },
			code:      apperrors.CodeInvalidInput,
		},
		{
			name:      "too many guests",
			apartment: &model.Apartment{ID: apartmentID, RoomType: "R101", MaxGuests: 1},
			req:       func() *model.CreateBookingRequest { return request("2024-06-10", "2024-06-13") },
			code:      apperrors.CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			svc := f.build(f.locks, tt.apartment)

			_, err := svc.CreateBooking(context.Background(), tt.req(), "")
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.code), "got %v", err)
			assert.Empty(t, f.payments.created)
		})
	}
}

func TestCreateBooking_InvalidRequest(t *testing.T) {
	f := newFixture(t)

	req := request("2024-05-20", "2024-05-22")
	_, err := f.svc.CreateBooking(context.Background(), req, "")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}

func TestCreateBooking_ExplicitRoomsAndHotel(t *testing.T) {
	f := newFixture(t)

	req := request("2024-06-10", "2024-06-12")
	req.HotelID = 99
	req.Currency = "EUR"
	req.Rooms = []model.ReservationRoom{{RoomID: 3, PlanID: 2, Quantity: 1, Price: 750, PricePerDay: []float64{300, 450}, NoGuests: 2}}

	_, err := f.svc.CreateBooking(context.Background(), req, "")
	require.NoError(t, err)

	params := f.payments.created[0]
	assert.Equal(t, "eur", params.Currency)
	meta := payments.ParseBookingMetadata(params.Metadata)
	assert.EqualValues(t, 99, meta.HotelID)
	assert.Equal(t, "EUR", meta.Currency)
	require.Len(t, meta.Rooms, 1)
	assert.EqualValues(t, 2, meta.Rooms[0].PlanID)
}

// ────────────────────────────────────────────────
// Ledger reads
// ────────────────────────────────────────────────

func TestCheckAvailability_MapsErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CheckAvailability(context.Background(), "", "2024-06-10", "2024-06-12", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))

	_, err = f.svc.CheckAvailability(context.Background(), "R101", "June", "2024-06-12", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))

	f.ledger.availabilityFunc = func(context.Context, pynbooking.AvailabilityParams) (*model.AvailabilityResult, error) {
		return nil, pynbooking.ErrInvalidRange
	}
	_, err = f.svc.CheckAvailability(context.Background(), "R101", "2024-06-12", "2024-06-10", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))

	f.ledger.availabilityFunc = func(context.Context, pynbooking.AvailabilityParams) (*model.AvailabilityResult, error) {
		return nil, &pynbooking.APIError{Operation: "search", StatusCode: 502, Message: "bad gateway"}
	}
	_, err = f.svc.CheckAvailability(context.Background(), "R101", "2024-06-10", "2024-06-12", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnavailable))
}

func TestSearchLedger(t *testing.T) {
	f := newFixture(t)
	f.ledger.searchFunc = func(_ context.Context, params pynbooking.SearchParams) ([]pynbooking.LedgerReservation, error) {
		assert.Equal(t, "2024-06-10", params.Date)
		assert.Equal(t, 3, params.Days)
		return []pynbooking.LedgerReservation{{ID: "1", RoomName: "R101"}}, nil
	}

	entries, err := f.svc.SearchLedger(context.Background(), pynbooking.SearchParams{Date: "2024-06-10", Days: 3})
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = f.svc.SearchLedger(context.Background(), pynbooking.SearchParams{Date: "tomorrow"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}
