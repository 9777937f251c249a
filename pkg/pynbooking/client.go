package pynbooking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"staylock/pkg/client"
	"staylock/pkg/config"
	"staylock/pkg/interval"
	"staylock/pkg/logger"
	"staylock/pkg/model"
)

const (
	DefaultMaxSearchDays = 31

	headerAPIKey = "Api-Key"

	MessageAvailable   = "Room is available for the selected dates"
	MessageUnavailable = "Room is not available for the selected dates"
)

type Options struct {
	BookingURL    string
	SearchURL     string
	BookAPIKey    string
	SearchAPIKey  string
	Timeout       time.Duration
	MaxSearchDays int
	Rules         MatchRules
	Payload       PayloadOptions
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BookingURL:    cfg.PynBookingBookingURL,
		SearchURL:     cfg.PynBookingSearchURL,
		BookAPIKey:    cfg.PynBookingBookAPIKey,
		SearchAPIKey:  cfg.PynBookingSearchAPIKey,
		Timeout:       cfg.HTTPClientTimeout,
		MaxSearchDays: cfg.PynBookingMaxSearchDays,
		Rules: MatchRules{
			MatchRoomType:     true,
			MatchRoomName:     true,
			SubstringRoomName: cfg.PynBookingRoomSubstringMatch,
			ConfirmedStatuses: cfg.PynBookingConfirmedStatuses,
		},
		Payload: PayloadOptions{
			Language:      cfg.PynBookingLanguage,
			DefaultRegion: cfg.PynBookingDefaultRegion,
		},
	}
}

// Client talks to the PynBooking ledger. Calls are single shot; retries are
// left to the callers that own the failure policy.
type Client struct {
	http *client.HttpClient
	opts Options
	log  *logger.Logger
}

func NewClient(opts Options, log *logger.Logger) *Client {
	if opts.MaxSearchDays <= 0 {
		opts.MaxSearchDays = DefaultMaxSearchDays
	}
	if len(opts.Rules.ConfirmedStatuses) == 0 {
		opts.Rules.ConfirmedStatuses = DefaultConfirmedStatuses
	}
	return &Client{
		http: client.NewHttpClient("", opts.Timeout),
		opts: opts,
		log:  log.Component("pynbooking"),
	}
}

func NewClientFromConfig(cfg *config.Config) *Client {
	return NewClient(OptionsFromConfig(cfg), cfg.Log)
}

func (c *Client) post(ctx context.Context, operation, endpoint, apiKey string, form url.Values) (*client.Response, error) {
	resp, err := c.http.PostForm(ctx, endpoint, form, map[string]string{headerAPIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("pynbooking %s: %w", operation, err)
	}
	if !resp.IsSuccess() {
		return nil, &APIError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Message:    client.GetErrorMessage(resp),
		}
	}
	return resp, nil
}

func (c *Client) SearchReservations(ctx context.Context, params SearchParams) ([]LedgerReservation, error) {
	if strings.TrimSpace(params.Date) == "" {
		return nil, ErrMissingDate
	}
	if params.Days != 0 && (params.Days < 1 || params.Days > c.opts.MaxSearchDays) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDays, params.Days)
	}

	form := url.Values{}
	form.Set("date", params.Date)
	if params.Days > 0 {
		form.Set("days", strconv.Itoa(params.Days))
	}
	if params.RoomNo != "" {
		form.Set("roomNo", params.RoomNo)
	}

	resp, err := c.post(ctx, "search", c.opts.SearchURL, c.opts.SearchAPIKey, form)
	if err != nil {
		return nil, err
	}

	var entries []LedgerReservation
	if err := resp.DecodeJSON(&entries); err != nil {
		return nil, fmt.Errorf("pynbooking search: decode response: %w", err)
	}
	return entries, nil
}

// CheckAvailability searches the ledger from check-in for the length of the
// stay, capped at the maximum search window, and reports the room as taken
// if any confirmed entry for it overlaps.
func (c *Client) CheckAvailability(ctx context.Context, params AvailabilityParams) (*model.AvailabilityResult, error) {
	stay := interval.New(params.CheckIn.UTC(), params.CheckOut.UTC())
	if !stay.Valid() {
		return nil, ErrInvalidRange
	}

	days := min(stay.Nights(), c.opts.MaxSearchDays)
	entries, err := c.SearchReservations(ctx, SearchParams{
		Date:   interval.FormatDate(stay.Start),
		Days:   days,
		RoomNo: params.RoomKey,
	})
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if c.opts.Rules.Blocks(entry, params.RoomKey, stay) {
			c.log.Info("Ledger reports overlapping reservation",
				"room_key", params.RoomKey,
				"stay", stay.String(),
				"ledger_id", string(entry.ID),
				"ledger_status", entry.Status,
			)
			return &model.AvailabilityResult{Available: false, Message: MessageUnavailable}, nil
		}
	}
	return &model.AvailabilityResult{Available: true, Message: MessageAvailable}, nil
}

type sendResponse struct {
	ID            FlexibleID `json:"id"`
	ReservationID FlexibleID `json:"reservationId"`
	BookingID     FlexibleID `json:"bookingId"`
	Status        string     `json:"status"`
	Message       string     `json:"message"`
	Error         string     `json:"error"`
	Success       *bool      `json:"success"`
}

// SendReservation pushes one reservation to the ledger.
func (c *Client) SendReservation(ctx context.Context, res *model.Reservation) (*SendResult, error) {
	payload := BuildReservationPayload(res, c.opts.Payload)
	form, err := payload.Form()
	if err != nil {
		return nil, fmt.Errorf("pynbooking send: encode rooms: %w", err)
	}

	c.log.Info("Sending reservation to ledger",
		"payment_reference", res.PaymentReference,
		"hotel_id", payload.HotelID,
		"arrival", payload.ArrivalDate,
		"departure", payload.DepartureDate,
		"rooms", len(payload.Rooms),
	)

	resp, err := c.post(ctx, "send", c.opts.BookingURL, c.opts.BookAPIKey, form)
	if err != nil {
		return nil, err
	}

	var body sendResponse
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &body); err != nil {
			c.log.Warn("Ledger returned a non JSON body", "payment_reference", res.PaymentReference)
		}
	}
	if (body.Success != nil && !*body.Success) || body.Error != "" {
		msg := body.Error
		if msg == "" {
			msg = body.Message
		}
		return nil, &APIError{Operation: "send", StatusCode: resp.StatusCode, Message: msg}
	}

	result := &SendResult{Status: body.Status, Message: body.Message}
	for _, id := range []FlexibleID{body.BookingID, body.ReservationID, body.ID} {
		if id != "" {
			result.ExternalBookingID = string(id)
			break
		}
	}
	return result, nil
}
