package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	bookingserrors "staylock/internal/bookings/errors"
	"staylock/pkg/interval"
	"staylock/pkg/logger"
	"staylock/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BookingValidator struct {
	validate   *validator.Validate
	currencies map[string]struct{}
	logger     *logger.Logger
}

func NewBookingValidator(supportedCurrencies []string, log *logger.Logger) *BookingValidator {
	bv := &BookingValidator{
		validate:   validator.New(),
		currencies: make(map[string]struct{}, len(supportedCurrencies)),
		logger:     log,
	}
	for _, c := range supportedCurrencies {
		bv.currencies[strings.ToLower(c)] = struct{}{}
	}

	if err := bv.validate.RegisterValidation("supported_currency", bv.validateCurrency); err != nil {
		log.Fatal("Failed to register 'supported_currency' validator",
			"error", err,
		)
	}

	return bv
}

func (v *BookingValidator) validateCurrency(fl validator.FieldLevel) bool {
	_, ok := v.currencies[strings.ToLower(fl.Field().String())]
	return ok
}

// Stay is the validated, parsed date range of a request.
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// Validate checks req against the struct rules and the calendar. now is
// used to reject stays that start before today (UTC).
func (v *BookingValidator) Validate(req *model.CreateBookingRequest, now time.Time) (*Stay, error) {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return nil, v.translateValidationErrors(validationErrs)
		}
		return nil, err
	}

	checkIn, err := interval.ParseDate(req.CheckInDate)
	if err != nil {
		return nil, ValidationErrors{{Field: "CheckInDate", Message: err.Error()}}
	}
	checkOut, err := interval.ParseDate(req.CheckOutDate)
	if err != nil {
		return nil, ValidationErrors{{Field: "CheckOutDate", Message: err.Error()}}
	}

	if !checkOut.After(checkIn) {
		return nil, ValidationErrors{{Field: "CheckOutDate", Message: bookingserrors.ErrInvalidStay.Error()}}
	}
	if checkIn.Before(interval.StartOfDay(now)) {
		return nil, ValidationErrors{{Field: "CheckInDate", Message: bookingserrors.ErrCheckInPast.Error()}}
	}

	return &Stay{CheckIn: checkIn, CheckOut: checkOut}, nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +40722123456)", err.Field())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "datetime":
			message = fmt.Sprintf("%s must be a date in %s format", err.Field(), err.Param())
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
		case "supported_currency":
			message = fmt.Sprintf("%s %q is not supported", err.Field(), err.Value())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
