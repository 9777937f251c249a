package payments

import (
	"math"
	"strings"
)

// ToMinorUnits converts a decimal amount to the provider's smallest
// currency unit.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func FromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}

// FeeSplit routes a payment to a connected account while the platform
// keeps ApplicationFeeAmount.
type FeeSplit struct {
	ApplicationFeeAmount int64
	Destination          string
}

type FeeSplitter struct {
	Percentage float64
}

func NewFeeSplitter(percentage float64) FeeSplitter {
	return FeeSplitter{Percentage: percentage}
}

// Split returns nil when there is no payout account; the whole amount then
// stays on the platform account.
func (f FeeSplitter) Split(amountMinor int64, destination string) *FeeSplit {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil
	}
	fee := int64(math.Round(float64(amountMinor) * f.Percentage))
	if fee < 0 {
		fee = 0
	}
	if fee > amountMinor {
		fee = amountMinor
	}
	return &FeeSplit{ApplicationFeeAmount: fee, Destination: destination}
}
