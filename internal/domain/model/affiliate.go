package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AffiliateAttribution is captured at checkout time by the bot front end
// and read here to decide whether a payment earns a commission. A nil
// CommissionPercent means the platform default rate applies.
type AffiliateAttribution struct {
	PaymentID         string // UUID
	LinkID            string // UUID of the affiliate link
	AffiliateID       string // UUID of the referring affiliate
	CommissionPercent *decimal.Decimal
	CreatedAt         time.Time
}

type ConversionStatus string

const (
	ConversionStatusPending ConversionStatus = "pending" // earned, awaiting payout run
	ConversionStatusPaid    ConversionStatus = "paid"    // settled by the payout workflow
)

// AffiliateConversion records a commission owed for a referred purchase.
// At most one conversion exists per payment.
type AffiliateConversion struct {
	ID          string // UUID
	PaymentID   string // UUID
	LinkID      string // UUID
	AffiliateID string // UUID
	Commission  decimal.Decimal
	Currency    string
	Status      ConversionStatus
	CreatedAt   time.Time
}
