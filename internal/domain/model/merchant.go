package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Merchant owns services, tiers and a ledger balance. PlanID is nil for
// merchants still on the platform default fee.
type Merchant struct {
	ID        string // UUID
	Name      string
	PlanID    *string // UUID of the platform plan, nil = default fee
	CreatedAt time.Time
}

// MerchantPlan carries the platform fee percentage charged on each credit.
// The plan-configured value is authoritative; a platform-wide default only
// applies to merchants without a plan row.
type MerchantPlan struct {
	ID         string // UUID
	Name       string
	FeePercent decimal.Decimal // e.g. 10 means 10%
	CreatedAt  time.Time
}
