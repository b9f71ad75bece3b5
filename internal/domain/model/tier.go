package model

import (
	"time"

	"github.com/shopspring/decimal"

	"telegram-merchant-commerce/internal/domain"
)

type IntervalUnit string

const (
	IntervalDay   IntervalUnit = "day"
	IntervalWeek  IntervalUnit = "week"
	IntervalMonth IntervalUnit = "month"
	IntervalYear  IntervalUnit = "year"
)

// Service is a merchant-offered product bundle (e.g. a signal channel)
// containing one or more purchasable tiers.
type Service struct {
	ID         string // UUID
	MerchantID string // UUID
	Name       string
	CreatedAt  time.Time
}

// Tier is a purchasable pricing option for a service. IntervalCount == 0
// means the tier grants unlimited access with no expiry.
type Tier struct {
	ID            string // UUID
	ServiceID     string // UUID
	MerchantID    string // UUID
	Name          string
	Price         decimal.Decimal
	Currency      string
	IntervalUnit  IntervalUnit
	IntervalCount int
	CreatedAt     time.Time
}

func (t *Tier) IsZero() bool { return t == nil || t.ID == "" }

// Unlimited reports whether the tier grants access without expiry.
func (t *Tier) Unlimited() bool { return t.IntervalCount <= 0 }

// AddInterval returns base pushed forward by one billing interval.
func (t *Tier) AddInterval(base time.Time) time.Time {
	switch t.IntervalUnit {
	case IntervalDay:
		return base.AddDate(0, 0, t.IntervalCount)
	case IntervalWeek:
		return base.AddDate(0, 0, 7*t.IntervalCount)
	case IntervalMonth:
		return base.AddDate(0, t.IntervalCount, 0)
	case IntervalYear:
		return base.AddDate(t.IntervalCount, 0, 0)
	default:
		return base.AddDate(0, t.IntervalCount, 0)
	}
}

// NewTier validates and constructs a tier.
func NewTier(id, serviceID, merchantID, name string, price decimal.Decimal, currency string, unit IntervalUnit, count int) (*Tier, error) {
	if id == "" || serviceID == "" || merchantID == "" || name == "" || currency == "" {
		return nil, domain.ErrInvalidArgument
	}
	if price.IsNegative() || count < 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Tier{
		ID:            id,
		ServiceID:     serviceID,
		MerchantID:    merchantID,
		Name:          name,
		Price:         price,
		Currency:      currency,
		IntervalUnit:  unit,
		IntervalCount: count,
		CreatedAt:     time.Now(),
	}, nil
}
