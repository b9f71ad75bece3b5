package model

import (
	"time"

	"telegram-merchant-commerce/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive  SubscriptionStatus = "active"
	SubscriptionStatusExpired SubscriptionStatus = "expired"
	SubscriptionStatusRevoked SubscriptionStatus = "revoked" // staff action, never set by this engine
)

// Subscription is the single access grant for a (user, service) pair.
// Storage enforces at most one row per pair; renewals extend this row
// rather than creating siblings.
type Subscription struct {
	ID         string // UUID
	UserID     string // UUID
	ServiceID  string // UUID
	MerchantID string // UUID
	TierID     string // UUID of the most recently applied tier
	Status     SubscriptionStatus
	ExpiresAt  *time.Time // nil = unlimited access
	Renewals   int        // successful payment applications, not webhook deliveries
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewSubscription creates the first grant for a pair from a successful payment.
func NewSubscription(id, userID, serviceID, merchantID string, tier *Tier, now time.Time) (*Subscription, error) {
	if id == "" || userID == "" || serviceID == "" || merchantID == "" || tier.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	s := &Subscription{
		ID:         id,
		UserID:     userID,
		ServiceID:  serviceID,
		MerchantID: merchantID,
		TierID:     tier.ID,
		Status:     SubscriptionStatusActive,
		Renewals:   1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if !tier.Unlimited() {
		exp := tier.AddInterval(now)
		s.ExpiresAt = &exp
	}
	return s, nil
}

// Renew extends the grant by one tier interval. A renewal purchased before
// expiry extends from the existing expiry, never from now, so the remaining
// paid period is preserved: newExpiry = max(currentExpiry, now) + interval.
func (s *Subscription) Renew(tier *Tier, now time.Time) error {
	if tier.IsZero() {
		return domain.ErrInvalidArgument
	}
	if s.Status == SubscriptionStatusRevoked {
		return domain.ErrSubscriptionRevoked
	}
	if tier.Unlimited() {
		s.ExpiresAt = nil
	} else {
		base := now
		if s.ExpiresAt != nil && s.ExpiresAt.After(now) {
			base = *s.ExpiresAt
		}
		exp := tier.AddInterval(base)
		s.ExpiresAt = &exp
	}
	s.TierID = tier.ID
	s.Status = SubscriptionStatusActive
	s.Renewals++
	s.UpdatedAt = now
	return nil
}

// Expired reports whether the grant has lapsed at the given instant.
func (s *Subscription) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !s.ExpiresAt.After(now)
}
