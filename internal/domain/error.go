package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrUnavailable        = errors.New("storage temporarily unavailable")

	// Reconciliation errors
	ErrMalformedEvent    = errors.New("malformed payment event")
	ErrDuplicateEvent    = errors.New("payment event already processed")
	ErrNoMatchingPayment = errors.New("no matching pending payment")
	ErrInvalidTransition = errors.New("invalid payment status transition")

	// Subscription errors
	ErrSubscriptionRevoked  = errors.New("subscription has been revoked")
	ErrNoActiveSubscription = errors.New("no active subscription")
)

// IsTransient reports whether err is worth retrying. Only storage
// unavailability qualifies; constraint violations and lookups that
// legitimately miss propagate immediately.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
