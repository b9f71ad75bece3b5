package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type MovementType string

const (
	MovementCredit MovementType = "credit"
	MovementDebit  MovementType = "debit"
)

// LedgerEntry is one immutable balance movement for a merchant. Entries are
// append-only; BalanceAfter on entry n equals BalanceAfter on entry n-1 plus
// the signed amount of entry n, computed inside the same transaction that
// produced the movement.
type LedgerEntry struct {
	ID           string // ULID, time-ordered
	Seq          int64  // storage-assigned position in the merchant's chain
	MerchantID   string // UUID
	Amount       decimal.Decimal // signed: positive for credits, negative for debits
	Type         MovementType
	Description  string
	BalanceAfter decimal.Decimal
	PaymentID    *string // originating payment, when there is one
	CreatedAt    time.Time
}
