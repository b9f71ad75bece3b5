package model

import "time"

// User is the minimal purchaser identity this engine needs: enough to hand
// the messaging collaborator a deliverable address.
type User struct {
	ID         string // UUID
	TelegramID int64  // chat id used by the messaging collaborator
	CreatedAt  time.Time
}
