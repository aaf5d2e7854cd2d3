package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatRecord is one persisted query/response exchange. Records are immutable
// once written and always belong to the identity resolved by the auth gate.
type ChatRecord struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	Query     string    `json:"query" db:"query"`
	Response  string    `json:"response" db:"response"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
