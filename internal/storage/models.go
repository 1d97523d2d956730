package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Session is the server-side record of one conversation: the accumulated
// profile (as JSON) and the last detected language.
type Session struct {
	ID          string
	ProfileJSON string
	Language    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TurnRecord is one processed turn, kept for operator diagnostics. The
// Diagnostics column holds detail (raw model output, predictor status) that
// never reaches user-facing messages.
type TurnRecord struct {
	ID          string
	SessionID   string
	Status      string
	UserText    string
	Message     string
	Diagnostics string // JSON object stored as text
	CreatedAt   time.Time
}
