package tool

import "github.com/google/uuid"

// GenerateUUIDV7 returns a time-ordered id for audit rows.
func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewTraceID returns a random request trace id.
func NewTraceID() string {
	return uuid.NewString()
}
