package entity

import (
	"time"
)

type ChatSession struct {
	Id        string
	Owner     string
	Ended     bool
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// SessionActivity pairs an active session with the timestamp of its newest record.
// LastTimestamp is nil when the session has no records at all.
type SessionActivity struct {
	SessionId     string
	Owner         string
	LastTimestamp *int64
}
