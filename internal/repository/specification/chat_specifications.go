package specification

import (
	"gorm.io/gorm"
)

type BySessionID struct {
	SessionID string
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

type ByOwner struct {
	Owner string
}

func (s ByOwner) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("owner = ?", s.Owner)
}

// ActiveOnly keeps sessions that have not ended
type ActiveOnly struct{}

func (s ActiveOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("ended = ?", false)
}

// ReplayOrder is the canonical transcript order: timestamp, then insertion id for ties.
type ReplayOrder struct{}

func (s ReplayOrder) Apply(db *gorm.DB) *gorm.DB {
	db = OrderBy{Field: "timestamp"}.Apply(db)
	return OrderBy{Field: "id"}.Apply(db)
}
