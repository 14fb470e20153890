package model

import (
	"fmt"

	"gorm.io/gorm"
)

// ActiveOwnerIndex is the partial unique index that makes the storage engine
// the arbiter of "one active session per owner".
const ActiveOwnerIndex = "idx_chat_sessions_owner_active"

// Migrate creates the session and record tables plus the partial unique index.
// The statement is valid for both Postgres and SQLite.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&ChatSession{}, &ChatRecord{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	stmt := fmt.Sprintf(
		"CREATE UNIQUE INDEX IF NOT EXISTS %s ON chat_sessions (owner) WHERE ended = false",
		ActiveOwnerIndex,
	)
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("create %s: %w", ActiveOwnerIndex, err)
	}

	return nil
}
