package model

import (
	"time"
)

type ChatSession struct {
	Id        string    `gorm:"type:varchar(128);primaryKey"` // Caller supplied, immutable
	Owner     string    `gorm:"type:varchar(320);not null;index"`
	Ended     bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
