package model

// ChatRecord is one append-only transcript entry. Rows are never updated or deleted.
type ChatRecord struct {
	Id        uint64       `gorm:"primaryKey;autoIncrement"`
	SessionId string       `gorm:"type:varchar(128);not null;index:idx_chat_records_session_ts,priority:1"`
	Session   *ChatSession `gorm:"foreignKey:SessionId;references:Id;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
	Role      string       `gorm:"type:varchar(16);not null"`
	Content   string       `gorm:"type:text;not null"`
	Model     *string      `gorm:"type:varchar(128)"` // Null for system and user turns
	Timestamp int64        `gorm:"column:timestamp;not null;index:idx_chat_records_session_ts,priority:2"` // Unix millis
}

func (ChatRecord) TableName() string {
	return "chat_records"
}
