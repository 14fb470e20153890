package mapper

import (
	"time"

	"llm-chat-be/internal/entity"
	"llm-chat-be/internal/model"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Session Mappers

func (m *ChatMapper) ChatSessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.ChatSession{
		Id:        s.Id,
		Owner:     s.Owner,
		Ended:     s.Ended,
		CreatedAt: s.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *ChatMapper) ChatSessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.ChatSession{
		Id:        s.Id,
		Owner:     s.Owner,
		Ended:     s.Ended,
		CreatedAt: s.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

// Record Mappers

func (m *ChatMapper) ChatRecordToEntity(r *model.ChatRecord) *entity.ChatRecord {
	if r == nil {
		return nil
	}

	return &entity.ChatRecord{
		Id:        r.Id,
		SessionId: r.SessionId,
		Role:      r.Role,
		Content:   r.Content,
		Model:     r.Model,
		Timestamp: r.Timestamp,
	}
}

func (m *ChatMapper) ChatRecordToModel(r *entity.ChatRecord) *model.ChatRecord {
	if r == nil {
		return nil
	}

	return &model.ChatRecord{
		Id:        r.Id,
		SessionId: r.SessionId,
		Role:      r.Role,
		Content:   r.Content,
		Model:     r.Model,
		Timestamp: r.Timestamp,
	}
}

func (m *ChatMapper) ChatRecordsToEntities(models []*model.ChatRecord) []*entity.ChatRecord {
	entities := make([]*entity.ChatRecord, len(models))
	for i, r := range models {
		entities[i] = m.ChatRecordToEntity(r)
	}
	return entities
}
