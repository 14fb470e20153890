package implementation

import (
	"context"
	"database/sql"

	"llm-chat-be/internal/entity"
	"llm-chat-be/internal/mapper"
	"llm-chat-be/internal/model"
	"llm-chat-be/internal/repository/contract"
	"llm-chat-be/internal/repository/specification"

	"gorm.io/gorm"
)

type ChatRecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatRecordRepository(db *gorm.DB) contract.ChatRecordRepository {
	return &ChatRecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatRecordRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChatRecordRepositoryImpl) Create(ctx context.Context, record *entity.ChatRecord) error {
	m := r.mapper.ChatRecordToModel(record)
	if err := r.db.WithContext(ctx).Omit("Session").Create(m).Error; err != nil {
		return err
	}
	*record = *r.mapper.ChatRecordToEntity(m)
	return nil
}

func (r *ChatRecordRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatRecord, error) {
	var models []*model.ChatRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ChatRecordsToEntities(models), nil
}

func (r *ChatRecordRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ChatRecord{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// LastTimestamp returns the newest record timestamp of a session; ok is false when it has none.
func (r *ChatRecordRepositoryImpl) LastTimestamp(ctx context.Context, sessionId string) (int64, bool, error) {
	var last sql.NullInt64
	err := r.db.WithContext(ctx).
		Model(&model.ChatRecord{}).
		Select(`MAX("timestamp")`).
		Where("session_id = ?", sessionId).
		Scan(&last).Error
	if err != nil {
		return 0, false, err
	}
	if !last.Valid {
		return 0, false, nil
	}
	return last.Int64, true, nil
}
