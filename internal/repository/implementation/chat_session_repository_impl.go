package implementation

import (
	"context"
	"errors"

	"llm-chat-be/internal/entity"
	"llm-chat-be/internal/mapper"
	"llm-chat-be/internal/model"
	"llm-chat-be/internal/repository/contract"
	"llm-chat-be/internal/repository/specification"

	"gorm.io/gorm"
)

type ChatSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatSessionRepository(db *gorm.DB) contract.ChatSessionRepository {
	return &ChatSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChatSessionRepositoryImpl) Create(ctx context.Context, session *entity.ChatSession) error {
	m := r.mapper.ChatSessionToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ChatSessionToEntity(m)
	return nil
}

func (r *ChatSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	var m model.ChatSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ChatSessionToEntity(&m), nil
}

func (r *ChatSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	var models []*model.ChatSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ChatSession, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ChatSessionToEntity(m)
	}
	return entities, nil
}

func (r *ChatSessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ChatSession{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Reactivate flips ended -> active. If the owner already holds another active session
// the partial unique index rejects the update and the error surfaces as gorm.ErrDuplicatedKey.
func (r *ChatSessionRepositoryImpl) Reactivate(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.ChatSession{}).
		Where("id = ? AND ended = ?", id, true).
		Update("ended", false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ChatSessionRepositoryImpl) End(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.ChatSession{}).
		Where("id = ? AND ended = ?", id, false).
		Update("ended", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// EndIfIdleSince ends the session only if it is still active and nothing was appended
// after cutoffMillis, so a turn racing with the sweep keeps the session alive.
func (r *ChatSessionRepositoryImpl) EndIfIdleSince(ctx context.Context, id string, cutoffMillis int64) (bool, error) {
	newer := r.db.WithContext(ctx).Model(&model.ChatRecord{}).
		Select("1").
		Where(`session_id = ? AND "timestamp" > ?`, id, cutoffMillis)

	res := r.db.WithContext(ctx).
		Model(&model.ChatSession{}).
		Where("id = ? AND ended = ?", id, false).
		Where("NOT EXISTS (?)", newer).
		Update("ended", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

type sessionActivityRow struct {
	Id            string
	Owner         string
	LastTimestamp *int64
}

func (r *ChatSessionRepositoryImpl) ListActiveWithLastActivity(ctx context.Context) ([]*entity.SessionActivity, error) {
	var rows []sessionActivityRow
	err := r.db.WithContext(ctx).
		Table("chat_sessions AS s").
		Select(`s.id AS id, s.owner AS owner, MAX(r."timestamp") AS last_timestamp`).
		Joins("LEFT JOIN chat_records AS r ON r.session_id = s.id").
		Where("s.ended = ?", false).
		Group("s.id, s.owner").
		Order("s.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	activities := make([]*entity.SessionActivity, len(rows))
	for i, row := range rows {
		activities[i] = &entity.SessionActivity{
			SessionId:     row.Id,
			Owner:         row.Owner,
			LastTimestamp: row.LastTimestamp,
		}
	}
	return activities, nil
}
