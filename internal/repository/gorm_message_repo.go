package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weiawesome/wes-chat-room/internal/domain"
	"github.com/weiawesome/wes-chat-room/pkg/log"
)

// GormMessageRepository implements MessageRepository using GORM.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GORM-based message repository.
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Migrate creates the messages table and its indexes if needed.
func (r *GormMessageRepository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&domain.MessageModel{})
}

// LoadRoom returns every message of a room in first-insertion order.
func (r *GormMessageRepository) LoadRoom(ctx context.Context, roomKey string) ([]domain.ChatMessage, error) {
	l := log.Room(ctx, roomKey)

	var models []domain.MessageModel
	result := r.db.WithContext(ctx).
		Where("room_key = ?", roomKey).
		Order("sort_key ASC").
		Find(&models)
	if result.Error != nil {
		l.Error().Err(result.Error).Msg("failed to load room messages from db")
		return nil, result.Error
	}

	messages := make([]domain.ChatMessage, len(models))
	for i := range models {
		messages[i] = models[i].ToDomain()
	}

	l.Debug().Int("count", len(messages)).Msg("room messages loaded from db")
	return messages, nil
}

// Upsert inserts msg, or overwrites user, role and content of the existing
// row with the same id. The sort key of an existing row is never changed.
func (r *GormMessageRepository) Upsert(ctx context.Context, roomKey string, msg domain.ChatMessage, sortKey string) error {
	l := log.Room(ctx, roomKey)

	model := domain.MessageToModel(roomKey, msg, sortKey)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"user", "role", "content", "updated_at"}),
		}).
		Create(model)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldMessageID, msg.ID).Msg("failed to upsert message in db")
		return result.Error
	}

	l.Debug().Str(log.FieldMessageID, msg.ID).Msg("message upserted in db")
	return nil
}

// LatestUser returns the author of the most recently inserted message across
// all rooms, or "" when the table is empty.
func (r *GormMessageRepository) LatestUser(ctx context.Context) (string, error) {
	var model domain.MessageModel
	result := r.db.WithContext(ctx).
		Order("sort_key DESC").
		Limit(1).
		Find(&model)
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		return "", nil
	}
	return model.User, nil
}
