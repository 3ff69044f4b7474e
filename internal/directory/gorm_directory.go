package directory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weiawesome/wes-chat-room/internal/domain"
	"github.com/weiawesome/wes-chat-room/pkg/log"
)

// GormDirectory implements Directory on the user_rooms table. The table is
// created on first use; a failed creation is retried by the next call.
type GormDirectory struct {
	db *gorm.DB

	mu    sync.Mutex
	ready bool
}

// NewGormDirectory creates a new GORM-based directory.
func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

func (d *GormDirectory) ensureTable(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ready {
		return nil
	}
	if err := d.db.WithContext(ctx).AutoMigrate(&domain.UserRoomModel{}); err != nil {
		return fmt.Errorf("failed to create user_rooms table: %w", err)
	}
	d.ready = true
	return nil
}

// RecordIfAbsent inserts the mapping, ignoring any uniqueness conflict.
func (d *GormDirectory) RecordIfAbsent(ctx context.Context, identifier, roomKey string) (bool, error) {
	if err := d.ensureTable(ctx); err != nil {
		return false, err
	}

	result := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.UserRoomModel{
			UserIdentifier: identifier,
			RoomHash:       roomKey,
		})
	if result.Error != nil {
		l := log.Room(ctx, roomKey)
		l.Warn().Err(result.Error).Msg("failed to record identity mapping")
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// Lookup returns the room key recorded for identifier.
func (d *GormDirectory) Lookup(ctx context.Context, identifier string) (string, error) {
	if err := d.ensureTable(ctx); err != nil {
		return "", err
	}

	var model domain.UserRoomModel
	result := d.db.WithContext(ctx).
		Where(&domain.UserRoomModel{UserIdentifier: identifier}).
		First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", result.Error
	}

	return model.RoomHash, nil
}
