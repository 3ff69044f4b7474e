package repository

import (
	"context"

	"github.com/weiawesome/wes-chat-room/internal/domain"
)

// MessageRepository persists room logs. Every room's rows share one table and
// are scoped by room key.
type MessageRepository interface {
	Migrate(ctx context.Context) error
	LoadRoom(ctx context.Context, roomKey string) ([]domain.ChatMessage, error)
	Upsert(ctx context.Context, roomKey string, msg domain.ChatMessage, sortKey string) error
	LatestUser(ctx context.Context) (string, error)
}
