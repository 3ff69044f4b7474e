package repository

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-chat-room/internal/domain"
	"github.com/weiawesome/wes-chat-room/pkg/database"
)

func newTestRepo(t *testing.T) *GormMessageRepository {
	t.Helper()
	db, err := database.New(&database.Config{Driver: "sqlite", FilePath: "file::memory:", MaxOpenConns: 1})
	require.NoError(t, err)

	repo := NewGormMessageRepository(db)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func TestUpsert_InsertThenUpdate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "room", domain.ChatMessage{ID: "1", User: "a", Role: "user", Content: "first"}, ulid.Make().String()))
	require.NoError(t, repo.Upsert(ctx, "room", domain.ChatMessage{ID: "1", User: "a", Role: "user", Content: "edited"}, ulid.Make().String()))

	msgs, err := repo.LoadRoom(ctx, "room")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "edited", msgs[0].Content)
}

func TestUpsert_UpdateKeepsPosition(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Upsert(ctx, "room", domain.ChatMessage{ID: id, Content: id}, ulid.Make().String()))
	}
	require.NoError(t, repo.Upsert(ctx, "room", domain.ChatMessage{ID: "a", Content: "A"}, ulid.Make().String()))

	msgs, err := repo.LoadRoom(ctx, "room")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{msgs[0].ID, msgs[1].ID, msgs[2].ID})
	assert.Equal(t, "A", msgs[0].Content)
}

func TestLoadRoom_ScopedByRoom(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "r1", domain.ChatMessage{ID: "1", Content: "one"}, ulid.Make().String()))
	require.NoError(t, repo.Upsert(ctx, "r2", domain.ChatMessage{ID: "1", Content: "two"}, ulid.Make().String()))

	r1, err := repo.LoadRoom(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, r1, 1)
	assert.Equal(t, "one", r1[0].Content)

	r2, err := repo.LoadRoom(ctx, "r2")
	require.NoError(t, err)
	require.Len(t, r2, 1)
	assert.Equal(t, "two", r2[0].Content)

	empty, err := repo.LoadRoom(ctx, "r3")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUpsert_ContentStoredVerbatim(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	hostile := `'); DROP TABLE messages; --`
	require.NoError(t, repo.Upsert(ctx, "room", domain.ChatMessage{ID: "x'1", User: "o'brien", Content: hostile}, ulid.Make().String()))

	msgs, err := repo.LoadRoom(ctx, "room")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "x'1", msgs[0].ID)
	assert.Equal(t, hostile, msgs[0].Content)
	assert.Equal(t, "o'brien", msgs[0].User)
}

func TestLatestUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.LatestUser(ctx)
	require.NoError(t, err)
	assert.Empty(t, user)

	require.NoError(t, repo.Upsert(ctx, "r1", domain.ChatMessage{ID: "1", User: "alice"}, ulid.Make().String()))
	require.NoError(t, repo.Upsert(ctx, "r2", domain.ChatMessage{ID: "1", User: "bob"}, ulid.Make().String()))

	user, err = repo.LatestUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bob", user)
}
