package directory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-chat-room/internal/identity"
	"github.com/weiawesome/wes-chat-room/pkg/database"
)

func newTestDirectory(t *testing.T) *GormDirectory {
	t.Helper()
	db, err := database.New(&database.Config{Driver: "sqlite", FilePath: "file::memory:", MaxOpenConns: 1})
	require.NoError(t, err)
	return NewGormDirectory(db)
}

func TestRecordIfAbsent_CreatesTableLazily(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	assert.False(t, d.db.Migrator().HasTable("user_rooms"))

	inserted, err := d.RecordIfAbsent(ctx, "alice", identity.RoomKey("alice"))
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.True(t, d.db.Migrator().HasTable("user_rooms"))

	roomKey, err := d.Lookup(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, identity.RoomKey("alice"), roomKey)
}

func TestRecordIfAbsent_Idempotent(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	key := identity.RoomKey("alice")
	for i := 0; i < 3; i++ {
		_, err := d.RecordIfAbsent(ctx, "alice", key)
		require.NoError(t, err)
	}

	var n int64
	require.NoError(t, d.db.Table("user_rooms").Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestRecordIfAbsent_RoomKeyConflictIgnored(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	_, err := d.RecordIfAbsent(ctx, "alice", "shared")
	require.NoError(t, err)

	inserted, err := d.RecordIfAbsent(ctx, "bob", "shared")
	require.NoError(t, err)
	assert.False(t, inserted)

	_, err = d.Lookup(ctx, "bob")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordIfAbsent_IdentifierIsPermanent(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	_, err := d.RecordIfAbsent(ctx, "alice", "first")
	require.NoError(t, err)
	inserted, err := d.RecordIfAbsent(ctx, "alice", "second")
	require.NoError(t, err)
	assert.False(t, inserted)

	roomKey, err := d.Lookup(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "first", roomKey)
}

func TestRecordIfAbsent_Concurrent(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()
	key := identity.RoomKey("carol")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.RecordIfAbsent(ctx, "carol", key)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	roomKey, err := d.Lookup(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, key, roomKey)
}
