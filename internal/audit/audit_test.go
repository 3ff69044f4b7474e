package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-chat-room/pkg/log"
)

func TestLogWithDetail(t *testing.T) {
	var buf bytes.Buffer
	ctx := log.WithLogger(context.Background(), zerolog.New(&buf))

	LogWithDetail(ctx, ActionRoomRedirect, "abc", "query", "redirected to canonical room")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, log.LogTypeAudit, entry[log.FieldLogType])
	assert.Equal(t, ActionRoomRedirect, entry[FieldAction])
	assert.Equal(t, "abc", entry[log.FieldRoomKey])
	assert.Equal(t, "query", entry[FieldDetail])
	assert.Equal(t, "redirected to canonical room", entry["message"])
}
