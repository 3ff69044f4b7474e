package audit

import (
	"context"

	"github.com/weiawesome/wes-chat-room/pkg/log"
)

// Audit actions for the chat room.
const (
	ActionIdentityResolved = "identity.resolved"
	ActionRoomRedirect     = "room.redirect"
	ActionRoomAttach       = "room.attach"
	ActionRoomDetach       = "room.detach"
	ActionMessagePersisted = "message.persisted"
	ActionTokenIssued      = "token.issued"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action, roomKey, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldRoomKey, roomKey).
		Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action, roomKey, detail, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldRoomKey, roomKey).
		Str(FieldDetail, detail).
		Msg(msg)
}
