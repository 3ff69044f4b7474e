package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"
	FieldUpgrade   = "upgrade"

	// Chat
	FieldRoomKey        = "room_key"
	FieldClientID       = "client_id"
	FieldMessageID      = "message_id"
	FieldIdentitySource = "identity_source"
	FieldSubscribers    = "subscribers"

	// Service
	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
