package domain

// Channel envelope types.
const (
	MsgTypeAll    = "all"
	MsgTypeAdd    = "add"
	MsgTypeUpdate = "update"
)

// ChatMessage is one entry in a room's log. ID is unique within its room.
type ChatMessage struct {
	ID      string `json:"id"`
	User    string `json:"user"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Envelope is an inbound client frame. Only add and update frames carry a
// message worth persisting; everything else is relayed as-is.
type Envelope struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	User    string `json:"user"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Persistable reports whether the envelope should be upserted into the log.
func (e *Envelope) Persistable() bool {
	return (e.Type == MsgTypeAdd || e.Type == MsgTypeUpdate) && e.ID != ""
}

// Message extracts the chat message carried by the envelope.
func (e *Envelope) Message() ChatMessage {
	return ChatMessage{
		ID:      e.ID,
		User:    e.User,
		Role:    e.Role,
		Content: e.Content,
	}
}

// AllMessage is the full-state replay sent on attach.
type AllMessage struct {
	Type     string        `json:"type"`
	Messages []ChatMessage `json:"messages"`
}

func NewAllMessage(messages []ChatMessage) *AllMessage {
	if messages == nil {
		messages = []ChatMessage{}
	}
	return &AllMessage{
		Type:     MsgTypeAll,
		Messages: messages,
	}
}
