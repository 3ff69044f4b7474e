package domain

import "time"

// MessageModel is the GORM model for the messages table. Rows of every room
// share the table; Key is the room-scoped primary key "roomKey:id".
type MessageModel struct {
	Key       string    `gorm:"type:varchar(320);primaryKey"`
	RoomKey   string    `gorm:"type:varchar(32);index;not null"`
	MessageID string    `gorm:"column:id;type:varchar(255);not null"`
	User      string    `gorm:"column:user;type:text"`
	Role      string    `gorm:"type:varchar(64)"`
	Content   string    `gorm:"type:text"`
	SortKey   string    `gorm:"type:char(26);index;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for MessageModel.
func (MessageModel) TableName() string {
	return "messages"
}

// MessageKey derives the durable primary key for a message in a room.
func MessageKey(roomKey, id string) string {
	return roomKey + ":" + id
}

// ToDomain converts MessageModel to ChatMessage.
func (m *MessageModel) ToDomain() ChatMessage {
	return ChatMessage{
		ID:      m.MessageID,
		User:    m.User,
		Role:    m.Role,
		Content: m.Content,
	}
}

// MessageToModel converts a ChatMessage in roomKey to its model.
func MessageToModel(roomKey string, msg ChatMessage, sortKey string) *MessageModel {
	return &MessageModel{
		Key:       MessageKey(roomKey, msg.ID),
		RoomKey:   roomKey,
		MessageID: msg.ID,
		User:      msg.User,
		Role:      msg.Role,
		Content:   msg.Content,
		SortKey:   sortKey,
	}
}

// UserRoomModel is the GORM model for the identity directory. Both columns are
// unique so the mapping is a bijection.
type UserRoomModel struct {
	UserIdentifier string    `gorm:"column:user_identifier;type:varchar(255);primaryKey"`
	RoomHash       string    `gorm:"column:room_hash;type:varchar(32);uniqueIndex;not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for UserRoomModel.
func (UserRoomModel) TableName() string {
	return "user_rooms"
}
