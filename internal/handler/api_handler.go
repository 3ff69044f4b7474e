package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/weiawesome/wes-chat-room/internal/domain"
	"github.com/weiawesome/wes-chat-room/internal/identity"
	"github.com/weiawesome/wes-chat-room/pkg/log"
	"github.com/weiawesome/wes-chat-room/pkg/response"
)

// APIHandler serves the JSON read endpoints.
type APIHandler struct {
	rooms Rooms
}

func NewAPIHandler(rooms Rooms) *APIHandler {
	return &APIHandler{rooms: rooms}
}

// RoomMessagesResponse is the snapshot of one room.
type RoomMessagesResponse struct {
	RoomKey  string               `json:"room_key"`
	Messages []domain.ChatMessage `json:"messages"`
}

// GetRoomMessages handles GET /api/v1/rooms/{roomKey}/messages.
func (h *APIHandler) GetRoomMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomKey := mux.Vars(r)["roomKey"]

	if !identity.IsRoomKey(roomKey) {
		response.BadRequest(w, "invalid room key")
		return
	}

	msgs, err := h.rooms.Messages(ctx, roomKey)
	if err != nil {
		l := log.Room(ctx, roomKey)
		l.Error().Err(err).Msg("failed to read room messages")
		response.InternalError(w, "failed to read room messages")
		return
	}
	if msgs == nil {
		msgs = []domain.ChatMessage{}
	}

	response.Success(w, RoomMessagesResponse{RoomKey: roomKey, Messages: msgs})
}

// HealthCheck handles GET /health.
func (h *APIHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
