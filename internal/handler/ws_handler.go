package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/weiawesome/wes-chat-room/internal/audit"
	"github.com/weiawesome/wes-chat-room/internal/domain"
	"github.com/weiawesome/wes-chat-room/internal/hub"
	"github.com/weiawesome/wes-chat-room/internal/roomlog"
	"github.com/weiawesome/wes-chat-room/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Rooms is the room lookup the handlers need.
type Rooms interface {
	Attach(ctx context.Context, roomKey string, sub roomlog.Subscriber) (*roomlog.Room, error)
	Messages(ctx context.Context, roomKey string) ([]domain.ChatMessage, error)
}

type WSHandler struct {
	rooms Rooms
	wsCfg hub.Config
}

func NewWSHandler(rooms Rooms, wsCfg hub.Config) *WSHandler {
	return &WSHandler{
		rooms: rooms,
		wsCfg: wsCfg,
	}
}

// Serve upgrades the request and attaches the connection to roomKey.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request, roomKey string) {
	l := log.Ctx(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(conn, h.wsCfg)

	// The request context ends when this handler returns; the pumps outlive it.
	cl := l.With().Str(log.FieldRoomKey, roomKey).Str(log.FieldClientID, client.ID()).Logger()
	ctx := log.WithLogger(context.WithoutCancel(r.Context()), cl)

	room, err := h.rooms.Attach(ctx, roomKey, client)
	if err != nil {
		cl.Error().Err(err).Msg("failed to attach to room")
		code := websocket.CloseInternalServerErr
		if errors.Is(err, roomlog.ErrManagerClosed) {
			code = websocket.CloseGoingAway
		}
		conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, ""), time.Now().Add(time.Second))
		conn.Close()
		return
	}
	audit.Log(ctx, audit.ActionRoomAttach, roomKey, "connection attached")

	go client.WritePump()
	go func() {
		client.ReadPump(func(message []byte) {
			if err := room.Receive(ctx, client, message); err != nil {
				cl.Debug().Err(err).Msg("message not delivered to room")
			}
		})

		if err := room.Detach(ctx, client); err != nil && !errors.Is(err, roomlog.ErrRoomClosed) {
			cl.Warn().Err(err).Msg("failed to detach from room")
		}
		client.Close()
		audit.Log(ctx, audit.ActionRoomDetach, roomKey, "connection detached")
	}()
}
