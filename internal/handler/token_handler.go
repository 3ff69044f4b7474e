package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/weiawesome/wes-chat-room/internal/audit"
	"github.com/weiawesome/wes-chat-room/internal/directory"
	"github.com/weiawesome/wes-chat-room/internal/identity"
	"github.com/weiawesome/wes-chat-room/pkg/jwt"
	"github.com/weiawesome/wes-chat-room/pkg/log"
	"github.com/weiawesome/wes-chat-room/pkg/response"
)

const maxTokenBody = 16 << 10

var errInvalidPayload = errors.New("invalid payload")

// TokenHandler issues and validates identity tokens.
type TokenHandler struct {
	tokens    *jwt.Manager
	directory directory.Directory
}

func NewTokenHandler(tokens *jwt.Manager, dir directory.Directory) *TokenHandler {
	return &TokenHandler{tokens: tokens, directory: dir}
}

type IssueTokenRequest struct {
	Identifier string `json:"identifier"`
}

type IssueTokenResponse struct {
	Token     string `json:"token"`
	RoomKey   string `json:"room_key"`
	ExpiresAt int64  `json:"expires_at"`
}

type ValidateTokenRequest struct {
	Token string `json:"token"`
}

type ValidateTokenResponse struct {
	Identifier string `json:"identifier"`
	RoomKey    string `json:"room_key"`
}

// IssueToken handles POST /api/v1/token.
func (h *TokenHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := log.Ctx(ctx)

	var req IssueTokenRequest
	if isJSON(r) {
		if err := decodeJSON(r, &req); err != nil {
			response.Unauthorized(w, "invalid request payload")
			return
		}
	} else {
		req.Identifier = r.FormValue("identifier")
	}

	req.Identifier = strings.TrimSpace(req.Identifier)
	if req.Identifier == "" {
		response.BadRequest(w, "identifier is required")
		return
	}

	roomKey := identity.RoomKey(req.Identifier)
	token, exp, err := h.tokens.Generate(req.Identifier, roomKey)
	if err != nil {
		l.Error().Err(err).Msg("failed to generate token")
		response.InternalError(w, "failed to generate token")
		return
	}

	if _, err := h.directory.RecordIfAbsent(ctx, req.Identifier, roomKey); err != nil {
		l.Warn().Err(err).Str(log.FieldRoomKey, roomKey).Msg("identity mapping not recorded")
	}
	audit.Log(ctx, audit.ActionTokenIssued, roomKey, "identity token issued")

	response.Success(w, IssueTokenResponse{
		Token:     token,
		RoomKey:   roomKey,
		ExpiresAt: exp,
	})
}

// ValidateToken handles POST /api/v1/token/validate.
func (h *TokenHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	var req ValidateTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Unauthorized(w, "invalid request payload")
		return
	}

	if req.Token == "" {
		response.BadRequest(w, "token is required")
		return
	}

	claims, err := h.tokens.Validate(req.Token)
	if err != nil {
		l := log.Ctx(r.Context())
		l.Debug().Err(err).Msg("token rejected")
		if errors.Is(err, jwt.ErrExpiredToken) {
			response.Unauthorized(w, "token has expired")
			return
		}
		response.Unauthorized(w, "invalid token")
		return
	}

	response.Success(w, ValidateTokenResponse{
		Identifier: claims.Identifier,
		RoomKey:    claims.RoomKey,
	})
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

func decodeJSON(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxTokenBody))
	if err != nil {
		return errInvalidPayload
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errInvalidPayload
	}
	return nil
}

