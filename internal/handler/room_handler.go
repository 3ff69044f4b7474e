package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/weiawesome/wes-chat-room/internal/audit"
	"github.com/weiawesome/wes-chat-room/internal/directory"
	"github.com/weiawesome/wes-chat-room/internal/identity"
	"github.com/weiawesome/wes-chat-room/pkg/log"
)

// CookieConfig controls the identity cookie set on convergence.
type CookieConfig struct {
	Name   string
	MaxAge int
}

// RoomHandler serves the root and /{roomKey} entry points: it resolves the
// caller, records the mapping, then shows the form, redirects, or hands the
// request to the room.
type RoomHandler struct {
	resolver  *identity.Resolver
	directory directory.Directory
	ws        *WSHandler
	assets    *AssetHandler
	baseURL   string
	cookie    CookieConfig
}

func NewRoomHandler(
	resolver *identity.Resolver,
	dir directory.Directory,
	ws *WSHandler,
	assets *AssetHandler,
	baseURL string,
	cookie CookieConfig,
) *RoomHandler {
	if cookie.Name == "" {
		cookie.Name = "user"
	}
	return &RoomHandler{
		resolver:  resolver,
		directory: dir,
		ws:        ws,
		assets:    assets,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		cookie:    cookie,
	}
}

// HandleRoot handles GET and POST /.
func (h *RoomHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "")
}

// HandleRoom handles GET /{roomKey}.
func (h *RoomHandler) HandleRoom(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, mux.Vars(r)["roomKey"])
}

func (h *RoomHandler) handle(w http.ResponseWriter, r *http.Request, pathKey string) {
	ctx := r.Context()

	res, found := h.resolver.Resolve(ctx, r)
	if !found && pathKey == "" {
		if id := submittedIdentifier(r); id != "" {
			res, found = identity.NewResolution(id, identity.SourceForm), true
		}
	}

	if found {
		l := log.Ctx(ctx).With().
			Str(log.FieldRoomKey, res.RoomKey).
			Str(log.FieldIdentitySource, string(res.Source)).
			Logger()
		ctx = log.WithLogger(ctx, l)
		r = r.WithContext(ctx)

		audit.LogWithDetail(ctx, audit.ActionIdentityResolved, res.RoomKey, string(res.Source), "identity resolved")
		h.recordMapping(ctx, res)
	}

	switch Decide(found, res.RoomKey, pathKey) {
	case ActionServeForm:
		data := formData{}
		if r.Method == http.MethodPost {
			data.Error = "Please enter an email or username."
		}
		renderForm(w, r, data)

	case ActionRedirect:
		h.redirect(w, r, res)

	case ActionProceed:
		h.proceed(w, r, pathKey)
	}
}

// recordMapping stores identifier -> room key. Failures never reach the caller.
func (h *RoomHandler) recordMapping(ctx context.Context, res identity.Resolution) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	inserted, err := h.directory.RecordIfAbsent(ctx, res.Identifier, res.RoomKey)
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("identity mapping not recorded")
		return
	}
	if inserted {
		l := log.Ctx(ctx)
		l.Info().Msg("identity mapping recorded")
	}
}

func (h *RoomHandler) redirect(w http.ResponseWriter, r *http.Request, res identity.Resolution) {
	if res.Source == identity.SourceQuery || res.Source == identity.SourceForm {
		http.SetCookie(w, &http.Cookie{
			Name:     h.cookie.Name,
			Value:    url.PathEscape(res.Identifier),
			Path:     "/",
			MaxAge:   h.cookie.MaxAge,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	target := h.origin(r) + "/" + res.RoomKey
	audit.LogWithDetail(r.Context(), audit.ActionRoomRedirect, res.RoomKey, r.URL.Path, "redirected to canonical room")
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *RoomHandler) proceed(w http.ResponseWriter, r *http.Request, roomKey string) {
	if websocket.IsWebSocketUpgrade(r) {
		h.ws.Serve(w, r, roomKey)
		return
	}
	h.assets.ServeIndex(w, r)
}

// origin returns scheme://host for redirects, preferring the configured base URL.
func (h *RoomHandler) origin(r *http.Request) string {
	if h.baseURL != "" {
		return h.baseURL
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}
