package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/weiawesome/wes-chat-room/pkg/response"
)

// Handlers groups everything the router dispatches to.
type Handlers struct {
	Room   *RoomHandler
	Token  *TokenHandler
	API    *APIHandler
	Assets *AssetHandler
}

// NewRouter registers all routes. Room paths are matched before the static
// asset fallback.
func NewRouter(h Handlers) *mux.Router {
	router := mux.NewRouter()
	router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	router.HandleFunc("/health", h.API.HealthCheck).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/token", allowMethods(h.Token.IssueToken, http.MethodPost))
	api.HandleFunc("/token/validate", allowMethods(h.Token.ValidateToken, http.MethodPost))
	api.HandleFunc("/rooms/{roomKey}/messages", h.API.GetRoomMessages).Methods(http.MethodGet)

	router.HandleFunc("/", h.Room.HandleRoot).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/{roomKey:[0-9a-f]{32}}", h.Room.HandleRoom).Methods(http.MethodGet)

	router.PathPrefix("/").Handler(h.Assets).Methods(http.MethodGet, http.MethodHead)

	return router
}

// allowMethods answers any other method with a 405 envelope.
func allowMethods(next http.HandlerFunc, methods ...string) http.HandlerFunc {
	allow := strings.Join(methods, ", ")
	return func(w http.ResponseWriter, r *http.Request) {
		for _, m := range methods {
			if r.Method == m {
				next(w, r)
				return
			}
		}
		w.Header().Set("Allow", allow)
		response.MethodNotAllowed(w, "method not allowed")
	}
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	response.MethodNotAllowed(w, "method not allowed")
}
