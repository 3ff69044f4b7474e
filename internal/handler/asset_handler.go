package handler

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/weiawesome/wes-chat-room/pkg/log"
	"github.com/weiawesome/wes-chat-room/pkg/storage"
)

// AssetHandler serves static files from a storage backend.
type AssetHandler struct {
	store storage.Storage
	index string
}

func NewAssetHandler(store storage.Storage, index string) *AssetHandler {
	if index == "" {
		index = "index.html"
	}
	return &AssetHandler{store: store, index: index}
}

// ServeHTTP serves the object named by the request path.
func (h *AssetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if key == "" {
		key = h.index
	}
	h.serve(w, r, key)
}

// ServeIndex serves the client page.
func (h *AssetHandler) ServeIndex(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.index)
}

func (h *AssetHandler) serve(w http.ResponseWriter, r *http.Request, key string) {
	l := log.Ctx(r.Context())

	obj, err := h.store.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		l.Error().Err(err).Str("key", key).Msg("failed to open asset")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	defer obj.Body.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}

	if rs, ok := obj.Body.(io.ReadSeeker); ok {
		http.ServeContent(w, r, path.Base(key), obj.LastModified, rs)
		return
	}

	if obj.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, obj.Body); err != nil {
		l.Debug().Err(err).Str("key", key).Msg("asset copy interrupted")
	}
}
