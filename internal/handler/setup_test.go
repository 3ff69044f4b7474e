package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-chat-room/internal/directory"
	"github.com/weiawesome/wes-chat-room/internal/hub"
	"github.com/weiawesome/wes-chat-room/internal/identity"
	"github.com/weiawesome/wes-chat-room/internal/repository"
	"github.com/weiawesome/wes-chat-room/internal/roomlog"
	"github.com/weiawesome/wes-chat-room/pkg/database"
	"github.com/weiawesome/wes-chat-room/pkg/jwt"
	"github.com/weiawesome/wes-chat-room/pkg/log"
	"github.com/weiawesome/wes-chat-room/pkg/storage"
)

const indexHTML = "<html><body>chat client</body></html>"

type testEnv struct {
	srv       *httptest.Server
	repo      *repository.GormMessageRepository
	directory *directory.GormDirectory
	manager   *roomlog.Manager
	client    *http.Client
}

type envOption func(*identity.Config)

func withoutLastKnown(c *identity.Config) { c.LastKnownFallback = false }

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	db, err := database.New(&database.Config{Driver: "sqlite", FilePath: "file::memory:", MaxOpenConns: 1})
	require.NoError(t, err)

	repo := repository.NewGormMessageRepository(db)
	require.NoError(t, repo.Migrate(context.Background()))
	dir := directory.NewGormDirectory(db)

	idCfg := identity.DefaultConfig()
	for _, opt := range opts {
		opt(&idCfg)
	}
	resolver := identity.NewResolver(idCfg, repo)

	manager := roomlog.NewManager(repo, nil, nil, roomlog.DefaultConfig())
	t.Cleanup(manager.Stop)

	assetDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(assetDir, "index.html"), []byte(indexHTML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(assetDir, "app.js"), []byte("console.log('chat')"), 0o644))
	store, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: assetDir})
	require.NoError(t, err)

	tokens, err := jwt.NewManager("test-secret", time.Hour, "wes-chat-room")
	require.NoError(t, err)

	assets := NewAssetHandler(store, "index.html")
	ws := NewWSHandler(manager, hub.DefaultConfig())
	router := NewRouter(Handlers{
		Room:   NewRoomHandler(resolver, dir, ws, assets, "", CookieConfig{Name: "user", MaxAge: 3600}),
		Token:  NewTokenHandler(tokens, dir),
		API:    NewAPIHandler(manager),
		Assets: assets,
	})

	srv := httptest.NewServer(log.HTTPMiddleware(zerolog.Nop())(router))
	t.Cleanup(srv.Close)

	return &testEnv{
		srv:       srv,
		repo:      repo,
		directory: dir,
		manager:   manager,
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.srv.URL+path, nil)
	require.NoError(t, err)
	return e.do(t, req)
}
