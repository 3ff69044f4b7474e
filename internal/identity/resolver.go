package identity

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/weiawesome/wes-chat-room/pkg/log"
)

// Source names where an identifier was found.
type Source string

const (
	SourceQuery     Source = "query"
	SourceCookie    Source = "cookie"
	SourceLastKnown Source = "last_known"
	SourceForm      Source = "form"
)

// Resolution is a resolved identifier and the room key derived from it.
type Resolution struct {
	Identifier string
	RoomKey    string
	Source     Source
}

// NewResolution builds a Resolution for identifier found at source.
func NewResolution(identifier string, source Source) Resolution {
	return Resolution{
		Identifier: identifier,
		RoomKey:    RoomKey(identifier),
		Source:     source,
	}
}

// LastKnownLookup returns the author of the most recently stored message.
// An empty string with a nil error means no message has been stored yet.
type LastKnownLookup interface {
	LatestUser(ctx context.Context) (string, error)
}

// Config controls which request fields are consulted.
type Config struct {
	QueryParams       []string      `mapstructure:"query_params"`
	CookieNames       []string      `mapstructure:"cookie_names"`
	LastKnownFallback bool          `mapstructure:"last_known_fallback"`
	LastKnownTimeout  time.Duration `mapstructure:"last_known_timeout"`
}

// DefaultConfig returns the stock parameter and cookie names.
func DefaultConfig() Config {
	return Config{
		QueryParams:       []string{"email", "user", "user_id"},
		CookieNames:       []string{"email", "user"},
		LastKnownFallback: true,
		LastKnownTimeout:  2 * time.Second,
	}
}

// Resolver extracts an identifier from a request.
type Resolver struct {
	cfg       Config
	lastKnown LastKnownLookup
}

// NewResolver creates a Resolver. lastKnown may be nil.
func NewResolver(cfg Config, lastKnown LastKnownLookup) *Resolver {
	def := DefaultConfig()
	if len(cfg.QueryParams) == 0 {
		cfg.QueryParams = def.QueryParams
	}
	if len(cfg.CookieNames) == 0 {
		cfg.CookieNames = def.CookieNames
	}
	if cfg.LastKnownTimeout <= 0 {
		cfg.LastKnownTimeout = def.LastKnownTimeout
	}
	return &Resolver{cfg: cfg, lastKnown: lastKnown}
}

// Resolve walks query parameters, then cookies, then the last-known author.
// The first non-empty identifier wins. ok is false for an anonymous caller.
func (r *Resolver) Resolve(ctx context.Context, req *http.Request) (res Resolution, ok bool) {
	if id := r.fromQuery(req); id != "" {
		return NewResolution(id, SourceQuery), true
	}

	if id := r.fromCookies(req); id != "" {
		return NewResolution(id, SourceCookie), true
	}

	if id := r.fromLastKnown(ctx); id != "" {
		return NewResolution(id, SourceLastKnown), true
	}

	return Resolution{}, false
}

func (r *Resolver) fromQuery(req *http.Request) string {
	query := req.URL.Query()
	for _, name := range r.cfg.QueryParams {
		if v := strings.TrimSpace(query.Get(name)); v != "" {
			return v
		}
	}
	return ""
}

func (r *Resolver) fromCookies(req *http.Request) string {
	header := strings.Join(req.Header.Values("Cookie"), "; ")
	if header == "" {
		return ""
	}

	cookies := ParseCookieHeader(header)
	for _, name := range r.cfg.CookieNames {
		if v := strings.TrimSpace(cookies[name]); v != "" {
			return v
		}
	}
	return ""
}

func (r *Resolver) fromLastKnown(ctx context.Context) string {
	if !r.cfg.LastKnownFallback || r.lastKnown == nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.LastKnownTimeout)
	defer cancel()

	user, err := r.lastKnown.LatestUser(ctx)
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("last-known identity lookup failed")
		return ""
	}
	return strings.TrimSpace(user)
}
