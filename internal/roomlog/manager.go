package roomlog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/weiawesome/wes-chat-room/internal/domain"
	"github.com/weiawesome/wes-chat-room/internal/events"
	"github.com/weiawesome/wes-chat-room/internal/registry"
	"github.com/weiawesome/wes-chat-room/pkg/log"
)

var ErrManagerClosed = errors.New("room manager closed")

// Config controls room lifecycles.
type Config struct {
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	LoadTimeout   time.Duration `mapstructure:"load_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	QueueSize     int           `mapstructure:"queue_size"`
}

// DefaultConfig returns the stock room settings.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:   10 * time.Minute,
		SweepInterval: time.Minute,
		LoadTimeout:   5 * time.Second,
		WriteTimeout:  5 * time.Second,
		QueueSize:     256,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = def.IdleTimeout
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = def.SweepInterval
	}
	if c.LoadTimeout <= 0 {
		c.LoadTimeout = def.LoadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.QueueSize <= 0 {
		c.QueueSize = def.QueueSize
	}
	return c
}

// Manager maps room keys to live Room instances, creating them on first
// access and retiring them once idle.
type Manager struct {
	store    Store
	events   events.Publisher
	registry registry.Registry
	cfg      Config

	mu     sync.Mutex
	rooms  map[string]*Room
	closed bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a Manager. pub and reg may be nil.
func NewManager(store Store, pub events.Publisher, reg registry.Registry, cfg Config) *Manager {
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	if reg == nil {
		reg = registry.NoopRegistry{}
	}
	return &Manager{
		store:    store,
		events:   pub,
		registry: reg,
		cfg:      cfg.withDefaults(),
		rooms:    make(map[string]*Room),
	}
}

// Get returns the live room for roomKey, activating it if needed.
func (m *Manager) Get(ctx context.Context, roomKey string) (*Room, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	if room, ok := m.rooms[roomKey]; ok && !room.Closed() {
		m.mu.Unlock()
		return room, nil
	}

	room := newRoom(roomKey, m.store, m.events, m.cfg)
	m.rooms[roomKey] = room
	m.mu.Unlock()

	if err := m.registry.Register(ctx, roomKey); err != nil {
		l := log.Room(ctx, roomKey)
		l.Warn().Err(err).Msg("failed to register room")
	}
	return room, nil
}

// Attach attaches sub to the room for roomKey. A room retired between lookup
// and attach is replaced once.
func (m *Manager) Attach(ctx context.Context, roomKey string, sub Subscriber) (*Room, error) {
	var room *Room
	err := m.withRoom(ctx, roomKey, func(r *Room) error {
		room = r
		return r.Attach(ctx, sub)
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

// Messages returns the ordered log of the room for roomKey.
func (m *Manager) Messages(ctx context.Context, roomKey string) ([]domain.ChatMessage, error) {
	var msgs []domain.ChatMessage
	err := m.withRoom(ctx, roomKey, func(r *Room) error {
		var err error
		msgs, err = r.Messages(ctx)
		return err
	})
	return msgs, err
}

func (m *Manager) withRoom(ctx context.Context, roomKey string, fn func(*Room) error) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		var room *Room
		room, err = m.Get(ctx, roomKey)
		if err != nil {
			return err
		}
		err = fn(room)
		if !errors.Is(err, ErrRoomClosed) {
			return err
		}
	}
	return err
}

// Len returns the number of rooms currently held.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

// Start launches the idle sweeper.
func (m *Manager) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.cfg.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				m.Sweep(ctx, now)
			}
		}
	}()

	l := log.L()
	l.Info().Dur("idle_timeout", m.cfg.IdleTimeout).Dur("interval", m.cfg.SweepInterval).Msg("room sweeper started")
}

// Sweep retires rooms that have had no subscribers for the idle timeout and
// returns how many were retired.
func (m *Manager) Sweep(ctx context.Context, now time.Time) int {
	m.mu.Lock()
	candidates := make([]*Room, 0)
	for _, room := range m.rooms {
		if room.Closed() || room.idle(now) {
			candidates = append(candidates, room)
		}
	}
	m.mu.Unlock()

	retired := 0
	for _, room := range candidates {
		if !room.Closed() && !room.retireIfIdle(ctx, now) {
			continue
		}
		m.evict(ctx, room)
		retired++
	}

	if retired > 0 {
		l := log.L()
		l.Debug().Int("retired", retired).Msg("idle rooms retired")
	}
	return retired
}

// evict drops a retired room from the map and deregisters it. A replacement
// already activated by Get owns the key and its registration, so it is left
// alone.
func (m *Manager) evict(ctx context.Context, room *Room) bool {
	m.mu.Lock()
	cur, ok := m.rooms[room.Key()]
	owned := ok && cur == room
	if owned {
		delete(m.rooms, room.Key())
	}
	m.mu.Unlock()

	if !owned {
		return false
	}

	if err := m.registry.Deregister(ctx, room.Key()); err != nil {
		l := log.Room(ctx, room.Key())
		l.Warn().Err(err).Msg("failed to deregister room")
	}
	return true
}

// Stop halts the sweeper and every room. Further calls to Get fail.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()

	m.mu.Lock()
	m.closed = true
	rooms := m.rooms
	m.rooms = make(map[string]*Room)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for key, room := range rooms {
		room.Stop()
		if err := m.registry.Deregister(ctx, key); err != nil {
			l := log.Room(ctx, key)
			l.Warn().Err(err).Msg("failed to deregister room")
		}
	}

	l := log.L()
	l.Info().Int("rooms", len(rooms)).Msg("room manager stopped")
}
