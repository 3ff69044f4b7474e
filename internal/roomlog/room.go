package roomlog

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/weiawesome/wes-chat-room/internal/audit"
	"github.com/weiawesome/wes-chat-room/internal/domain"
	"github.com/weiawesome/wes-chat-room/internal/events"
	"github.com/weiawesome/wes-chat-room/pkg/log"
)

var ErrRoomClosed = errors.New("room closed")

// Subscriber is an attached connection. Send must not block; it returns
// false when the message could not be queued.
type Subscriber interface {
	ID() string
	Send(data []byte) bool
	Close()
}

// Store is the durable side of a room log.
type Store interface {
	LoadRoom(ctx context.Context, roomKey string) ([]domain.ChatMessage, error)
	Upsert(ctx context.Context, roomKey string, msg domain.ChatMessage, sortKey string) error
}

// Room owns one room's ordered message log and its subscribers. All state is
// touched only by the room's event loop; callers submit closures to it and
// wait for them to finish.
type Room struct {
	key    string
	store  Store
	events events.Publisher
	cfg    Config
	logger zerolog.Logger

	// owned by the event loop
	messages    []domain.ChatMessage
	index       map[string]int
	subscribers map[string]Subscriber
	retired     bool

	tasks    chan func()
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	subscriberCount atomic.Int32
	lastActive      atomic.Int64
}

func newRoom(key string, store Store, pub events.Publisher, cfg Config) *Room {
	r := &Room{
		key:         key,
		store:       store,
		events:      pub,
		cfg:         cfg,
		logger:      log.L().With().Str(log.FieldRoomKey, key).Logger(),
		index:       make(map[string]int),
		subscribers: make(map[string]Subscriber),
		tasks:       make(chan func(), cfg.QueueSize),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	r.touch()
	go r.run()
	return r
}

// Key returns the room key.
func (r *Room) Key() string {
	return r.key
}

func (r *Room) run() {
	defer close(r.done)

	r.load()

	for {
		select {
		case task := <-r.tasks:
			task()
			if r.retired {
				return
			}
		case <-r.quit:
			r.closeSubscribers()
			return
		}
	}
}

// load fills the log from durable storage. A failed load leaves the room
// empty but usable.
func (r *Room) load() {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.LoadTimeout)
	defer cancel()

	msgs, err := r.store.LoadRoom(ctx, r.key)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to load room, starting empty")
		return
	}

	for _, msg := range msgs {
		if idx, ok := r.index[msg.ID]; ok {
			r.messages[idx] = msg
			continue
		}
		r.index[msg.ID] = len(r.messages)
		r.messages = append(r.messages, msg)
	}
	r.logger.Debug().Int("count", len(r.messages)).Msg("room loaded")
}

// do runs fn on the event loop and waits for it to finish.
func (r *Room) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}

	select {
	case r.tasks <- task:
	case <-r.quit:
		return ErrRoomClosed
	case <-r.done:
		return ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-r.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrRoomClosed
		}
	}
}

// Attach adds sub and sends it the full current log.
func (r *Room) Attach(ctx context.Context, sub Subscriber) error {
	return r.do(ctx, func() {
		r.touch()
		r.subscribers[sub.ID()] = sub
		r.subscriberCount.Store(int32(len(r.subscribers)))

		data, err := json.Marshal(domain.NewAllMessage(r.snapshot()))
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to encode replay")
			return
		}
		if !sub.Send(data) {
			r.drop(sub)
			return
		}

		r.logger.Debug().
			Str(log.FieldClientID, sub.ID()).
			Int(log.FieldSubscribers, len(r.subscribers)).
			Msg("subscriber attached")
	})
}

// Detach removes sub. Detaching an unknown subscriber is a no-op.
func (r *Room) Detach(ctx context.Context, sub Subscriber) error {
	return r.do(ctx, func() {
		r.touch()
		if _, ok := r.subscribers[sub.ID()]; !ok {
			return
		}
		delete(r.subscribers, sub.ID())
		r.subscriberCount.Store(int32(len(r.subscribers)))

		r.logger.Debug().
			Str(log.FieldClientID, sub.ID()).
			Int(log.FieldSubscribers, len(r.subscribers)).
			Msg("subscriber detached")
	})
}

// Receive relays raw to every other subscriber, then persists it when it is
// an add or update envelope. Anything unparsable is relayed and dropped.
func (r *Room) Receive(ctx context.Context, from Subscriber, raw []byte) error {
	return r.do(ctx, func() {
		r.touch()
		r.broadcast(raw, from.ID())

		var env domain.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			r.logger.Debug().Err(err).Str(log.FieldClientID, from.ID()).Msg("dropping malformed envelope")
			return
		}
		if !env.Persistable() {
			return
		}

		// Failures are logged inside upsert; the relay has already happened.
		r.upsert(env.Message())
	})
}

// Upsert stores msg without relaying it.
func (r *Room) Upsert(ctx context.Context, msg domain.ChatMessage) error {
	var err error
	if doErr := r.do(ctx, func() { err = r.upsert(msg) }); doErr != nil {
		return doErr
	}
	return err
}

// Messages returns a copy of the log in first-insertion order.
func (r *Room) Messages(ctx context.Context) ([]domain.ChatMessage, error) {
	var msgs []domain.ChatMessage
	if err := r.do(ctx, func() { msgs = r.snapshot() }); err != nil {
		return nil, err
	}
	return msgs, nil
}

// upsert writes durable storage first and mirrors into memory only on
// success. An existing id keeps its position.
func (r *Room) upsert(msg domain.ChatMessage) error {
	idx, exists := r.index[msg.ID]

	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.WriteTimeout)
	defer cancel()

	if err := r.store.Upsert(ctx, r.key, msg, ulid.Make().String()); err != nil {
		r.logger.Error().Err(err).Str(log.FieldMessageID, msg.ID).Msg("failed to persist message")
		return err
	}

	if exists {
		r.messages[idx] = msg
	} else {
		r.index[msg.ID] = len(r.messages)
		r.messages = append(r.messages, msg)
	}

	ctx = log.WithLogger(ctx, r.logger)
	audit.LogWithDetail(ctx, audit.ActionMessagePersisted, r.key, msg.ID, "message persisted")

	if err := r.events.Publish(ctx, events.NewMessageEvent(r.key, msg, !exists)); err != nil {
		r.logger.Warn().Err(err).Str(log.FieldMessageID, msg.ID).Msg("failed to publish message event")
	}
	return nil
}

func (r *Room) broadcast(data []byte, exclude string) {
	for id, sub := range r.subscribers {
		if id == exclude {
			continue
		}
		if !sub.Send(data) {
			r.drop(sub)
		}
	}
}

// drop removes a subscriber whose queue is full and closes it.
func (r *Room) drop(sub Subscriber) {
	delete(r.subscribers, sub.ID())
	r.subscriberCount.Store(int32(len(r.subscribers)))
	sub.Close()
	r.logger.Warn().Str(log.FieldClientID, sub.ID()).Msg("dropped slow subscriber")
}

func (r *Room) snapshot() []domain.ChatMessage {
	out := make([]domain.ChatMessage, len(r.messages))
	copy(out, r.messages)
	return out
}

func (r *Room) closeSubscribers() {
	for id, sub := range r.subscribers {
		sub.Close()
		delete(r.subscribers, id)
	}
	r.subscriberCount.Store(0)
}

func (r *Room) touch() {
	r.lastActive.Store(time.Now().UnixNano())
}

// Subscribers returns the number of attached subscribers.
func (r *Room) Subscribers() int {
	return int(r.subscriberCount.Load())
}

// idle reports, without entering the event loop, whether the room looks
// evictable at now.
func (r *Room) idle(now time.Time) bool {
	if r.subscriberCount.Load() > 0 {
		return false
	}
	return now.Sub(time.Unix(0, r.lastActive.Load())) >= r.cfg.IdleTimeout
}

// retireIfIdle stops the event loop if the room is still idle when the check
// runs on the loop. Tasks queued behind it fail with ErrRoomClosed.
func (r *Room) retireIfIdle(ctx context.Context, now time.Time) bool {
	var retired bool
	err := r.do(ctx, func() {
		if len(r.subscribers) > 0 || !r.idle(now) {
			return
		}
		r.retired = true
		retired = true
	})
	return err == nil && retired
}

// Stop closes every subscriber and ends the event loop.
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
	<-r.done
}

// Closed reports whether the event loop has exited.
func (r *Room) Closed() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}
