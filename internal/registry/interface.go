package registry

import "context"

// Registry advertises which process currently hosts a room.
type Registry interface {
	Register(ctx context.Context, roomKey string) error
	Deregister(ctx context.Context, roomKey string) error
	StartHeartbeat(ctx context.Context) error
	StopHeartbeat()
	Close() error
}

// NoopRegistry is used when Redis is not configured.
type NoopRegistry struct{}

func (NoopRegistry) Register(ctx context.Context, roomKey string) error   { return nil }
func (NoopRegistry) Deregister(ctx context.Context, roomKey string) error { return nil }
func (NoopRegistry) StartHeartbeat(ctx context.Context) error             { return nil }
func (NoopRegistry) StopHeartbeat()                                       {}
func (NoopRegistry) Close() error                                         { return nil }
