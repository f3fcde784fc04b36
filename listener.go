package bytenc

import "context"

// Listener is notified when a chunk becomes available or when an encoder closes. It allows a
// single goroutine to both push and drain an encoder.
//
// Both methods are called on the goroutine that produced the event, after the encoder's internal
// lock is released. Another consumer may have taken the chunk by the time ChunkAvailable runs, so
// listeners should drain with [Encoder.PullImmediately] and tolerate [ErrEmpty]. A listener must
// not call Push or Close on the encoder that notifies it: the notifying Push still holds the
// strategy and a re-entrant call deadlocks.
type Listener interface {
	ChunkAvailable(ctx context.Context, encoder *Encoder) error
	EncoderClosed(ctx context.Context, encoder *Encoder) error
}

// ListenerFuncs adapts plain functions to a [Listener]. Nil fields are no-ops.
type ListenerFuncs struct {
	OnChunk func(ctx context.Context, encoder *Encoder) error
	OnClose func(ctx context.Context, encoder *Encoder) error
}

var _ Listener = ListenerFuncs{}

func (l ListenerFuncs) ChunkAvailable(ctx context.Context, encoder *Encoder) error {
	if l.OnChunk == nil {
		return nil
	}
	return l.OnChunk(ctx, encoder)
}

func (l ListenerFuncs) EncoderClosed(ctx context.Context, encoder *Encoder) error {
	if l.OnClose == nil {
		return nil
	}
	return l.OnClose(ctx, encoder)
}
