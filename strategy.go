package bytenc

import "context"

// Strategy accumulates pushed bytes and decides when they form a chunk.
//
// Implementations are not considered thread-safe. The encoder serializes all calls to Push and
// Flush, and each encoder owns its own instance.
type Strategy interface {
	// Push consumes one byte. When a chunk is ready, it must be handed to emit. Push may be
	// blocked by emit until the previous chunk is pulled.
	Push(ctx context.Context, b byte, emit Emitter) error
	// Flush is called exactly once, while the encoder is closing, to emit accumulated data that
	// didn't form a chunk yet.
	Flush(ctx context.Context, emit Emitter) error
	// Derive returns a new Strategy instance with the same settings.
	//
	// The returned strategy maintains its own internal state independent of the original.
	Derive() Strategy
}

// Emitter publishes chunks into the encoder's mailbox.
type Emitter interface {
	// Emit blocks until the mailbox is empty and then stores a copy of the chunk in it. It returns
	// [ErrClosed] if the encoder closes while waiting and ctx.Err() if ctx is done first; in both
	// cases the chunk isn't stored. An error wrapping [ErrListener] means the chunk was stored but
	// the listener failed on it.
	Emit(ctx context.Context, chunk []byte) error
}

type emitter struct {
	encoder *Encoder
}

func (e emitter) Emit(ctx context.Context, chunk []byte) error {
	return e.encoder.pushChunk(ctx, chunk)
}
