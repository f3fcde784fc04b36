package bytenc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Encoder turns pushed bytes into pulled chunks.
//
// Bytes are accumulated by a [Strategy], which decides when they form a chunk. Chunks go through
// a single-slot mailbox: a producer that emits a chunk while the previous one hasn't been pulled
// blocks until it is. The encoder is meant to be shared by one producer and one consumer, played
// either by two goroutines or by a single goroutine with a [Listener].
type Encoder struct {
	cfg      *Config
	strategy Strategy
	// pushing is held during strategy calls. It's a channel so acquiring it can be abandoned.
	pushing chan struct{}

	mu        sync.Mutex
	closing   bool
	closed    bool
	slot      []byte
	full      bool
	producers int
	consumers int
	listener  Listener
	// filled and emptied are closed and replaced every time the slot is filled and emptied
	// respectively. Both are closed when the encoder closes.
	filled  chan struct{}
	emptied chan struct{}
}

// Stats is a snapshot of the encoder's state.
type Stats struct {
	// Closed reports whether the encoder is closed.
	Closed bool
	// Pending reports whether a chunk waits in the mailbox.
	Pending bool
	// Producers is the number of goroutines waiting for the mailbox to become empty.
	Producers int
	// Consumers is the number of goroutines waiting for the mailbox to become full.
	Consumers int
}

func New(strategy Strategy, configFuncs ...func(c *Config)) *Encoder {
	if strategy == nil {
		panic("strategy can't be nil")
	}
	return newEncoder(strategy, newConfig(configFuncs...))
}

func newEncoder(strategy Strategy, cfg *Config) *Encoder {
	return &Encoder{
		cfg:      cfg,
		strategy: strategy,
		pushing:  make(chan struct{}, 1),
		listener: cfg.listener,
		filled:   make(chan struct{}),
		emptied:  make(chan struct{}),
	}
}

// Push feeds one byte into the encoder.
//
// Returns [ErrClosed] if [Encoder.Close] has been called. Push blocks if the byte completes a
// chunk while the mailbox is full.
func (e *Encoder) Push(ctx context.Context, b byte) error {
	if err := e.acquire(ctx); err != nil {
		return err
	}
	defer e.release()

	e.mu.Lock()
	closing := e.closing
	e.mu.Unlock()
	if closing {
		return ErrClosed
	}

	e.cfg.metrics.bytesPushed.Inc()
	if err := e.strategy.Push(ctx, b, emitter{e}); err != nil {
		return fmt.Errorf("push: %w", err)
	}

	return nil
}

// Pull returns the next chunk, waiting for it if needed.
//
// Returns [io.EOF] once the encoder is closed and its last chunk has been pulled, and ctx.Err()
// if ctx is done before a chunk arrives.
func (e *Encoder) Pull(ctx context.Context) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for !e.full && !e.closed {
		if err := e.wait(ctx, e.filled, &e.consumers, "consumer"); err != nil {
			return nil, err
		}
	}
	if !e.full {
		return nil, io.EOF
	}

	return e.take("blocking"), nil
}

// PullImmediately returns the pending chunk without waiting.
//
// Returns [ErrEmpty] if there is no chunk and the encoder is open, and [io.EOF] if there is no
// chunk and the encoder is closed.
func (e *Encoder) PullImmediately() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.full:
		return e.take("immediate"), nil
	case e.closed:
		return nil, io.EOF
	default:
		return nil, ErrEmpty
	}
}

// Close closes the encoder with a background context. See [Encoder.CloseContext].
func (e *Encoder) Close() error {
	return e.CloseContext(context.Background())
}

// CloseContext closes the encoder.
//
// It waits for an in-flight Push to return, lets the strategy flush its remaining data, marks
// the encoder closed and notifies the listener. The flush may block until the previous chunk is
// pulled; if ctx is done first, the encoder is closed anyway and the error is returned. A flush
// failure is returned too, but never keeps the encoder open.
//
// Only the first call does anything; the following calls return nil.
func (e *Encoder) CloseContext(ctx context.Context) error {
	e.mu.Lock()
	if e.closing {
		e.mu.Unlock()
		return nil
	}
	e.closing = true
	e.mu.Unlock()

	errs := make([]error, 0)

	if err := e.acquire(ctx); err != nil {
		errs = append(errs, fmt.Errorf("wait for push: %w", err))
	} else {
		if err := e.strategy.Flush(ctx, emitter{e}); err != nil {
			errs = append(errs, fmt.Errorf("flush: %w", err))
		}
		e.release()
	}

	e.mu.Lock()
	e.closed = true
	broadcast(&e.filled)
	broadcast(&e.emptied)
	listener := e.listener
	e.mu.Unlock()

	e.cfg.metrics.closes.Inc()

	if listener != nil {
		if err := listener.EncoderClosed(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", ErrListener, err))
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		e.cfg.logger.WarnContext(ctx, "encoder closed with errors", "error", err)
	} else {
		e.cfg.logger.DebugContext(ctx, "encoder closed")
	}

	return err
}

// SetListener replaces the listener of the encoder. The replaced listener isn't notified. A new
// listener is notified only of chunks emitted after it was set, even if a chunk is pending.
//
// Passing nil removes the listener.
func (e *Encoder) SetListener(listener Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listener = listener
}

// Listener returns the current listener of the encoder, or nil.
func (e *Encoder) Listener() Listener {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.listener
}

// Stats returns a snapshot of the encoder's state.
func (e *Encoder) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		Closed:    e.closed,
		Pending:   e.full,
		Producers: e.producers,
		Consumers: e.consumers,
	}
}

func (e *Encoder) pushChunk(ctx context.Context, chunk []byte) error {
	e.mu.Lock()
	for e.full && !e.closed {
		if err := e.wait(ctx, e.emptied, &e.producers, "producer"); err != nil {
			e.mu.Unlock()
			return err
		}
	}
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}

	e.slot = make([]byte, len(chunk))
	copy(e.slot, chunk)
	e.full = true
	broadcast(&e.filled)
	listener := e.listener
	e.mu.Unlock()

	e.cfg.metrics.chunksEmitted.Inc()
	e.cfg.metrics.chunkSize.Observe(float64(len(chunk)))

	if listener != nil {
		if err := listener.ChunkAvailable(ctx, e); err != nil {
			e.cfg.logger.DebugContext(ctx, "listener failed on chunk", "error", err)
			return fmt.Errorf("%w: %w", ErrListener, err)
		}
	}

	return nil
}

// take must be called with e.mu held and e.full set.
func (e *Encoder) take(kind string) []byte {
	chunk := e.slot
	e.slot = nil
	e.full = false
	broadcast(&e.emptied)
	e.cfg.metrics.chunksPulled.WithLabelValues(kind).Inc()
	return chunk
}

// wait must be called with e.mu held. The lock is released while waiting for ch and acquired
// again before wait returns, whatever the reason it woke up.
func (e *Encoder) wait(ctx context.Context, ch chan struct{}, waiters *int, role string) error {
	*waiters += 1
	e.cfg.metrics.waiting.WithLabelValues(role).Inc()
	e.mu.Unlock()

	var err error
	select {
	case <-ch:
	case <-ctx.Done():
		err = ctx.Err()
	}

	e.mu.Lock()
	*waiters -= 1
	e.cfg.metrics.waiting.WithLabelValues(role).Dec()

	return err
}

func (e *Encoder) acquire(ctx context.Context) error {
	select {
	case e.pushing <- struct{}{}:
		return nil
	default:
	}

	select {
	case e.pushing <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Encoder) release() {
	<-e.pushing
}

func broadcast(ch *chan struct{}) {
	close(*ch)
	*ch = make(chan struct{})
}
