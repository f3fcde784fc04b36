package block

import (
	"context"
	"errors"

	"github.com/teenjuna/bytenc"
)

// Strategy groups pushed bytes into chunks of a fixed size. The last chunk, emitted on close, can
// be shorter.
type Strategy struct {
	size int
	buf  []byte
}

var _ bytenc.Strategy = (*Strategy)(nil)

func New(size int) *Strategy {
	if size < 1 {
		panic("size can't be < 1")
	}
	return &Strategy{
		size: size,
		buf:  make([]byte, 0, size),
	}
}

func (s *Strategy) Push(ctx context.Context, b byte, emit bytenc.Emitter) error {
	s.buf = append(s.buf, b)
	if len(s.buf) < s.size {
		return nil
	}
	return s.emit(ctx, emit)
}

func (s *Strategy) Flush(ctx context.Context, emit bytenc.Emitter) error {
	if len(s.buf) == 0 {
		return nil
	}
	return s.emit(ctx, emit)
}

func (s *Strategy) Derive() bytenc.Strategy {
	return New(s.size)
}

// emit keeps the buffer if the chunk wasn't stored, so that it's retried on the next push or on
// flush.
func (s *Strategy) emit(ctx context.Context, emit bytenc.Emitter) error {
	err := emit.Emit(ctx, s.buf)
	if err != nil && !errors.Is(err, bytenc.ErrListener) {
		return err
	}
	s.buf = s.buf[:0]
	return err
}
