package identity

import (
	"context"

	"github.com/teenjuna/bytenc"
)

// Strategy emits every pushed byte unchanged as a one-byte chunk.
type Strategy struct{}

var _ bytenc.Strategy = (*Strategy)(nil)

func New() *Strategy {
	return &Strategy{}
}

func (s *Strategy) Push(ctx context.Context, b byte, emit bytenc.Emitter) error {
	return emit.Emit(ctx, []byte{b})
}

func (s *Strategy) Flush(ctx context.Context, emit bytenc.Emitter) error {
	return nil
}

func (s *Strategy) Derive() bytenc.Strategy {
	return New()
}
