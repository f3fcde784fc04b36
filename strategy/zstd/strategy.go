package zstd

import (
	"context"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/teenjuna/bytenc"
)

// Strategy groups pushed bytes into blocks and emits every block compressed as an independent
// zstd frame. The concatenation of all emitted chunks is a valid zstd stream.
type Strategy struct {
	size  int
	level zstd.EncoderLevel
	enc   *zstd.Encoder
	buf   []byte
	out   []byte
}

var _ bytenc.Strategy = (*Strategy)(nil)

func New(size int) *Strategy {
	if size < 1 {
		panic("size can't be < 1")
	}
	return &Strategy{
		size:  size,
		level: zstd.SpeedDefault,
		buf:   make([]byte, 0, size),
	}
}

// WithLevel sets the compression level. It must be called before the first push.
func (s *Strategy) WithLevel(level zstd.EncoderLevel) *Strategy {
	if level < zstd.SpeedFastest || level > zstd.SpeedBestCompression {
		panic("invalid level")
	}
	s.level = level
	return s
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
	return New(s.size).WithLevel(s.level)
}

func (s *Strategy) emit(ctx context.Context, emit bytenc.Emitter) error {
	if s.enc == nil {
		enc, err := zstd.NewWriter(
			nil,
			zstd.WithEncoderConcurrency(1),
			zstd.WithEncoderLevel(s.level),
			zstd.WithLowerEncoderMem(true),
		)
		if err != nil {
			return fmt.Errorf("create zstd encoder: %w", err)
		}
		s.enc = enc
	}

	s.out = s.enc.EncodeAll(s.buf, s.out[:0])
	err := emit.Emit(ctx, s.out)
	if err != nil && !errors.Is(err, bytenc.ErrListener) {
		return err
	}
	s.buf = s.buf[:0]

	return err
}

// Decode decompresses the concatenation of chunks emitted by a [Strategy].
func Decode(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1), zstd.WithDecoderLowmem(true))
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()

	return dec.DecodeAll(data, nil)
}
