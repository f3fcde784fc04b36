package bytenc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Reader is an [io.Reader] of the chunks produced by an encoder from a source reader.
//
// Source bytes are read one at a time and pushed into the encoder only when there is nothing left
// to read, so the source is never read ahead. When the source ends, the encoder is closed, so its
// last chunk is read too.
//
// Reader is the only listener of the encoder and the encoder must not be pushed by anyone else.
type Reader struct {
	encoder *Encoder
	src     io.ByteReader

	mu     sync.Mutex
	chunks [][]byte
	pos    int
	eof    bool
}

var (
	_ io.Reader     = (*Reader)(nil)
	_ io.ByteReader = (*Reader)(nil)
	_ io.Closer     = (*Reader)(nil)
)

// NewReader returns a [Reader] that encodes src. It replaces the listener of the encoder.
func (e *Encoder) NewReader(src io.Reader) *Reader {
	br, ok := src.(io.ByteReader)
	if !ok {
		br = &oneByteReader{src: src}
	}

	r := &Reader{
		encoder: e,
		src:     br,
	}
	e.SetListener(ListenerFuncs{OnChunk: r.enqueue})

	return r
}

// ReadByte implements [io.ByteReader].
func (r *Reader) ReadByte() (byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.fill(); err != nil {
		return 0, err
	}

	chunk := r.chunks[0]
	b := chunk[r.pos]
	r.advance(1)

	return b, nil
}

// Read implements [io.Reader]. It returns as soon as the queued chunks are exhausted, without
// pulling more source bytes than needed for the first one.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.fill(); err != nil {
		return 0, err
	}

	var n int
	for n < len(p) && len(r.chunks) != 0 {
		c := copy(p[n:], r.chunks[0][r.pos:])
		n += c
		r.advance(c)
	}

	return n, nil
}

// Close closes the encoder. Chunks emitted while closing can still be read.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.eof = true
	return r.encoder.Close()
}

// fill must be called with r.mu held.
func (r *Reader) fill() error {
	ctx := context.Background()
	for len(r.chunks) == 0 {
		if r.eof {
			return io.EOF
		}

		b, err := r.src.ReadByte()
		if errors.Is(err, io.EOF) {
			r.eof = true
			if err := r.encoder.CloseContext(ctx); err != nil {
				return fmt.Errorf("close encoder: %w", err)
			}
			continue
		} else if err != nil {
			return err
		}

		if err := r.encoder.Push(ctx, b); err != nil {
			return err
		}
	}

	return nil
}

func (r *Reader) advance(n int) {
	r.pos += n
	if r.pos == len(r.chunks[0]) {
		r.chunks[0] = nil
		r.chunks = r.chunks[1:]
		r.pos = 0
	}
}

// enqueue runs on the goroutine that holds r.mu, since only fill pushes into the encoder.
func (r *Reader) enqueue(_ context.Context, encoder *Encoder) error {
	chunk, err := encoder.PullImmediately()
	if err != nil {
		// The chunk was taken by someone else.
		return nil
	}
	if len(chunk) != 0 {
		r.chunks = append(r.chunks, chunk)
	}
	return nil
}

// oneByteReader reads src one byte per call, so nothing is read ahead of the encoder.
type oneByteReader struct {
	src io.Reader
	buf [1]byte
}

func (r *oneByteReader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(r.src, r.buf[:]); err != nil {
		return 0, err
	}
	return r.buf[0], nil
}
