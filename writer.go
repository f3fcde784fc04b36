package bytenc

import (
	"context"
	"fmt"
	"io"
)

// Writer is an [io.Writer] that pushes written bytes into an encoder and writes the produced
// chunks to a destination writer.
//
// Writer is the only listener of the encoder. Chunks are written on the goroutine calling Write
// or Close.
type Writer struct {
	encoder *Encoder
	dst     io.Writer
}

var (
	_ io.Writer     = (*Writer)(nil)
	_ io.ByteWriter = (*Writer)(nil)
	_ io.Closer     = (*Writer)(nil)
)

// NewWriter returns a [Writer] that encodes into dst. It replaces the listener of the encoder.
func (e *Encoder) NewWriter(dst io.Writer) *Writer {
	w := &Writer{
		encoder: e,
		dst:     dst,
	}
	e.SetListener(ListenerFuncs{OnChunk: w.drain})
	return w
}

// Write implements [io.Writer]. On failure, it reports how many bytes were pushed before the
// failing one.
func (w *Writer) Write(p []byte) (int, error) {
	ctx := context.Background()
	for i, b := range p {
		if err := w.encoder.Push(ctx, b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// WriteByte implements [io.ByteWriter].
func (w *Writer) WriteByte(b byte) error {
	return w.encoder.Push(context.Background(), b)
}

// Close closes the encoder, writing its last chunk to the destination. The destination itself
// isn't closed.
func (w *Writer) Close() error {
	return w.encoder.Close()
}

func (w *Writer) drain(_ context.Context, encoder *Encoder) error {
	chunk, err := encoder.PullImmediately()
	if err != nil {
		// The chunk was taken by someone else.
		return nil
	}

	n, err := w.dst.Write(chunk)
	if err != nil {
		return fmt.Errorf("write chunk: %w", err)
	}
	if n != len(chunk) {
		return io.ErrShortWrite
	}

	return nil
}
