package bytenc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"
)

// Pump encodes src into dst using two goroutines: one pushes source bytes into the encoder and
// closes it at the end of src, the other pulls chunks and writes them to dst. If either side
// fails, the other one is stopped and the first error is returned.
//
// The encoder must have no listener, otherwise chunks can be taken before they reach dst.
//
// Returns the number of bytes written to dst.
func Pump(ctx context.Context, encoder *Encoder, dst io.Writer, src io.Reader) (int64, error) {
	br, ok := src.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(src)
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		for {
			b, err := br.ReadByte()
			if errors.Is(err, io.EOF) {
				if err := encoder.CloseContext(ctx); err != nil {
					return fmt.Errorf("close encoder: %w", err)
				}
				return nil
			} else if err != nil {
				return fmt.Errorf("read source: %w", err)
			}

			if err := encoder.Push(ctx, b); err != nil {
				return err
			}
		}
	})

	var written int64
	group.Go(func() error {
		for {
			chunk, err := encoder.Pull(ctx)
			if errors.Is(err, io.EOF) {
				return nil
			} else if err != nil {
				return fmt.Errorf("pull: %w", err)
			}

			n, err := dst.Write(chunk)
			written += int64(n)
			if err != nil {
				return fmt.Errorf("write chunk: %w", err)
			}
			if n != len(chunk) {
				return io.ErrShortWrite
			}
		}
	})

	err := group.Wait()

	return written, err
}
