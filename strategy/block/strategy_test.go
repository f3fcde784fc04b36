package block_test

import (
	"context"
	"errors"
	"testing"

	"github.com/teenjuna/bytenc"
	"github.com/teenjuna/bytenc/internal/testing/require"
	"github.com/teenjuna/bytenc/strategy/block"
)

func TestStrategy(t *testing.T) {
	var (
		sizes   []int
		encoder = bytenc.New(block.New(4), func(c *bytenc.Config) {
			c.Listener(bytenc.ListenerFuncs{
				OnChunk: func(ctx context.Context, encoder *bytenc.Encoder) error {
					chunk, err := encoder.PullImmediately()
					sizes = append(sizes, len(chunk))
					return err
				},
			})
		})
	)

	for b := range byte(10) {
		require.Nil(t, encoder.Push(t.Context(), b))
	}
	require.Equal(t, sizes, []int{4, 4})

	require.Nil(t, encoder.Close())
	require.Equal(t, sizes, []int{4, 4, 2})
}

func TestStrategyKeepsRejectedChunk(t *testing.T) {
	encoder := bytenc.New(block.New(2))

	require.Nil(t, encoder.Push(t.Context(), 1))
	require.Nil(t, encoder.Push(t.Context(), 2))

	// The mailbox is full, so the next chunk can't be emitted before the context is done.
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	require.Nil(t, encoder.Push(ctx, 3))
	require.ErrorIs(t, encoder.Push(ctx, 4), context.Canceled)

	chunk, err := encoder.PullImmediately()
	require.Nil(t, err)
	require.Equal(t, chunk, []byte{1, 2})

	require.Nil(t, encoder.Close())

	chunk, err = encoder.PullImmediately()
	require.Nil(t, err)
	require.Equal(t, chunk, []byte{3, 4})
}

func TestStrategyListenerError(t *testing.T) {
	var (
		errBoom = errors.New("boom")
		failed  bool
		chunks  [][]byte
		encoder = bytenc.New(block.New(2), func(c *bytenc.Config) {
			c.Listener(bytenc.ListenerFuncs{
				OnChunk: func(ctx context.Context, encoder *bytenc.Encoder) error {
					chunk, err := encoder.PullImmediately()
					if err != nil {
						return err
					}
					chunks = append(chunks, chunk)
					if !failed {
						failed = true
						return errBoom
					}
					return nil
				},
			})
		})
	)

	require.Nil(t, encoder.Push(t.Context(), 1))
	err := encoder.Push(t.Context(), 2)
	require.ErrorIs(t, err, errBoom)
	require.ErrorIs(t, err, bytenc.ErrListener)

	// The chunk reached the listener, so it isn't emitted again.
	require.Nil(t, encoder.Push(t.Context(), 3))
	require.Nil(t, encoder.Close())
	require.Equal(t, chunks, [][]byte{{1, 2}, {3}})
}

func TestOptions(t *testing.T) {
	require.PanicWithError(t, "size can't be < 1", func() {
		block.New(0)
	})
}
