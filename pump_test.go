package bytenc_test

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"

	"github.com/teenjuna/bytenc"
	"github.com/teenjuna/bytenc/internal/testing/require"
	"github.com/teenjuna/bytenc/strategy/block"
	"github.com/teenjuna/bytenc/strategy/identity"
)

func TestPump(t *testing.T) {
	run(t, func(t *testing.T) {
		var (
			buf     = new(bytes.Buffer)
			encoder = bytenc.New(block.New(10))
		)

		n, err := bytenc.Pump(t.Context(), encoder, buf, bytes.NewReader(Data))
		require.Nil(t, err)
		require.Equal(t, n, int64(len(Data)))
		require.Equal(t, buf.Bytes(), Data)
		require.Equal(t, encoder.Stats(), bytenc.Stats{Closed: true})
	})
}

func TestPumpSinkError(t *testing.T) {
	run(t, func(t *testing.T) {
		encoder := bytenc.New(identity.New())

		// The producer is blocked on the full mailbox when the consumer fails, so it must be
		// stopped for Pump to return.
		_, err := bytenc.Pump(t.Context(), encoder, &errWriter{err: errBoom}, bytes.NewReader(Data))
		require.ErrorIs(t, err, errBoom)

		stats := encoder.Stats()
		require.Equal(t, stats.Producers, 0)
		require.Equal(t, stats.Consumers, 0)
	})
}

func TestPumpSourceError(t *testing.T) {
	run(t, func(t *testing.T) {
		var (
			encoder = bytenc.New(identity.New())
			source  = io.MultiReader(bytes.NewReader([]byte{1, 2}), iotest.ErrReader(errBoom))
		)

		_, err := bytenc.Pump(t.Context(), encoder, io.Discard, source)
		require.ErrorIs(t, err, errBoom)
		require.Equal(t, encoder.Stats().Consumers, 0)
	})
}
