package bytenc_test

import (
	"io"
	"io/fs"
	"path"
	"testing"

	"github.com/teenjuna/bytenc"
	"github.com/teenjuna/bytenc/internal/testing/require"
	"github.com/teenjuna/bytenc/strategy/block"
)

func TestJournal(t *testing.T) {
	journal, err := bytenc.OpenJournal()
	require.Nil(t, err)
	deferCloseJournal(t, journal)

	encoder := bytenc.New(block.New(3), func(c *bytenc.Config) {
		c.Listener(journal.Listener())
	})
	for b := range byte(7) {
		require.Nil(t, encoder.Push(t.Context(), b))
	}
	require.Nil(t, encoder.Close())

	var chunks [][]byte
	for record, err := range journal.Records(t.Context()) {
		require.Nil(t, err)
		chunks = append(chunks, record.Chunk)
	}
	require.Equal(t, chunks, [][]byte{{0, 1, 2}, {3, 4, 5}, {6}})

	stats, err := journal.Stats()
	require.Nil(t, err)
	require.Equal(t, stats, bytenc.JournalStats{Records: 3, Bytes: 7})

	out, err := io.ReadAll(journal.Reader(t.Context()))
	require.Nil(t, err)
	require.Equal(t, out, []byte{0, 1, 2, 3, 4, 5, 6})
}

func TestJournalPaging(t *testing.T) {
	journal, err := bytenc.OpenJournal()
	require.Nil(t, err)
	deferCloseJournal(t, journal)

	writer := bytenc.New(block.New(16), func(c *bytenc.Config) {
		c.Listener(journal.Listener())
	})
	for _, b := range Data {
		require.Nil(t, writer.Push(t.Context(), b))
	}
	require.Nil(t, writer.Close())

	out, err := io.ReadAll(journal.Reader(t.Context()))
	require.Nil(t, err)
	require.Equal(t, out, Data)
}

func TestJournalReaderClose(t *testing.T) {
	journal, err := bytenc.OpenJournal()
	require.Nil(t, err)
	deferCloseJournal(t, journal)

	for _, chunk := range [][]byte{{1, 2}, {3}} {
		require.Nil(t, journal.Append(t.Context(), chunk))
	}

	reader := journal.Reader(t.Context())
	p := make([]byte, 1)
	n, err := reader.Read(p)
	require.Nil(t, err)
	require.Equal(t, p[:n], []byte{1})

	require.Nil(t, reader.Close())
	_, err = reader.Read(p)
	require.ErrorIs(t, err, fs.ErrClosed)
	require.Nil(t, reader.Close())
}

func TestJournalDelete(t *testing.T) {
	journal, err := bytenc.OpenJournal()
	require.Nil(t, err)
	deferCloseJournal(t, journal)

	require.Nil(t, journal.Append(t.Context(), []byte{1}))
	require.Nil(t, journal.Append(t.Context(), []byte{2}))

	var first int64
	for record, err := range journal.Records(t.Context()) {
		require.Nil(t, err)
		first = record.ID
		break
	}
	require.Nil(t, journal.Delete(first))

	out, err := io.ReadAll(journal.Reader(t.Context()))
	require.Nil(t, err)
	require.Equal(t, out, []byte{2})
}

func TestJournalPersistence(t *testing.T) {
	file := path.Join(t.TempDir(), "journal")

	journal, err := bytenc.OpenJournal(func(c *bytenc.JournalConfig) {
		c.File(file)
		c.Durable(true)
	})
	require.Nil(t, err)

	encoder := bytenc.New(block.New(2), func(c *bytenc.Config) {
		c.Listener(journal.Listener())
	})
	for _, b := range []byte{1, 2, 3} {
		require.Nil(t, encoder.Push(t.Context(), b))
	}
	require.Nil(t, encoder.Close())
	require.Nil(t, journal.Close())

	journal, err = bytenc.OpenJournal(func(c *bytenc.JournalConfig) {
		c.File(file)
	})
	require.Nil(t, err)
	deferCloseJournal(t, journal)

	out, err := io.ReadAll(journal.Reader(t.Context()))
	require.Nil(t, err)
	require.Equal(t, out, []byte{1, 2, 3})
}

func TestJournalOptions(t *testing.T) {
	c := &bytenc.JournalConfig{}

	require.PanicWithError(t, "file can't be blank", func() {
		c.File(" ")
	})

	require.PanicWithError(t, "file can't contain ?", func() {
		c.File("file?key=value")
	})
}

func deferCloseJournal(t *testing.T, journal *bytenc.Journal) {
	t.Cleanup(func() {
		if err := journal.Close(); err != nil {
			t.Fatalf("close journal: %v", err)
		}
	})
}
