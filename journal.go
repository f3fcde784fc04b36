package bytenc

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"strings"
	"time"

	"github.com/teenjuna/bytenc/internal/sqlite"
)

// Journal is a durable log of chunks backed by SQLite. Chunk boundaries are preserved: every
// chunk is stored as a separate record.
type Journal struct {
	storage *sqlite.Storage
}

// Record is a chunk stored in a [Journal].
type Record struct {
	// ID is the position of the record in the journal.
	ID int64
	// Chunk is the content of the record.
	Chunk []byte
	// PushedAt is the time when the record was stored.
	PushedAt time.Time
}

// JournalStats represents statistics about a [Journal].
type JournalStats struct {
	// Records is the number of records in the journal.
	Records int
	// Bytes is the total number of bytes across all records.
	Bytes int
}

// JournalConfig is a config of the journal.
type JournalConfig struct {
	file    string
	durable bool
}

// File sets the path of the SQLite database. By default, the journal is kept in memory.
func (c *JournalConfig) File(file string) {
	file = strings.TrimSpace(file)
	if file == "" {
		panic("file can't be blank")
	}
	if strings.Contains(file, "?") {
		panic("file can't contain ?")
	}
	c.file = file
}

// Durable makes every record wait for the data to reach the disk.
func (c *JournalConfig) Durable(durable bool) {
	c.durable = durable
}

const journalPageSize = 64

// OpenJournal opens a [Journal], creating the database if needed.
func OpenJournal(configFuncs ...func(c *JournalConfig)) (*Journal, error) {
	c := JournalConfig{}
	c.File(":memory:")
	for _, cf := range configFuncs {
		if cf != nil {
			cf(&c)
		}
	}

	storage, err := sqlite.New(
		sqlite.WithFile(c.file),
		sqlite.WithDurable(c.durable),
	)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	return &Journal{storage: storage}, nil
}

// Listener returns a [Listener] that stores every chunk of the encoder it's set on.
func (j *Journal) Listener() Listener {
	return ListenerFuncs{
		OnChunk: func(ctx context.Context, encoder *Encoder) error {
			chunk, err := encoder.PullImmediately()
			if err != nil {
				// The chunk was taken by someone else.
				return nil
			}
			return j.Append(ctx, chunk)
		},
	}
}

// Append stores a chunk.
func (j *Journal) Append(ctx context.Context, chunk []byte) error {
	if _, err := j.storage.Push(ctx, chunk); err != nil {
		return fmt.Errorf("push chunk to sqlite: %w", err)
	}
	return nil
}

// Records returns a sequence of all records in the order they were appended. The sequence stops
// at the first error.
func (j *Journal) Records(ctx context.Context) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		var after int64
		for {
			chunks, err := j.storage.Chunks(ctx, after, journalPageSize)
			if err != nil {
				yield(Record{}, fmt.Errorf("get chunks from sqlite: %w", err))
				return
			}
			for _, c := range chunks {
				if !yield(Record{ID: c.ID, Chunk: c.Data, PushedAt: c.PushedAt}, nil) {
					return
				}
				after = c.ID
			}
			if len(chunks) < journalPageSize {
				return
			}
		}
	}
}

// Reader returns an [io.ReadCloser] of the concatenated records. It must be closed if it isn't
// read until the end.
func (j *Journal) Reader(ctx context.Context) io.ReadCloser {
	next, stop := iter.Pull2(j.Records(ctx))
	return &journalReader{next: next, stop: stop}
}

// Delete removes records from the journal.
func (j *Journal) Delete(ids ...int64) error {
	if err := j.storage.Delete(ids...); err != nil {
		return fmt.Errorf("delete chunks from sqlite: %w", err)
	}
	return nil
}

// Stats returns current journal statistics.
func (j *Journal) Stats() (JournalStats, error) {
	stats, err := j.storage.Stats()
	if err != nil {
		return JournalStats{}, fmt.Errorf("get stats from sqlite: %w", err)
	}
	return JournalStats{Records: stats.Chunks, Bytes: stats.Bytes}, nil
}

// Close closes the journal.
func (j *Journal) Close() error {
	if err := j.storage.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

type journalReader struct {
	next func() (Record, error, bool)
	stop func()
	buf  []byte
	err  error
}

func (r *journalReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		record, err, ok := r.next()
		switch {
		case !ok:
			r.stop()
			r.err = io.EOF
		case err != nil:
			r.stop()
			r.err = err
		default:
			r.buf = record.Chunk
		}
	}

	n := copy(p, r.buf)
	r.buf = r.buf[n:]

	return n, nil
}

func (r *journalReader) Close() error {
	r.stop()
	r.buf = nil
	if r.err == nil {
		r.err = fs.ErrClosed
	}
	return nil
}
