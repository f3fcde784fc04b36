package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/teenjuna/bytenc/internal"
)

var (
	// ErrClosed is returned by Storage methods when the storage has been closed.
	ErrClosed = errors.New("storage is closed")
)

const (
	memory = ":memory:"
)

// Storage is an append-only chunk log backed by SQLite.
type Storage struct {
	cfg *Config
	db  *sql.DB
}

// New creates a new Storage with the provided configuration functions.
//
// Default configuration:
//   - File: ":memory:" (in-memory database)
//   - Durable: false
//
// Returns an error if the SQLite database cannot be opened or initialized.
func New(configFuncs ...ConfigFunc) (*Storage, error) {
	cfg := &Config{}
	cfg.File(memory)
	for _, cf := range configFuncs {
		cf(cfg)
	}

	db, err := open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	if err := setup(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setup: %w", err)
	}

	storage := Storage{
		cfg: cfg,
		db:  db,
	}

	return &storage, nil
}

// Push appends a new chunk to the storage.
//
// Returns the ChunkID of the chunk. IDs grow with every push, so they define the order of chunks.
//
// Returns [ErrClosed] if the storage has been closed.
func (s *Storage) Push(ctx context.Context, data []byte) (ChunkID, error) {
	if data == nil {
		data = []byte{}
	}

	var id ChunkID
	err := s.db.QueryRowContext(
		ctx,
		`
		insert into chunk (
			data,
			size,
			pushed_at
		) values (
			:data,
			:size,
			:pushed_at
		)
		returning id
		`,
		sql.Named("data", data),
		sql.Named("size", len(data)),
		sql.Named("pushed_at", toTimestamp(time.Now())),
	).Scan(&id)
	if isClosed(err) {
		return 0, ErrClosed
	} else if err != nil {
		return 0, err
	}

	return id, nil
}

// Chunks returns up to limit chunks with IDs greater than after, ordered by ID.
//
// Returns an empty slice if there are no such chunks.
// Returns [ErrClosed] if the storage has been closed.
func (s *Storage) Chunks(ctx context.Context, after ChunkID, limit int) ([]Chunk, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`
		select id, data, size, pushed_at
		from chunk
		where id > :after
		order by id asc
		limit :limit
		`,
		sql.Named("after", after),
		sql.Named("limit", limit),
	)
	if isClosed(err) {
		return nil, ErrClosed
	} else if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	chunks := make([]Chunk, 0, limit)

	for rows.Next() {
		var (
			c        Chunk
			pushedAt int64
		)
		if err := rows.Scan(&c.ID, &c.Data, &c.Size, &pushedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if c.Data == nil {
			c.Data = []byte{}
		}
		c.PushedAt = fromTimestamp(pushedAt)
		chunks = append(chunks, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	return chunks, nil
}

// Delete permanently removes one or more chunks from the storage.
//
// Returns [ErrClosed] if the storage has been closed.
func (s *Storage) Delete(ids ...ChunkID) error {
	_, err := s.db.Exec(
		`
		delete from chunk
		where
			id in (
				select value from json_each(:ids)
			)
		`,
		sql.Named("ids", jsonIDs(ids)),
	)
	if isClosed(err) {
		return ErrClosed
	}
	return err
}

// Stats returns current storage statistics.
//
// Returns the total number of chunks and the total number of bytes across all chunks.
// Returns [ErrClosed] if the storage has been closed.
func (s *Storage) Stats() (*Stats, error) {
	var (
		chunks int
		bytes  int
	)
	err := s.db.QueryRow(
		`
		select
			coalesce(count(*), 0) as chunks,
			coalesce(sum(size), 0) as bytes
		from
			chunk
		`,
	).Scan(
		&chunks,
		&bytes,
	)
	if isClosed(err) {
		return nil, ErrClosed
	} else if err != nil {
		return nil, err
	}

	stats := Stats{
		Chunks: chunks,
		Bytes:  bytes,
	}

	return &stats, nil
}

// Close closes the underlying SQLite database.
//
// After closing, all methods on Storage will return [ErrClosed].
func (s *Storage) Close() error {
	return s.db.Close()
}

// Chunk represents a stored chunk.
type Chunk struct {
	// ID is the position of this chunk in the log.
	ID ChunkID
	// Data is the chunk content.
	Data []byte
	// Size is the number of bytes in the chunk.
	Size int
	// PushedAt is the time when the chunk was pushed.
	PushedAt time.Time
}

type ChunkID = int64

// Stats represents statistics about the storage.
type Stats struct {
	// Chunks is the total number of chunks in storage.
	Chunks int
	// Bytes is the total number of bytes across all chunks.
	Bytes int
}

func open(cfg *Config) (*sql.DB, error) {
	file := cfg.file

	params := url.Values{}
	params.Add("_txlock", "immediate")
	params.Add("_timeout", "5000") // 5s
	if file == memory {
		file = internal.GenerateID()
		params.Add("mode", "memory")
		params.Add("cache", "shared")
	} else {
		params.Add("_journal", "wal")
		params.Add("_sync", "normal")
		params.Add("_cache_size", "-20000") // 20mb
		if cfg.durable {
			params.Set("_sync", "full")
		}
	}

	uri := url.URL{Scheme: "file", Opaque: file, RawQuery: params.Encode()}

	db, err := sql.Open("sqlite3", uri.String())
	if err != nil {
		return nil, err
	}

	db.SetConnMaxIdleTime(0)
	db.SetConnMaxLifetime(0)
	if params.Get("mode") == "memory" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(2)
		db.SetMaxIdleConns(2)
	}

	return db, nil
}

func setup(db *sql.DB) error {
	// Create table for chunks.
	if _, err := db.Exec(
		`
		create table if not exists chunk (
			id        integer primary key autoincrement,
			data      blob not null,
			size      int not null,
			pushed_at int not null
		) strict
		`,
	); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	return nil
}

// isClosed reports whether err comes from a closed database. database/sql doesn't export this
// error.
func isClosed(err error) bool {
	return err != nil && err.Error() == "sql: database is closed"
}

func jsonIDs(ids []ChunkID) string {
	jsonIDs, _ := json.Marshal(ids)
	return string(jsonIDs)
}

func toTimestamp(time time.Time) int64 {
	return time.UnixNano()
}

func fromTimestamp(timestamp int64) time.Time {
	return time.Unix(0, timestamp)
}
