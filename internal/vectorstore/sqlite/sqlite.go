// Package sqlite persists an index of chunk vectors in a single SQLite file
// inside a directory owned by the store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"ragchat/internal/domain"
)

// FileName is the database file created inside the index directory.
const FileName = "index.db"

// Meta keys recorded alongside the vectors.
const (
	MetaEmbedder    = "embedder"
	MetaDimension   = "dimension"
	MetaFingerprint = "fingerprint"
	MetaCreatedAt   = "created_at"
)

// ErrNotFound is returned by Open when the directory holds no index.
var ErrNotFound = errors.New("persisted index not found")

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	id     TEXT PRIMARY KEY,
	doc_id TEXT NOT NULL,
	idx    INTEGER NOT NULL,
	text   TEXT NOT NULL,
	vector BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// Store is a SQLite-backed vector index.
type Store struct {
	db   *sql.DB
	path string
}

// Path returns the database file location for dir.
func Path(dir string) string { return filepath.Join(dir, FileName) }

// Exists reports whether dir contains a persisted index.
func Exists(dir string) bool {
	info, err := os.Stat(Path(dir))
	return err == nil && !info.IsDir()
}

// Create makes dir if needed and initialises an empty index in it.
func Create(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	s, err := open(Path(dir))
	if err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(schema); err != nil {
		s.db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Open opens an existing index in dir.
func Open(dir string) (*Store, error) {
	if !Exists(dir) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, Path(dir))
	}
	return open(Path(dir))
}

func open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert writes chunks and their vectors in a single transaction.
func (s *Store) Insert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks (id, doc_id, idx, text, vector) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, ch := range chunks {
		if _, err := stmt.ExecContext(ctx, ch.ID, ch.DocumentID, ch.Index, ch.Text, encodeVector(vectors[i])); err != nil {
			return fmt.Errorf("insert chunk %d: %w", ch.Index, err)
		}
	}
	return tx.Commit()
}

// All returns every stored chunk in document order with its vector.
func (s *Store) All(ctx context.Context) ([]domain.Chunk, [][]float32, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, doc_id, idx, text, vector FROM chunks ORDER BY doc_id, idx`)
	if err != nil {
		return nil, nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	var vectors [][]float32
	for rows.Next() {
		var ch domain.Chunk
		var blob []byte
		if err := rows.Scan(&ch.ID, &ch.DocumentID, &ch.Index, &ch.Text, &blob); err != nil {
			return nil, nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, ch)
		vectors = append(vectors, decodeVector(blob))
	}
	return chunks, vectors, rows.Err()
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n)
	return n, err
}

// SetMeta records a metadata value, replacing any previous one.
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	return err
}

// Meta returns a metadata value, or "" when unset.
func (s *Store) Meta(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
