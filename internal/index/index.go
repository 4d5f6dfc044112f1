// Package index decides when the persisted vector index must be rebuilt from
// the knowledge file, and builds or loads it.
//
// The marker file holds the fingerprint of the document as of the last
// successful build. It is written only after the index is persisted, so an
// interrupted build is retried on the next start.
package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ragchat/internal/document"
	"ragchat/internal/domain"
	"ragchat/internal/vectorstore/memory"
	"ragchat/internal/vectorstore/sqlite"
)

// ErrDocumentMissing means the knowledge file does not exist. Nothing can start without it.
var ErrDocumentMissing = errors.New("knowledge document missing")

// Fingerprint hashes the document content together with the embedder identity,
// so switching embedding models invalidates the index as well.
func Fingerprint(content []byte, embedder string) string {
	h := sha256.New()
	h.Write(content)
	h.Write([]byte{0})
	h.Write([]byte(embedder))
	return hex.EncodeToString(h.Sum(nil))
}

// NeedsReindex compares the document's fingerprint against the marker file.
// A missing marker always means a rebuild. It has no side effects.
func NeedsReindex(docPath, fingerprintPath, embedder string) (bool, string, error) {
	content, err := os.ReadFile(docPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, "", fmt.Errorf("%w: %s", ErrDocumentMissing, docPath)
		}
		return false, "", fmt.Errorf("read document: %w", err)
	}
	current := Fingerprint(content, embedder)

	stored, err := ReadMarker(fingerprintPath)
	if err != nil {
		return false, "", err
	}
	return stored != current, current, nil
}

// ReadMarker returns the stored fingerprint, or "" when the marker is absent.
func ReadMarker(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read fingerprint marker: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// writeMarker replaces the marker atomically.
func writeMarker(path, fingerprint string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(fingerprint), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Config locates the document, marker and index directory.
type Config struct {
	DocumentPath    string
	FingerprintPath string
	Dir             string
}

// Index is a loaded, searchable vector index.
type Index struct {
	Store       *memory.Storage
	Fingerprint string
	Embedder    string
	Rebuilt     bool
	Chunks      int
}

// Manager owns the persisted index directory.
type Manager struct {
	cfg      Config
	chunker  domain.Chunker
	embedder domain.Embedder
	logger   zerolog.Logger
}

func NewManager(cfg Config, chunker domain.Chunker, embedder domain.Embedder, logger zerolog.Logger) *Manager {
	return &Manager{cfg: cfg, chunker: chunker, embedder: embedder, logger: logger.With().Str("component", "index").Logger()}
}

// Status reports whether a rebuild is required along with current and stored fingerprints.
func (m *Manager) Status() (needs bool, current, stored string, err error) {
	needs, current, err = NeedsReindex(m.cfg.DocumentPath, m.cfg.FingerprintPath, m.embedder.Name())
	if err != nil {
		return false, "", "", err
	}
	stored, err = ReadMarker(m.cfg.FingerprintPath)
	if err != nil {
		return false, "", "", err
	}
	return needs || !sqlite.Exists(m.cfg.Dir), current, stored, nil
}

// Invalidate removes the marker so the next BuildOrLoad rebuilds.
func (m *Manager) Invalidate() error {
	if err := os.Remove(m.cfg.FingerprintPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove fingerprint marker: %w", err)
	}
	return nil
}

// BuildOrLoad rebuilds the index when the fingerprint changed, otherwise loads it.
func (m *Manager) BuildOrLoad(ctx context.Context) (*Index, error) {
	needs, fingerprint, err := NeedsReindex(m.cfg.DocumentPath, m.cfg.FingerprintPath, m.embedder.Name())
	if err != nil {
		return nil, err
	}
	if !needs {
		idx, err := m.load(ctx, fingerprint)
		if err == nil {
			m.logger.Info().Str("dir", m.cfg.Dir).Int("chunks", idx.Chunks).Msg("No document change, using existing index")
			return idx, nil
		}
		m.logger.Warn().Err(err).Str("dir", m.cfg.Dir).Msg("Existing index unusable, rebuilding")
	} else {
		m.logger.Info().Str("document", m.cfg.DocumentPath).Msg("Document changed, rebuilding index")
	}
	return m.rebuild(ctx)
}

var errStaleIndex = errors.New("index fingerprint does not match marker")

func (m *Manager) load(ctx context.Context, fingerprint string) (*Index, error) {
	st, err := sqlite.Open(m.cfg.Dir)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	stored, err := st.Meta(ctx, sqlite.MetaFingerprint)
	if err != nil {
		return nil, fmt.Errorf("read index metadata: %w", err)
	}
	if stored != fingerprint {
		return nil, errStaleIndex
	}
	chunks, vectors, err := st.All(ctx)
	if err != nil {
		return nil, err
	}
	mem := memory.NewStorage()
	if err := mem.Upsert(chunks, vectors); err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}
	return &Index{Store: mem, Fingerprint: fingerprint, Embedder: m.embedder.Name(), Chunks: len(chunks)}, nil
}

func (m *Manager) rebuild(ctx context.Context) (*Index, error) {
	start := time.Now()

	if err := os.RemoveAll(m.cfg.Dir); err != nil {
		return nil, fmt.Errorf("remove old index: %w", err)
	}

	doc, err := document.Load(m.cfg.DocumentPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentMissing, m.cfg.DocumentPath)
		}
		return nil, fmt.Errorf("read document: %w", err)
	}
	// Hash exactly what gets indexed; the file may have changed since NeedsReindex.
	fingerprint := Fingerprint([]byte(doc.Content), m.embedder.Name())

	chunks, err := m.chunker.Chunk(doc)
	if err != nil {
		return nil, fmt.Errorf("chunk document: %w", err)
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	var vectors [][]float32
	if len(texts) > 0 {
		vectors, err = m.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
	}

	mem := memory.NewStorage()
	if err := mem.Upsert(chunks, vectors); err != nil {
		return nil, fmt.Errorf("index vectors: %w", err)
	}
	if err := m.persist(ctx, chunks, vectors, fingerprint, mem.Dimension()); err != nil {
		return nil, err
	}
	if err := writeMarker(m.cfg.FingerprintPath, fingerprint); err != nil {
		return nil, fmt.Errorf("write fingerprint marker: %w", err)
	}

	m.logger.Info().
		Int("chunks", len(chunks)).
		Str("fingerprint", fingerprint[:12]).
		Dur("took", time.Since(start)).
		Msg("Index rebuilt")
	return &Index{Store: mem, Fingerprint: fingerprint, Embedder: m.embedder.Name(), Rebuilt: true, Chunks: len(chunks)}, nil
}

func (m *Manager) persist(ctx context.Context, chunks []domain.Chunk, vectors [][]float32, fingerprint string, dim int) error {
	st, err := sqlite.Create(m.cfg.Dir)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Insert(ctx, chunks, vectors); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}
	meta := map[string]string{
		sqlite.MetaEmbedder:    m.embedder.Name(),
		sqlite.MetaDimension:   strconv.Itoa(dim),
		sqlite.MetaCreatedAt:   time.Now().UTC().Format(time.RFC3339),
		sqlite.MetaFingerprint: fingerprint,
	}
	for k, v := range meta {
		if err := st.SetMeta(ctx, k, v); err != nil {
			return fmt.Errorf("persist index metadata: %w", err)
		}
	}
	return nil
}
