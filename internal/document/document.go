// Package document reads and appends to the knowledge file.
package document

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ragchat/internal/domain"
)

// Load reads the whole file at path.
func Load(path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{ID: pathID(path), Path: path, Content: string(data)}, nil
}

// Append writes text on its own lines at the end of the file. The file must
// already exist; existing content is never rewritten.
func Append(path, text string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("open %s for append: %w", path, err)
	}
	if _, err := f.WriteString("\n" + strings.TrimSpace(text) + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("append to %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	return f.Close()
}

func pathID(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	h := sha1.Sum([]byte(path))
	return hex.EncodeToString(h[:8])
}
