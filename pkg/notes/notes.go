// Package notes persists the append-only note log behind the note-* commands.
package notes

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"ircbot/pkg/config"
	"ircbot/pkg/storage"
)

// Note is one stored message.
type Note struct {
	Timestamp time.Time `json:"timestamp"`
	User      string    `json:"user"`
	Content   string    `json:"content"`
}

// Store is an ordered, append-only note collection.
//
// Read returns notes oldest first. Decode failures carry the
// storage.ErrorCorrupt category and the underlying data is left untouched.
type Store interface {
	Read(ctx context.Context) ([]Note, error)
	Add(ctx context.Context, user string, content string) error
	Wipe(ctx context.Context) error
	Close() error
}

// Open builds the configured backend with its file resolved under dataDir.
func Open(cfg config.NotesConfig, dataDir string) (Store, error) {
	path, err := storage.ResolveFile(dataDir, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve notes path: %w", err)
	}

	switch cfg.Backend {
	case config.NotesBackendSQLite:
		return OpenSQLite(path)
	case config.NotesBackendJSON, "":
		return NewJSONStore(path), nil
	default:
		return nil, fmt.Errorf("unsupported notes backend %q in %s", cfg.Backend, filepath.Base(path))
	}
}

// FormatLine renders a note the way note-read prints it.
func FormatLine(note Note) string {
	return fmt.Sprintf("%s, %s, %s", note.Timestamp.UTC().Format(time.DateTime), note.User, note.Content)
}
