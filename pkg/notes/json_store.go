package notes

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"ircbot/pkg/storage"
)

// JSONStore keeps notes as a pretty-printed JSON array in one file.
// Writes replace the file atomically, so readers never see a torn write.
type JSONStore struct {
	path string
	now  func() time.Time

	mu sync.Mutex
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path, now: time.Now}
}

func (s *JSONStore) Read(_ context.Context) ([]Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.readLocked()
}

func (s *JSONStore) Add(_ context.Context, user string, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.readLocked()
	if err != nil {
		return err
	}

	notes = append(notes, Note{Timestamp: s.now().UTC(), User: user, Content: content})
	return s.writeLocked(notes)
}

func (s *JSONStore) Wipe(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeLocked([]Note{})
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) readLocked() ([]Note, error) {
	content, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, storage.NormalizeIOError(err, "read notes")
	}

	var notes []Note
	if err := json.Unmarshal(content, &notes); err != nil {
		return nil, storage.Corrupt(filepath.Base(s.path)+" must contain a list of notes", err)
	}

	return notes, nil
}

func (s *JSONStore) writeLocked(notes []Note) error {
	content, err := json.MarshalIndent(notes, "", "    ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".notes-*.json")
	if err != nil {
		return storage.NormalizeIOError(err, "create notes temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(content, '\n')); err != nil {
		_ = tmp.Close()
		return storage.NormalizeIOError(err, "write notes")
	}
	if err := tmp.Close(); err != nil {
		return storage.NormalizeIOError(err, "write notes")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return storage.NormalizeIOError(err, "replace notes file")
	}

	return nil
}
