// Package chatlog appends a plain-text transcript of channel traffic.
package chatlog

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"ircbot/pkg/irc"
	"ircbot/pkg/storage"
)

const (
	timeLayout      = time.DateTime
	privateLocation = "PM"
)

// Recorder receives one transcript entry per chat or membership line.
type Recorder interface {
	Log(user string, destination string, text string) error
}

// Logger writes entries as "time | location | user | text" lines.
type Logger struct {
	file *os.File
	now  func() time.Time

	mu sync.Mutex
}

// Open appends to the transcript at path, creating it when missing.
func Open(path string) (*Logger, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, storage.NormalizeIOError(err, "open chat log")
	}

	return &Logger{file: file, now: time.Now}, nil
}

func (l *Logger) Log(user string, destination string, text string) error {
	line := FormatEntry(l.now(), user, destination, text)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.file.WriteString(line); err != nil {
		return storage.NormalizeIOError(err, "append chat log")
	}

	return nil
}

func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// FormatEntry renders one transcript line. Destinations that are not
// channels are recorded as PM.
func FormatEntry(at time.Time, user string, destination string, text string) string {
	location := destination
	if !irc.IsChannel(destination) {
		location = privateLocation
	}

	user = strings.TrimSpace(user)
	return fmt.Sprintf("%s | %s | %s | %s\n", at.UTC().Format(timeLayout), location, user, irc.Sanitize(text))
}

// Nop discards every entry. It stands in when chat logging is disabled.
type Nop struct{}

func (Nop) Log(string, string, string) error { return nil }
