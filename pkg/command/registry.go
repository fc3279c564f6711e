// Package command resolves chat commands to handlers and isolates their faults.
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"
)

// Replier sends one chat line to a channel or user.
type Replier interface {
	Reply(ctx context.Context, target string, text string) error
}

// Request is everything a handler learns about one invocation.
type Request struct {
	User    string
	Target  string
	Private bool
	// Tokens holds the command name at index 0 followed by its arguments.
	Tokens []string
}

// Name returns the invoked command name.
func (r Request) Name() string {
	if len(r.Tokens) == 0 {
		return ""
	}
	return r.Tokens[0]
}

// Args returns the tokens after the command name.
func (r Request) Args() []string {
	if len(r.Tokens) < 2 {
		return nil
	}
	return r.Tokens[1:]
}

// Arg returns argument i, or "" when absent.
func (r Request) Arg(i int) string {
	args := r.Args()
	if i < 0 || i >= len(args) {
		return ""
	}
	return args[i]
}

// Handler runs one command. Replies go through the Replier; a returned error
// is reported to the user as a generic notice.
type Handler interface {
	Invoke(ctx context.Context, reply Replier, req Request) error
}

type HandlerFunc func(ctx context.Context, reply Replier, req Request) error

func (f HandlerFunc) Invoke(ctx context.Context, reply Replier, req Request) error {
	return f(ctx, reply, req)
}

// Entry is a static registration record.
type Entry struct {
	Name        string
	Usage       string
	Description string
	Handler     Handler
}

// Registry maps command names to entries. Enablement is evaluated per call
// through the predicate given at construction.
type Registry struct {
	enabled func(string) bool

	mu      sync.RWMutex
	entries map[string]Entry
	order   []string
}

// NewRegistry builds an empty registry. A nil predicate enables every command.
func NewRegistry(enabled func(name string) bool) *Registry {
	if enabled == nil {
		enabled = func(string) bool { return true }
	}

	return &Registry{
		enabled: enabled,
		entries: make(map[string]Entry),
	}
}

func (r *Registry) Register(entry Entry) error {
	entry.Name = strings.TrimSpace(entry.Name)
	if entry.Name == "" {
		return errors.New("command name is required")
	}
	if strings.ContainsFunc(entry.Name, unicode.IsSpace) {
		return fmt.Errorf("command name %q must not contain whitespace", entry.Name)
	}
	if entry.Handler == nil {
		return fmt.Errorf("command %q has no handler", entry.Name)
	}
	if entry.Usage == "" {
		entry.Usage = entry.Name
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[entry.Name]; exists {
		return fmt.Errorf("command %q is already registered", entry.Name)
	}

	r.entries[entry.Name] = entry
	r.order = append(r.order, entry.Name)
	return nil
}

// Lookup finds an entry by exact, case-sensitive name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[name]
	return entry, ok
}

// IsEnabled reports whether a registered command may run.
func (r *Registry) IsEnabled(name string) bool {
	if _, ok := r.Lookup(name); !ok {
		return false
	}
	return r.enabled(name)
}

// Enabled lists enabled entries in registration order.
func (r *Registry) Enabled() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Entry, 0, len(r.order))
	for _, name := range r.order {
		if r.enabled(name) {
			result = append(result, r.entries[name])
		}
	}

	return result
}
