package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"ircbot/pkg/command"
)

// Session is one connection run. *session.Engine satisfies it.
type Session interface {
	ID() string
	Run(ctx context.Context) error
}

// SessionFactory builds a fresh session for every (re)start.
type SessionFactory func() (Session, error)

// Supervisor runs sessions one after another. A session stopped by the
// command fault breaker is replaced up to maxRestarts times; any other
// failure is returned as is.
type Supervisor struct {
	newSession  SessionFactory
	maxRestarts int
	log         *slog.Logger

	mu       sync.RWMutex
	current  Session
	restarts int
}

func NewSupervisor(factory SessionFactory, maxRestarts int, log *slog.Logger) (*Supervisor, error) {
	if factory == nil {
		return nil, errors.New("session factory is required")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Supervisor{
		newSession:  factory,
		maxRestarts: maxRestarts,
		log:         log.With("component", "gateway.supervisor"),
	}, nil
}

func (s *Supervisor) Run(ctx context.Context) error {
	for {
		sess, err := s.newSession()
		if err != nil {
			return fmt.Errorf("build session: %w", err)
		}
		s.setCurrent(sess)

		err = sess.Run(ctx)
		if err == nil || ctx.Err() != nil {
			return nil
		}
		if !errors.Is(err, command.ErrCircuitOpen) {
			return err
		}

		restart, ok := s.nextRestart()
		if !ok {
			return fmt.Errorf("session restarts exhausted (%d): %w", s.maxRestarts, err)
		}
		s.log.Warn("Restarting session after repeated command faults",
			"session_id", sess.ID(),
			"restart", restart,
			"max_restarts", s.maxRestarts,
		)
	}
}

// Current returns the session that is running now, or nil before the first
// one is built.
func (s *Supervisor) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Supervisor) Restarts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.restarts
}

func (s *Supervisor) setCurrent(sess Session) {
	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
}

func (s *Supervisor) nextRestart() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.restarts >= s.maxRestarts {
		return s.restarts, false
	}
	s.restarts++
	return s.restarts, true
}
