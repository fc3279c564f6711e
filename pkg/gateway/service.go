// Package gateway supervises the bot session and exposes its status over HTTP.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ircbot/pkg/bus"
	"ircbot/pkg/config"
	"ircbot/pkg/session"
)

const (
	defaultStatusHost = "127.0.0.1"
	defaultStatusPort = 18790
	eventBuffer       = 64
)

// Service runs the supervisor next to the optional status server and keeps
// a status snapshot built from session events.
type Service struct {
	cfg        *config.Config
	log        *slog.Logger
	supervisor *Supervisor
	bus        *bus.MessageBus

	mu        sync.RWMutex
	startedAt time.Time
	state     string
	sessionID string
	executed  int
	failed    int
}

type statusResponse struct {
	Status           string `json:"status"`
	State            string `json:"state"`
	SessionID        string `json:"session_id,omitempty"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
	CommandsExecuted int    `json:"commands_executed"`
	CommandsFailed   int    `json:"commands_failed"`
	Restarts         int    `json:"restarts"`
}

func NewService(cfg *config.Config, supervisor *Supervisor, mb *bus.MessageBus, log *slog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if supervisor == nil {
		return nil, errors.New("supervisor is required")
	}
	if mb == nil {
		return nil, errors.New("message bus is required")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		cfg:        cfg,
		log:        log.With("component", "gateway.service"),
		supervisor: supervisor,
		bus:        mb,
		state:      session.StateDisconnected.String(),
	}, nil
}

// Run blocks until the supervisor stops. The status server, when enabled,
// shuts down with it.
func (s *Service) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()

	events, unsubscribe := s.bus.SubscribeEvents(runCtx, eventBuffer)
	defer unsubscribe()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		s.track(events)
		return nil
	})
	if s.cfg.Gateway.Enabled {
		g.Go(func() error {
			return s.runStatusServer(gctx)
		})
	}
	g.Go(func() error {
		defer cancel()
		return s.supervisor.Run(gctx)
	})

	return g.Wait()
}

// Handler serves /healthz and /readyz.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	return mux
}

func (s *Service) track(events <-chan bus.Event) {
	for event := range events {
		s.apply(event)
	}
}

func (s *Service) apply(event bus.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch event.Type {
	case bus.EventStateChanged:
		s.state = event.State
		s.sessionID = event.SessionID
	case bus.EventCommandExecuted:
		s.executed++
	case bus.EventCommandFailed:
		s.failed++
	}
}

func (s *Service) runStatusServer(ctx context.Context) error {
	host := strings.TrimSpace(s.cfg.Gateway.Host)
	if host == "" {
		host = defaultStatusHost
	}

	port := s.cfg.Gateway.Port
	if port <= 0 {
		port = defaultStatusPort
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log.Info("Status server started", "address", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start status server: %w", err)
	}

	return nil
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondStatus(w, http.StatusOK, "ok")
}

func (s *Service) handleReady(w http.ResponseWriter, _ *http.Request) {
	statusCode := http.StatusOK
	status := "ready"
	if !s.isReady() {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	s.respondStatus(w, statusCode, status)
}

func (s *Service) respondStatus(w http.ResponseWriter, statusCode int, status string) {
	payload := s.currentStatus(status)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to write status response", "error", err)
	}
}

func (s *Service) currentStatus(status string) statusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uptime := int64(0)
	if !s.startedAt.IsZero() {
		uptime = int64(time.Since(s.startedAt).Seconds())
	}

	return statusResponse{
		Status:           status,
		State:            s.state,
		SessionID:        s.sessionID,
		UptimeSeconds:    uptime,
		CommandsExecuted: s.executed,
		CommandsFailed:   s.failed,
		Restarts:         s.supervisor.Restarts(),
	}
}

// isReady is true only while a session sits in the channel.
func (s *Service) isReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state == session.StateJoined.String()
}
