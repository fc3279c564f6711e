package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ircbot/pkg/bus"
	"ircbot/pkg/config"
	"ircbot/pkg/session"
)

const (
	waitTimeout  = 2 * time.Second
	pollInterval = 10 * time.Millisecond
)

func newTestService(t *testing.T, factory SessionFactory) (*Service, *bus.MessageBus) {
	t.Helper()

	supervisor, err := NewSupervisor(factory, 0, discardLogger())
	require.NoError(t, err)

	mb := bus.NewMessageBus()
	t.Cleanup(mb.Close)

	svc, err := NewService(&config.Config{}, supervisor, mb, discardLogger())
	require.NoError(t, err)
	return svc, mb
}

func getStatus(t *testing.T, svc *Service, path string) (int, statusResponse) {
	t.Helper()

	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var payload statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	return rec.Code, payload
}

func TestReadyOnlyWhileJoined(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, (&scriptedFactory{}).build)

	code, payload := getStatus(t, svc, "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "not_ready", payload.Status)
	require.Equal(t, "disconnected", payload.State)

	svc.apply(bus.Event{Type: bus.EventStateChanged, State: session.StateJoined.String(), SessionID: "abc"})
	svc.apply(bus.Event{Type: bus.EventCommandExecuted, Command: "roll"})
	svc.apply(bus.Event{Type: bus.EventCommandFailed, Command: "boom"})
	svc.apply(bus.Event{Type: bus.EventCommandExecuted, Command: "flip"})

	code, payload = getStatus(t, svc, "/readyz")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, statusResponse{
		Status:           "ready",
		State:            "joined",
		SessionID:        "abc",
		CommandsExecuted: 2,
		CommandsFailed:   1,
	}, payload)

	svc.apply(bus.Event{Type: bus.EventStateChanged, State: session.StateTerminated.String(), SessionID: "abc"})
	code, _ = getStatus(t, svc, "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, code)

	code, payload = getStatus(t, svc, "/healthz")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", payload.Status)
}

func TestServiceTracksBusEvents(t *testing.T) {
	svc, mb := newTestService(t, (&scriptedFactory{}).build)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	require.Eventually(t, func() bool {
		mb.PublishEvent(ctx, bus.Event{Type: bus.EventStateChanged, State: "joined", SessionID: "s1"})
		return svc.isReady()
	}, waitTimeout, pollInterval)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(waitTimeout):
		t.Fatal("service did not stop")
	}
}

func TestServiceReturnsSupervisorError(t *testing.T) {
	streamErr := errors.New("read from server: reset")
	svc, _ := newTestService(t, (&scriptedFactory{results: []error{streamErr}}).build)

	require.ErrorIs(t, svc.Run(context.Background()), streamErr)
}

func TestNewServiceValidatesInputs(t *testing.T) {
	t.Parallel()

	supervisor, err := NewSupervisor((&scriptedFactory{}).build, 0, nil)
	require.NoError(t, err)

	_, err = NewService(nil, supervisor, bus.NewMessageBus(), nil)
	require.Error(t, err)
	_, err = NewService(&config.Config{}, nil, bus.NewMessageBus(), nil)
	require.Error(t, err)
	_, err = NewService(&config.Config{}, supervisor, nil, nil)
	require.Error(t, err)
}
