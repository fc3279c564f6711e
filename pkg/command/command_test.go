package command

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"ircbot/pkg/storage"
)

type sentLine struct {
	Target string
	Text   string
}

type recordingReplier struct {
	lines []sentLine
	err   error
}

func (r *recordingReplier) Reply(_ context.Context, target string, text string) error {
	if r.err != nil {
		return r.err
	}
	r.lines = append(r.lines, sentLine{Target: target, Text: text})
	return nil
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text   string
		prefix string
		want   Invocation
		ok     bool
	}{
		{text: "!roll", prefix: "!", want: Invocation{Name: "roll", Args: []string{}}, ok: true},
		{text: "!note-add buy  milk", prefix: "!", want: Invocation{Name: "note-add", Args: []string{"buy", "milk"}}, ok: true},
		{text: "??help roll", prefix: "??", want: Invocation{Name: "help", Args: []string{"roll"}}, ok: true},
		{text: "hello !roll", prefix: "!"},
		{text: "! roll", prefix: "!"},
		{text: "!", prefix: "!"},
		{text: "!roll", prefix: ""},
	}

	for _, tt := range tests {
		got, ok := Parse(tt.text, tt.prefix)
		if ok != tt.ok {
			t.Fatalf("Parse(%q) ok = %v, want %v", tt.text, ok, tt.ok)
		}
		if !ok {
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Fatalf("Parse(%q) mismatch (-want +got):\n%s", tt.text, diff)
		}
	}
}

func TestInvocationTokens(t *testing.T) {
	t.Parallel()

	inv := Invocation{Name: "help", Args: []string{"roll"}}
	if diff := cmp.Diff([]string{"help", "roll"}, inv.Tokens()); diff != "" {
		t.Fatalf("Tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistryRejectsBadEntries(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil)
	noop := HandlerFunc(func(context.Context, Replier, Request) error { return nil })

	require.NoError(t, reg.Register(Entry{Name: "roll", Handler: noop}))
	require.Error(t, reg.Register(Entry{Name: "roll", Handler: noop}), "duplicate")
	require.Error(t, reg.Register(Entry{Name: " ", Handler: noop}), "empty")
	require.Error(t, reg.Register(Entry{Name: "two words", Handler: noop}), "whitespace")
	require.Error(t, reg.Register(Entry{Name: "flip"}), "nil handler")

	entry, ok := reg.Lookup("roll")
	require.True(t, ok)
	require.Equal(t, "roll", entry.Usage)

	_, ok = reg.Lookup("Roll")
	require.False(t, ok, "lookup must be case-sensitive")
}

func TestRegistryEnabledKeepsOrder(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(func(name string) bool { return name != "joke" })
	noop := HandlerFunc(func(context.Context, Replier, Request) error { return nil })
	for _, name := range []string{"help", "joke", "roll", "flip"} {
		require.NoError(t, reg.Register(Entry{Name: name, Handler: noop}))
	}

	var names []string
	for _, entry := range reg.Enabled() {
		names = append(names, entry.Name)
	}
	require.Equal(t, []string{"help", "roll", "flip"}, names)
	require.False(t, reg.IsEnabled("joke"))
	require.False(t, reg.IsEnabled("missing"))
}

func newTestDispatcher(t *testing.T, maxFaults int, enabled func(string) bool) (*Dispatcher, *Registry, *bytes.Buffer) {
	t.Helper()

	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	reg := NewRegistry(enabled)

	return NewDispatcher(reg, maxFaults, log), reg, &logs
}

func TestDispatchUnknownCommandIsSilent(t *testing.T) {
	dispatcher, _, logs := newTestDispatcher(t, 0, nil)
	replier := &recordingReplier{}

	result, err := dispatcher.Dispatch(context.Background(), replier, Request{User: "alice", Target: "#go", Tokens: []string{"frobnicate"}})
	require.NoError(t, err)
	require.Equal(t, OutcomeUnknown, result.Outcome)
	require.Empty(t, replier.lines)
	require.Equal(t, 1, strings.Count(logs.String(), "unknown command"))
	require.Contains(t, logs.String(), "level=DEBUG")
}

func TestDispatchDisabledCommandIsSilent(t *testing.T) {
	dispatcher, reg, logs := newTestDispatcher(t, 0, func(string) bool { return false })
	called := false
	require.NoError(t, reg.Register(Entry{Name: "joke", Handler: HandlerFunc(func(context.Context, Replier, Request) error {
		called = true
		return nil
	})}))

	replier := &recordingReplier{}
	result, err := dispatcher.Dispatch(context.Background(), replier, Request{User: "alice", Target: "#go", Tokens: []string{"joke"}})
	require.NoError(t, err)
	require.Equal(t, OutcomeDisabled, result.Outcome)
	require.False(t, called)
	require.Empty(t, replier.lines)
	require.Contains(t, logs.String(), "disabled command ignored")
}

func TestDispatchPassesFullTokens(t *testing.T) {
	dispatcher, reg, _ := newTestDispatcher(t, 0, nil)
	var got Request
	require.NoError(t, reg.Register(Entry{Name: "echo", Handler: HandlerFunc(func(ctx context.Context, reply Replier, req Request) error {
		got = req
		return reply.Reply(ctx, req.Target, strings.Join(req.Args(), " "))
	})}))

	replier := &recordingReplier{}
	req := Request{User: "bob", Target: "bob", Private: true, Tokens: []string{"echo", "a", "b"}}
	result, err := dispatcher.Dispatch(context.Background(), replier, req)
	require.NoError(t, err)
	require.Equal(t, OutcomeExecuted, result.Outcome)
	require.Equal(t, req, got)
	require.Equal(t, "a", got.Arg(0))
	require.Equal(t, "", got.Arg(5))
	require.Equal(t, []sentLine{{Target: "bob", Text: "a b"}}, replier.lines)
}

func TestDispatchFaultSendsGenericNotice(t *testing.T) {
	dispatcher, reg, logs := newTestDispatcher(t, 0, nil)
	require.NoError(t, reg.Register(Entry{Name: "boom", Handler: HandlerFunc(func(context.Context, Replier, Request) error {
		return errors.New("disk on fire at /var/secret")
	})}))
	require.NoError(t, reg.Register(Entry{Name: "panic", Handler: HandlerFunc(func(context.Context, Replier, Request) error {
		panic("nil map")
	})}))
	require.NoError(t, reg.Register(Entry{Name: "corrupt", Handler: HandlerFunc(func(context.Context, Replier, Request) error {
		return storage.Corrupt("notes.json", errors.New("unexpected EOF"))
	})}))

	replier := &recordingReplier{}
	for _, name := range []string{"boom", "panic", "corrupt"} {
		result, err := dispatcher.Dispatch(context.Background(), replier, Request{User: "alice", Target: "#go", Tokens: []string{name}})
		require.NoError(t, err)
		require.Equal(t, OutcomeFailed, result.Outcome)
		require.Error(t, result.Fault)
	}

	require.Equal(t, []sentLine{
		{Target: "#go", Text: GenericFaultNotice},
		{Target: "#go", Text: GenericFaultNotice},
		{Target: "#go", Text: CorruptDataNotice},
	}, replier.lines)
	require.Contains(t, logs.String(), "disk on fire")
	require.Contains(t, logs.String(), "category=corrupt")
}

func TestDispatchReportsNoticeFailure(t *testing.T) {
	dispatcher, reg, _ := newTestDispatcher(t, 0, nil)
	require.NoError(t, reg.Register(Entry{Name: "boom", Handler: HandlerFunc(func(context.Context, Replier, Request) error {
		return errors.New("boom")
	})}))

	writeErr := errors.New("broken pipe")
	_, err := dispatcher.Dispatch(context.Background(), &recordingReplier{err: writeErr}, Request{Target: "#go", Tokens: []string{"boom"}})
	require.ErrorIs(t, err, writeErr)
}

func TestDispatchOpensCircuitOnConsecutiveFaults(t *testing.T) {
	dispatcher, reg, _ := newTestDispatcher(t, 2, nil)
	require.NoError(t, reg.Register(Entry{Name: "boom", Handler: HandlerFunc(func(context.Context, Replier, Request) error {
		return errors.New("boom")
	})}))
	require.NoError(t, reg.Register(Entry{Name: "ok", Handler: HandlerFunc(func(context.Context, Replier, Request) error {
		return nil
	})}))

	ctx := context.Background()
	replier := &recordingReplier{}
	dispatch := func(name string) error {
		_, err := dispatcher.Dispatch(ctx, replier, Request{Target: "#go", Tokens: []string{name}})
		return err
	}

	require.NoError(t, dispatch("boom"))
	require.NoError(t, dispatch("ok"), "success resets the fault count")
	require.NoError(t, dispatch("boom"))
	require.ErrorIs(t, dispatch("boom"), ErrCircuitOpen)
	require.NoError(t, dispatch("boom"), "count starts over after the circuit opens")
}
