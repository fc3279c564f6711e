// Package session drives one IRC connection: registration, keepalive, channel
// join and command dispatch on a single read loop.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"ircbot/pkg/bus"
	"ircbot/pkg/chatlog"
	"ircbot/pkg/command"
	"ircbot/pkg/config"
	"ircbot/pkg/irc"
)

const (
	writeTimeout       = 30 * time.Second
	messagePreviewSize = 240
	invalidSenderRunes = "!@ :"
)

var (
	// ErrConnect wraps dial failures. The session never started.
	ErrConnect = errors.New("connect to server")
	// ErrConnectionClosed reports that the server ended the stream.
	ErrConnectionClosed = errors.New("connection closed by server")

	errNotJoined = errors.New("session has not joined a channel")
)

// Options wires an Engine to its collaborators.
type Options struct {
	Config     *config.Config
	Dispatcher *command.Dispatcher
	// ChatLog receives the transcript. Nil disables it.
	ChatLog chatlog.Recorder
	// Bus is optional; events are dropped when nil.
	Bus *bus.MessageBus
	// Dialer defaults to NewDialer(Config.IRC).
	Dialer Dialer
	Log    *slog.Logger
}

// Engine owns one connection from dial to termination. It runs once; build a
// new Engine to reconnect.
type Engine struct {
	cfg        *config.Config
	dispatcher *command.Dispatcher
	chatLog    chatlog.Recorder
	bus        *bus.MessageBus
	dialer     Dialer
	log        *slog.Logger
	id         string

	state   atomic.Int32
	started atomic.Bool

	// established is owned by the read loop.
	established bool

	writeMu sync.Mutex
	conn    net.Conn
}

func New(opts Options) (*Engine, error) {
	if opts.Config == nil {
		return nil, errors.New("session config is required")
	}
	if opts.Dispatcher == nil {
		return nil, errors.New("session dispatcher is required")
	}

	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	recorder := opts.ChatLog
	if recorder == nil {
		recorder = chatlog.Nop{}
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = NewDialer(opts.Config.IRC)
	}

	id := uuid.NewString()
	return &Engine{
		cfg:        opts.Config,
		dispatcher: opts.Dispatcher,
		chatLog:    recorder,
		bus:        opts.Bus,
		dialer:     dialer,
		log:        log.With("component", "session.engine", "session_id", id),
		id:         id,
	}, nil
}

// ID identifies this run in logs and bus events.
func (e *Engine) ID() string {
	return e.id
}

func (e *Engine) State() State {
	return State(e.state.Load())
}

// Run connects, registers and processes server lines until the stream ends,
// a fault is fatal, or ctx is canceled. Cancellation returns nil.
func (e *Engine) Run(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return errors.New("session already started")
	}

	address := Address(e.cfg.IRC)
	e.setState(ctx, StateConnecting)
	e.log.Info("Connecting", "address", address, "tls", e.cfg.IRC.UseTLS)

	conn, err := e.dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		e.setState(ctx, StateTerminated)
		return fmt.Errorf("%w %s: %w", ErrConnect, address, err)
	}

	e.writeMu.Lock()
	e.conn = conn
	e.writeMu.Unlock()

	// Closing the transport is what unblocks a pending read on cancel.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer func() {
		_ = conn.Close()
		e.setState(ctx, StateTerminated)
	}()

	e.setState(ctx, StateHandshaking)
	nick := e.cfg.IRC.Nickname
	for _, line := range []string{irc.Nick(nick), irc.User(nick)} {
		if err := e.send(line, slog.LevelInfo); err != nil {
			return e.loopError(ctx, err)
		}
	}

	reader := irc.NewLineReader(conn)
	for {
		line, err := reader.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && ctx.Err() == nil {
				e.log.Warn("Server closed the connection")
				return ErrConnectionClosed
			}
			return e.loopError(ctx, fmt.Errorf("read from server: %w", err))
		}

		if err := e.handleLine(ctx, line); err != nil {
			return e.loopError(ctx, err)
		}
	}
}

// loopError maps failures caused by our own cancellation to a clean exit.
func (e *Engine) loopError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		e.log.Info("Session stopped")
		return nil
	}
	return err
}

func (e *Engine) handleLine(ctx context.Context, line string) error {
	e.log.Debug("<recv>", "line", line)

	event := irc.Classify(line, irc.ClassifyOptions{
		Established: e.established,
		Channel:     e.cfg.IRC.Channel,
	})

	switch event.Kind {
	case irc.KindKeepalivePing:
		return e.send(irc.Pong(event.Payload), slog.LevelDebug)
	case irc.KindWelcomeAck:
		if err := e.send(irc.Join(e.cfg.IRC.Channel), slog.LevelInfo); err != nil {
			return err
		}
		e.established = true
		e.setState(ctx, StateJoined)
		e.log.Info("Joined channel", "channel", e.cfg.IRC.Channel)
	case irc.KindMembershipChange:
		label := strings.ToLower(event.Verb)
		e.recordChat(event.Sender, event.Destination, label)
		e.publish(ctx, bus.Event{Type: bus.EventMembership, User: event.Sender, Target: event.Destination, Text: label})
	case irc.KindChatMessage:
		return e.handleChat(ctx, event)
	}

	return nil
}

func (e *Engine) handleChat(ctx context.Context, event irc.Event) error {
	nick := e.cfg.IRC.Nickname
	private := event.IsPrivate(nick)

	if !private && !irc.IsChannel(event.Destination) {
		e.log.Debug("Ignoring message with unexpected destination", "destination", event.Destination)
		return nil
	}
	if private {
		if !e.cfg.Bot.AllowPrivate {
			e.log.Debug("Ignoring private message", "sender", event.Sender)
			return nil
		}
		if event.Sender == "" || strings.ContainsAny(event.Sender, invalidSenderRunes) {
			e.log.Debug("Ignoring private message from invalid sender", "sender", event.Sender)
			return nil
		}
	}
	if event.Text == "" {
		return nil
	}

	e.recordChat(event.Sender, event.Destination, event.Text)
	e.publish(ctx, bus.Event{Type: bus.EventMessageReceived, User: event.Sender, Target: event.Destination, Text: event.Text})

	invocation, ok := command.Parse(event.Text, e.cfg.Bot.CommandPrefix)
	if !ok {
		return nil
	}

	req := command.Request{
		User:    event.Sender,
		Target:  event.ReplyTarget(nick),
		Private: private,
		Tokens:  invocation.Tokens(),
	}
	result, err := e.dispatcher.Dispatch(ctx, e, req)
	e.publishResult(ctx, req, result)

	return err
}

func (e *Engine) publishResult(ctx context.Context, req command.Request, result command.Result) {
	event := bus.Event{User: req.User, Target: req.Target, Command: result.Command}

	switch result.Outcome {
	case command.OutcomeExecuted:
		event.Type = bus.EventCommandExecuted
	case command.OutcomeFailed:
		event.Type = bus.EventCommandFailed
		if result.Fault != nil {
			event.Error = result.Fault.Error()
		}
	default:
		event.Type = bus.EventCommandIgnored
		event.Text = result.Outcome.String()
	}

	e.publish(ctx, event)
}

// Reply sends a sanitized chat line to target and records it in the
// transcript. It implements command.Replier.
func (e *Engine) Reply(ctx context.Context, target string, text string) error {
	if err := e.send(irc.Privmsg(target, text), slog.LevelInfo); err != nil {
		return err
	}

	e.recordChat(e.cfg.IRC.Nickname, target, text)
	e.publish(ctx, bus.Event{Type: bus.EventMessageSent, User: e.cfg.IRC.Nickname, Target: target, Text: irc.Sanitize(text)})
	return nil
}

// Say sends text to the configured channel. It fails until the session has
// joined.
func (e *Engine) Say(ctx context.Context, text string) error {
	if e.State() != StateJoined {
		return errNotJoined
	}
	return e.Reply(ctx, e.cfg.IRC.Channel, text)
}

func (e *Engine) send(line string, level slog.Level) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	if e.conn == nil {
		return errors.New("session is not connected")
	}

	if err := e.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if _, err := e.conn.Write(irc.Encode(line)); err != nil {
		return fmt.Errorf("write to server: %w", err)
	}

	e.log.Log(context.Background(), level, "<send>", "line", previewText(line))
	return nil
}

func (e *Engine) recordChat(user string, destination string, text string) {
	if err := e.chatLog.Log(user, destination, text); err != nil {
		e.log.Warn("Failed to write chat log", "error", err)
	}
}

func (e *Engine) setState(ctx context.Context, state State) {
	previous := State(e.state.Swap(int32(state)))
	if previous == state {
		return
	}

	e.log.Debug("Session state changed", "from", previous.String(), "to", state.String())
	e.publish(ctx, bus.Event{Type: bus.EventStateChanged, State: state.String()})
}

// publish outlives ctx so the final terminated event still reaches observers.
func (e *Engine) publish(ctx context.Context, event bus.Event) {
	event.SessionID = e.id
	e.bus.PublishEvent(context.WithoutCancel(ctx), event)
}

// previewText bounds what one log line carries.
func previewText(text string) string {
	if len(text) <= messagePreviewSize {
		return text
	}
	return text[:messagePreviewSize] + "..."
}
