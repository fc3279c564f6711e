package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ircbot/pkg/bus"
	"ircbot/pkg/chatlog"
	"ircbot/pkg/command"
	"ircbot/pkg/command/builtin"
	"ircbot/pkg/config"
	"ircbot/pkg/gateway"
	"ircbot/pkg/logger"
	"ircbot/pkg/notes"
	"ircbot/pkg/session"
	"ircbot/pkg/storage"
)

// app is everything a running bot shares across session restarts.
type app struct {
	cfg        *config.Config
	dataDir    string
	log        *slog.Logger
	bus        *bus.MessageBus
	dispatcher *command.Dispatcher
	chatLog    chatlog.Recorder
	supervisor *gateway.Supervisor
	dialer     session.Dialer

	closers []func() error
}

type appOptions struct {
	// consoleLog sends logs to a file so the terminal stays free for the TUI.
	consoleLog bool
	// dialer overrides the network dialer in tests.
	dialer session.Dialer
}

func loadConfig() (*config.Config, string, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}

	dataDir, err := storage.ResolveRoot(cfg.DataDir)
	if err != nil {
		return nil, "", fmt.Errorf("resolve data directory: %w", err)
	}

	return cfg, dataDir, nil
}

func newApp(opts appOptions) (_ *app, err error) {
	cfg, dataDir, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, dataDir: dataDir, dialer: opts.dialer}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if err := a.initLogger(opts.consoleLog); err != nil {
		return nil, err
	}

	store, err := notes.Open(cfg.Notes, dataDir)
	if err != nil {
		return nil, fmt.Errorf("open notes: %w", err)
	}
	a.closers = append(a.closers, store.Close)

	a.chatLog = chatlog.Nop{}
	if cfg.ChatLog.Enabled {
		path, err := storage.ResolveFile(dataDir, cfg.ChatLog.Path)
		if err != nil {
			return nil, fmt.Errorf("resolve chat log path: %w", err)
		}
		transcript, err := chatlog.Open(path)
		if err != nil {
			return nil, err
		}
		a.chatLog = transcript
		a.closers = append(a.closers, transcript.Close)
	}

	resources, err := builtin.LoadResources()
	if err != nil {
		return nil, fmt.Errorf("load command resources: %w", err)
	}

	registry := command.NewRegistry(cfg.CommandEnabled)
	if err := builtin.Register(builtin.Deps{
		Registry:  registry,
		Prefix:    cfg.Bot.CommandPrefix,
		Notes:     store,
		MaxNotes:  cfg.Notes.MaxNotes,
		MaxLength: cfg.Notes.MaxLength,
		Resources: resources,
	}); err != nil {
		return nil, fmt.Errorf("register commands: %w", err)
	}

	a.dispatcher = command.NewDispatcher(registry, cfg.Bot.MaxConsecutiveFaults, a.log)
	a.bus = bus.NewMessageBus()
	a.closers = append(a.closers, func() error {
		a.bus.Close()
		return nil
	})

	a.supervisor, err = gateway.NewSupervisor(a.newSession, cfg.Bot.MaxRestarts, a.log)
	if err != nil {
		return nil, err
	}

	return a, nil
}

func (a *app) initLogger(consoleLog bool) error {
	logCfg := a.cfg.Logging
	if consoleLog && logCfg.File == "" {
		logCfg.File = "console.log"
	}
	if logCfg.File != "" {
		path, err := storage.ResolveFile(a.dataDir, logCfg.File)
		if err != nil {
			return fmt.Errorf("resolve log file: %w", err)
		}
		logCfg.File = path
	}

	build := logger.New
	if consoleLog {
		build = logger.NewFileOnly
	}

	log, closeLog, err := build(logCfg)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	slog.SetDefault(log)

	a.log = log
	a.closers = append(a.closers, closeLog)
	return nil
}

func (a *app) newSession() (gateway.Session, error) {
	engine, err := session.New(session.Options{
		Config:     a.cfg,
		Dispatcher: a.dispatcher,
		ChatLog:    a.chatLog,
		Bus:        a.bus,
		Dialer:     a.dialer,
		Log:        a.log,
	})
	if err != nil {
		return nil, err
	}

	return engine, nil
}

// say forwards operator text to whichever session is running.
func (a *app) say(ctx context.Context, text string) error {
	type sayer interface {
		Say(ctx context.Context, text string) error
	}

	current, ok := a.supervisor.Current().(sayer)
	if !ok {
		return errors.New("no session is running")
	}

	return current.Say(ctx, text)
}

func (a *app) service() (*gateway.Service, error) {
	return gateway.NewService(a.cfg, a.supervisor, a.bus, a.log)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil

	return errors.Join(errs...)
}
