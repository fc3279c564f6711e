package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ircbot/pkg/config"
)

func TestLoggerJSONEntryShape(t *testing.T) {
	unsetLoggingEnv(t)

	var out bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{Format: "json", Level: "info"}, &out)
	if err != nil {
		t.Fatalf("newWithWriter error: %v", err)
	}

	log.With("component", "session.engine").Info("Command executed", "command", "roll", "ok", true)

	line := strings.TrimSpace(out.String())
	if line == "" {
		t.Fatal("expected log output")
	}

	var entry LogEntry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("unmarshal log entry: %v", err)
	}

	if entry.Level != "info" {
		t.Fatalf("level = %q, want %q", entry.Level, "info")
	}
	if entry.Message != "Command executed" {
		t.Fatalf("message = %q, want %q", entry.Message, "Command executed")
	}
	if entry.Component != "session.engine" {
		t.Fatalf("component = %q, want %q", entry.Component, "session.engine")
	}
	if entry.Timestamp == "" {
		t.Fatal("expected timestamp")
	}
	if got := entry.Fields["command"]; got != "roll" {
		t.Fatalf("fields.command = %v, want %q", got, "roll")
	}
	if got := entry.Fields["ok"]; got != true {
		t.Fatalf("fields.ok = %v, want true", got)
	}
}

func TestLoggerLiftsSessionID(t *testing.T) {
	unsetLoggingEnv(t)

	var out bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{Format: "json"}, &out)
	if err != nil {
		t.Fatalf("newWithWriter error: %v", err)
	}

	log.With("session_id", "abc").Info("Joined channel", "channel", "#go", "error", errors.New("none"))

	var entry LogEntry
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &entry); err != nil {
		t.Fatalf("unmarshal log entry: %v", err)
	}
	if entry.Session != "abc" {
		t.Fatalf("session_id = %q, want %q", entry.Session, "abc")
	}
	if _, ok := entry.Fields["session_id"]; ok {
		t.Fatal("session_id should not be repeated in fields")
	}
	if got := entry.Fields["error"]; got != "none" {
		t.Fatalf("fields.error = %v, want %q", got, "none")
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	unsetLoggingEnv(t)

	var out bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{Format: "json", Level: "error"}, &out)
	if err != nil {
		t.Fatalf("newWithWriter error: %v", err)
	}

	log.Info("Ignored")
	if got := strings.TrimSpace(out.String()); got != "" {
		t.Fatalf("expected no output for info, got %q", got)
	}

	log.Error("Kept")
	if got := strings.TrimSpace(out.String()); got == "" {
		t.Fatal("expected output for error")
	}
}

func TestLoggerEnvironmentOverrides(t *testing.T) {
	t.Setenv("IRCBOT_LOG_LEVEL", "debug")
	t.Setenv("IRCBOT_LOG_FORMAT", "text")
	defer unsetLoggingEnv(t)

	var out bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{Format: "json", Level: "error"}, &out)
	if err != nil {
		t.Fatalf("newWithWriter error: %v", err)
	}

	log.Debug("Debug enabled", "component", "test")
	line := strings.TrimSpace(out.String())
	if line == "" {
		t.Fatal("expected debug output with env override")
	}
	if strings.HasPrefix(line, "{") {
		t.Fatalf("expected text format override, got %q", line)
	}
}

func TestLoggerDefaultsToTextFormat(t *testing.T) {
	unsetLoggingEnv(t)

	var out bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{}, &out)
	if err != nil {
		t.Fatalf("newWithWriter error: %v", err)
	}

	log.Info("Default format")
	line := strings.TrimSpace(out.String())
	if line == "" {
		t.Fatal("expected log output")
	}
	if strings.HasPrefix(line, "{") {
		t.Fatalf("expected text format by default, got %q", line)
	}
}

func TestLoggerWritesToFile(t *testing.T) {
	unsetLoggingEnv(t)

	path := filepath.Join(t.TempDir(), "bot.log")
	log, closeLog, err := New(config.LoggingConfig{Format: "json", Level: "debug", File: path})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	log.Debug("<recv> PING abc")
	if err := closeLog(); err != nil {
		t.Fatalf("close log file: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "<recv> PING abc") {
		t.Fatalf("log file = %q, want received line", content)
	}
}

func TestLoggerRejectsUnknownLevel(t *testing.T) {
	unsetLoggingEnv(t)

	if _, err := newWithWriter(config.LoggingConfig{Level: "chatty"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func unsetLoggingEnv(t *testing.T) {
	t.Helper()
	_ = os.Unsetenv("IRCBOT_LOG_LEVEL")
	_ = os.Unsetenv("IRCBOT_LOG_FORMAT")
	_ = os.Unsetenv("IRCBOT_LOG_ADD_SOURCE")
}

func TestFileOnlyLoggerRequiresPath(t *testing.T) {
	unsetLoggingEnv(t)

	if _, _, err := NewFileOnly(config.LoggingConfig{}); err == nil {
		t.Fatal("expected error without log file")
	}

	path := filepath.Join(t.TempDir(), "console.log")
	log, closeLog, err := NewFileOnly(config.LoggingConfig{Format: "text", File: path})
	if err != nil {
		t.Fatalf("NewFileOnly error: %v", err)
	}
	log.Info("Joined channel", "channel", "#go")
	if err := closeLog(); err != nil {
		t.Fatalf("close log file: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "Joined channel") {
		t.Fatalf("log file = %q, want entry", content)
	}
}
