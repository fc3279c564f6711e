package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"ircbot/pkg/irc"
)

const (
	envConfigPath = "IRCBOT_CONFIG"
	envServer     = "IRCBOT_SERVER"
	envPort       = "IRCBOT_PORT"
	envNickname   = "IRCBOT_NICKNAME"
	envChannel    = "IRCBOT_CHANNEL"
)

const (
	DefaultPort          = 6667
	DefaultTLSPort       = 6697
	DefaultCommandPrefix = "!"
	DefaultMaxNotes      = 100
	DefaultMaxNoteLength = 200
	DefaultDialTimeout   = 15

	NotesBackendJSON   = "json"
	NotesBackendSQLite = "sqlite"
)

// Config is the root runtime configuration loaded from config.json.
//
// It is read once at startup and treated as immutable afterwards.
type Config struct {
	IRC      IRCConfig       `json:"irc"`
	Bot      BotConfig       `json:"bot"`
	Commands map[string]bool `json:"commands,omitempty"`
	Notes    NotesConfig     `json:"notes"`
	ChatLog  ChatLogConfig   `json:"chat_log"`
	DataDir  string          `json:"data_dir,omitempty"`
	Logging  LoggingConfig   `json:"logging,omitempty"`
	Gateway  GatewayConfig   `json:"gateway"`
}

// IRCConfig describes the server connection and the bot identity.
type IRCConfig struct {
	Server             string `json:"server"`
	Port               int    `json:"port"`
	Nickname           string `json:"nickname"`
	Channel            string `json:"channel"`
	UseTLS             bool   `json:"use_tls"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify,omitempty"`
	DialTimeoutSeconds int    `json:"dial_timeout_seconds,omitempty"`
}

// BotConfig controls command handling behavior.
type BotConfig struct {
	CommandPrefix string `json:"command_prefix"`
	AllowPrivate  bool   `json:"allow_private"`
	// MaxConsecutiveFaults stops the session after that many handler faults in
	// a row. Zero disables the breaker.
	MaxConsecutiveFaults int `json:"max_consecutive_faults,omitempty"`
	// MaxRestarts bounds how often the supervisor restarts a session stopped by
	// the fault breaker.
	MaxRestarts int `json:"max_restarts,omitempty"`
}

// NotesConfig configures note persistence.
type NotesConfig struct {
	Backend   string `json:"backend,omitempty"`
	Path      string `json:"path,omitempty"`
	MaxNotes  int    `json:"max_notes,omitempty"`
	MaxLength int    `json:"max_note_length,omitempty"`
}

// ChatLogConfig configures the plain-text chat transcript.
type ChatLogConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty"`
	Level     string `json:"level,omitempty"`
	AddSource bool   `json:"add_source,omitempty"`
	File      string `json:"file,omitempty"`
}

// GatewayConfig configures the optional HTTP status server.
type GatewayConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

// LoadConfig resolves the config file, unmarshals it, applies environment
// overrides and defaults, and validates the result.
//
// An explicit path wins over IRCBOT_CONFIG and the cwd-local fallbacks.
func LoadConfig(explicitPath string) (*Config, error) {
	configPath, err := findConfigPath(explicitPath)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg, err := Parse(content)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse decodes raw JSON config content and prepares it for use.
func Parse(content []byte) (*Config, error) {
	cfg := Config{
		ChatLog: ChatLogConfig{Enabled: true},
	}
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills zero-valued settings with their defaults.
func (c *Config) ApplyDefaults() {
	c.IRC.Server = strings.TrimSpace(c.IRC.Server)
	c.IRC.Nickname = strings.TrimSpace(c.IRC.Nickname)
	c.IRC.Channel = irc.NormalizeChannel(c.IRC.Channel)

	if c.IRC.Port == 0 {
		c.IRC.Port = DefaultPort
		if c.IRC.UseTLS {
			c.IRC.Port = DefaultTLSPort
		}
	}
	if c.IRC.DialTimeoutSeconds <= 0 {
		c.IRC.DialTimeoutSeconds = DefaultDialTimeout
	}
	if c.Bot.CommandPrefix == "" {
		c.Bot.CommandPrefix = DefaultCommandPrefix
	}

	c.Notes.Backend = strings.ToLower(strings.TrimSpace(c.Notes.Backend))
	if c.Notes.Backend == "" {
		c.Notes.Backend = NotesBackendJSON
	}
	if strings.TrimSpace(c.Notes.Path) == "" {
		c.Notes.Path = "notes.json"
		if c.Notes.Backend == NotesBackendSQLite {
			c.Notes.Path = "notes.db"
		}
	}
	if c.Notes.MaxNotes <= 0 {
		c.Notes.MaxNotes = DefaultMaxNotes
	}
	if c.Notes.MaxLength <= 0 {
		c.Notes.MaxLength = DefaultMaxNoteLength
	}
	if strings.TrimSpace(c.ChatLog.Path) == "" {
		c.ChatLog.Path = "chat.log"
	}
}

// Validate reports every setting that makes a session impossible.
func (c *Config) Validate() error {
	var problems []error

	if c.IRC.Server == "" {
		problems = append(problems, errors.New("irc.server is required"))
	}
	if c.IRC.Port < 1 || c.IRC.Port > 65535 {
		problems = append(problems, fmt.Errorf("irc.port %d is out of range", c.IRC.Port))
	}
	if c.IRC.Nickname == "" {
		problems = append(problems, errors.New("irc.nickname is required"))
	} else if strings.ContainsFunc(c.IRC.Nickname, unicode.IsSpace) {
		problems = append(problems, errors.New("irc.nickname must not contain whitespace"))
	}
	if c.IRC.Channel == "" {
		problems = append(problems, errors.New("irc.channel is required"))
	}
	if c.Bot.CommandPrefix == "" || strings.ContainsFunc(c.Bot.CommandPrefix, unicode.IsSpace) {
		problems = append(problems, errors.New("bot.command_prefix must be non-empty and contain no whitespace"))
	}
	if c.Bot.MaxConsecutiveFaults < 0 || c.Bot.MaxRestarts < 0 {
		problems = append(problems, errors.New("bot fault limits must not be negative"))
	}
	switch c.Notes.Backend {
	case NotesBackendJSON, NotesBackendSQLite:
	default:
		problems = append(problems, fmt.Errorf("notes.backend %q is not supported", c.Notes.Backend))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(problems...))
	}

	return nil
}

// CommandEnabled reports whether a command may run. Commands absent from the
// commands map are enabled.
func (c *Config) CommandEnabled(name string) bool {
	if c == nil || c.Commands == nil {
		return true
	}

	enabled, ok := c.Commands[name]
	if !ok {
		return true
	}

	return enabled
}

// applyEnvOverrides injects selected env-driven settings on top of file config.
func applyEnvOverrides(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	if value := strings.TrimSpace(os.Getenv(envServer)); value != "" {
		cfg.IRC.Server = value
	}
	if value := strings.TrimSpace(os.Getenv(envNickname)); value != "" {
		cfg.IRC.Nickname = value
	}
	if value := strings.TrimSpace(os.Getenv(envChannel)); value != "" {
		cfg.IRC.Channel = value
	}
	if value := strings.TrimSpace(os.Getenv(envPort)); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parse %s: %w", envPort, err)
		}
		cfg.IRC.Port = port
	}

	return nil
}

// findConfigPath resolves the active config file location.
//
// Precedence is the explicit path, then IRCBOT_CONFIG, then cwd-local fallback paths.
func findConfigPath(explicitPath string) (string, error) {
	if value := strings.TrimSpace(explicitPath); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("config path does not point to a file: %s", value)
	}

	if value := strings.TrimSpace(os.Getenv(envConfigPath)); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("%s does not point to a file: %s", envConfigPath, value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "config.json"),
		filepath.Join(cwd, "config", "config.json"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("config.json not found (checked %s and %s)", candidates[0], candidates[1])
}
