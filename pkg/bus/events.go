package bus

import "time"

type EventType string

const (
	EventStateChanged    EventType = "state_changed"
	EventMessageReceived EventType = "message_received"
	EventMessageSent     EventType = "message_sent"
	EventMembership      EventType = "membership"
	EventCommandExecuted EventType = "command_executed"
	EventCommandFailed   EventType = "command_failed"
	EventCommandIgnored  EventType = "command_ignored"
)

// Event describes something observable that happened in a session.
type Event struct {
	Type      EventType `json:"type"`
	At        time.Time `json:"at"`
	SessionID string    `json:"session_id,omitempty"`
	State     string    `json:"state,omitempty"`
	User      string    `json:"user,omitempty"`
	Target    string    `json:"target,omitempty"`
	Text      string    `json:"text,omitempty"`
	Command   string    `json:"command,omitempty"`
	Error     string    `json:"error,omitempty"`
}
