package irc

import (
	"strings"
)

const (
	verbPing    = "PING"
	verbWelcome = "001"
	verbJoin    = "JOIN"
	verbPart    = "PART"
	verbQuit    = "QUIT"
	verbPrivmsg = "PRIVMSG"

	textSeparator = " :"
	channelSigil  = "#"
)

// EventKind classifies one received protocol line.
type EventKind int

const (
	KindUnrecognized EventKind = iota
	KindKeepalivePing
	KindWelcomeAck
	KindMembershipChange
	KindChatMessage
)

func (k EventKind) String() string {
	switch k {
	case KindKeepalivePing:
		return "keepalive_ping"
	case KindWelcomeAck:
		return "welcome_ack"
	case KindMembershipChange:
		return "membership_change"
	case KindChatMessage:
		return "chat_message"
	default:
		return "unrecognized"
	}
}

// Event is the typed form of one received line. It is built fresh per line
// and never mutated afterwards.
type Event struct {
	Kind EventKind
	Raw  string

	// Verb is the protocol verb for membership and chat events (JOIN, PRIVMSG, ...).
	Verb string
	// Sender is the nickname from the line prefix, or the prefix itself when it
	// carries no identity delimiter.
	Sender string
	// Destination is a channel name or, for private messages, the bot's nickname.
	Destination string
	// Text is the trimmed free-text payload of a chat message.
	Text string
	// Payload is the keepalive token to echo back.
	Payload string
}

// ClassifyOptions carries the session facts classification depends on.
type ClassifyOptions struct {
	Established bool
	Channel     string
}

// Classify turns one line into an Event using fixed token positions.
//
// Lines with fewer than two whitespace-separated words are Unrecognized.
func Classify(line string, opts ClassifyOptions) Event {
	words := strings.Fields(line)
	if len(words) < 2 {
		return Event{Kind: KindUnrecognized, Raw: line}
	}

	if words[0] == verbPing {
		return Event{Kind: KindKeepalivePing, Raw: line, Verb: verbPing, Payload: words[1]}
	}

	verb := words[1]
	sender := ParseSender(words[0])

	switch {
	case verb == verbWelcome && !opts.Established:
		return Event{Kind: KindWelcomeAck, Raw: line, Verb: verb, Sender: sender}
	case isMembershipVerb(verb):
		destination := opts.Channel
		if len(words) > 2 {
			destination = strings.TrimPrefix(words[2], ":")
		}
		return Event{Kind: KindMembershipChange, Raw: line, Verb: verb, Sender: sender, Destination: destination}
	case verb == verbPrivmsg && len(words) > 2:
		_, text, found := strings.Cut(line, textSeparator)
		if !found {
			break
		}
		return Event{
			Kind:        KindChatMessage,
			Raw:         line,
			Verb:        verb,
			Sender:      sender,
			Destination: words[2],
			Text:        strings.TrimSpace(text),
		}
	}

	return Event{Kind: KindUnrecognized, Raw: line, Verb: verb, Sender: sender}
}

// ParseSender extracts the nickname from a line prefix such as ":nick!user@host".
func ParseSender(prefix string) string {
	trimmed := strings.TrimPrefix(prefix, ":")
	if nick, _, found := strings.Cut(trimmed, "!"); found {
		return nick
	}

	return trimmed
}

// IsPrivate reports whether a chat message was addressed to nick directly.
func (e Event) IsPrivate(nick string) bool {
	return e.Kind == KindChatMessage && strings.EqualFold(e.Destination, nick)
}

// ReplyTarget returns where replies to this event go: the sender for private
// messages, the originating channel otherwise.
func (e Event) ReplyTarget(nick string) string {
	if e.IsPrivate(nick) {
		return e.Sender
	}

	return e.Destination
}

// IsChannel reports whether target names a channel.
func IsChannel(target string) bool {
	return strings.HasPrefix(target, channelSigil)
}

// NormalizeChannel adds the channel sigil when missing.
func NormalizeChannel(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || IsChannel(name) {
		return name
	}

	return channelSigil + name
}

func isMembershipVerb(verb string) bool {
	switch verb {
	case verbJoin, verbPart, verbQuit:
		return true
	default:
		return false
	}
}
