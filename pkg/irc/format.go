package irc

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Terminator ends every outgoing protocol line.
const Terminator = "\r\n"

// MaxLineBytes is the protocol limit for one line including the terminator.
const MaxLineBytes = 512

var lineBreaks = strings.NewReplacer("\r", "", "\n", "")

// Nick announces the bot nickname during registration.
func Nick(nick string) string {
	return "NICK " + nick
}

// User registers the connection's user and real name.
func User(nick string) string {
	return fmt.Sprintf("USER %s 0 * :%s", nick, nick)
}

// Join requests membership of channel.
func Join(channel string) string {
	return "JOIN " + channel
}

// Pong answers a keepalive probe. The token is echoed verbatim.
func Pong(token string) string {
	return "PONG " + token
}

// Privmsg builds a chat line to target. Text is sanitized and cut so that the
// encoded line fits MaxLineBytes.
func Privmsg(target string, text string) string {
	head := "PRIVMSG " + target + " :"
	budget := MaxLineBytes - len(Terminator) - len(head)
	return head + truncateBytes(Sanitize(text), budget)
}

// Encode terminates line for the wire. Embedded CR and LF bytes are removed so
// a single call can never emit more than one protocol line.
func Encode(line string) []byte {
	return []byte(lineBreaks.Replace(line) + Terminator)
}

func truncateBytes(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(text) <= limit {
		return text
	}

	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}

	return text[:cut]
}
