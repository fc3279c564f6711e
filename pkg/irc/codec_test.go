package irc

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestLineReaderSkipsBlankLinesAndDropsInvalidBytes(t *testing.T) {
	t.Parallel()

	input := "PING a\r\n\r\n   \r\n:x PRIVMSG #c :caf\xffe\r\npartial"
	reader := NewLineReader(strings.NewReader(input))

	want := []string{"PING a", ":x PRIVMSG #c :cafe", "partial"}
	for i, expected := range want {
		got, err := reader.ReadLine()
		if err != nil {
			t.Fatalf("ReadLine #%d error: %v", i, err)
		}
		if got != expected {
			t.Fatalf("ReadLine #%d = %q, want %q", i, got, expected)
		}
	}

	if _, err := reader.ReadLine(); !errors.Is(err, io.EOF) {
		t.Fatalf("final ReadLine error = %v, want EOF", err)
	}
}

func TestLineReaderBoundsLongLines(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", MaxReadLineBytes*2)
	reader := NewLineReader(strings.NewReader(long + "\nPING b\n"))

	got, err := reader.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine error: %v", err)
	}
	if len(got) != MaxReadLineBytes {
		t.Fatalf("len(line) = %d, want %d", len(got), MaxReadLineBytes)
	}

	next, err := reader.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine error: %v", err)
	}
	if next != "PING b" {
		t.Fatalf("next line = %q, want %q", next, "PING b")
	}
}

func TestOutboundLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		got  string
		want string
	}{
		{got: Nick("bot"), want: "NICK bot"},
		{got: User("bot"), want: "USER bot 0 * :bot"},
		{got: Join("#chan"), want: "JOIN #chan"},
		{got: Pong("abc123"), want: "PONG abc123"},
		{got: Privmsg("#chan", "alice rolled 7"), want: "PRIVMSG #chan :alice rolled 7"},
		{got: Privmsg("alice", "bell\x07 rings\r\n"), want: "PRIVMSG alice :bell rings"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Fatalf("line = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestPrivmsgFitsLineLimit(t *testing.T) {
	t.Parallel()

	line := Privmsg("#chan", strings.Repeat("é", MaxLineBytes))
	if encoded := Encode(line); len(encoded) > MaxLineBytes {
		t.Fatalf("encoded length = %d, want <= %d", len(encoded), MaxLineBytes)
	}
	if !strings.HasPrefix(line, "PRIVMSG #chan :é") {
		t.Fatalf("unexpected line prefix: %q", line[:20])
	}
}

func TestEncodeTerminatesAndStripsLineBreaks(t *testing.T) {
	t.Parallel()

	got := string(Encode("PONG a\r\nQUIT"))
	if got != "PONG aQUIT\r\n" {
		t.Fatalf("Encode = %q, want %q", got, "PONG aQUIT\r\n")
	}
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	if got := Sanitize("hello\x07world!"); got != "helloworld!" {
		t.Fatalf("Sanitize = %q, want %q", got, "helloworld!")
	}

	clean := "alice's note (#2): ok, [done]?"
	if got := Sanitize(clean); got != clean {
		t.Fatalf("Sanitize(clean) = %q, want fixed point", got)
	}
	if got := Sanitize(Sanitize("  tab\there ~`$ ")); got != "tabhere" {
		t.Fatalf("Sanitize twice = %q, want %q", got, "tabhere")
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	if got := Truncate("héllo", 2); got != "hé" {
		t.Fatalf("Truncate = %q, want %q", got, "hé")
	}
	if got := Truncate("hi", 10); got != "hi" {
		t.Fatalf("Truncate = %q, want %q", got, "hi")
	}
}
