package irc

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// MaxReadLineBytes bounds one received line. Longer lines are cut, never fatal.
const MaxReadLineBytes = 8192

// LineReader splits a byte stream into protocol lines.
//
// Invalid UTF-8 sequences are dropped and blank lines are skipped. It is not
// safe for concurrent use; a session owns exactly one reader.
type LineReader struct {
	br *bufio.Reader
}

// NewLineReader wraps r in a buffered line reader.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{br: bufio.NewReaderSize(r, 4096)}
}

// ReadLine blocks until the next non-blank line arrives.
//
// A trailing partial line before end-of-stream is returned first; the
// following call reports the underlying error.
func (r *LineReader) ReadLine() (string, error) {
	for {
		raw, err := r.readRaw()
		line := strings.TrimSpace(strings.ToValidUTF8(raw, ""))
		if line != "" {
			return line, nil
		}
		if err != nil {
			return "", err
		}
	}
}

func (r *LineReader) readRaw() (string, error) {
	var buf []byte
	for {
		chunk, err := r.br.ReadSlice('\n')
		if room := MaxReadLineBytes - len(buf); room > 0 {
			if len(chunk) > room {
				chunk = chunk[:room]
			}
			buf = append(buf, chunk...)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}

		return string(buf), err
	}
}
