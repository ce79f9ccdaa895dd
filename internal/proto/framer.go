package proto

import (
	"bytes"
	"errors"
)

// ErrLineTooLong is returned when an unterminated line outgrows the framer limit.
var ErrLineTooLong = errors.New("line too long")

// Framer splits a byte stream into protocol lines. A trailing partial line is
// kept until a later Append completes it.
type Framer struct {
	buf []byte
	max int
}

// NewFramer builds a framer that tolerates up to max pending bytes without a
// terminator. max <= 0 disables the limit.
func NewFramer(max int) *Framer {
	return &Framer{max: max}
}

// Append adds freshly read bytes to the pending buffer.
func (f *Framer) Append(p []byte) {
	f.buf = append(f.buf, p...)
}

// Next extracts the first complete line, stripping "\n" and one preceding "\r".
// It reports false when no terminator is buffered.
func (f *Framer) Next() (string, bool) {
	i := bytes.IndexByte(f.buf, '\n')
	if i < 0 {
		return "", false
	}
	line := f.buf[:i]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	out := string(line)

	rest := copy(f.buf, f.buf[i+1:])
	f.buf = f.buf[:rest]
	return out, true
}

// Pending returns the number of buffered bytes that do not form a full line yet.
func (f *Framer) Pending() int {
	return len(f.buf)
}

// Check reports ErrLineTooLong once the partial line exceeds the limit.
// Call it after draining Next so complete lines never count against the limit.
func (f *Framer) Check() error {
	if f.max > 0 && len(f.buf) > f.max {
		return ErrLineTooLong
	}
	return nil
}
