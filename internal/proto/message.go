package proto

import "strings"

// Terminator ends every line the server writes. Inbound lines may use "\n" or "\r\n".
const Terminator = "\r\n"

// Command keywords, matched case-sensitively at the start of a line.
const (
	KeywordHello = "HELLO"
	KeywordSend  = "SEND"
	KeywordQuit  = "QUIT"
)

// Fixed replies sent to a single client.
const (
	// Welcome acknowledges a successful HELLO.
	Welcome = "WELCOME"
	// ErrBadOrUsedName rejects an empty, overlong or taken name.
	ErrBadOrUsedName = "ERR bad_or_used_name"
	// ErrExpectedHello answers any line other than HELLO before registration.
	ErrExpectedHello = "ERR expected_HELLO"
	// ErrUnknown answers an unrecognised line after registration.
	ErrUnknown = "ERR unknown"
)

// Verb identifies a client command.
type Verb int

const (
	// VerbUnknown is any line that matches no command.
	VerbUnknown Verb = iota
	// VerbHello requests registration under a display name.
	VerbHello
	// VerbSend publishes chat text.
	VerbSend
	// VerbQuit ends the session.
	VerbQuit
)

func (v Verb) String() string {
	switch v {
	case VerbHello:
		return KeywordHello
	case VerbSend:
		return KeywordSend
	case VerbQuit:
		return KeywordQuit
	default:
		return "UNKNOWN"
	}
}

// Command is a parsed client line.
type Command struct {
	Verb Verb
	Arg  string
}

// Parse maps a framed line onto a command. Keywords are case-sensitive and the
// argument is the rest of the line after a single space, kept verbatim.
// HELLO needs its trailing space; any line starting with QUIT quits.
func Parse(line string) Command {
	switch {
	case strings.HasPrefix(line, KeywordQuit):
		return Command{Verb: VerbQuit}
	case line == KeywordSend:
		return Command{Verb: VerbSend}
	}

	if arg, ok := strings.CutPrefix(line, KeywordHello+" "); ok {
		return Command{Verb: VerbHello, Arg: arg}
	}
	if arg, ok := strings.CutPrefix(line, KeywordSend+" "); ok {
		return Command{Verb: VerbSend, Arg: arg}
	}
	return Command{Verb: VerbUnknown, Arg: line}
}

// Msg renders a chat message as seen by every registered peer.
func Msg(name, text string) string {
	return "MSG " + name + " " + text
}

// Joined renders the arrival notice for name.
func Joined(name string) string {
	return "INFO " + name + " joined"
}

// Left renders the departure notice for name.
func Left(name string) string {
	return "INFO " + name + " left"
}

// Frame appends the wire terminator to line.
func Frame(line string) []byte {
	b := make([]byte, 0, len(line)+len(Terminator))
	b = append(b, line...)
	return append(b, Terminator...)
}
