package core

import "github.com/vovakirdan/linechat-server/internal/proto"

// ActionKind describes what the Hub must do with a client line.
type ActionKind int

const (
	// ActionNone ignores the line.
	ActionNone ActionKind = iota
	// ActionReply sends Arg back to the client only.
	ActionReply
	// ActionRegister attempts registration under the name in Arg.
	ActionRegister
	// ActionChat broadcasts Arg as a chat message.
	ActionChat
	// ActionQuit runs the disconnect path.
	ActionQuit
)

// Action is the outcome of interpreting one line.
type Action struct {
	Kind ActionKind
	Arg  string
}

// Interpret maps a framed line and the client's state to an action.
// It has no side effects; name validation happens in the Hub, which owns the registry.
func Interpret(state State, line string) Action {
	cmd := proto.Parse(line)

	if state == StateUnregistered {
		if cmd.Verb == proto.VerbHello {
			return Action{Kind: ActionRegister, Arg: cmd.Arg}
		}
		return Action{Kind: ActionReply, Arg: proto.ErrExpectedHello}
	}

	switch cmd.Verb {
	case proto.VerbSend:
		if cmd.Arg == "" {
			return Action{Kind: ActionNone}
		}
		return Action{Kind: ActionChat, Arg: cmd.Arg}
	case proto.VerbQuit:
		return Action{Kind: ActionQuit}
	default:
		return Action{Kind: ActionReply, Arg: proto.ErrUnknown}
	}
}
