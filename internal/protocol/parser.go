package protocol

import (
	"errors"
	"strings"

	"github.com/loganszeto/recordkv/internal/record"
)

var (
	// ErrEmpty is returned for a line with no words. Its message is empty
	// so that evaluating a blank line answers with an empty body.
	ErrEmpty          = errors.New("")
	ErrArity          = errors.New("wrong number of arguments")
	ErrInvalidCommand = errors.New("invalid command")
)

// ParseError carries the exact text sent back to the client. Kind is one of
// the sentinel errors above.
type ParseError struct {
	Kind error
	Msg  string
}

func (e *ParseError) Error() string { return e.Msg }
func (e *ParseError) Unwrap() error { return e.Kind }

const (
	usageGet = "expecting: get <key>"
	usageSet = "expecting: set <key> <value>"
)

// Parse turns lexed words into an Action. Only the command word is
// case-folded; keys and values are taken verbatim.
func Parse(tokens []string) (Action, error) {
	if len(tokens) == 0 {
		return Action{}, &ParseError{Kind: ErrEmpty}
	}
	name := strings.ToLower(tokens[0])
	switch name {
	case "get":
		if len(tokens) != 2 {
			return Action{}, &ParseError{Kind: ErrArity, Msg: usageGet}
		}
		return Get(tokens[1]), nil
	case "set":
		if len(tokens) != 3 {
			return Action{}, &ParseError{Kind: ErrArity, Msg: usageSet}
		}
		return Set(tokens[1], record.Str(tokens[2])), nil
	default:
		return Action{}, &ParseError{Kind: ErrInvalidCommand, Msg: "invalid command " + name}
	}
}
