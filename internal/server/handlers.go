package server

import (
	"errors"

	"github.com/loganszeto/recordkv/internal/protocol"
	"github.com/loganszeto/recordkv/internal/stats"
	"github.com/loganszeto/recordkv/internal/store"
)

const (
	ReplyOK             = "Ok"
	ReplyNotImplemented = "Not implemented"
)

func (s *Server) evaluate(line string) string {
	return Evaluate(s.st, s.stats, line)
}

// Evaluate runs one command line against st and returns the response body.
// Parse errors come back as their message; a blank line yields "".
func Evaluate(st store.Store, stats *stats.Stats, line string) string {
	act, err := protocol.Parse(protocol.Lex(line))
	if err != nil {
		if !errors.Is(err, protocol.ErrEmpty) {
			stats.RecordError()
		}
		return err.Error()
	}
	return Dispatch(st, stats, act)
}

// Dispatch executes a parsed action. A missing key and a key holding the
// empty string both answer "".
func Dispatch(st store.Store, stats *stats.Stats, act protocol.Action) string {
	switch act.Type {
	case protocol.CmdGet:
		rec, ok := st.Get(act.Key)
		stats.RecordGet(ok)
		if !ok {
			return ""
		}
		if s, isStr := rec.Text(); isStr {
			return s
		}
		return ReplyNotImplemented
	case protocol.CmdSet:
		st.Set(act.Key, act.Value)
		stats.RecordSet()
		return ReplyOK
	default:
		stats.RecordError()
		return "invalid command " + act.Type.String()
	}
}
