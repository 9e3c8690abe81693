package protocol

import "github.com/loganszeto/recordkv/internal/record"

type CmdType int

const (
	CmdGet CmdType = iota
	CmdSet
)

func (c CmdType) String() string {
	switch c {
	case CmdGet:
		return "get"
	case CmdSet:
		return "set"
	default:
		return "unknown"
	}
}

// Action is the parsed form of one command line.
type Action struct {
	Type  CmdType
	Key   string
	Value record.Record
}

func Get(key string) Action {
	return Action{Type: CmdGet, Key: key}
}

func Set(key string, value record.Record) Action {
	return Action{Type: CmdSet, Key: key, Value: value}
}
