// Package record defines the value type stored under a key.
//
// A Record is either a string leaf or an ordered list of Records. Records are
// immutable values: constructors copy their inputs and accessors hand out
// copies, so a Record can be shared freely between goroutines.
package record

import (
	"encoding/binary"
	"io"
	"strconv"
	"strings"

	"github.com/spaolacci/murmur3"
)

type Kind uint8

const (
	KindStr Kind = iota
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindStr:
		return "str"
	case KindList:
		return "list"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Record is the zero-value-usable value type. The zero Record is Str("").
type Record struct {
	kind  Kind
	str   string
	items []Record
}

func Str(s string) Record {
	return Record{kind: KindStr, str: s}
}

// List builds a list Record. The items slice is copied.
func List(items ...Record) Record {
	out := make([]Record, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return Record{kind: KindList, items: out}
}

func (r Record) Kind() Kind   { return r.kind }
func (r Record) IsStr() bool  { return r.kind == KindStr }
func (r Record) IsList() bool { return r.kind == KindList }

// Text returns the leaf string. ok is false for lists.
func (r Record) Text() (string, bool) {
	if r.kind != KindStr {
		return "", false
	}
	return r.str, true
}

// Items returns a deep copy of the list elements, or nil for a leaf.
func (r Record) Items() []Record {
	if r.kind != KindList {
		return nil
	}
	out := make([]Record, len(r.items))
	for i, it := range r.items {
		out[i] = it.Clone()
	}
	return out
}

func (r Record) Len() int {
	return len(r.items)
}

// Clone returns a deep copy reproducing the full nested structure.
func (r Record) Clone() Record {
	if r.kind != KindList {
		return r
	}
	out := make([]Record, len(r.items))
	for i, it := range r.items {
		out[i] = it.Clone()
	}
	return Record{kind: KindList, items: out}
}

func (r Record) Equal(other Record) bool {
	if r.kind != other.kind {
		return false
	}
	if r.kind == KindStr {
		return r.str == other.str
	}
	if len(r.items) != len(other.items) {
		return false
	}
	for i := range r.items {
		if !r.items[i].Equal(other.items[i]) {
			return false
		}
	}
	return true
}

// Hash returns a structural 64-bit hash. Equal records hash equally.
func (r Record) Hash() uint64 {
	h := murmur3.New64()
	r.writeTo(h)
	return h.Sum64()
}

// writeTo emits a canonical encoding: kind tag, length, then content.
// The length prefix keeps ["ab"] and ["a","b"] apart.
func (r Record) writeTo(w io.Writer) {
	var hdr [9]byte
	hdr[0] = byte(r.kind)
	if r.kind == KindStr {
		binary.LittleEndian.PutUint64(hdr[1:], uint64(len(r.str)))
		w.Write(hdr[:])
		w.Write([]byte(r.str))
		return
	}
	binary.LittleEndian.PutUint64(hdr[1:], uint64(len(r.items)))
	w.Write(hdr[:])
	for _, it := range r.items {
		it.writeTo(w)
	}
}

func (r Record) String() string {
	var b strings.Builder
	r.format(&b)
	return b.String()
}

func (r Record) format(b *strings.Builder) {
	if r.kind == KindStr {
		b.WriteString(strconv.Quote(r.str))
		return
	}
	b.WriteByte('[')
	for i, it := range r.items {
		if i > 0 {
			b.WriteString(", ")
		}
		it.format(b)
	}
	b.WriteByte(']')
}
