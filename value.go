package aisl

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

// Value is a runtime value.  Type returns the name `type_of` reports:
// one of the primitive type names, or "unknown" for resource carriers.
type Value interface {
	Type() string
}

type Int int64

type Float float64

// Decimal is an arbitrary-precision decimal in normalized string form:
// optional sign, integer digits without surplus leading zeros, optional
// fraction without trailing zeros.  `0` and `-0` are the same value.
type Decimal string

type Str string

type Bool bool

type Unit struct{}

func (Int) Type() string     { return "int" }
func (Float) Type() string   { return "float" }
func (Decimal) Type() string { return "decimal" }
func (Str) Type() string     { return "string" }
func (Bool) Type() string    { return "bool" }
func (Unit) Type() string    { return "unit" }

// Array is a reference-shared mutable vector.  All holders of the same
// *Array see each other's mutations; element order is semantic.
type Array struct {
	Elems []Value
}

func NewArray(elems ...Value) *Array {
	return &Array{Elems: elems}
}

func (*Array) Type() string { return "array" }

// Map is a reference-shared mutable string-keyed table that preserves
// insertion order.  The key list and the entry table are kept in sync:
// every key in one is present in the other.
type Map struct {
	keys    []string
	entries map[string]Value
}

func NewMap() *Map {
	return &Map{entries: map[string]Value{}}
}

func (*Map) Type() string { return "map" }

func (m *Map) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order.  The slice is a copy.
func (m *Map) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

func (m *Map) Has(key string) bool {
	_, ok := m.entries[key]
	return ok
}

func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.entries[key]
	return v, ok
}

// Set inserts or overwrites.  Overwriting keeps the key's original
// position in the insertion order.
func (m *Map) Set(key string, v Value) {
	if _, ok := m.entries[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.entries[key] = v
}

func (m *Map) Delete(key string) {
	if _, ok := m.entries[key]; !ok {
		return
	}
	delete(m.entries, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

func (*Function) Type() string { return "unknown" }

// Socket is a TCP endpoint: either a listening socket or a connected
// stream, possibly wrapped in TLS.  Close is idempotent.
type Socket struct {
	Listener net.Listener
	Conn     net.Conn
	closed   bool
}

func (*Socket) Type() string { return "unknown" }

func (s *Socket) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if s.Conn != nil {
		s.Conn.Close()
	}
	if s.Listener != nil {
		s.Listener.Close()
	}
}

// WsSocket is a WebSocket transport over an established connection
// (plain TCP or TLS — both are a net.Conn after the handshake).
type WsSocket struct {
	Conn   net.Conn
	closed bool
}

func (*WsSocket) Type() string { return "unknown" }

func (s *WsSocket) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.Conn.Close()
}

// Channel is a pipe pair, optionally wired to a subprocess: Read is
// the receiving end (the child's stdout when spawned), Write the
// sending end (the child's stdin).
type Channel struct {
	Read   *os.File
	Write  *os.File
	Proc   *os.Process
	closed bool
}

func (*Channel) Type() string { return "unknown" }

func (c *Channel) Close() {
	if c.closed {
		return
	}
	c.closed = true
	if c.Write != nil {
		c.Write.Close()
	}
	if c.Read != nil {
		c.Read.Close()
	}
}

// Process is a spawned subprocess without pipes.
type Process struct {
	Proc *os.Process
}

func (*Process) Type() string { return "unknown" }

// typeMatches reports whether a runtime value satisfies a declared
// type annotation.  `json` matches anything, `regex` is carried as a
// pattern string, and `channel` shares the socket carrier.
func typeMatches(declared string, v Value) bool {
	switch declared {
	case "json":
		return true
	case "regex":
		_, ok := v.(Str)
		return ok
	case "process":
		switch v.(type) {
		case *Process, *Channel:
			return true
		}
		return false
	case "socket", "channel":
		switch v.(type) {
		case *Socket, *WsSocket, *Channel:
			return true
		}
		return false
	case "function":
		_, ok := v.(*Function)
		return ok
	}
	return v.Type() == declared
}

// valuesEqual is the structural equality behind `eq`, `array_contains`
// and the test runner.  Arrays compare element-wise in order; maps
// compare key sets and the values under them, ignoring insertion
// order.  Values of different kinds are never equal.
func valuesEqual(a, b Value) bool {
	switch av := a.(type) {
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Float:
		bv, ok := b.(Float)
		return ok && av == bv
	case Decimal:
		bv, ok := b.(Decimal)
		return ok && decimalCompare(string(av), string(bv)) == 0
	case Str:
		bv, ok := b.(Str)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Unit:
		_, ok := b.(Unit)
		return ok
	case *Array:
		bv, ok := b.(*Array)
		if !ok || len(av.Elems) != len(bv.Elems) {
			return false
		}
		for i, e := range av.Elems {
			if !valuesEqual(e, bv.Elems[i]) {
				return false
			}
		}
		return true
	case *Map:
		bv, ok := b.(*Map)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for _, k := range av.keys {
			other, ok := bv.Get(k)
			if !ok || !valuesEqual(av.entries[k], other) {
				return false
			}
		}
		return true
	case *Function:
		bv, ok := b.(*Function)
		return ok && av == bv
	}
	// Resource carriers compare by identity.
	return a == b
}

// deepCopyValue copies arrays and maps recursively; every other value
// kind is immutable or a resource carrier and is returned as is.
func deepCopyValue(v Value) Value {
	switch val := v.(type) {
	case *Array:
		elems := make([]Value, len(val.Elems))
		for i, e := range val.Elems {
			elems[i] = deepCopyValue(e)
		}
		return &Array{Elems: elems}
	case *Map:
		out := NewMap()
		for _, k := range val.keys {
			out.Set(k, deepCopyValue(val.entries[k]))
		}
		return out
	}
	return v
}

// stringOfValue renders a value the way `print` and the test runner
// show it.  Strings print raw at the top level but quoted inside
// containers.
func stringOfValue(v Value) string {
	switch val := v.(type) {
	case Str:
		return string(val)
	default:
		return stringOfValueNested(v)
	}
}

func stringOfValueNested(v Value) string {
	switch val := v.(type) {
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return formatFloat(float64(val))
	case Decimal:
		return string(val)
	case Str:
		return strconv.Quote(string(val))
	case Bool:
		if val {
			return "true"
		}
		return "false"
	case Unit:
		return "()"
	case *Array:
		parts := make([]string, len(val.Elems))
		for i, e := range val.Elems {
			parts[i] = stringOfValueNested(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Map:
		var s strings.Builder
		s.WriteString("{")
		for i, k := range val.keys {
			if i > 0 {
				s.WriteString(", ")
			}
			s.WriteString(strconv.Quote(k))
			s.WriteString(": ")
			s.WriteString(stringOfValueNested(val.entries[k]))
		}
		s.WriteString("}")
		return s.String()
	case *Function:
		return "<fn " + val.Name + ">"
	case *Process:
		return fmt.Sprintf("<process %d>", val.Proc.Pid)
	case *Channel:
		return "<channel>"
	case *Socket:
		return "<socket>"
	case *WsSocket:
		return "<websocket>"
	}
	return "<unknown>"
}

// formatFloat uses Go's shortest 'g' form, so magnitudes from 1e6 up
// and below 1e-4 carry an exponent, and keeps a marker that the value is floating point when it happens to
// be integral.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "Inf") && s != "NaN" {
		s += "."
	}
	return s
}
