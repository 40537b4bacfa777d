package aisl

import (
	"strconv"
	"strings"
)

func init() {
	register(map[string]builtinFn{
		"json_new_object": builtinJsonNewObject,
		"json_new_array":  builtinJsonNewArray,
		"json_parse":      builtinJsonParse,
		"json_stringify":  builtinJsonStringify,
		"json_get":        builtinJsonGet,
		"json_set":        builtinJsonSet,
		"json_has":        builtinJsonHas,
		"json_delete":     builtinJsonDelete,
		"json_push":       builtinJsonPush,
		"json_length":     builtinJsonLength,
		"json_type":       builtinJsonType,
	})
}

// jsonParser is a cursor over the input text.  Objects become maps
// preserving key order, arrays become arrays, null becomes unit, and
// numbers keep the int/float distinction by lexeme shape.
type jsonParser struct {
	input  string
	cursor int
}

func jsonParse(input string) (Value, error) {
	p := &jsonParser{input: input}
	p.skipSpacing()
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpacing()
	if p.cursor != len(p.input) {
		return nil, runtimeErrf("Trailing characters in JSON at offset %d", p.cursor)
	}
	return v, nil
}

func (p *jsonParser) peek() byte {
	if p.cursor >= len(p.input) {
		return 0
	}
	return p.input[p.cursor]
}

func (p *jsonParser) skipSpacing() {
	for {
		switch p.peek() {
		case ' ', '\t', '\n', '\r':
			p.cursor++
		default:
			return
		}
	}
}

func (p *jsonParser) expect(c byte) error {
	if p.peek() != c {
		return runtimeErrf("Invalid JSON: expected `%c` at offset %d", c, p.cursor)
	}
	p.cursor++
	return nil
}

func (p *jsonParser) parseValue() (Value, error) {
	p.skipSpacing()
	switch c := p.peek(); {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"':
		s, err := p.parseString()
		if err != nil {
			return nil, err
		}
		return Str(s), nil
	case c == 't':
		if err := p.literal("true"); err != nil {
			return nil, err
		}
		return Bool(true), nil
	case c == 'f':
		if err := p.literal("false"); err != nil {
			return nil, err
		}
		return Bool(false), nil
	case c == 'n':
		if err := p.literal("null"); err != nil {
			return nil, err
		}
		return Unit{}, nil
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	}
	return nil, runtimeErrf("Invalid JSON at offset %d", p.cursor)
}

func (p *jsonParser) literal(word string) error {
	if !strings.HasPrefix(p.input[p.cursor:], word) {
		return runtimeErrf("Invalid JSON at offset %d", p.cursor)
	}
	p.cursor += len(word)
	return nil
}

func (p *jsonParser) parseObject() (Value, error) {
	p.cursor++ // {
	m := NewMap()
	p.skipSpacing()
	if p.peek() == '}' {
		p.cursor++
		return m, nil
	}
	for {
		p.skipSpacing()
		key, err := p.parseString()
		if err != nil {
			return nil, err
		}
		p.skipSpacing()
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		m.Set(key, v)
		p.skipSpacing()
		if p.peek() == ',' {
			p.cursor++
			continue
		}
		return m, p.expect('}')
	}
}

func (p *jsonParser) parseArray() (Value, error) {
	p.cursor++ // [
	arr := NewArray()
	p.skipSpacing()
	if p.peek() == ']' {
		p.cursor++
		return arr, nil
	}
	for {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		arr.Elems = append(arr.Elems, v)
		p.skipSpacing()
		if p.peek() == ',' {
			p.cursor++
			continue
		}
		return arr, p.expect(']')
	}
}

func (p *jsonParser) parseString() (string, error) {
	if err := p.expect('"'); err != nil {
		return "", err
	}
	var s strings.Builder
	for {
		if p.cursor >= len(p.input) {
			return "", runtimeErrf("Unterminated JSON string")
		}
		c := p.input[p.cursor]
		p.cursor++
		switch c {
		case '"':
			return s.String(), nil
		case '\\':
			if p.cursor >= len(p.input) {
				return "", runtimeErrf("Unterminated JSON string")
			}
			e := p.input[p.cursor]
			p.cursor++
			switch e {
			case 'n':
				s.WriteByte('\n')
			case 't':
				s.WriteByte('\t')
			default:
				// `\"`, `\\`, `\/` and anything unknown pass the
				// escaped character through.
				s.WriteByte(e)
			}
		default:
			s.WriteByte(c)
		}
	}
}

// parseNumber keeps the int/float split by lexeme: no `.`, `e`, `E`
// or `+` means integer.  Integers outside 64 bits are rejected.
func (p *jsonParser) parseNumber() (Value, error) {
	start := p.cursor
	if p.peek() == '-' {
		p.cursor++
	}
	for {
		c := p.peek()
		if (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-' {
			p.cursor++
			continue
		}
		break
	}
	lexeme := p.input[start:p.cursor]
	if strings.ContainsAny(lexeme, ".eE+") {
		f, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			return nil, runtimeErrf("Invalid JSON number")
		}
		return Float(f), nil
	}
	i, err := strconv.ParseInt(lexeme, 10, 64)
	if err != nil {
		return nil, runtimeErrf("Invalid JSON number")
	}
	return Int(i), nil
}

// jsonStringify serializes maps as objects in insertion order, arrays
// as arrays, and unit as null.
func jsonStringify(v Value) (string, error) {
	var s strings.Builder
	if err := jsonWrite(&s, v); err != nil {
		return "", err
	}
	return s.String(), nil
}

func jsonWrite(s *strings.Builder, v Value) error {
	switch val := v.(type) {
	case Int:
		s.WriteString(strconv.FormatInt(int64(val), 10))
	case Float:
		f := strconv.FormatFloat(float64(val), 'g', -1, 64)
		// An integral float must keep a fractional digit, or parsing
		// the output back would turn it into an integer.
		if !strings.ContainsAny(f, ".eE") {
			f += ".0"
		}
		s.WriteString(f)
	case Decimal:
		s.WriteString(string(val))
	case Bool:
		if val {
			s.WriteString("true")
		} else {
			s.WriteString("false")
		}
	case Unit:
		s.WriteString("null")
	case Str:
		jsonWriteString(s, string(val))
	case *Array:
		s.WriteString("[")
		for i, e := range val.Elems {
			if i > 0 {
				s.WriteString(",")
			}
			if err := jsonWrite(s, e); err != nil {
				return err
			}
		}
		s.WriteString("]")
	case *Map:
		s.WriteString("{")
		for i, k := range val.Keys() {
			if i > 0 {
				s.WriteString(",")
			}
			jsonWriteString(s, k)
			s.WriteString(":")
			e, _ := val.Get(k)
			if err := jsonWrite(s, e); err != nil {
				return err
			}
		}
		s.WriteString("}")
	default:
		return runtimeErrf("Cannot serialize %s to JSON", v.Type())
	}
	return nil
}

func jsonWriteString(s *strings.Builder, str string) {
	s.WriteByte('"')
	for i := 0; i < len(str); i++ {
		switch c := str[i]; c {
		case '"':
			s.WriteString(`\"`)
		case '\\':
			s.WriteString(`\\`)
		case '\n':
			s.WriteString(`\n`)
		case '\t':
			s.WriteString(`\t`)
		case '\r':
			s.WriteString(`\r`)
		default:
			s.WriteByte(c)
		}
	}
	s.WriteByte('"')
}

func builtinJsonNewObject(in *Interp, args []Value) (Value, error) {
	if len(args) != 0 {
		return nil, invalidArgs("json_new_object")
	}
	return NewMap(), nil
}

func builtinJsonNewArray(in *Interp, args []Value) (Value, error) {
	if len(args) != 0 {
		return nil, invalidArgs("json_new_array")
	}
	return NewArray(), nil
}

func builtinJsonParse(in *Interp, args []Value) (Value, error) {
	s, err := oneString("json_parse", args)
	if err != nil {
		return nil, err
	}
	return jsonParse(s)
}

func builtinJsonStringify(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("json_stringify")
	}
	s, err := jsonStringify(args[0])
	if err != nil {
		return nil, err
	}
	return Str(s), nil
}

// The json_* accessors mirror the map and array operations on the
// underlying representations: a JSON object is a map, a JSON array is
// an array.

func builtinJsonGet(in *Interp, args []Value) (Value, error) {
	m, key, err := mapAndKey("json_get", args, 2)
	if err != nil {
		return nil, err
	}
	v, ok := m.Get(key)
	if !ok {
		return nil, runtimeErrf("Key not found: %s", key)
	}
	return v, nil
}

func builtinJsonSet(in *Interp, args []Value) (Value, error) {
	m, key, err := mapAndKey("json_set", args, 3)
	if err != nil {
		return nil, err
	}
	m.Set(key, args[2])
	return Unit{}, nil
}

func builtinJsonHas(in *Interp, args []Value) (Value, error) {
	m, key, err := mapAndKey("json_has", args, 2)
	if err != nil {
		return nil, err
	}
	return Bool(m.Has(key)), nil
}

func builtinJsonDelete(in *Interp, args []Value) (Value, error) {
	m, key, err := mapAndKey("json_delete", args, 2)
	if err != nil {
		return nil, err
	}
	m.Delete(key)
	return Unit{}, nil
}

func builtinJsonPush(in *Interp, args []Value) (Value, error) {
	if len(args) != 2 {
		return nil, invalidArgs("json_push")
	}
	arr, ok := args[0].(*Array)
	if !ok {
		return nil, invalidArgs("json_push")
	}
	arr.Elems = append(arr.Elems, args[1])
	return Unit{}, nil
}

func builtinJsonLength(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("json_length")
	}
	switch v := args[0].(type) {
	case *Array:
		return Int(len(v.Elems)), nil
	case *Map:
		return Int(v.Len()), nil
	case Str:
		return Int(len(v)), nil
	}
	return nil, invalidArgs("json_length")
}

func builtinJsonType(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("json_type")
	}
	switch args[0].(type) {
	case *Map:
		return Str("object"), nil
	case *Array:
		return Str("array"), nil
	case Str:
		return Str("string"), nil
	case Int, Float:
		return Str("number"), nil
	case Bool:
		return Str("boolean"), nil
	case Unit:
		return Str("null"), nil
	}
	return Str("unknown"), nil
}
