package aisl

import "strings"

func init() {
	register(map[string]builtinFn{
		"string_length":      builtinStringLength,
		"string_concat":      builtinStringConcat,
		"string_equals":      builtinStringEquals,
		"string_slice":       builtinStringSlice,
		"string_get":         builtinStringGet,
		"string_format":      builtinStringFormat,
		"string_find":        builtinStringFind,
		"string_to_upper":    builtinStringToUpper,
		"string_to_lower":    builtinStringToLower,
		"string_split":       builtinStringSplit,
		"string_join":        builtinStringJoin,
		"string_starts_with": builtinStringStartsWith,
		"string_ends_with":   builtinStringEndsWith,
		"string_contains":    builtinStringContains,
		"string_trim":        builtinStringTrim,
		"string_replace":     builtinStringReplace,
	})
}

func oneString(name string, args []Value) (string, error) {
	if len(args) != 1 {
		return "", invalidArgs(name)
	}
	s, ok := args[0].(Str)
	if !ok {
		return "", invalidArgs(name)
	}
	return string(s), nil
}

func twoStrings(name string, args []Value) (string, string, error) {
	if len(args) != 2 {
		return "", "", invalidArgs(name)
	}
	a, aok := args[0].(Str)
	b, bok := args[1].(Str)
	if !aok || !bok {
		return "", "", invalidArgs(name)
	}
	return string(a), string(b), nil
}

// builtinStringLength reports the byte length, not the rune count.
func builtinStringLength(in *Interp, args []Value) (Value, error) {
	s, err := oneString("string_length", args)
	if err != nil {
		return nil, err
	}
	return Int(len(s)), nil
}

func builtinStringConcat(in *Interp, args []Value) (Value, error) {
	a, b, err := twoStrings("string_concat", args)
	if err != nil {
		return nil, err
	}
	return Str(a + b), nil
}

func builtinStringEquals(in *Interp, args []Value) (Value, error) {
	a, b, err := twoStrings("string_equals", args)
	if err != nil {
		return nil, err
	}
	return Bool(a == b), nil
}

// builtinStringSlice clamps both the start and the length to the
// string's bounds instead of erroring.
func builtinStringSlice(in *Interp, args []Value) (Value, error) {
	if len(args) != 3 {
		return nil, invalidArgs("string_slice")
	}
	s, sok := args[0].(Str)
	start, aok := args[1].(Int)
	length, bok := args[2].(Int)
	if !sok || !aok || !bok {
		return nil, invalidArgs("string_slice")
	}
	lo := int(start)
	if lo < 0 {
		lo = 0
	}
	if lo > len(s) {
		lo = len(s)
	}
	hi := lo + int(length)
	if int(length) < 0 || hi > len(s) {
		hi = len(s)
	}
	if hi < lo {
		hi = lo
	}
	return Str(string(s)[lo:hi]), nil
}

func builtinStringGet(in *Interp, args []Value) (Value, error) {
	if len(args) != 2 {
		return nil, invalidArgs("string_get")
	}
	s, sok := args[0].(Str)
	i, iok := args[1].(Int)
	if !sok || !iok {
		return nil, invalidArgs("string_get")
	}
	if i < 0 || int(i) >= len(s) {
		return nil, runtimeErrf("Index out of bounds: %d", i)
	}
	return Int(s[i]), nil
}

// builtinStringFormat substitutes `{}` placeholders with the
// stringified arguments, in order.  Placeholders beyond the argument
// list stay verbatim.
func builtinStringFormat(in *Interp, args []Value) (Value, error) {
	if len(args) < 1 {
		return nil, invalidArgs("string_format")
	}
	tpl, ok := args[0].(Str)
	if !ok {
		return nil, invalidArgs("string_format")
	}
	var out strings.Builder
	rest := string(tpl)
	next := 1
	for {
		idx := strings.Index(rest, "{}")
		if idx < 0 || next >= len(args) {
			out.WriteString(rest)
			return Str(out.String()), nil
		}
		out.WriteString(rest[:idx])
		out.WriteString(stringOfValue(args[next]))
		next++
		rest = rest[idx+2:]
	}
}

// builtinStringFind returns the byte offset of the first occurrence,
// -1 when absent, and 0 for an empty needle.
func builtinStringFind(in *Interp, args []Value) (Value, error) {
	hay, needle, err := twoStrings("string_find", args)
	if err != nil {
		return nil, err
	}
	return Int(strings.Index(hay, needle)), nil
}

func builtinStringToUpper(in *Interp, args []Value) (Value, error) {
	s, err := oneString("string_to_upper", args)
	if err != nil {
		return nil, err
	}
	return Str(strings.ToUpper(s)), nil
}

func builtinStringToLower(in *Interp, args []Value) (Value, error) {
	s, err := oneString("string_to_lower", args)
	if err != nil {
		return nil, err
	}
	return Str(strings.ToLower(s)), nil
}

// builtinStringSplit splits on the delimiter; an empty delimiter
// explodes the string into one-byte pieces.
func builtinStringSplit(in *Interp, args []Value) (Value, error) {
	s, delim, err := twoStrings("string_split", args)
	if err != nil {
		return nil, err
	}
	var parts []string
	if delim == "" {
		parts = make([]string, len(s))
		for i := 0; i < len(s); i++ {
			parts[i] = s[i : i+1]
		}
	} else {
		parts = strings.Split(s, delim)
	}
	arr := &Array{Elems: make([]Value, len(parts))}
	for i, p := range parts {
		arr.Elems[i] = Str(p)
	}
	return arr, nil
}

func builtinStringJoin(in *Interp, args []Value) (Value, error) {
	if len(args) != 2 {
		return nil, invalidArgs("string_join")
	}
	arr, aok := args[0].(*Array)
	delim, dok := args[1].(Str)
	if !aok || !dok {
		return nil, invalidArgs("string_join")
	}
	parts := make([]string, len(arr.Elems))
	for i, e := range arr.Elems {
		parts[i] = stringOfValue(e)
	}
	return Str(strings.Join(parts, string(delim))), nil
}

func builtinStringStartsWith(in *Interp, args []Value) (Value, error) {
	s, prefix, err := twoStrings("string_starts_with", args)
	if err != nil {
		return nil, err
	}
	return Bool(strings.HasPrefix(s, prefix)), nil
}

func builtinStringEndsWith(in *Interp, args []Value) (Value, error) {
	s, suffix, err := twoStrings("string_ends_with", args)
	if err != nil {
		return nil, err
	}
	return Bool(strings.HasSuffix(s, suffix)), nil
}

func builtinStringContains(in *Interp, args []Value) (Value, error) {
	s, sub, err := twoStrings("string_contains", args)
	if err != nil {
		return nil, err
	}
	return Bool(strings.Contains(s, sub)), nil
}

func builtinStringTrim(in *Interp, args []Value) (Value, error) {
	s, err := oneString("string_trim", args)
	if err != nil {
		return nil, err
	}
	return Str(strings.Trim(s, " \t\r\n")), nil
}

// builtinStringReplace replaces every occurrence; an empty old string
// returns the input unchanged.
func builtinStringReplace(in *Interp, args []Value) (Value, error) {
	if len(args) != 3 {
		return nil, invalidArgs("string_replace")
	}
	s, sok := args[0].(Str)
	old, ook := args[1].(Str)
	repl, rok := args[2].(Str)
	if !sok || !ook || !rok {
		return nil, invalidArgs("string_replace")
	}
	if old == "" {
		return s, nil
	}
	return Str(strings.ReplaceAll(string(s), string(old), string(repl))), nil
}
