package aisl

import "regexp"

func init() {
	register(map[string]builtinFn{
		"regex_compile":  builtinRegexCompile,
		"regex_match":    builtinRegexMatch,
		"regex_find":     builtinRegexFind,
		"regex_find_all": builtinRegexFindAll,
		"regex_replace":  builtinRegexReplace,
	})
}

// Regex values are carried as their pattern strings; the interpreter
// keeps a cache of compiled patterns behind them.  Note the engine is
// RE2: no backreferences, and alternation is leftmost-first rather
// than POSIX leftmost-longest.

func (in *Interp) compileRegex(pattern string) (*regexp.Regexp, error) {
	if re, ok := in.regexCache[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, runtimeErrf("Invalid regex: %s", err)
	}
	in.regexCache[pattern] = re
	return re, nil
}

// builtinRegexCompile validates the pattern and returns it verbatim.
func builtinRegexCompile(in *Interp, args []Value) (Value, error) {
	pattern, err := oneString("regex_compile", args)
	if err != nil {
		return nil, err
	}
	if _, err := in.compileRegex(pattern); err != nil {
		return nil, err
	}
	return Str(pattern), nil
}

func builtinRegexMatch(in *Interp, args []Value) (Value, error) {
	pattern, text, err := twoStrings("regex_match", args)
	if err != nil {
		return nil, err
	}
	re, err := in.compileRegex(pattern)
	if err != nil {
		return nil, err
	}
	return Bool(re.MatchString(text)), nil
}

func builtinRegexFind(in *Interp, args []Value) (Value, error) {
	pattern, text, err := twoStrings("regex_find", args)
	if err != nil {
		return nil, err
	}
	re, err := in.compileRegex(pattern)
	if err != nil {
		return nil, err
	}
	return Str(re.FindString(text)), nil
}

func builtinRegexFindAll(in *Interp, args []Value) (Value, error) {
	pattern, text, err := twoStrings("regex_find_all", args)
	if err != nil {
		return nil, err
	}
	re, err := in.compileRegex(pattern)
	if err != nil {
		return nil, err
	}
	out := NewArray()
	for _, m := range re.FindAllString(text, -1) {
		out.Elems = append(out.Elems, Str(m))
	}
	return out, nil
}

func builtinRegexReplace(in *Interp, args []Value) (Value, error) {
	if len(args) != 3 {
		return nil, invalidArgs("regex_replace")
	}
	pattern, pok := args[0].(Str)
	text, tok := args[1].(Str)
	repl, rok := args[2].(Str)
	if !pok || !tok || !rok {
		return nil, invalidArgs("regex_replace")
	}
	re, err := in.compileRegex(string(pattern))
	if err != nil {
		return nil, err
	}
	return Str(re.ReplaceAllString(string(text), string(repl))), nil
}
