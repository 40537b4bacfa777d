package aisl

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// builtinFn is the shape of every builtin operation: strict arguments
// in, one value or a RuntimeError out.
type builtinFn func(in *Interp, args []Value) (Value, error)

// builtins is the whole catalog, keyed by call name.  Each concern
// registers its group from an init in its own file.
var builtins = map[string]builtinFn{}

func register(group map[string]builtinFn) {
	for name, fn := range group {
		builtins[name] = fn
	}
}

// builtinNames returns the catalog's names, sorted.
func builtinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	register(map[string]builtinFn{
		"add": numeric2("add"),
		"sub": numeric2("sub"),
		"mul": numeric2("mul"),
		"div": numeric2("div"),
		"min": numeric2("min"),
		"max": numeric2("max"),

		"mod":  builtinMod,
		"neg":  builtinNeg,
		"abs":  builtinAbs,
		"sqrt": float1("sqrt", math.Sqrt),
		"pow":  builtinPow,

		"floor": floatToInt("floor", math.Floor),
		"ceil":  floatToInt("ceil", math.Ceil),
		"round": floatToInt("round", math.Round),

		"bit_and":         int2("bit_and", func(a, b int64) int64 { return a & b }),
		"bit_or":          int2("bit_or", func(a, b int64) int64 { return a | b }),
		"bit_xor":         int2("bit_xor", func(a, b int64) int64 { return a ^ b }),
		"bit_not":         builtinBitNot,
		"bit_shift_left":  int2("bit_shift_left", func(a, b int64) int64 { return a << uint64(b) }),
		"bit_shift_right": int2("bit_shift_right", func(a, b int64) int64 { return int64(uint64(a) >> uint64(b)) }),

		"eq":  builtinEq,
		"ne":  builtinNe,
		"lt":  ordered2("lt", func(c int) bool { return c < 0 }),
		"gt":  ordered2("gt", func(c int) bool { return c > 0 }),
		"le":  ordered2("le", func(c int) bool { return c <= 0 }),
		"ge":  ordered2("ge", func(c int) bool { return c >= 0 }),
		"not": builtinNot,

		"cast_int_float":     builtinCastIntFloat,
		"cast_float_int":     builtinCastFloatInt,
		"cast_int_decimal":   builtinCastIntDecimal,
		"cast_decimal_int":   builtinCastDecimalInt,
		"cast_float_decimal": builtinCastFloatDecimal,
		"cast_decimal_float": builtinCastDecimalFloat,

		"string_from_int":   builtinStringFromInt,
		"string_from_float": builtinStringFromFloat,
		"string_from_bool":  builtinStringFromBool,
		"string_to_int":     builtinStringToInt,
		"string_to_float":   builtinStringToFloat,
		"char_from_code":    builtinCharFromCode,

		"type_of":   builtinTypeOf,
		"is_array":  builtinIsArray,
		"is_object": builtinIsObject,
	})
}

// numeric2 builds the polymorphic two-argument arithmetic dispatch:
// int/int, float/float and decimal/decimal are the only valid shapes,
// mixed numeric operands fail.
func numeric2(name string) builtinFn {
	return func(in *Interp, args []Value) (Value, error) {
		if len(args) != 2 {
			return nil, invalidArgs(name)
		}
		switch a := args[0].(type) {
		case Int:
			if b, ok := args[1].(Int); ok {
				return intArith(name, int64(a), int64(b))
			}
		case Float:
			if b, ok := args[1].(Float); ok {
				return floatArith(name, float64(a), float64(b))
			}
		case Decimal:
			if b, ok := args[1].(Decimal); ok {
				return decimalArith(name, string(a), string(b))
			}
		}
		return nil, invalidArgs(name)
	}
}

func intArith(name string, a, b int64) (Value, error) {
	switch name {
	case "add":
		return Int(a + b), nil
	case "sub":
		return Int(a - b), nil
	case "mul":
		return Int(a * b), nil
	case "div":
		if b == 0 {
			return nil, runtimeErrf("Division by zero")
		}
		return Int(a / b), nil
	case "min":
		if a < b {
			return Int(a), nil
		}
		return Int(b), nil
	case "max":
		if a > b {
			return Int(a), nil
		}
		return Int(b), nil
	}
	return nil, invalidArgs(name)
}

func floatArith(name string, a, b float64) (Value, error) {
	switch name {
	case "add":
		return Float(a + b), nil
	case "sub":
		return Float(a - b), nil
	case "mul":
		return Float(a * b), nil
	case "div":
		if b == 0 {
			return nil, runtimeErrf("Division by zero")
		}
		return Float(a / b), nil
	case "min":
		return Float(math.Min(a, b)), nil
	case "max":
		return Float(math.Max(a, b)), nil
	}
	return nil, invalidArgs(name)
}

func decimalArith(name string, a, b string) (Value, error) {
	switch name {
	case "add":
		return Decimal(decimalAdd(a, b)), nil
	case "sub":
		return Decimal(decimalSub(a, b)), nil
	case "mul":
		return Decimal(decimalMul(a, b)), nil
	case "div":
		q, err := decimalDiv(a, b)
		if err != nil {
			return nil, err
		}
		return Decimal(q), nil
	case "min":
		if decimalCompare(a, b) <= 0 {
			return Decimal(a), nil
		}
		return Decimal(b), nil
	case "max":
		if decimalCompare(a, b) >= 0 {
			return Decimal(a), nil
		}
		return Decimal(b), nil
	}
	return nil, invalidArgs(name)
}

func builtinMod(in *Interp, args []Value) (Value, error) {
	if len(args) != 2 {
		return nil, invalidArgs("mod")
	}
	a, aok := args[0].(Int)
	b, bok := args[1].(Int)
	if !aok || !bok {
		return nil, invalidArgs("mod")
	}
	if b == 0 {
		return nil, runtimeErrf("Division by zero")
	}
	return Int(int64(a) % int64(b)), nil
}

func builtinNeg(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("neg")
	}
	switch v := args[0].(type) {
	case Int:
		return Int(-v), nil
	case Float:
		return Float(-v), nil
	case Decimal:
		return Decimal(decimalNeg(string(v))), nil
	}
	return nil, invalidArgs("neg")
}

func builtinAbs(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("abs")
	}
	switch v := args[0].(type) {
	case Int:
		if v < 0 {
			return Int(-v), nil
		}
		return v, nil
	case Float:
		return Float(math.Abs(float64(v))), nil
	case Decimal:
		return Decimal(decimalAbs(string(v))), nil
	}
	return nil, invalidArgs("abs")
}

func float1(name string, fn func(float64) float64) builtinFn {
	return func(in *Interp, args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, invalidArgs(name)
		}
		f, ok := args[0].(Float)
		if !ok {
			return nil, invalidArgs(name)
		}
		return Float(fn(float64(f))), nil
	}
}

func floatToInt(name string, fn func(float64) float64) builtinFn {
	return func(in *Interp, args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, invalidArgs(name)
		}
		f, ok := args[0].(Float)
		if !ok {
			return nil, invalidArgs(name)
		}
		return Int(int64(fn(float64(f)))), nil
	}
}

func builtinPow(in *Interp, args []Value) (Value, error) {
	if len(args) != 2 {
		return nil, invalidArgs("pow")
	}
	a, aok := args[0].(Float)
	b, bok := args[1].(Float)
	if !aok || !bok {
		return nil, invalidArgs("pow")
	}
	return Float(math.Pow(float64(a), float64(b))), nil
}

func int2(name string, fn func(a, b int64) int64) builtinFn {
	return func(in *Interp, args []Value) (Value, error) {
		if len(args) != 2 {
			return nil, invalidArgs(name)
		}
		a, aok := args[0].(Int)
		b, bok := args[1].(Int)
		if !aok || !bok {
			return nil, invalidArgs(name)
		}
		return Int(fn(int64(a), int64(b))), nil
	}
}

func builtinBitNot(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("bit_not")
	}
	a, ok := args[0].(Int)
	if !ok {
		return nil, invalidArgs("bit_not")
	}
	return Int(^int64(a)), nil
}

func builtinEq(in *Interp, args []Value) (Value, error) {
	if len(args) != 2 {
		return nil, invalidArgs("eq")
	}
	return Bool(valuesEqual(args[0], args[1])), nil
}

func builtinNe(in *Interp, args []Value) (Value, error) {
	if len(args) != 2 {
		return nil, invalidArgs("ne")
	}
	return Bool(!valuesEqual(args[0], args[1])), nil
}

// ordered2 builds the lt/gt/le/ge family over the three comparable
// numeric shapes.
func ordered2(name string, accept func(cmp int) bool) builtinFn {
	return func(in *Interp, args []Value) (Value, error) {
		if len(args) != 2 {
			return nil, invalidArgs(name)
		}
		switch a := args[0].(type) {
		case Int:
			if b, ok := args[1].(Int); ok {
				return Bool(accept(compareInt(int64(a), int64(b)))), nil
			}
		case Float:
			if b, ok := args[1].(Float); ok {
				return Bool(accept(compareFloat(float64(a), float64(b)))), nil
			}
		case Decimal:
			if b, ok := args[1].(Decimal); ok {
				return Bool(accept(decimalCompare(string(a), string(b)))), nil
			}
		}
		return nil, invalidArgs(name)
	}
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func builtinNot(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("not")
	}
	b, ok := args[0].(Bool)
	if !ok {
		return nil, invalidArgs("not")
	}
	return Bool(!b), nil
}

func builtinCastIntFloat(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("cast_int_float")
	}
	v, ok := args[0].(Int)
	if !ok {
		return nil, invalidArgs("cast_int_float")
	}
	return Float(float64(v)), nil
}

func builtinCastFloatInt(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("cast_float_int")
	}
	v, ok := args[0].(Float)
	if !ok {
		return nil, invalidArgs("cast_float_int")
	}
	return Int(int64(v)), nil
}

func builtinCastIntDecimal(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("cast_int_decimal")
	}
	v, ok := args[0].(Int)
	if !ok {
		return nil, invalidArgs("cast_int_decimal")
	}
	return Decimal(decimalNormalize(strconv.FormatInt(int64(v), 10))), nil
}

// builtinCastDecimalInt truncates toward zero: the fraction is simply
// dropped from the normalized form.
func builtinCastDecimalInt(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("cast_decimal_int")
	}
	v, ok := args[0].(Decimal)
	if !ok {
		return nil, invalidArgs("cast_decimal_int")
	}
	d := splitDecimal(string(v))
	i, err := strconv.ParseInt(d.ip, 10, 64)
	if err != nil {
		return nil, runtimeErrf("Decimal out of int range: %s", v)
	}
	if d.neg {
		i = -i
	}
	return Int(i), nil
}

func builtinCastFloatDecimal(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("cast_float_decimal")
	}
	v, ok := args[0].(Float)
	if !ok {
		return nil, invalidArgs("cast_float_decimal")
	}
	s := strconv.FormatFloat(float64(v), 'f', -1, 64)
	return Decimal(decimalNormalize(s)), nil
}

func builtinCastDecimalFloat(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("cast_decimal_float")
	}
	v, ok := args[0].(Decimal)
	if !ok {
		return nil, invalidArgs("cast_decimal_float")
	}
	f, err := strconv.ParseFloat(string(v), 64)
	if err != nil {
		return nil, runtimeErrf("Invalid decimal: %s", v)
	}
	return Float(f), nil
}

func builtinStringFromInt(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("string_from_int")
	}
	v, ok := args[0].(Int)
	if !ok {
		return nil, invalidArgs("string_from_int")
	}
	return Str(strconv.FormatInt(int64(v), 10)), nil
}

func builtinStringFromFloat(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("string_from_float")
	}
	v, ok := args[0].(Float)
	if !ok {
		return nil, invalidArgs("string_from_float")
	}
	return Str(formatFloat(float64(v))), nil
}

func builtinStringFromBool(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("string_from_bool")
	}
	v, ok := args[0].(Bool)
	if !ok {
		return nil, invalidArgs("string_from_bool")
	}
	if v {
		return Str("true"), nil
	}
	return Str("false"), nil
}

func builtinStringToInt(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("string_to_int")
	}
	v, ok := args[0].(Str)
	if !ok {
		return nil, invalidArgs("string_to_int")
	}
	i, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
	if err != nil {
		return nil, runtimeErrf("Cannot convert to int: %s", v)
	}
	return Int(i), nil
}

func builtinStringToFloat(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("string_to_float")
	}
	v, ok := args[0].(Str)
	if !ok {
		return nil, invalidArgs("string_to_float")
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
	if err != nil {
		return nil, runtimeErrf("Cannot convert to float: %s", v)
	}
	return Float(f), nil
}

func builtinCharFromCode(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("char_from_code")
	}
	v, ok := args[0].(Int)
	if !ok {
		return nil, invalidArgs("char_from_code")
	}
	if v < 0 || v > 127 {
		return nil, runtimeErrf("Character code out of range: %d", v)
	}
	return Str(string(rune(v))), nil
}

func builtinTypeOf(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("type_of")
	}
	return Str(args[0].Type()), nil
}

func builtinIsArray(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("is_array")
	}
	_, ok := args[0].(*Array)
	return Bool(ok), nil
}

func builtinIsObject(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("is_object")
	}
	_, ok := args[0].(*Map)
	return Bool(ok), nil
}
