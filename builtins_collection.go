package aisl

import "sort"

func init() {
	register(map[string]builtinFn{
		"array_new":      builtinArrayNew,
		"array_push":     builtinArrayPush,
		"array_get":      builtinArrayGet,
		"array_set":      builtinArraySet,
		"array_length":   builtinArrayLength,
		"array_copy":     builtinArrayCopy,
		"array_sort":     builtinArraySort,
		"array_reverse":  builtinArrayReverse,
		"array_contains": builtinArrayContains,
		"array_index_of": builtinArrayIndexOf,
		"array_pop":      builtinArrayPop,
		"array_remove":   builtinArrayRemove,
		"array_slice":    builtinArraySlice,
		"array_concat":   builtinArrayConcat,

		"map_new":     builtinMapNew,
		"map_set":     builtinMapSet,
		"map_get":     builtinMapGet,
		"map_has":     builtinMapHas,
		"map_delete":  builtinMapDelete,
		"map_keys":    builtinMapKeys,
		"map_copy":    builtinMapCopy,
		"map_entries": builtinMapEntries,
		"map_length":  builtinMapLength,
		"map_values":  builtinMapValues,
	})
}

func oneArray(name string, args []Value) (*Array, error) {
	if len(args) != 1 {
		return nil, invalidArgs(name)
	}
	arr, ok := args[0].(*Array)
	if !ok {
		return nil, invalidArgs(name)
	}
	return arr, nil
}

func arrayAndIndex(name string, args []Value, arity int) (*Array, int64, error) {
	if len(args) != arity {
		return nil, 0, invalidArgs(name)
	}
	arr, aok := args[0].(*Array)
	idx, iok := args[1].(Int)
	if !aok || !iok {
		return nil, 0, invalidArgs(name)
	}
	return arr, int64(idx), nil
}

func builtinArrayNew(in *Interp, args []Value) (Value, error) {
	if len(args) != 0 {
		return nil, invalidArgs("array_new")
	}
	return NewArray(), nil
}

func builtinArrayPush(in *Interp, args []Value) (Value, error) {
	if len(args) != 2 {
		return nil, invalidArgs("array_push")
	}
	arr, ok := args[0].(*Array)
	if !ok {
		return nil, invalidArgs("array_push")
	}
	arr.Elems = append(arr.Elems, args[1])
	return Unit{}, nil
}

func builtinArrayGet(in *Interp, args []Value) (Value, error) {
	arr, idx, err := arrayAndIndex("array_get", args, 2)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= int64(len(arr.Elems)) {
		return nil, runtimeErrf("Index out of bounds: %d", idx)
	}
	return arr.Elems[idx], nil
}

func builtinArraySet(in *Interp, args []Value) (Value, error) {
	arr, idx, err := arrayAndIndex("array_set", args, 3)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= int64(len(arr.Elems)) {
		return nil, runtimeErrf("Index out of bounds: %d", idx)
	}
	arr.Elems[idx] = args[2]
	return Unit{}, nil
}

func builtinArrayLength(in *Interp, args []Value) (Value, error) {
	arr, err := oneArray("array_length", args)
	if err != nil {
		return nil, err
	}
	return Int(len(arr.Elems)), nil
}

func builtinArrayCopy(in *Interp, args []Value) (Value, error) {
	arr, err := oneArray("array_copy", args)
	if err != nil {
		return nil, err
	}
	return deepCopyValue(arr), nil
}

// builtinArraySort orders a type-homogeneous array in place.  Mixed
// element types are an error, reported before any reordering happens.
func builtinArraySort(in *Interp, args []Value) (Value, error) {
	arr, err := oneArray("array_sort", args)
	if err != nil {
		return nil, err
	}
	if len(arr.Elems) < 2 {
		return Unit{}, nil
	}
	kind := arr.Elems[0].Type()
	switch kind {
	case "int", "float", "decimal", "string":
	default:
		return nil, invalidArgs("array_sort")
	}
	for _, e := range arr.Elems[1:] {
		if e.Type() != kind {
			return nil, invalidArgs("array_sort")
		}
	}
	sort.SliceStable(arr.Elems, func(i, j int) bool {
		switch a := arr.Elems[i].(type) {
		case Int:
			return a < arr.Elems[j].(Int)
		case Float:
			return a < arr.Elems[j].(Float)
		case Decimal:
			return decimalCompare(string(a), string(arr.Elems[j].(Decimal))) < 0
		case Str:
			return a < arr.Elems[j].(Str)
		}
		return false
	})
	return Unit{}, nil
}

func builtinArrayReverse(in *Interp, args []Value) (Value, error) {
	arr, err := oneArray("array_reverse", args)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(arr.Elems)-1; i < j; i, j = i+1, j-1 {
		arr.Elems[i], arr.Elems[j] = arr.Elems[j], arr.Elems[i]
	}
	return Unit{}, nil
}

func builtinArrayContains(in *Interp, args []Value) (Value, error) {
	if len(args) != 2 {
		return nil, invalidArgs("array_contains")
	}
	arr, ok := args[0].(*Array)
	if !ok {
		return nil, invalidArgs("array_contains")
	}
	for _, e := range arr.Elems {
		if valuesEqual(e, args[1]) {
			return Bool(true), nil
		}
	}
	return Bool(false), nil
}

func builtinArrayIndexOf(in *Interp, args []Value) (Value, error) {
	if len(args) != 2 {
		return nil, invalidArgs("array_index_of")
	}
	arr, ok := args[0].(*Array)
	if !ok {
		return nil, invalidArgs("array_index_of")
	}
	for i, e := range arr.Elems {
		if valuesEqual(e, args[1]) {
			return Int(i), nil
		}
	}
	return Int(-1), nil
}

func builtinArrayPop(in *Interp, args []Value) (Value, error) {
	arr, err := oneArray("array_pop", args)
	if err != nil {
		return nil, err
	}
	if len(arr.Elems) == 0 {
		return nil, runtimeErrf("Cannot pop from empty array")
	}
	last := arr.Elems[len(arr.Elems)-1]
	arr.Elems = arr.Elems[:len(arr.Elems)-1]
	return last, nil
}

func builtinArrayRemove(in *Interp, args []Value) (Value, error) {
	arr, idx, err := arrayAndIndex("array_remove", args, 2)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= int64(len(arr.Elems)) {
		return nil, runtimeErrf("Index out of bounds: %d", idx)
	}
	removed := arr.Elems[idx]
	arr.Elems = append(arr.Elems[:idx], arr.Elems[idx+1:]...)
	return removed, nil
}

// builtinArraySlice yields a new array; a start outside the array or a
// negative length gives an empty result, and a length running past the
// end stops at the end, rather than erroring.
func builtinArraySlice(in *Interp, args []Value) (Value, error) {
	if len(args) != 3 {
		return nil, invalidArgs("array_slice")
	}
	arr, aok := args[0].(*Array)
	start, sok := args[1].(Int)
	length, lok := args[2].(Int)
	if !aok || !sok || !lok {
		return nil, invalidArgs("array_slice")
	}
	lo := int(start)
	if lo < 0 || lo > len(arr.Elems) || length < 0 {
		return NewArray(), nil
	}
	hi := lo + int(length)
	if hi > len(arr.Elems) {
		hi = len(arr.Elems)
	}
	out := &Array{Elems: make([]Value, hi-lo)}
	copy(out.Elems, arr.Elems[lo:hi])
	return out, nil
}

func builtinArrayConcat(in *Interp, args []Value) (Value, error) {
	if len(args) != 2 {
		return nil, invalidArgs("array_concat")
	}
	a, aok := args[0].(*Array)
	b, bok := args[1].(*Array)
	if !aok || !bok {
		return nil, invalidArgs("array_concat")
	}
	out := &Array{Elems: make([]Value, 0, len(a.Elems)+len(b.Elems))}
	out.Elems = append(out.Elems, a.Elems...)
	out.Elems = append(out.Elems, b.Elems...)
	return out, nil
}

func oneMap(name string, args []Value) (*Map, error) {
	if len(args) != 1 {
		return nil, invalidArgs(name)
	}
	m, ok := args[0].(*Map)
	if !ok {
		return nil, invalidArgs(name)
	}
	return m, nil
}

func mapAndKey(name string, args []Value, arity int) (*Map, string, error) {
	if len(args) != arity {
		return nil, "", invalidArgs(name)
	}
	m, mok := args[0].(*Map)
	k, kok := args[1].(Str)
	if !mok || !kok {
		return nil, "", invalidArgs(name)
	}
	return m, string(k), nil
}

func builtinMapNew(in *Interp, args []Value) (Value, error) {
	if len(args) != 0 {
		return nil, invalidArgs("map_new")
	}
	return NewMap(), nil
}

func builtinMapSet(in *Interp, args []Value) (Value, error) {
	m, key, err := mapAndKey("map_set", args, 3)
	if err != nil {
		return nil, err
	}
	m.Set(key, args[2])
	return Unit{}, nil
}

func builtinMapGet(in *Interp, args []Value) (Value, error) {
	m, key, err := mapAndKey("map_get", args, 2)
	if err != nil {
		return nil, err
	}
	v, ok := m.Get(key)
	if !ok {
		return nil, runtimeErrf("Key not found: %s", key)
	}
	return v, nil
}

func builtinMapHas(in *Interp, args []Value) (Value, error) {
	m, key, err := mapAndKey("map_has", args, 2)
	if err != nil {
		return nil, err
	}
	return Bool(m.Has(key)), nil
}

func builtinMapDelete(in *Interp, args []Value) (Value, error) {
	m, key, err := mapAndKey("map_delete", args, 2)
	if err != nil {
		return nil, err
	}
	m.Delete(key)
	return Unit{}, nil
}

func builtinMapKeys(in *Interp, args []Value) (Value, error) {
	m, err := oneMap("map_keys", args)
	if err != nil {
		return nil, err
	}
	out := &Array{}
	for _, k := range m.Keys() {
		out.Elems = append(out.Elems, Str(k))
	}
	return out, nil
}

func builtinMapCopy(in *Interp, args []Value) (Value, error) {
	m, err := oneMap("map_copy", args)
	if err != nil {
		return nil, err
	}
	return deepCopyValue(m), nil
}

// builtinMapEntries returns `{key, value}` maps, one per entry, in
// insertion order.
func builtinMapEntries(in *Interp, args []Value) (Value, error) {
	m, err := oneMap("map_entries", args)
	if err != nil {
		return nil, err
	}
	out := &Array{}
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		entry := NewMap()
		entry.Set("key", Str(k))
		entry.Set("value", v)
		out.Elems = append(out.Elems, entry)
	}
	return out, nil
}

func builtinMapLength(in *Interp, args []Value) (Value, error) {
	m, err := oneMap("map_length", args)
	if err != nil {
		return nil, err
	}
	return Int(m.Len()), nil
}

func builtinMapValues(in *Interp, args []Value) (Value, error) {
	m, err := oneMap("map_values", args)
	if err != nil {
		return nil, err
	}
	out := &Array{}
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		out.Elems = append(out.Elems, v)
	}
	return out, nil
}
