package aisl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOne(t *testing.T, source string) *Module {
	t.Helper()
	mod, err := ParseModule(source)
	require.NoError(t, err)
	return mod
}

func TestParser_ModuleShape(t *testing.T) {
	mod := parseOne(t, `(module demo
		(import strings)
		(meta-note "a demo module")
		(fn main -> int (ret 0)))`)

	assert.Equal(t, "demo", mod.Name)
	assert.Equal(t, []string{"strings"}, mod.Imports)
	assert.Equal(t, "a demo module", mod.MetaNote)
	require.Len(t, mod.Funcs, 1)
	assert.Equal(t, "main", mod.Funcs[0].Name)
	assert.Equal(t, "int", mod.Funcs[0].ReturnType)
}

func TestParser_FunctionParams(t *testing.T) {
	mod := parseOne(t, `(module t (fn join a string b string sep string -> string
		(ret (string_concat a (string_concat sep b)))))`)

	fn := mod.Funcs[0]
	require.Len(t, fn.Params, 3)
	assert.Equal(t, Param{Name: "a", Type: "string"}, fn.Params[0])
	assert.Equal(t, Param{Name: "sep", Type: "string"}, fn.Params[2])
}

func TestParser_ReservedTypeKeywords(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{
			name:   "parameter named after type",
			source: `(module t (fn f int int -> int (ret 0)))`,
		},
		{
			name:   "set target named after type",
			source: `(module t (fn f -> int (set string string "x") (ret 0)))`,
		},
		{
			name:   "for-each variable named after type",
			source: `(module t (fn f -> int (for-each map map (map_new) (ret 0)) (ret 0)))`,
		},
		{
			name:   "catch variable named after type",
			source: `(module t (fn f -> int (try (ret 0) (catch json string (ret 1)))))`,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ParseModule(test.source)
			require.Error(t, err)
			assert.IsType(t, &ParseError{}, err)
			assert.Contains(t, err.Error(), "use a descriptive name instead")
		})
	}
}

func TestParser_IfElseLifting(t *testing.T) {
	mod := parseOne(t, `(module t (fn f x bool -> int
		(if x (ret 1) (else (ret 2)))))`)

	node, ok := mod.Funcs[0].Body[0].(*IfExpr)
	require.True(t, ok)
	require.Len(t, node.Then, 1)
	require.Len(t, node.Else, 1)
	assert.IsType(t, &ReturnExpr{}, node.Else[0])
}

func TestParser_IfWithoutElse(t *testing.T) {
	mod := parseOne(t, `(module t (fn f x bool -> int (if x (ret 1)) (ret 2)))`)
	node := mod.Funcs[0].Body[0].(*IfExpr)
	assert.Len(t, node.Then, 1)
	assert.Nil(t, node.Else)
}

func TestParser_CondRequiresBranches(t *testing.T) {
	_, err := ParseModule(`(module t (fn f -> int (cond) (ret 0)))`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one branch")
}

func TestParser_TryExtractsCatch(t *testing.T) {
	mod := parseOne(t, `(module t (fn f -> int
		(try (set x int (div 1 0)) (ret 1)
		     (catch e string (ret 2)))))`)

	node, ok := mod.Funcs[0].Body[0].(*TryExpr)
	require.True(t, ok)
	assert.Len(t, node.Body, 2)
	assert.Equal(t, "e", node.CatchVar)
	assert.Equal(t, "string", node.CatchType)
	assert.Len(t, node.CatchBody, 1)
}

func TestParser_TryWithoutCatch(t *testing.T) {
	_, err := ParseModule(`(module t (fn f -> int (try (ret 1))))`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catch")
}

func TestParser_ArrayAndMapLiterals(t *testing.T) {
	mod := parseOne(t, `(module t (fn f -> array (ret [1 2 [3]])))`)
	arr := mod.Funcs[0].Body[0].(*ReturnExpr).Value.(*ArrayLit)
	require.Len(t, arr.Elems, 3)
	assert.IsType(t, &ArrayLit{}, arr.Elems[2])

	mod = parseOne(t, `(module t (fn f -> map (ret {"a" 1 "b" 2})))`)
	m := mod.Funcs[0].Body[0].(*ReturnExpr).Value.(*MapLit)
	require.Len(t, m.Pairs, 2)
}

func TestParser_MapLiteralOddPairs(t *testing.T) {
	_, err := ParseModule(`(module t (fn f -> map (ret {"a" 1 "b"})))`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without a value")
}

func TestParser_AndOrAreSpecialForms(t *testing.T) {
	mod := parseOne(t, `(module t (fn f a bool b bool -> bool
		(ret (and a (or b true)))))`)

	and := mod.Funcs[0].Body[0].(*ReturnExpr).Value.(*AndExpr)
	assert.IsType(t, &VarRef{}, and.Left)
	assert.IsType(t, &OrExpr{}, and.Right)
}

func TestParser_CoreForms(t *testing.T) {
	mod := parseOne(t, `(module t (fn f x int -> int
		(label top)
		(ifnot (gt x 0) done)
		(set x int (sub x 1))
		(goto top)
		(label done)
		(ret x)))`)

	body := mod.Funcs[0].Body
	assert.IsType(t, &LabelExpr{}, body[0])
	assert.IsType(t, &IfNotExpr{}, body[1])
	assert.IsType(t, &GotoExpr{}, body[3])
}

func TestParser_TestSpec(t *testing.T) {
	mod := parseOne(t, `(module t
		(fn add2 a int b int -> int (ret (add a b)))
		(test-spec add2
			(case "simple" (input 1 2) (expect 3))
			(case "mocked" (mock (whatever ignored)) (input 0 0) (expect 0))))`)

	require.Len(t, mod.Tests, 1)
	spec := mod.Tests[0]
	assert.Equal(t, "add2", spec.FnName)
	require.Len(t, spec.Cases, 2)
	assert.Equal(t, "simple", spec.Cases[0].Desc)
	assert.Len(t, spec.Cases[0].Inputs, 2)
	// The mock clause parses but leaves no trace.
	assert.Len(t, spec.Cases[1].Inputs, 2)
}

func TestParser_UnknownTypeName(t *testing.T) {
	_, err := ParseModule(`(module t (fn f x number -> int (ret 0)))`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown type")
}

func TestParser_StringRoundTrip(t *testing.T) {
	source := `(module t (fn f x int -> int (if (gt x 0) (ret x) (else (ret (neg x))))))`
	mod := parseOne(t, source)
	reparsed, err := ParseModule(mod.String())
	require.NoError(t, err)
	assert.Equal(t, mod.String(), reparsed.String())
}
