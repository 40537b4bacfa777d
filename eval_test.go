package aisl

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runScript executes source text and returns the exit code and
// captured stdout, failing the test on interpreter-level errors.
func runScript(t *testing.T, source string, args ...string) (int, string) {
	t.Helper()
	var out bytes.Buffer
	code, err := RunSource(source, Options{
		Stdout: &out,
		Stderr: io.Discard,
		Args:   args,
	})
	require.NoError(t, err)
	return code, out.String()
}

// runScriptErr executes source text expecting a terminal error.
func runScriptErr(t *testing.T, source string) error {
	t.Helper()
	_, err := RunSource(source, Options{Stdout: io.Discard, Stderr: io.Discard})
	require.Error(t, err)
	return err
}

func TestEval_SetTypeMismatch(t *testing.T) {
	err := runScriptErr(t, `(module t (fn main -> int
		(set x int "not an int")
		(ret 0)))`)
	assert.Contains(t, err.Error(), "Type mismatch")
	assert.Contains(t, err.Error(), "int")
}

func TestEval_SetRebinding(t *testing.T) {
	code, out := runScript(t, `(module t (fn main -> int
		(set x int 1)
		(set x int (add x 10))
		(println (string_from_int x))
		(ret 0)))`)
	assert.Equal(t, 0, code)
	assert.Equal(t, "11\n", out)
}

func TestEval_UndefinedVariable(t *testing.T) {
	err := runScriptErr(t, `(module t (fn main -> int (ret missing)))`)
	assert.Equal(t, "Undefined variable: missing", err.Error())
}

func TestEval_UnknownFunction(t *testing.T) {
	err := runScriptErr(t, `(module t (fn main -> int (ret (no_such_fn 1))))`)
	assert.Equal(t, "Unknown function: no_such_fn", err.Error())
}

func TestEval_WhileLoop(t *testing.T) {
	code, out := runScript(t, `(module t (fn main -> int
		(set i int 0)
		(set total int 0)
		(while (lt i 6)
			(set i int (add i 1))
			(if (eq i 3) (continue))
			(if (eq i 5) (break))
			(set total int (add total i)))
		(println (string_from_int total))
		(ret 0)))`)
	assert.Equal(t, 0, code)
	assert.Equal(t, "7\n", out) // 1 + 2 + 4
}

func TestEval_LoopWithBreak(t *testing.T) {
	_, out := runScript(t, `(module t (fn main -> int
		(set n int 0)
		(loop
			(set n int (add n 1))
			(if (ge n 3) (break)))
		(println (string_from_int n))
		(ret 0)))`)
	assert.Equal(t, "3\n", out)
}

func TestEval_ForEachArray(t *testing.T) {
	_, out := runScript(t, `(module t (fn main -> int
		(set total int 0)
		(for-each x int [1 2 3 4]
			(set total int (add total x)))
		(println (string_from_int total))
		(ret 0)))`)
	assert.Equal(t, "10\n", out)
}

func TestEval_ForEachMapIteratesKeysInOrder(t *testing.T) {
	_, out := runScript(t, `(module t (fn main -> int
		(set m map {"b" 1 "a" 2 "c" 3})
		(for-each k string m (println k))
		(ret 0)))`)
	assert.Equal(t, "b\na\nc\n", out)
}

func TestEval_ForEachElementTypeMismatch(t *testing.T) {
	err := runScriptErr(t, `(module t (fn main -> int
		(for-each x int [1 "two"] (println (string_from_int x)))
		(ret 0)))`)
	assert.Contains(t, err.Error(), "Type mismatch")
}

func TestEval_GotoWithinBlock(t *testing.T) {
	_, out := runScript(t, `(module t (fn main -> int
		(set i int 0)
		(label top)
		(set i int (add i 1))
		(ifnot (ge i 3) top)
		(println (string_from_int i))
		(ret 0)))`)
	assert.Equal(t, "3\n", out)
}

func TestEval_GotoSkipsForward(t *testing.T) {
	_, out := runScript(t, `(module t (fn main -> int
		(goto end)
		(println "skipped")
		(label end)
		(println "reached")
		(ret 0)))`)
	assert.Equal(t, "reached\n", out)
}

func TestEval_GotoLabelNotFound(t *testing.T) {
	err := runScriptErr(t, `(module t (fn main -> int (goto nowhere) (ret 0)))`)
	assert.Equal(t, "Label not found: nowhere", err.Error())
}

func TestEval_GotoEscapesNestedBlock(t *testing.T) {
	// A goto inside an if body reaches labels of the enclosing
	// function body.
	_, out := runScript(t, `(module t (fn main -> int
		(set x int 1)
		(if (eq x 1) (goto out))
		(println "skipped")
		(label out)
		(println "jumped")
		(ret 0)))`)
	assert.Equal(t, "jumped\n", out)
}

func TestEval_AndOrShortCircuit(t *testing.T) {
	// The right side would fail with division by zero when reached.
	_, out := runScript(t, `(module t
		(fn boom -> bool (set x int (div 1 0)) (ret true))
		(fn main -> int
			(if (and false (boom)) (println "and-taken") (else (println "and-skipped")))
			(if (or true (boom)) (println "or-taken"))
			(ret 0)))`)
	assert.Equal(t, "and-skipped\nor-taken\n", out)
}

func TestEval_AndNonBoolFails(t *testing.T) {
	err := runScriptErr(t, `(module t (fn main -> int
		(if (and 1 true) (ret 1))
		(ret 0)))`)
	assert.Contains(t, err.Error(), "bool")
}

func TestEval_TryCatchesRuntimeError(t *testing.T) {
	_, out := runScript(t, `(module t (fn main -> int
		(try
			(set x int (div 10 0))
			(println "unreached")
			(catch e string (println e)))
		(ret 0)))`)
	assert.Equal(t, "Division by zero\n", out)
}

func TestEval_TryDoesNotCatchControlFlow(t *testing.T) {
	// A ret inside try unwinds the function, not the catch clause.
	_, out := runScript(t, `(module t
		(fn inner -> int
			(try (ret 42) (catch e string (ret 0))))
		(fn main -> int
			(println (string_from_int (inner)))
			(ret 0)))`)
	assert.Equal(t, "42\n", out)
}

func TestEval_NestedTryRethrow(t *testing.T) {
	_, out := runScript(t, `(module t (fn main -> int
		(try
			(try (set x int (div 1 0)) (catch e string (println "inner")))
			(set y int (div 2 0))
			(catch e string (println "outer")))
		(ret 0)))`)
	assert.Equal(t, "inner\nouter\n", out)
}

func TestEval_NoClosures(t *testing.T) {
	// Functions see parameters and module functions only, never the
	// caller's locals.
	err := runScriptErr(t, `(module t
		(fn helper -> int (ret caller_local))
		(fn main -> int
			(set caller_local int 5)
			(ret (helper))))`)
	assert.Equal(t, "Undefined variable: caller_local", err.Error())
}

func TestEval_Recursion(t *testing.T) {
	code, _ := runScript(t, `(module t
		(fn fact n int -> int
			(if (eq n 0) (ret 1))
			(ret (mul n (fact (sub n 1)))))
		(fn main -> int (ret (fact 5))))`)
	assert.Equal(t, 120, code)
}

func TestEval_FunctionWithoutReturnYieldsUnit(t *testing.T) {
	_, out := runScript(t, `(module t
		(fn noop -> unit (set x int 1))
		(fn main -> int
			(println (type_of (noop)))
			(ret 0)))`)
	assert.Equal(t, "unit\n", out)
}

func TestEval_SharedContainers(t *testing.T) {
	// Passing an array hands over the same container; mutations are
	// visible to the caller.
	_, out := runScript(t, `(module t
		(fn fill target array -> unit (array_push target 99))
		(fn main -> int
			(set a array [1])
			(fill a)
			(println (string_from_int (array_length a)))
			(ret 0)))`)
	assert.Equal(t, "2\n", out)
}

func TestEval_ArgvBuiltins(t *testing.T) {
	_, out := runScript(t, `(module t (fn main -> int
		(println (string_from_int (argv_count)))
		(for-each a string (argv) (println a))
		(ret 0)))`, "x", "y")
	assert.Equal(t, "2\nx\ny\n", out)
}

func TestEval_ExitBuiltin(t *testing.T) {
	code, out := runScript(t, `(module t (fn main -> int
		(println "before")
		(exit 7)
		(println "after")
		(ret 0)))`)
	assert.Equal(t, 7, code)
	assert.Equal(t, "before\n", out)
}

func TestEval_NoMainFunction(t *testing.T) {
	err := runScriptErr(t, `(module t (fn helper -> int (ret 1)))`)
	assert.Contains(t, err.Error(), "No main function")
}
