package aisl

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The scenarios below are full programs exercising the interpreter
// front to back.

func TestRun_Factorial(t *testing.T) {
	code, _ := runScript(t, `(module t (fn fact n int -> int
		(if (eq n 0) (ret 1))
		(ret (mul n (fact (sub n 1)))))
	(fn main -> int (ret (fact 5))))`)
	assert.Equal(t, 120, code)
}

func TestRun_DecimalPrecision(t *testing.T) {
	code, out := runScript(t, `(module t (fn main -> int
		(set a decimal 0.1d)
		(set b decimal 0.2d)
		(set c decimal (add a b))
		(print c) (ret 0)))`)
	assert.Equal(t, 0, code)
	assert.Equal(t, "0.3", out)
}

func TestRun_TestSpec(t *testing.T) {
	var out bytes.Buffer
	code, err := RunSource(`(module t
		(fn add a int b int -> int (ret (add a b)))
		(test-spec add
			(case "pos" (input 2 3) (expect 5))
			(case "neg" (input -5 -3) (expect -8))))`,
		Options{Stdout: &out, Stderr: io.Discard})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "Test: add")
	assert.Contains(t, out.String(), "2 passed, 0 failed")
}

func TestRun_MapInsertionOrderRoundTrip(t *testing.T) {
	_, out := runScript(t, `(module t (fn main -> int
		(set m map (map_new))
		(map_set m "b" "1") (map_set m "a" "2") (map_set m "c" "3")
		(println (json_stringify m)) (ret 0)))`)
	assert.Equal(t, "{\"b\":\"1\",\"a\":\"2\",\"c\":\"3\"}\n", out)
}

func TestRun_TryCatchDivisionByZero(t *testing.T) {
	code, out := runScript(t, `(module t (fn main -> int
		(try (set x int (div 10 0))
		     (catch e string (print "caught: ") (println e)))
		(ret 0)))`)
	assert.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out, "caught: Division by zero"), "got %q", out)
}

func TestRun_CondGrading(t *testing.T) {
	_, out := runScript(t, `(module t (fn grade s int -> string
		(set r string "F")
		(cond ((ge s 90) (set r string "A"))
		      ((ge s 80) (set r string "B"))
		      ((ge s 70) (set r string "C"))
		      (true (set r string "F")))
		(ret r))
	(fn main -> int (println (grade 85)) (ret 0)))`)
	assert.Equal(t, "B\n", out)
}

func TestRun_TestSpecFailureReporting(t *testing.T) {
	var out bytes.Buffer
	code, err := RunSource(`(module t
		(fn id x int -> int (ret x))
		(test-spec id
			(case "right" (input 1) (expect 1))
			(case "wrong" (input 1) (expect 2))))`,
		Options{Stdout: &out, Stderr: io.Discard})
	require.NoError(t, err)
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "1 passed, 1 failed")
	assert.Contains(t, out.String(), "Expected: 2")
	assert.Contains(t, out.String(), "Got: 1")
}

func TestRun_TestSpecsReplaceMain(t *testing.T) {
	var out bytes.Buffer
	code, err := RunSource(`(module t
		(fn id x int -> int (ret x))
		(fn main -> int (println "main ran") (ret 9))
		(test-spec id (case "ok" (input 4) (expect 4))))`,
		Options{Stdout: &out, Stderr: io.Discard})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.NotContains(t, out.String(), "main ran")
}

func TestRun_NoTestsOptionForcesMain(t *testing.T) {
	var out bytes.Buffer
	code, err := RunSource(`(module t
		(fn id x int -> int (ret x))
		(fn main -> int (println "main ran") (ret 3))
		(test-spec id (case "ok" (input 4) (expect 4))))`,
		Options{Stdout: &out, Stderr: io.Discard, NoTests: true})
	require.NoError(t, err)
	assert.Equal(t, 3, code)
	assert.Contains(t, out.String(), "main ran")
}

func TestRun_TestSpecComputedInputsAndExpectations(t *testing.T) {
	// Inputs can be arbitrary expressions, including calls into the
	// module under test.
	var out bytes.Buffer
	code, err := RunSource(`(module t
		(fn triple x int -> int (ret (mul x 3)))
		(test-spec triple
			(case "computed input" (input (triple 1)) (expect 9))
			(case "computed expect" (input 2) (expect (triple 2)))))`,
		Options{Stdout: &out, Stderr: io.Discard})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "2 passed, 0 failed")
}

func TestRun_StructuralExpectations(t *testing.T) {
	var out bytes.Buffer
	code, err := RunSource(`(module t
		(fn wrap x int -> map (set m map (map_new)) (map_set m "v" x) (ret m))
		(test-spec wrap
			(case "map compare" (input 1) (expect {"v" 1}))))`,
		Options{Stdout: &out, Stderr: io.Discard})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "1 passed, 0 failed")
}

func TestRun_FileBuiltinsEndToEnd(t *testing.T) {
	dir := t.TempDir()
	_, out := runScript(t, `(module t (fn main -> int
		(set path string (array_get (argv) 0))
		(file_write path "hello")
		(if (file_exists path) (println "exists"))
		(println (string_from_int (file_size path)))
		(file_append path "!")
		(println (file_read path))
		(file_delete path)
		(if (not (file_exists path)) (println "gone"))
		(ret 0)))`, dir+"/data.txt")
	assert.Equal(t, "exists\n5\nhello!\ngone\n", out)
}

func TestRun_StringFromFloatFormat(t *testing.T) {
	_, out := runScript(t, `(module t (fn main -> int
		(println (string_from_float 2.5))
		(println (string_from_float 3.0))
		(ret 0)))`)
	assert.Equal(t, "2.5\n3.\n", out)
}
