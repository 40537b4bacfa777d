package aisl

import "fmt"

// RunTests executes every test-spec of the module and reports the
// aggregate counts.  Each case builds a fresh call environment, binds
// the evaluated inputs to the target function's parameters and
// compares the result structurally against the expected value.
func (in *Interp) RunTests(mod *Module) (passed, failed int, err error) {
	for _, spec := range mod.Tests {
		fmt.Fprintf(in.stdout, "Test: %s\n", spec.FnName)

		fn, ok := in.funcs[spec.FnName]
		if !ok {
			return passed, failed, runtimeErrf("Unknown function: %s", spec.FnName)
		}

		for _, c := range spec.Cases {
			result, expected, cerr := in.runTestCase(fn, c)
			if cerr != nil {
				if _, isExit := cerr.(*exitSignal); isExit {
					return passed, failed, cerr
				}
				failed++
				fmt.Fprintf(in.stdout, "  ✗ %s\n", c.Desc)
				fmt.Fprintf(in.stdout, "    Error: %s\n", cerr.Error())
				continue
			}
			if valuesEqual(result, expected) {
				passed++
				fmt.Fprintf(in.stdout, "  ✓ %s\n", c.Desc)
			} else {
				failed++
				fmt.Fprintf(in.stdout, "  ✗ %s\n", c.Desc)
				fmt.Fprintf(in.stdout, "    Expected: %s\n", stringOfValue(expected))
				fmt.Fprintf(in.stdout, "    Got: %s\n", stringOfValue(result))
			}
		}
	}
	fmt.Fprintf(in.stdout, "%d passed, %d failed\n", passed, failed)
	return passed, failed, nil
}

// runTestCase evaluates the case's inputs in a functions-only
// environment, calls the target function, then evaluates the expected
// value in that same environment.
func (in *Interp) runTestCase(fn *Function, c TestCase) (result, expected Value, err error) {
	moduleEnv := newEnvironment()
	for name, f := range in.funcs {
		moduleEnv.bind(name, f)
	}

	args := make([]Value, len(c.Inputs))
	for i, input := range c.Inputs {
		v, err := in.evalExpr(input, moduleEnv)
		if err != nil {
			return nil, nil, err
		}
		args[i] = v
	}

	result, err = in.callFunction(fn, args)
	if err != nil {
		return nil, nil, err
	}

	expected, err = in.evalExpr(c.Expect, moduleEnv)
	if err != nil {
		return nil, nil, err
	}
	return result, expected, nil
}
