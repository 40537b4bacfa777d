package aisl

import (
	"fmt"
	"os"
)

// RunFile reads, parses and executes a source file, returning the
// process exit code the run calls for.
func (in *Interp) RunFile(path string) (int, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return 1, &RuntimeError{Message: "Cannot read " + path + ": " + err.Error()}
	}
	if in.scriptPath == "" {
		in.scriptPath = path
	}
	mod, err := ParseModule(string(source))
	if err != nil {
		return 1, err
	}
	return in.Run(mod)
}

// Run executes a parsed module.  Imports are resolved and merged
// first; then, when the module declares test-specs, the test runner
// replaces main execution, otherwise main's int return becomes the
// exit code.
func (in *Interp) Run(mod *Module) (int, error) {
	loader := NewLoader(in.scriptPath, func(format string, args ...interface{}) {
		fmt.Fprintf(in.stderr, format+"\n", args...)
	})
	for _, imp := range mod.Imports {
		imported, err := loader.Load(imp)
		if err != nil {
			return 1, err
		}
		for _, m := range imported {
			in.Register(m)
		}
	}
	in.Register(mod)

	if len(mod.Tests) > 0 && !in.noTests {
		_, failed, err := in.RunTests(mod)
		if exit, ok := err.(*exitSignal); ok {
			return exit.code, nil
		}
		if err != nil {
			return 1, err
		}
		if failed > 0 {
			return 1, nil
		}
		return 0, nil
	}

	mainFn, ok := in.funcs["main"]
	if !ok {
		return 1, &RuntimeError{Message: "No main function in module " + mod.Name}
	}
	result, err := in.callFunction(mainFn, nil)
	if exit, ok := err.(*exitSignal); ok {
		return exit.code, nil
	}
	if err != nil {
		return 1, err
	}
	if code, ok := result.(Int); ok {
		return int(code), nil
	}
	return 0, nil
}

// RunSource parses and executes source text directly; handy for
// embedding and for tests.
func RunSource(source string, opts Options) (int, error) {
	mod, err := ParseModule(source)
	if err != nil {
		return 1, err
	}
	return New(opts).Run(mod)
}
