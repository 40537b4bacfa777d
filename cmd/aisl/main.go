package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mlainez/aisl"
)

func main() {
	var (
		astOnly = flag.Bool("ast-only", false, "Print the parsed module tree and exit")
		noTests = flag.Bool("no-tests", false, "Run main even when the module declares test-specs")
	)
	flag.Parse()

	log.SetFlags(0)

	if flag.NArg() < 1 {
		log.Fatal("Usage: aisl [-ast-only] [-no-tests] <source.aisl> [args...]")
	}
	scriptPath := flag.Arg(0)

	if *astOnly {
		source, err := os.ReadFile(scriptPath)
		if err != nil {
			log.Fatalf("Cannot read %s: %s", scriptPath, err)
		}
		mod, err := aisl.ParseModule(string(source))
		if err != nil {
			fail(err)
		}
		fmt.Println(mod)
		return
	}

	interp := aisl.New(aisl.Options{
		ScriptPath: scriptPath,
		Args:       flag.Args()[1:],
		NoTests:    *noTests,
	})
	code, err := interp.RunFile(scriptPath)
	if err != nil {
		fail(err)
	}
	os.Exit(code)
}

// fail reports the error on stderr in its class's terminal format and
// exits with code 1.
func fail(err error) {
	switch err.(type) {
	case *aisl.LexError:
		log.Fatalf("Lexer error: %s", err)
	case *aisl.ParseError:
		log.Fatalf("Parse error: %s", err)
	default:
		log.Fatalf("Runtime error: %s", err)
	}
}
