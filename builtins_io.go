package aisl

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
)

func init() {
	register(map[string]builtinFn{
		"file_read":   builtinFileRead,
		"file_write":  builtinFileWrite,
		"file_append": builtinFileAppend,
		"file_exists": builtinFileExists,
		"file_size":   builtinFileSize,
		"file_delete": builtinFileDelete,

		"dir_list":   builtinDirList,
		"dir_create": builtinDirCreate,
		"dir_delete": builtinDirDelete,

		"argv":       builtinArgv,
		"argv_count": builtinArgvCount,
		"getenv":     builtinGetenv,
		"setenv":     builtinSetenv,
		"exit":       builtinExit,

		"print":          builtinPrint,
		"println":        builtinPrintln,
		"print_debug":    builtinPrintDebug,
		"read_line":      builtinReadLine,
		"stdin_read_all": builtinStdinReadAll,

		"time_now": builtinTimeNow,
		"sleep":    builtinSleep,
	})
}

const defaultWritePermission = 0644 // -rw-r--r--

// ioError folds an OS failure into the runtime error taxonomy, keeping
// the OS description in the message.
func ioError(err error, context string) error {
	return &RuntimeError{Message: errors.Wrap(err, context).Error()}
}

func builtinFileRead(in *Interp, args []Value) (Value, error) {
	path, err := oneString("file_read", args)
	if err != nil {
		return nil, err
	}
	data, rerr := os.ReadFile(path)
	if rerr != nil {
		return nil, ioError(rerr, "file_read failed")
	}
	return Str(data), nil
}

func builtinFileWrite(in *Interp, args []Value) (Value, error) {
	path, content, err := twoStrings("file_write", args)
	if err != nil {
		return nil, err
	}
	if werr := os.WriteFile(path, []byte(content), defaultWritePermission); werr != nil {
		return Bool(false), nil
	}
	return Bool(true), nil
}

func builtinFileAppend(in *Interp, args []Value) (Value, error) {
	path, content, err := twoStrings("file_append", args)
	if err != nil {
		return nil, err
	}
	f, oerr := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, defaultWritePermission)
	if oerr != nil {
		return Bool(false), nil
	}
	defer f.Close()
	if _, werr := f.WriteString(content); werr != nil {
		return Bool(false), nil
	}
	return Bool(true), nil
}

func builtinFileExists(in *Interp, args []Value) (Value, error) {
	path, err := oneString("file_exists", args)
	if err != nil {
		return nil, err
	}
	info, serr := os.Stat(path)
	return Bool(serr == nil && !info.IsDir()), nil
}

func builtinFileSize(in *Interp, args []Value) (Value, error) {
	path, err := oneString("file_size", args)
	if err != nil {
		return nil, err
	}
	info, serr := os.Stat(path)
	if serr != nil {
		return nil, ioError(serr, "file_size failed")
	}
	return Int(info.Size()), nil
}

func builtinFileDelete(in *Interp, args []Value) (Value, error) {
	path, err := oneString("file_delete", args)
	if err != nil {
		return nil, err
	}
	return Bool(os.Remove(path) == nil), nil
}

// builtinDirList returns entry names; any error collapses to an empty
// array.
func builtinDirList(in *Interp, args []Value) (Value, error) {
	path, err := oneString("dir_list", args)
	if err != nil {
		return nil, err
	}
	entries, derr := os.ReadDir(path)
	out := NewArray()
	if derr != nil {
		return out, nil
	}
	for _, e := range entries {
		out.Elems = append(out.Elems, Str(e.Name()))
	}
	return out, nil
}

func builtinDirCreate(in *Interp, args []Value) (Value, error) {
	path, err := oneString("dir_create", args)
	if err != nil {
		return nil, err
	}
	return Bool(os.MkdirAll(path, 0755) == nil), nil
}

func builtinDirDelete(in *Interp, args []Value) (Value, error) {
	path, err := oneString("dir_delete", args)
	if err != nil {
		return nil, err
	}
	return Bool(os.Remove(path) == nil), nil
}

// builtinArgv yields the arguments after the script path on the
// command line.
func builtinArgv(in *Interp, args []Value) (Value, error) {
	if len(args) != 0 {
		return nil, invalidArgs("argv")
	}
	out := NewArray()
	for _, a := range in.scriptArgs {
		out.Elems = append(out.Elems, Str(a))
	}
	return out, nil
}

func builtinArgvCount(in *Interp, args []Value) (Value, error) {
	if len(args) != 0 {
		return nil, invalidArgs("argv_count")
	}
	return Int(len(in.scriptArgs)), nil
}

// builtinGetenv returns "" for unset variables rather than erroring.
func builtinGetenv(in *Interp, args []Value) (Value, error) {
	name, err := oneString("getenv", args)
	if err != nil {
		return nil, err
	}
	return Str(os.Getenv(name)), nil
}

func builtinSetenv(in *Interp, args []Value) (Value, error) {
	name, value, err := twoStrings("setenv", args)
	if err != nil {
		return nil, err
	}
	return Bool(os.Setenv(name, value) == nil), nil
}

func builtinExit(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("exit")
	}
	code, ok := args[0].(Int)
	if !ok {
		return nil, invalidArgs("exit")
	}
	return nil, &exitSignal{code: int(code)}
}

func builtinPrint(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("print")
	}
	fmt.Fprint(in.stdout, stringOfValue(args[0]))
	return Unit{}, nil
}

func builtinPrintln(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("println")
	}
	fmt.Fprintln(in.stdout, stringOfValue(args[0]))
	return Unit{}, nil
}

// builtinPrintDebug always shows the nested rendering, so strings come
// out quoted and container structure is visible.
func builtinPrintDebug(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("print_debug")
	}
	fmt.Fprintln(in.stdout, stringOfValueNested(args[0]))
	return Unit{}, nil
}

func builtinReadLine(in *Interp, args []Value) (Value, error) {
	if len(args) != 0 {
		return nil, invalidArgs("read_line")
	}
	line, err := in.stdin.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, ioError(err, "read_line failed")
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return Str(line), nil
}

func builtinStdinReadAll(in *Interp, args []Value) (Value, error) {
	if len(args) != 0 {
		return nil, invalidArgs("stdin_read_all")
	}
	data, err := io.ReadAll(in.stdin)
	if err != nil {
		return nil, ioError(err, "stdin_read_all failed")
	}
	return Str(data), nil
}

func builtinTimeNow(in *Interp, args []Value) (Value, error) {
	if len(args) != 0 {
		return nil, invalidArgs("time_now")
	}
	return Int(time.Now().Unix()), nil
}

// builtinSleep blocks the whole interpreter; there is no asynchrony to
// yield to.
func builtinSleep(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("sleep")
	}
	ms, ok := args[0].(Int)
	if !ok {
		return nil, invalidArgs("sleep")
	}
	time.Sleep(time.Duration(ms) * time.Millisecond)
	return Unit{}, nil
}
