package aisl

import (
	"encoding/binary"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
)

func init() {
	register(map[string]builtinFn{
		"process_spawn": builtinProcessSpawn,
		"process_write": builtinProcessWrite,
		"process_read":  builtinProcessRead,
		"process_wait":  builtinProcessWait,
		"process_kill":  builtinProcessKill,
		"process_exec":  builtinProcessExec,

		"channel_new":  builtinChannelNew,
		"channel_send": builtinChannelSend,
		"channel_recv": builtinChannelRecv,
	})
}

// builtinProcessSpawn has two shapes.  With a command and an argument
// array it wires stdin/stdout pipes and returns a channel carrying the
// child; with just a command it starts the child on the parent's stdio
// and returns a bare process handle.
func builtinProcessSpawn(in *Interp, args []Value) (Value, error) {
	switch len(args) {
	case 1:
		cmd, ok := args[0].(Str)
		if !ok {
			return nil, invalidArgs("process_spawn")
		}
		return spawnPlain(string(cmd))
	case 2:
		cmd, cok := args[0].(Str)
		argv, aok := args[1].(*Array)
		if !cok || !aok {
			return nil, invalidArgs("process_spawn")
		}
		extra := make([]string, len(argv.Elems))
		for i, e := range argv.Elems {
			s, ok := e.(Str)
			if !ok {
				return nil, invalidArgs("process_spawn")
			}
			extra[i] = string(s)
		}
		return spawnPiped(string(cmd), extra)
	}
	return nil, invalidArgs("process_spawn")
}

func spawnPlain(cmd string) (Value, error) {
	path, err := exec.LookPath(cmd)
	if err != nil {
		return nil, ioError(err, "process_spawn failed")
	}
	proc, err := os.StartProcess(path, []string{cmd}, &os.ProcAttr{
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	})
	if err != nil {
		return nil, ioError(err, "process_spawn failed")
	}
	return &Process{Proc: proc}, nil
}

func spawnPiped(cmd string, args []string) (Value, error) {
	path, err := exec.LookPath(cmd)
	if err != nil {
		return nil, ioError(err, "process_spawn failed")
	}

	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return nil, ioError(err, "process_spawn failed")
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		stdinR.Close()
		stdinW.Close()
		return nil, ioError(err, "process_spawn failed")
	}

	proc, err := os.StartProcess(path, append([]string{cmd}, args...), &os.ProcAttr{
		Files: []*os.File{stdinR, stdoutW, os.Stderr},
	})
	// The child owns its side of both pipes now.
	stdinR.Close()
	stdoutW.Close()
	if err != nil {
		stdinW.Close()
		stdoutR.Close()
		return nil, ioError(err, "process_spawn failed")
	}
	return &Channel{Read: stdoutR, Write: stdinW, Proc: proc}, nil
}

func builtinProcessWrite(in *Interp, args []Value) (Value, error) {
	if len(args) != 2 {
		return nil, invalidArgs("process_write")
	}
	ch, cok := args[0].(*Channel)
	data, dok := args[1].(Str)
	if !cok || !dok || ch.Write == nil {
		return nil, invalidArgs("process_write")
	}
	_, err := ch.Write.WriteString(string(data))
	return Bool(err == nil), nil
}

// builtinProcessRead polls the channel's read end for 50ms; with no
// data ready it returns "" instead of blocking, otherwise it reads up
// to 4096 bytes in non-blocking mode.
func builtinProcessRead(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("process_read")
	}
	ch, ok := args[0].(*Channel)
	if !ok || ch.Read == nil {
		return nil, invalidArgs("process_read")
	}

	fd := int(ch.Read.Fd())
	ready, err := waitReadable([]int{fd}, 50*time.Millisecond)
	if err != nil {
		return nil, ioError(err, "process_read failed")
	}
	if len(ready) == 0 {
		return Str(""), nil
	}

	if err := syscall.SetNonblock(fd, true); err != nil {
		return nil, ioError(err, "process_read failed")
	}
	defer syscall.SetNonblock(fd, false)

	buf := make([]byte, 4096)
	n, _ := syscall.Read(fd, buf)
	if n <= 0 {
		return Str(""), nil
	}
	return Str(buf[:n]), nil
}

// builtinProcessWait closes a channel's pipes before waiting so the
// child sees EOF on its stdin; the result is the exit code.
func builtinProcessWait(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("process_wait")
	}
	switch v := args[0].(type) {
	case *Process:
		return waitOn(v.Proc)
	case *Channel:
		v.Close()
		if v.Proc == nil {
			return Int(0), nil
		}
		return waitOn(v.Proc)
	}
	return nil, invalidArgs("process_wait")
}

func waitOn(proc *os.Process) (Value, error) {
	state, err := proc.Wait()
	if err != nil {
		return nil, ioError(err, "process_wait failed")
	}
	return Int(state.ExitCode()), nil
}

func builtinProcessKill(in *Interp, args []Value) (Value, error) {
	if len(args) != 2 {
		return nil, invalidArgs("process_kill")
	}
	sig, sok := args[1].(Int)
	if !sok {
		return nil, invalidArgs("process_kill")
	}
	var pid int
	switch v := args[0].(type) {
	case Int:
		pid = int(v)
	case *Process:
		pid = v.Proc.Pid
	case *Channel:
		if v.Proc == nil {
			return Bool(false), nil
		}
		pid = v.Proc.Pid
	default:
		return nil, invalidArgs("process_kill")
	}
	return Bool(syscall.Kill(pid, syscall.Signal(sig)) == nil), nil
}

// builtinProcessExec runs a shell command synchronously, reading the
// parent's stdin and writing to the interpreter's stdout and stderr
// writers, and returns its exit code.
func builtinProcessExec(in *Interp, args []Value) (Value, error) {
	cmdline, err := oneString("process_exec", args)
	if err != nil {
		return nil, err
	}
	cmd := exec.Command("/bin/sh", "-c", cmdline)
	cmd.Stdin = os.Stdin
	cmd.Stdout = in.stdout
	cmd.Stderr = in.stderr
	if rerr := cmd.Run(); rerr != nil {
		var exitErr *exec.ExitError
		if errors.As(rerr, &exitErr) {
			return Int(exitErr.ExitCode()), nil
		}
		return nil, ioError(rerr, "process_exec failed")
	}
	return Int(0), nil
}

func builtinChannelNew(in *Interp, args []Value) (Value, error) {
	if len(args) != 0 {
		return nil, invalidArgs("channel_new")
	}
	r, w, err := os.Pipe()
	if err != nil {
		return nil, ioError(err, "channel_new failed")
	}
	return &Channel{Read: r, Write: w}, nil
}

// Channel framing: 4-byte little-endian length, one type tag byte,
// then the textual payload.  The length covers the tag and payload.
const (
	channelTagInt    = 'i'
	channelTagFloat  = 'f'
	channelTagBool   = 'b'
	channelTagString = 's'
)

func builtinChannelSend(in *Interp, args []Value) (Value, error) {
	if len(args) != 2 {
		return nil, invalidArgs("channel_send")
	}
	ch, ok := args[0].(*Channel)
	if !ok || ch.Write == nil {
		return nil, invalidArgs("channel_send")
	}

	var tag byte
	var payload string
	switch v := args[1].(type) {
	case Int:
		tag, payload = channelTagInt, strconv.FormatInt(int64(v), 10)
	case Float:
		tag, payload = channelTagFloat, formatFloat(float64(v))
	case Bool:
		tag = channelTagBool
		if v {
			payload = "true"
		} else {
			payload = "false"
		}
	case Str:
		tag, payload = channelTagString, string(v)
	default:
		return nil, runtimeErrf("Cannot send %s over a channel", args[1].Type())
	}

	frame := make([]byte, 4+1+len(payload))
	binary.LittleEndian.PutUint32(frame, uint32(1+len(payload)))
	frame[4] = tag
	copy(frame[5:], payload)
	if _, err := ch.Write.Write(frame); err != nil {
		return nil, ioError(err, "channel_send failed")
	}
	return Unit{}, nil
}

// builtinChannelRecv blocks for one frame.  Unknown tags degrade to
// returning the raw payload as a string.
func builtinChannelRecv(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("channel_recv")
	}
	ch, ok := args[0].(*Channel)
	if !ok || ch.Read == nil {
		return nil, invalidArgs("channel_recv")
	}

	header := make([]byte, 4)
	if _, err := io.ReadFull(ch.Read, header); err != nil {
		return nil, ioError(err, "channel_recv failed")
	}
	length := binary.LittleEndian.Uint32(header)
	if length == 0 {
		return Str(""), nil
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(ch.Read, body); err != nil {
		return nil, ioError(err, "channel_recv failed")
	}

	tag, payload := body[0], string(body[1:])
	switch tag {
	case channelTagInt:
		i, err := strconv.ParseInt(payload, 10, 64)
		if err != nil {
			return Str(payload), nil
		}
		return Int(i), nil
	case channelTagFloat:
		f, err := strconv.ParseFloat(strings.TrimSuffix(payload, "."), 64)
		if err != nil {
			return Str(payload), nil
		}
		return Float(f), nil
	case channelTagBool:
		return Bool(payload == "true"), nil
	}
	// channelTagString, and unknown tags degrading to a raw string.
	return Str(payload), nil
}
