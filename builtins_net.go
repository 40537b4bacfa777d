package aisl

import (
	"crypto/tls"
	"fmt"
	"net"
	"syscall"
	"time"
)

func init() {
	register(map[string]builtinFn{
		"tcp_listen":      builtinTcpListen,
		"tcp_accept":      builtinTcpAccept,
		"tcp_connect":     builtinTcpConnect,
		"tcp_send":        builtinTcpSend,
		"tcp_receive":     builtinTcpReceive,
		"tcp_close":       builtinTcpClose,
		"tcp_tls_connect": builtinTcpTlsConnect,
		"socket_select":   builtinSocketSelect,
	})
}

const tcpDefaultReceiveMax = 4096

func builtinTcpListen(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("tcp_listen")
	}
	port, ok := args[0].(Int)
	if !ok {
		return nil, invalidArgs("tcp_listen")
	}
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, ioError(err, "tcp_listen failed")
	}
	return &Socket{Listener: ln}, nil
}

func builtinTcpAccept(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("tcp_accept")
	}
	srv, ok := args[0].(*Socket)
	if !ok || srv.Listener == nil {
		return nil, invalidArgs("tcp_accept")
	}
	conn, err := srv.Listener.Accept()
	if err != nil {
		return nil, ioError(err, "tcp_accept failed")
	}
	return &Socket{Conn: conn}, nil
}

// builtinTcpConnect resolves the host through DNS and dials the first
// address.
func builtinTcpConnect(in *Interp, args []Value) (Value, error) {
	if len(args) != 2 {
		return nil, invalidArgs("tcp_connect")
	}
	host, hok := args[0].(Str)
	port, pok := args[1].(Int)
	if !hok || !pok {
		return nil, invalidArgs("tcp_connect")
	}
	conn, err := net.Dial("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, ioError(err, "tcp_connect failed")
	}
	return &Socket{Conn: conn}, nil
}

// builtinTcpTlsConnect establishes a TLS client connection with SNI.
// The resulting socket flows through the same send/receive/close
// builtins as a plain one.
func builtinTcpTlsConnect(in *Interp, args []Value) (Value, error) {
	if len(args) != 2 {
		return nil, invalidArgs("tcp_tls_connect")
	}
	host, hok := args[0].(Str)
	port, pok := args[1].(Int)
	if !hok || !pok {
		return nil, invalidArgs("tcp_tls_connect")
	}
	conn, err := tls.Dial("tcp", fmt.Sprintf("%s:%d", host, port), &tls.Config{
		ServerName: string(host),
		MinVersion: tls.VersionTLS12,
	})
	if err != nil {
		return nil, ioError(err, "tcp_tls_connect failed")
	}
	return &Socket{Conn: conn}, nil
}

func builtinTcpSend(in *Interp, args []Value) (Value, error) {
	if len(args) != 2 {
		return nil, invalidArgs("tcp_send")
	}
	sock, sok := args[0].(*Socket)
	data, dok := args[1].(Str)
	if !sok || !dok || sock.Conn == nil {
		return nil, invalidArgs("tcp_send")
	}
	n, err := sock.Conn.Write([]byte(data))
	if err != nil {
		return nil, ioError(err, "tcp_send failed")
	}
	return Int(n), nil
}

// builtinTcpReceive blocks for one read of up to max bytes (4096 by
// default).  A closed peer yields the empty string.
func builtinTcpReceive(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 && len(args) != 2 {
		return nil, invalidArgs("tcp_receive")
	}
	sock, ok := args[0].(*Socket)
	if !ok || sock.Conn == nil {
		return nil, invalidArgs("tcp_receive")
	}
	max := tcpDefaultReceiveMax
	if len(args) == 2 {
		m, mok := args[1].(Int)
		if !mok || m <= 0 {
			return nil, invalidArgs("tcp_receive")
		}
		max = int(m)
	}
	buf := make([]byte, max)
	n, _ := sock.Conn.Read(buf)
	if n > 0 {
		return Str(buf[:n]), nil
	}
	return Str(""), nil
}

func builtinTcpClose(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("tcp_close")
	}
	switch s := args[0].(type) {
	case *Socket:
		s.Close()
	case *WsSocket:
		s.Close()
	default:
		return nil, invalidArgs("tcp_close")
	}
	return Unit{}, nil
}

// builtinSocketSelect polls the given sockets for readability with a
// 10ms timeout and returns the positional indices of the ready ones.
// Entries that are not socket-like values are skipped.
func builtinSocketSelect(in *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, invalidArgs("socket_select")
	}
	arr, ok := args[0].(*Array)
	if !ok {
		return nil, invalidArgs("socket_select")
	}

	var fds []int
	var positions []int
	for i, v := range arr.Elems {
		fd, ok := readableFd(v)
		if !ok {
			continue
		}
		fds = append(fds, fd)
		positions = append(positions, i)
	}

	out := NewArray()
	if len(fds) == 0 {
		return out, nil
	}

	ready, err := waitReadable(fds, 10*time.Millisecond)
	if err != nil {
		return nil, ioError(err, "socket_select failed")
	}
	readySet := map[int]bool{}
	for _, fd := range ready {
		readySet[fd] = true
	}
	for i, fd := range fds {
		if readySet[fd] {
			out.Elems = append(out.Elems, Int(positions[i]))
		}
	}
	return out, nil
}

// readableFd digs the read-side file descriptor out of a socket-like
// value.  TLS and WebSocket transports report readiness of the
// underlying TCP stream.
func readableFd(v Value) (int, bool) {
	switch val := v.(type) {
	case *Socket:
		if val.Conn != nil {
			return connFd(val.Conn)
		}
		if val.Listener != nil {
			if sc, ok := val.Listener.(syscall.Conn); ok {
				return rawFd(sc)
			}
		}
	case *WsSocket:
		return connFd(val.Conn)
	case *Channel:
		if val.Read != nil {
			return int(val.Read.Fd()), true
		}
	}
	return 0, false
}

func connFd(conn net.Conn) (int, bool) {
	if tc, ok := conn.(*tls.Conn); ok {
		conn = tc.NetConn()
	}
	if sc, ok := conn.(syscall.Conn); ok {
		return rawFd(sc)
	}
	return 0, false
}

func rawFd(sc syscall.Conn) (int, bool) {
	raw, err := sc.SyscallConn()
	if err != nil {
		return 0, false
	}
	fd := -1
	raw.Control(func(f uintptr) { fd = int(f) })
	if fd < 0 {
		return 0, false
	}
	return fd, true
}

// waitReadable runs select(2) over the descriptors and returns the
// subset readable within the timeout.
func waitReadable(fds []int, timeout time.Duration) ([]int, error) {
	var set syscall.FdSet
	maxFd := 0
	for _, fd := range fds {
		fdsetSet(&set, fd)
		if fd > maxFd {
			maxFd = fd
		}
	}
	tv := syscall.NsecToTimeval(timeout.Nanoseconds())
	n, err := syscall.Select(maxFd+1, &set, nil, nil, &tv)
	if err != nil {
		if err == syscall.EINTR {
			return nil, nil
		}
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	var ready []int
	for _, fd := range fds {
		if fdsetIsSet(&set, fd) {
			ready = append(ready, fd)
		}
	}
	return ready, nil
}

func fdsetSet(set *syscall.FdSet, fd int) {
	set.Bits[fd/64] |= 1 << (uint(fd) % 64)
}

func fdsetIsSet(set *syscall.FdSet, fd int) bool {
	return set.Bits[fd/64]&(1<<(uint(fd)%64)) != 0
}
