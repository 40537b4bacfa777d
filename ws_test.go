package aisl

import (
	"bytes"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWsAcceptKey(t *testing.T) {
	// The worked example from RFC 6455 section 1.3.
	assert.Equal(t, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=",
		wsAcceptKey("dGhlIHNhbXBsZSBub25jZQ=="))
}

func TestWsFrameRoundTrip(t *testing.T) {
	payloads := []string{
		"",
		"hello",
		strings.Repeat("x", 125),
		strings.Repeat("y", 126),
		strings.Repeat("z", 70000),
	}
	for _, payload := range payloads {
		frame := encodeFrame(wsOpText, []byte(payload), false)
		opcode, decoded, err := decodeFrame(bytes.NewReader(frame))
		require.NoError(t, err)
		assert.Equal(t, byte(wsOpText), opcode)
		assert.Equal(t, payload, string(decoded))
	}
}

func TestWsFrameLengthEncodings(t *testing.T) {
	short := encodeFrame(wsOpText, []byte("hi"), false)
	assert.Equal(t, byte(2), short[1]&0x7F)

	medium := encodeFrame(wsOpText, make([]byte, 300), false)
	assert.Equal(t, byte(126), medium[1]&0x7F)
	assert.Equal(t, byte(1), medium[2]) // 300 = 0x012C big endian
	assert.Equal(t, byte(0x2C), medium[3])

	long := encodeFrame(wsOpText, make([]byte, 70000), false)
	assert.Equal(t, byte(127), long[1]&0x7F)
}

func TestWsFrameFinAndOpcode(t *testing.T) {
	frame := encodeFrame(wsOpText, []byte("m"), false)
	assert.Equal(t, byte(0x81), frame[0]) // FIN=1, opcode=1
	assert.Zero(t, frame[1]&0x80)         // unmasked
}

func TestWsDecodeMaskedFrame(t *testing.T) {
	payload := []byte("masked message")
	key := [4]byte{0x12, 0x34, 0x56, 0x78}

	var frame []byte
	frame = append(frame, 0x81, 0x80|byte(len(payload)))
	frame = append(frame, key[:]...)
	for i, b := range payload {
		frame = append(frame, b^key[i%4])
	}

	opcode, decoded, err := decodeFrame(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, byte(wsOpText), opcode)
	assert.Equal(t, payload, decoded)
}

func TestWsZeroMaskIsIdentity(t *testing.T) {
	frame := encodeFrame(wsOpText, []byte("same"), true)
	opcode, decoded, err := decodeFrame(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, byte(wsOpText), opcode)
	assert.Equal(t, "same", string(decoded))
}

func TestWsReceive_AnswersPingAndSkipsPong(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go func() {
		client.Write(encodeFrame(wsOpPing, []byte("ping-payload"), false))
		// Read back the pong the receiver must send.
		op, payload, err := decodeFrame(client)
		if err == nil && op == wsOpPong && string(payload) == "ping-payload" {
			client.Write(encodeFrame(wsOpPong, nil, false))
			client.Write(encodeFrame(wsOpText, []byte("finally"), false))
		}
	}()

	v, err := builtinWsReceive(testInterp(), []Value{&WsSocket{Conn: server}})
	require.NoError(t, err)
	assert.Equal(t, Str("finally"), v)
}

func TestWsReceive_CloseIsEOF(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go client.Write(encodeFrame(wsOpClose, nil, false))

	v, err := builtinWsReceive(testInterp(), []Value{&WsSocket{Conn: server}})
	require.NoError(t, err)
	assert.Equal(t, Str(""), v)
}

func TestWsHandshake_EndToEnd(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	serverDone := make(chan error, 1)
	go func() {
		v, err := builtinWsAccept(testInterp(), []Value{&Socket{Listener: ln}})
		if err != nil {
			serverDone <- err
			return
		}
		ws := v.(*WsSocket)
		msg, err := builtinWsReceive(testInterp(), []Value{ws})
		if err != nil {
			serverDone <- err
			return
		}
		_, err = builtinWsSend(testInterp(), []Value{ws, Str("echo:" + string(msg.(Str)))})
		serverDone <- err
	}()

	v, err := builtinWsConnect(testInterp(), []Value{Str("127.0.0.1"), Int(port), Str("/chat")})
	require.NoError(t, err)
	ws := v.(*WsSocket)

	_, err = builtinWsSend(testInterp(), []Value{ws, Str("hello")})
	require.NoError(t, err)

	reply, err := builtinWsReceive(testInterp(), []Value{ws})
	require.NoError(t, err)
	assert.Equal(t, Str("echo:hello"), reply)

	require.NoError(t, <-serverDone)
	_, err = builtinWsClose(testInterp(), []Value{ws})
	require.NoError(t, err)
}
