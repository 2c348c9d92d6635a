package protocol

import (
	"context"
	"fmt"
	"net"
)

// WireProtocol speaks a byte-level format over a plain TCP connection.
type WireProtocol struct {
	name      string
	encoder   Encoder
	drainSize int
}

func NewWireProtocol(name string, encoder Encoder, drainSize int) *WireProtocol {
	return &WireProtocol{name: name, encoder: encoder, drainSize: drainSize}
}

func (p *WireProtocol) Name() string {
	return p.name
}

// Dial opens the worker's TCP connection. No timeout is applied beyond what the
// operating system enforces.
func (p *WireProtocol) Dial(ctx context.Context, addr string) (Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewWireConn(conn, p.encoder, p.drainSize), nil
}

type wireConn struct {
	conn    net.Conn
	encoder Encoder
	buf     []byte
}

// NewWireConn wraps an established connection. drainSize bounds how much of each reply
// is read back.
func NewWireConn(conn net.Conn, encoder Encoder, drainSize int) Conn {
	return &wireConn{conn: conn, encoder: encoder, buf: make([]byte, drainSize)}
}

// Do writes the frame for op and then performs a single read into the drain buffer.
// Reply bytes are thrown away; a failed read is still returned so the caller can count it.
func (c *wireConn) Do(_ context.Context, op Operation) error {
	if _, err := c.conn.Write(c.encoder.Encode(op)); err != nil {
		return &WriteError{Err: err}
	}
	if _, err := c.conn.Read(c.buf); err != nil {
		return &DrainError{Err: err}
	}
	return nil
}

func (c *wireConn) Close() error {
	return c.conn.Close()
}

// WriteError means the frame did not reach the socket.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write frame: %v", e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// DrainError means the frame was sent but no reply could be read.
type DrainError struct {
	Err error
}

func (e *DrainError) Error() string {
	return fmt.Sprintf("drain reply: %v", e.Err)
}

func (e *DrainError) Unwrap() error {
	return e.Err
}
