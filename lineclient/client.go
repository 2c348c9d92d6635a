// Package lineclient is a synchronous client for the newline-delimited store protocol.
//
// Every request is one line and every reply is one line. A Client owns a single
// connection and keeps at most one request in flight. It does no locking of its own:
// callers that share a Client between goroutines must serialize the calls.
package lineclient

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"unicode"

	"kvbench/protocol"
)

// ErrIO is matched by every error that comes from the connection.
var ErrIO = errors.New("i/o error")

// NullReply is what the server answers for a missing key.
const NullReply = "null"

// IOError reports a failed write or a read that ended before a full line arrived.
type IOError struct {
	Op  string // dial, write or read
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

type Client struct {
	conn net.Conn
	r    *bufio.Reader
	w    *bufio.Writer
}

// Dial connects to a server at addr.
func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, &IOError{Op: "dial", Err: err}
	}
	return New(conn), nil
}

// New wraps an established connection.
func New(conn net.Conn) *Client {
	return &Client{
		conn: conn,
		r:    bufio.NewReader(conn),
		w:    bufio.NewWriter(conn),
	}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// SendCommand writes line plus a newline, flushes, and blocks until one reply line is
// read. The reply is returned without trailing whitespace.
func (c *Client) SendCommand(line string) (string, error) {
	if _, err := c.w.WriteString(line); err != nil {
		return "", &IOError{Op: "write", Err: err}
	}
	if err := c.w.WriteByte('\n'); err != nil {
		return "", &IOError{Op: "write", Err: err}
	}
	if err := c.w.Flush(); err != nil {
		return "", &IOError{Op: "write", Err: err}
	}

	reply, err := c.r.ReadString('\n')
	if err != nil {
		// a partial line without its terminator is not a reply
		return "", &IOError{Op: "read", Err: err}
	}
	return strings.TrimRightFunc(reply, unicode.IsSpace), nil
}

func (c *Client) send(verb string, args ...string) (string, error) {
	return c.SendCommand(protocol.FormatLine(verb, args...))
}

func (c *Client) Set(key, value string) (string, error) {
	return c.send("SET", key, protocol.EscapeValue(value))
}

func (c *Client) Get(key string) (string, error) {
	return c.send("GET", key)
}

func (c *Client) Incr(key string) (string, error) {
	return c.send("INCR", key)
}

func (c *Client) Append(key, value string) (string, error) {
	return c.send("APPEND", key, protocol.EscapeValue(value))
}

func (c *Client) Strlen(key string) (string, error) {
	return c.send("STRLEN", key)
}

// Export asks the server to write a snapshot to filename.
func (c *Client) Export(filename string) (string, error) {
	return c.send("EXPORT", filename)
}

func (c *Client) RPush(key, value string) (string, error) {
	return c.send("RPUSH", key, protocol.EscapeValue(value))
}

func (c *Client) LPush(key, value string) (string, error) {
	return c.send("LPUSH", key, protocol.EscapeValue(value))
}

func (c *Client) RPop(key string) (string, error) {
	return c.send("RPOP", key)
}

func (c *Client) LPop(key string) (string, error) {
	return c.send("LPOP", key)
}

func (c *Client) LLen(key string) (string, error) {
	return c.send("LLEN", key)
}

// LRange returns the raw reply for the elements between start and stop inclusive.
// Negative indexes count from the tail. Use ParseList to decode it.
func (c *Client) LRange(key string, start, stop int) (string, error) {
	return c.send("LRANGE", key, strconv.Itoa(start), strconv.Itoa(stop))
}

func (c *Client) Subscribe(channel string) (string, error) {
	return c.send("SUB", channel)
}

func (c *Client) Unsubscribe(channel string) (string, error) {
	return c.send("UNSUB", channel)
}

func (c *Client) Publish(channel, message string) (string, error) {
	return c.send("PUB", channel, protocol.EscapeValue(message))
}

// IsNull reports whether reply is the server's not-found answer.
func IsNull(reply string) bool {
	return reply == NullReply
}

// ParseList decodes an LRANGE reply such as ["a", "b"]. A not-found reply decodes to an
// empty list.
func ParseList(reply string) ([]string, error) {
	if IsNull(reply) || reply == "" {
		return []string{}, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(reply), &items); err != nil {
		return nil, fmt.Errorf("decode list reply: %w", err)
	}
	if items == nil {
		items = []string{}
	}
	return items, nil
}
