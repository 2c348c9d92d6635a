// Package protocol turns the two logical benchmark operations into requests on the wire.
//
// Three variants sit behind the Protocol interface: the etcd v3 client (the library
// frames requests itself), RESP array-of-bulk-strings frames, and the newline-delimited
// text protocol with double-quote escaping. A variant is picked once by name and every
// worker dials its own Conn from it.
package protocol

import (
	"context"
	"fmt"
	"time"

	"kvbench/control/constants"

	"go.uber.org/zap"
)

// OpKind is the logical operation a worker performs.
type OpKind int

const (
	OpWrite OpKind = iota
	OpRead
)

func (k OpKind) String() string {
	switch k {
	case OpWrite:
		return "write"
	case OpRead:
		return "read"
	default:
		return "unknown"
	}
}

// Operation is one request synthesized by a worker. Value is empty for reads.
type Operation struct {
	Kind  OpKind
	Key   string
	Value string
}

func Write(key, value string) Operation {
	return Operation{Kind: OpWrite, Key: key, Value: value}
}

func Read(key string) Operation {
	return Operation{Kind: OpRead, Key: key}
}

// Encoder renders an operation as the bytes of one command frame.
type Encoder interface {
	Encode(op Operation) []byte
}

// Conn is a single worker's connection. It is never shared between goroutines.
type Conn interface {
	// Do sends op and waits for one reply. The reply content is discarded.
	Do(ctx context.Context, op Operation) error
	Close() error
}

// Protocol dials connections that speak one wire format.
type Protocol interface {
	Name() string
	Dial(ctx context.Context, addr string) (Conn, error)
}

// Options tune how Lookup builds a protocol. Zero values pick the defaults.
type Options struct {
	// DrainBufferSize bounds the bytes read back per request on wire protocols.
	DrainBufferSize int
	// DialTimeout is handed to the etcd client; wire protocols dial without a timeout.
	DialTimeout time.Duration
	Logger      *zap.Logger
}

// Lookup returns the protocol registered under name.
func Lookup(name string, opts Options) (Protocol, error) {
	switch name {
	case constants.PROTOCOL_NATIVE:
		return NewNativeDriver(opts.DialTimeout, opts.Logger), nil
	case constants.PROTOCOL_RESP:
		return NewWireProtocol(constants.PROTOCOL_RESP, RESPEncoder{}, bufferSize(opts.DrainBufferSize, constants.RESP_DRAIN_BUFFER_SIZE)), nil
	case constants.PROTOCOL_LINE:
		return NewWireProtocol(constants.PROTOCOL_LINE, LineEncoder{}, bufferSize(opts.DrainBufferSize, constants.LINE_DRAIN_BUFFER_SIZE)), nil
	default:
		return nil, fmt.Errorf("unknown protocol %q", name)
	}
}

// Names lists the protocols Lookup accepts.
func Names() []string {
	return []string{constants.PROTOCOL_NATIVE, constants.PROTOCOL_RESP, constants.PROTOCOL_LINE}
}

func bufferSize(n, fallback int) int {
	if n > 0 {
		return n
	}
	return fallback
}
