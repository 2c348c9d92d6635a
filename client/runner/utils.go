package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"kvbench/protocol"

	"go.etcd.io/etcd/api/v3/v3rpc/rpctypes"
	clientv3 "go.etcd.io/etcd/client/v3"
	"google.golang.org/grpc/status"
)

// ConnectError means a worker could not open its connection and did no work.
type ConnectError struct {
	WorkerID int
	Addr     string
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("worker %d failed to connect to %s: %v", e.WorkerID, e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// TransientIOError means a single operation was abandoned. The worker moves on.
type TransientIOError struct {
	WorkerID  int
	Operation protocol.OpKind
	Err       error
}

func (e *TransientIOError) Error() string {
	return fmt.Sprintf("worker %d %s failed: %v", e.WorkerID, e.Operation, e.Err)
}

func (e *TransientIOError) Unwrap() error {
	return e.Err
}

// GetErrInfo maps an error to a status code and text for logs and exported metrics.
func GetErrInfo(err error) (int, string) {
	var statusCode int
	var statusText string
	var etcdErr rpctypes.EtcdError
	var opErr *net.OpError
	if err == nil {
		statusCode = 0
		statusText = "success"
	} else if errors.Is(err, context.Canceled) {
		statusCode = -1
		statusText = "Context canceled by another goroutine"
	} else if errors.Is(err, context.DeadlineExceeded) {
		statusCode = -2
		statusText = "Request deadline exceeded"
	} else if errors.As(err, &etcdErr) {
		// etcd client rpc error
		statusCode = int(etcdErr.Code())
		statusText = etcdErr.Error()
	} else if ev, ok := status.FromError(err); ok {
		// gRPC status error
		statusCode = int(ev.Code())
		statusText = ev.Message()
	} else if clientv3.IsConnCanceled(err) {
		statusCode = -3
		statusText = "gRPC Client connection closed"
	} else if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
		statusCode = -5
		statusText = "Connection closed by peer"
	} else if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		statusCode = -6
		statusText = "Connection reset"
	} else if errors.As(err, &opErr) {
		statusCode = -7
		statusText = fmt.Sprintf("%s failed: %v", opErr.Op, opErr.Err)
	} else {
		statusCode = -4
		statusText = err.Error()
	}
	return statusCode, statusText
}
