package protocol

import (
	"context"
	"fmt"
	"time"

	"kvbench/control/constants"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// NativeDriver hands operations to the etcd v3 client, which does its own framing,
// connection management and error reporting. Errors are returned untouched, so callers
// see rpctypes.EtcdError and gRPC status errors.
type NativeDriver struct {
	dialTimeout time.Duration
	logger      *zap.Logger
}

func NewNativeDriver(dialTimeout time.Duration, logger *zap.Logger) *NativeDriver {
	if dialTimeout <= 0 {
		dialTimeout = constants.DEFAULT_DIAL_TIMEOUT_SECONDS * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NativeDriver{dialTimeout: dialTimeout, logger: logger}
}

func (d *NativeDriver) Name() string {
	return constants.PROTOCOL_NATIVE
}

func (d *NativeDriver) Dial(ctx context.Context, addr string) (Conn, error) {
	// WithBlock makes an unreachable endpoint fail here after dialTimeout instead of
	// stalling the first request
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   []string{addr},
		DialTimeout: d.dialTimeout,
		DialOptions: []grpc.DialOption{grpc.WithBlock()},
		Context:     ctx,
		Logger:      d.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client for %s: %w", addr, err)
	}
	return &nativeConn{cli: cli, kv: cli.KV}, nil
}

type nativeConn struct {
	cli *clientv3.Client
	kv  clientv3.KV
}

func (c *nativeConn) Do(ctx context.Context, op Operation) error {
	var err error
	if op.Kind == OpWrite {
		_, err = c.kv.Put(ctx, op.Key, op.Value)
	} else {
		_, err = c.kv.Get(ctx, op.Key)
	}
	return err
}

func (c *nativeConn) Close() error {
	return c.cli.Close()
}
