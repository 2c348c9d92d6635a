package runner

import (
	"context"
	"math/rand"
	"time"

	"kvbench/keyspace"
	"kvbench/protocol"

	"go.uber.org/zap"
)

// WorkerResult is what one worker did. Counters are written only by the owning worker
// and read after it has finished.
type WorkerResult struct {
	ID        int
	Connected bool
	// Iterations includes skipped reads; it always equals the worker's budget once
	// connected.
	Iterations int
	Writes     int64
	Reads      int64
	Skipped    int64
	Failures   int64
	Elapsed    time.Duration
}

// FailurePolicy receives every failure a worker runs into. Workers never retry and
// never stop early because of an operation failure, whatever the policy does.
type FailurePolicy interface {
	ConnectFailed(err *ConnectError)
	OperationFailed(err *TransientIOError)
}

// LogAndDiscard logs failures at debug level and otherwise ignores them.
type LogAndDiscard struct {
	Logger *zap.Logger
}

func (p LogAndDiscard) ConnectFailed(err *ConnectError) {
	statusCode, statusText := GetErrInfo(err.Err)
	p.Logger.Debug("worker aborted before its first operation",
		zap.Int("worker", err.WorkerID),
		zap.String("addr", err.Addr),
		zap.Int("status_code", statusCode),
		zap.String("status_text", statusText))
}

func (p LogAndDiscard) OperationFailed(err *TransientIOError) {
	if ce := p.Logger.Check(zap.DebugLevel, "operation abandoned"); ce != nil {
		statusCode, statusText := GetErrInfo(err.Err)
		ce.Write(
			zap.Int("worker", err.WorkerID),
			zap.Stringer("operation", err.Operation),
			zap.Int("status_code", statusCode),
			zap.String("status_text", statusText))
	}
}

// worker runs one connection's share of the workload.
type worker struct {
	id     int
	config *WorkloadConfig
	proto  protocol.Protocol
	keys   keyspace.KeySource
	rg     *rand.Rand
	policy FailurePolicy
}

func (w *worker) run(ctx context.Context) WorkerResult {
	start := time.Now()
	result := WorkerResult{ID: w.id}

	conn, err := w.proto.Dial(ctx, w.config.Addr)
	if err != nil {
		w.policy.ConnectFailed(&ConnectError{WorkerID: w.id, Addr: w.config.Addr, Err: err})
		result.Elapsed = time.Since(start)
		return result
	}
	defer conn.Close()
	result.Connected = true

	budget := w.config.OpsPerWorker()
	for i := 0; i < budget; i++ {
		result.Iterations++

		op, ok := w.nextOperation()
		if !ok {
			result.Skipped++
			continue
		}
		if op.Kind == protocol.OpWrite {
			result.Writes++
		} else {
			result.Reads++
		}

		if err := conn.Do(ctx, op); err != nil {
			result.Failures++
			w.policy.OperationFailed(&TransientIOError{WorkerID: w.id, Operation: op.Kind, Err: err})
		}
	}

	result.Elapsed = time.Since(start)
	return result
}

// nextOperation synthesizes the operation for one iteration. It reports false when a
// read was chosen but no key has been allocated yet.
func (w *worker) nextOperation() (protocol.Operation, bool) {
	switch w.config.Mode {
	case ModeWrite:
		return w.writeOperation(), true
	case ModeRead:
		return w.readOperation()
	default:
		if w.rg.Intn(2) == 0 {
			return w.writeOperation(), true
		}
		return w.readOperation()
	}
}

func (w *worker) writeOperation() protocol.Operation {
	key := w.keys.Allocate()
	return protocol.Write(keyspace.Key(key), keyspace.Value(key))
}

func (w *worker) readOperation() (protocol.Operation, bool) {
	key, ok := w.keys.SampleExisting(w.rg)
	if !ok {
		return protocol.Operation{}, false
	}
	return protocol.Read(keyspace.Key(key)), true
}
