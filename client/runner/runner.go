package runner

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"kvbench/keyspace"
	"kvbench/protocol"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Result of one run. Elapsed is wall-clock time from spawning the first worker until
// the last one returned.
type Result struct {
	RunID     string
	Protocol  string
	Mode      Mode
	StartTime time.Time
	EndTime   time.Time
	Elapsed   time.Duration
	Workers   []WorkerResult
}

// Report prints the elapsed time. It is printed whether or not any worker managed to
// connect.
func (r *Result) Report(w io.Writer) {
	fmt.Fprintf(w, "Stress test (%s) completed in %.2f seconds\n", r.Protocol, r.Elapsed.Seconds())
}

// BenchmarkRunner spawns the workers, times the run and collects what each worker did
type BenchmarkRunner struct {
	config          *WorkloadConfig
	proto           protocol.Protocol
	keys            keyspace.KeySource
	policy          FailurePolicy
	logger          *zap.Logger
	metricsExporter *MetricsExporter
}

type Option func(*BenchmarkRunner)

// WithKeySource replaces the key generator the workers share.
func WithKeySource(keys keyspace.KeySource) Option {
	return func(r *BenchmarkRunner) {
		r.keys = keys
	}
}

// WithFailurePolicy replaces the default LogAndDiscard policy.
func WithFailurePolicy(policy FailurePolicy) Option {
	return func(r *BenchmarkRunner) {
		r.policy = policy
	}
}

func NewBenchmarkRunner(config WorkloadConfig, proto protocol.Protocol, logger *zap.Logger, opts ...Option) (*BenchmarkRunner, error) {
	if proto == nil {
		return nil, fmt.Errorf("no protocol configured")
	}
	if config.NumWorkers <= 0 {
		return nil, fmt.Errorf("worker count must be positive, got %d", config.NumWorkers)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &BenchmarkRunner{
		config: &config,
		proto:  proto,
		keys:   keyspace.NewGenerator(),
		logger: logger,
	}
	r.policy = LogAndDiscard{Logger: logger}
	for _, opt := range opts {
		opt(r)
	}

	if config.MetricsFile != "" {
		metricsExporter, err := NewMetricsExporter(config.MetricsFile, config.NumWorkers)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics exporter: %w", err)
		}
		r.metricsExporter = metricsExporter
	}
	return r, nil
}

// Run executes the workload once and blocks until every worker has returned. Worker
// failures never surface here; the result is returned even if no worker connected.
func (r *BenchmarkRunner) Run(ctx context.Context) *Result {
	result := &Result{
		RunID:    uuid.NewString(),
		Protocol: r.proto.Name(),
		Mode:     r.config.Mode,
		Workers:  make([]WorkerResult, r.config.NumWorkers),
	}

	r.logger.Info("Starting benchmark run",
		zap.String("run_id", result.RunID),
		zap.String("protocol", result.Protocol),
		zap.String("addr", r.config.Addr),
		zap.Stringer("mode", r.config.Mode),
		zap.Int("workers", r.config.NumWorkers),
		zap.Int("ops_per_worker", r.config.OpsPerWorker()))

	var wg sync.WaitGroup
	result.StartTime = time.Now()
	for i := 0; i < r.config.NumWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w := &worker{
				id:     workerID,
				config: r.config,
				proto:  r.proto,
				keys:   r.keys,
				rg:     keyspace.NewRand(r.config.Seed, workerID),
				policy: r.policy,
			}
			// each goroutine writes only its own slot
			result.Workers[workerID] = w.run(ctx)
		}(i)
	}
	wg.Wait()
	result.EndTime = time.Now()
	result.Elapsed = result.EndTime.Sub(result.StartTime)

	for _, wr := range result.Workers {
		r.logger.Debug("Worker finished",
			zap.Int("worker", wr.ID),
			zap.Bool("connected", wr.Connected),
			zap.Int("iterations", wr.Iterations),
			zap.Int64("skipped", wr.Skipped),
			zap.Int64("failures", wr.Failures))
	}

	r.exportResults(result)
	return result
}

func (r *BenchmarkRunner) exportResults(result *Result) {
	if r.metricsExporter == nil {
		return
	}
	for _, wr := range result.Workers {
		metric := WorkerMetric{
			RunID:        result.RunID,
			Protocol:     result.Protocol,
			Mode:         result.Mode.String(),
			WorkerResult: wr,
		}
		if err := r.metricsExporter.AddMetric(metric); err != nil {
			r.logger.Warn("Failed to export metric", zap.Error(err))
		}
	}
	if err := r.metricsExporter.Close(); err != nil {
		r.logger.Warn("Failed to close metrics exporter", zap.Error(err))
	}
	r.metricsExporter = nil
}

// Close releases the metrics file of a runner that was never run.
func (r *BenchmarkRunner) Close() error {
	if r.metricsExporter == nil {
		return nil
	}
	err := r.metricsExporter.Close()
	r.metricsExporter = nil
	return err
}
