package runner

import (
	"encoding/csv"
	"os"
	"strconv"
	"sync"
)

// WorkerMetric is one exported row: the outcome of one worker in one run
type WorkerMetric struct {
	RunID    string
	Protocol string
	Mode     string
	WorkerResult
}

// MetricsExporter handles the export of per-worker results to CSV
type MetricsExporter struct {
	file      *os.File
	batchSize int
	metrics   []WorkerMetric
	mu        sync.Mutex
}

func NewMetricsExporter(filename string, batchSize int) (*MetricsExporter, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	// Write CSV header
	writer := csv.NewWriter(file)
	err = writer.Write([]string{
		"run_id",
		"worker_id",
		"protocol",
		"mode",
		"connected",
		"iterations",
		"writes",
		"reads",
		"skipped",
		"failures",
		"elapsed_ms",
	})
	if err != nil {
		file.Close()
		return nil, err
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return nil, err
	}

	if batchSize <= 0 {
		batchSize = 1
	}
	return &MetricsExporter{
		file:      file,
		batchSize: batchSize,
		metrics:   make([]WorkerMetric, 0, batchSize),
	}, nil
}

func (e *MetricsExporter) AddMetric(metric WorkerMetric) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.metrics = append(e.metrics, metric)

	if len(e.metrics) >= e.batchSize {
		return e.flush()
	}
	return nil
}

func (e *MetricsExporter) flush() error {
	writer := csv.NewWriter(e.file)
	for _, metric := range e.metrics {
		err := writer.Write([]string{
			metric.RunID,
			strconv.Itoa(metric.ID),
			metric.Protocol,
			metric.Mode,
			strconv.FormatBool(metric.Connected),
			strconv.Itoa(metric.Iterations),
			strconv.FormatInt(metric.Writes, 10),
			strconv.FormatInt(metric.Reads, 10),
			strconv.FormatInt(metric.Skipped, 10),
			strconv.FormatInt(metric.Failures, 10),
			strconv.FormatInt(metric.Elapsed.Milliseconds(), 10),
		})
		if err != nil {
			return err
		}
	}
	writer.Flush()
	e.metrics = e.metrics[:0]
	return writer.Error()
}

func (e *MetricsExporter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.metrics) > 0 {
		if err := e.flush(); err != nil {
			e.file.Close()
			return err
		}
	}
	return e.file.Close()
}
