package runner

import (
	"kvbench/control/constants"
)

// Mode selects which operations a worker issues
type Mode int

const (
	ModeWrite Mode = iota
	ModeRead
	ModeMixed
)

// ParseMode maps the command line mode string. Anything other than "set" or "get"
// is mixed.
func ParseMode(s string) Mode {
	switch s {
	case constants.MODE_SET:
		return ModeWrite
	case constants.MODE_GET:
		return ModeRead
	default:
		return ModeMixed
	}
}

func (m Mode) String() string {
	switch m {
	case ModeWrite:
		return constants.MODE_SET
	case ModeRead:
		return constants.MODE_GET
	default:
		return constants.MODE_MIXED
	}
}

// WorkloadConfig is the immutable snapshot a run is started with
type WorkloadConfig struct {
	Addr       string
	Mode       Mode
	NumWorkers int
	TotalOps   int

	Seed int64

	// Metrics parameters
	MetricsFile string
}

// OpsPerWorker is the iteration budget of every worker. The remainder of an uneven
// split is dropped.
func (c WorkloadConfig) OpsPerWorker() int {
	if c.NumWorkers <= 0 {
		return 0
	}
	return c.TotalOps / c.NumWorkers
}
