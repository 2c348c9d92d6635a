// Description: This package allocates the integer keys written by the benchmark workers and
// samples keys that were already handed out so reads target plausible entries.
package keyspace

import (
	"math/rand"
	"strconv"
	"sync"
	"sync/atomic"

	"kvbench/control/constants"
)

// KeySource is what a worker needs from the key space. Generator is the only production
// implementation; tests substitute deterministic ones.
type KeySource interface {
	Allocate() uint64
	SampleExisting(rg *rand.Rand) (uint64, bool)
}

// Generator owns the shared key counter. The counter starts at 1 and only ever grows.
type Generator struct {
	// guards reads of the sampling bound; allocation never takes it
	mu      sync.Mutex
	counter atomic.Uint64
}

func NewGenerator() *Generator {
	g := &Generator{}
	g.counter.Store(1)
	return g
}

// Allocate returns a key that no other caller has received or will receive.
// The first call returns 1.
func (g *Generator) Allocate() uint64 {
	return g.counter.Add(1) - 1
}

// Current returns the next key that will be allocated.
func (g *Generator) Current() uint64 {
	g.mu.Lock()
	v := g.counter.Load()
	g.mu.Unlock()
	return v
}

// SampleExisting picks a uniformly random key in [1, v-1] where v is the counter value at
// the time of the call. It reports false when nothing has been allocated yet. The sampled
// key was allocated, but the write for it may still be in flight.
func (g *Generator) SampleExisting(rg *rand.Rand) (uint64, bool) {
	v := g.Current()
	if v <= 1 {
		return 0, false
	}
	n := int64(v - 1)
	if rg == nil {
		return uint64(rand.Int63n(n)) + 1, true
	}
	return uint64(rg.Int63n(n)) + 1, true
}

// NewRand returns a per-worker random source. Seeds are unique per worker but deterministic.
func NewRand(seed int64, id int) *rand.Rand {
	return rand.New(rand.NewSource(seed + int64(id)))
}

// Key renders a key the way it goes on the wire.
func Key(k uint64) string {
	return strconv.FormatUint(k, 10)
}

// Value is the deterministic value written for a key.
func Value(k uint64) string {
	return constants.VALUE_PREFIX + Key(k)
}
