package keyspace

import (
	"math/rand"
	"sync"
	"testing"
)

func TestAllocateSequential(t *testing.T) {
	g := NewGenerator()
	for want := uint64(1); want <= 5; want++ {
		if got := g.Allocate(); got != want {
			t.Fatalf("Allocate() = %d, want %d", got, want)
		}
	}
	if got := g.Current(); got != 6 {
		t.Errorf("Current() = %d, want 6", got)
	}
}

func TestAllocateConcurrentUniqueness(t *testing.T) {
	testCases := []struct {
		name    string
		callers int
		calls   int
	}{
		{"single caller", 1, 1000},
		{"few callers", 4, 2500},
		{"many callers", 64, 500},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGenerator()
			results := make([][]uint64, tc.callers)

			var wg sync.WaitGroup
			for i := 0; i < tc.callers; i++ {
				wg.Add(1)
				go func(id int) {
					defer wg.Done()
					keys := make([]uint64, 0, tc.calls)
					for j := 0; j < tc.calls; j++ {
						keys = append(keys, g.Allocate())
					}
					results[id] = keys
				}(i)
			}
			wg.Wait()

			total := tc.callers * tc.calls
			seen := make([]bool, total+1)
			for _, keys := range results {
				for _, k := range keys {
					if k < 1 || k > uint64(total) {
						t.Fatalf("key %d outside [1, %d]", k, total)
					}
					if seen[k] {
						t.Fatalf("key %d allocated twice", k)
					}
					seen[k] = true
				}
			}
			for k := 1; k <= total; k++ {
				if !seen[k] {
					t.Errorf("key %d never allocated", k)
				}
			}
		})
	}
}

func TestSampleExistingEmpty(t *testing.T) {
	g := NewGenerator()
	rg := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		if k, ok := g.SampleExisting(rg); ok {
			t.Fatalf("SampleExisting() = %d, true before any allocation", k)
		}
	}
	if _, ok := g.SampleExisting(nil); ok {
		t.Error("SampleExisting(nil) reported a key before any allocation")
	}
}

func TestSampleExistingBounds(t *testing.T) {
	g := NewGenerator()
	for i := 0; i < 10; i++ {
		g.Allocate()
	}
	v := g.Current()

	rg := rand.New(rand.NewSource(7))
	hits := make(map[uint64]bool)
	for i := 0; i < 5000; i++ {
		k, ok := g.SampleExisting(rg)
		if !ok {
			t.Fatal("SampleExisting() reported no key after allocations")
		}
		if k < 1 || k > v-1 {
			t.Fatalf("SampleExisting() = %d, want within [1, %d]", k, v-1)
		}
		hits[k] = true
	}
	if len(hits) != int(v-1) {
		t.Errorf("sampled %d distinct keys, want all %d", len(hits), v-1)
	}
}

func TestSampleExistingSingleAllocation(t *testing.T) {
	g := NewGenerator()
	g.Allocate()
	for i := 0; i < 100; i++ {
		k, ok := g.SampleExisting(nil)
		if !ok || k != 1 {
			t.Fatalf("SampleExisting() = %d, %v, want 1, true", k, ok)
		}
	}
}

func TestNewRandDeterminism(t *testing.T) {
	a := NewRand(42, 3)
	b := NewRand(42, 3)
	for i := 0; i < 100; i++ {
		if x, y := a.Int63(), b.Int63(); x != y {
			t.Fatalf("draw %d differs: %d vs %d", i, x, y)
		}
	}
}

func TestValue(t *testing.T) {
	if got := Value(7); got != "m_value_7" {
		t.Errorf("Value(7) = %q, want %q", got, "m_value_7")
	}
	if got := Key(1234567); got != "1234567" {
		t.Errorf("Key(1234567) = %q", got)
	}
}
