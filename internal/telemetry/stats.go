// ABOUTME: Simulated system telemetry for the HUD
// ABOUTME: Random-walk stats with per-field clamps and a thinking-load boost
package telemetry

import "math/rand"

// Stats is one telemetry reading
type Stats struct {
	CPU         float64
	Memory      float64
	Latency     float64
	Temperature float64
	Stability   float64
}

// InitialStats is the reading shown before the first tick
var InitialStats = Stats{CPU: 12, Memory: 38, Latency: 18, Temperature: 34.5, Stability: 99.99}

// thinkingLoad is added to CPU on every tick while reasoning
const thinkingLoad = 45

// walk is a symmetric random step bounded to [lo, hi]
type walk struct {
	step   float64
	lo, hi float64
}

var (
	cpuWalk       = walk{step: 4, lo: 5, hi: 95}
	memoryWalk    = walk{step: 0.25, lo: 30, hi: 85}
	latencyWalk   = walk{step: 6, lo: 5, hi: 120}
	tempWalk      = walk{step: 0.2, lo: 28, hi: 95}
	stabilityWalk = walk{step: 0.01, lo: 99.75, hi: 100}
)

func (w walk) next(rng *rand.Rand, value, bias float64) float64 {
	value += rng.Float64()*2*w.step - w.step + bias
	return clamp(value, w.lo, w.hi)
}

// next advances every field by one tick
func (s Stats) next(rng *rand.Rand, thinking bool) Stats {
	bias := 0.0
	if thinking {
		bias = thinkingLoad
	}
	return Stats{
		CPU:         cpuWalk.next(rng, s.CPU, bias),
		Memory:      memoryWalk.next(rng, s.Memory, 0),
		Latency:     latencyWalk.next(rng, s.Latency, 0),
		Temperature: tempWalk.next(rng, s.Temperature, 0),
		Stability:   stabilityWalk.next(rng, s.Stability, 0),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
