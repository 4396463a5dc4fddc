package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strconv"
)

// === SimulationKey ===

// SimulationKey is the master seed of an experiment. Two evaluations with the
// same SimulationKey and identical inputs MUST produce bit-for-bit identical
// results, regardless of how scenario runs are scheduled.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Stream names ===

// StreamScenario returns the stream name for scenario i under common random numbers.
func StreamScenario(i int) string {
	return fmt.Sprintf("scenario_%d", i)
}

// StreamDraw returns the stream name for batch position j of evaluation k
// under independent draws.
func StreamDraw(iteration, j int) string {
	return fmt.Sprintf("iteration_%d/draw_%d", iteration, j)
}

// StreamBatch returns the stream name used to select the batch of evaluation k.
func StreamBatch(iteration int) string {
	return fmt.Sprintf("batch_%d", iteration)
}

// === Derivation ===

// DeriveSeed returns masterSeed XOR fnv1a64(name). The derivation is pure, so
// streams can be created in any order, on any goroutine, with identical results.
func (k SimulationKey) DeriveSeed(name string) int64 {
	return int64(k) ^ fnv1a64(name)
}

// Stream returns a fresh *rand.Rand for the named stream. Each call returns a
// new generator positioned at the start of the stream; callers own it.
func (k SimulationKey) Stream(name string) *rand.Rand {
	return rand.New(rand.NewSource(k.DeriveSeed(name)))
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}

// === Poisoned RNG ===

// poisonedSource is a rand.Source whose every draw panics with a
// RandomnessMisuseError.
type poisonedSource struct {
	caller string
}

func (p poisonedSource) Int63() int64 {
	panic(&RandomnessMisuseError{Caller: p.caller})
}

func (p poisonedSource) Uint64() uint64 {
	panic(&RandomnessMisuseError{Caller: p.caller})
}

func (p poisonedSource) Seed(int64) {
	panic(&RandomnessMisuseError{Caller: p.caller})
}

// PoisonedRand returns a *rand.Rand that fails loudly on first use. It is
// handed to models on the deterministic path so that an accidental draw is
// reported instead of silently using an unseeded generator.
func PoisonedRand(caller string) *rand.Rand {
	return rand.New(poisonedSource{caller: caller})
}

// recoverMisuse converts a RandomnessMisuseError panic into an error. Any
// other panic is re-raised untouched.
func recoverMisuse(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if rme, ok := r.(*RandomnessMisuseError); ok {
		*errp = rme
		return
	}
	panic(r)
}

func itoa(i int) string { return strconv.Itoa(i) }
