package optim

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim"
)

// Sampling selects how a partial batch draws scenarios. The zero value is
// invalid: partial batches must state their sampling explicitly.
type Sampling int

const (
	samplingUnset Sampling = iota
	WithoutReplacement
	WithReplacement
)

func (s Sampling) String() string {
	switch s {
	case WithoutReplacement:
		return "without-replacement"
	case WithReplacement:
		return "with-replacement"
	default:
		return "unset"
	}
}

type batchKind int

const (
	batchFull batchKind = iota
	batchFixed
	batchFraction
)

// BatchPolicy decides how many scenarios each fitness evaluation simulates.
// The zero value is FullBatch.
type BatchPolicy struct {
	kind     batchKind
	n        int
	fraction float64
	sampling Sampling
}

// FullBatch evaluates every scenario every time.
func FullBatch() BatchPolicy { return BatchPolicy{kind: batchFull} }

// FixedBatch evaluates n scenarios per evaluation.
func FixedBatch(n int, sampling Sampling) (BatchPolicy, error) {
	if n <= 0 {
		return BatchPolicy{}, sim.ConstructionErrorf("batch policy", "fixed batch size must be positive, got %d", n)
	}
	if err := checkSampling(sampling); err != nil {
		return BatchPolicy{}, err
	}
	return BatchPolicy{kind: batchFixed, n: n, sampling: sampling}, nil
}

// FractionBatch evaluates ceil(f·n) of n scenarios per evaluation, and at
// least one.
func FractionBatch(f float64, sampling Sampling) (BatchPolicy, error) {
	if math.IsNaN(f) || f <= 0 || f > 1 {
		return BatchPolicy{}, sim.ConstructionErrorf("batch policy", "fraction must be in (0, 1], got %v", f)
	}
	if err := checkSampling(sampling); err != nil {
		return BatchPolicy{}, err
	}
	return BatchPolicy{kind: batchFraction, fraction: f, sampling: sampling}, nil
}

func checkSampling(s Sampling) error {
	if s != WithoutReplacement && s != WithReplacement {
		return &sim.ConstructionError{What: "batch policy", Reason: "sampling must be WithoutReplacement or WithReplacement"}
	}
	return nil
}

// fractionSlack absorbs representation error so that, e.g., 0.3·10 is 3 and not 4.
const fractionSlack = 1e-9

// Size returns the number of scenarios selected out of total.
func (b BatchPolicy) Size(total int) int {
	switch b.kind {
	case batchFixed:
		return b.n
	case batchFraction:
		n := int(math.Ceil(b.fraction*float64(total) - fractionSlack))
		if n < 1 && total > 0 {
			n = 1
		}
		return n
	default:
		return total
	}
}

// IsFull reports whether every scenario is evaluated in order.
func (b BatchPolicy) IsFull() bool { return b.kind == batchFull }

// Sampling returns the sampling mode of a partial batch.
func (b BatchPolicy) Sampling() Sampling { return b.sampling }

// validate checks the policy against a scenario count.
func (b BatchPolicy) validate(total int) error {
	if b.kind != batchFull {
		if err := checkSampling(b.sampling); err != nil {
			return err
		}
	}
	size := b.Size(total)
	if size <= 0 {
		return sim.ConstructionErrorf("batch policy", "%s selects no scenarios out of %d", b, total)
	}
	if size > total {
		return sim.ConstructionErrorf("batch policy", "%s exceeds the %d scenarios given", b, total)
	}
	return nil
}

// Select returns the sorted scenario indices for one evaluation. rng is only
// drawn from for partial batches.
func (b BatchPolicy) Select(total int, rng *rand.Rand) []int {
	size := b.Size(total)
	if b.kind == batchFull || (size >= total && b.sampling == WithoutReplacement) {
		idx := make([]int, total)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	var idx []int
	if b.sampling == WithReplacement {
		idx = make([]int, size)
		for i := range idx {
			idx[i] = rng.Intn(total)
		}
	} else {
		idx = rng.Perm(total)[:size]
	}
	sort.Ints(idx)
	return idx
}

func (b BatchPolicy) String() string {
	switch b.kind {
	case batchFixed:
		return fmt.Sprintf("fixed(%d, %s)", b.n, b.sampling)
	case batchFraction:
		return fmt.Sprintf("fraction(%g, %s)", b.fraction, b.sampling)
	default:
		return "full"
	}
}
