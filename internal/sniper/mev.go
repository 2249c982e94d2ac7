package sniper

import (
	"math/rand"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
)

// Compute-unit budget range for a shaped swap transaction. The exact value is
// randomized per attempt so the budget instruction does not form a stable
// fingerprint.
const (
	minComputeUnits = 160_000
	maxComputeUnits = 320_000

	defaultComputeUnits = 200_000

	// priorityFeeJitterPct bounds per-attempt randomization of the
	// configured base fee.
	priorityFeeJitterPct = 10
)

// txShape is the per-attempt fee and padding profile of one submission.
// Every retry gets a fresh shape so consecutive attempts by the same wallet
// do not share a fee/size signature.
type txShape struct {
	priorityFee  uint64 // micro-lamports per compute unit
	computeUnits uint32
	pad          bool
}

// shaper produces randomized transaction shapes. Safe for concurrent use.
type shaper struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newShaper() *shaper {
	return &shaper{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// shape returns the fee/budget profile for one attempt. With antiMEV off the
// configured values pass through unchanged and no padding is added.
func (s *shaper) shape(basePriorityFee uint64, antiMEV bool) txShape {
	if !antiMEV {
		return txShape{priorityFee: basePriorityFee, computeUnits: defaultComputeUnits}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fee := basePriorityFee
	if fee > 0 {
		// Uniform in [base*0.9, base*1.1].
		span := fee * priorityFeeJitterPct / 100
		fee = fee - span + uint64(s.rng.Int63n(int64(2*span+1)))
	}

	units := minComputeUnits + uint32(s.rng.Int63n(maxComputeUnits-minComputeUnits+1))

	return txShape{priorityFee: fee, computeUnits: units, pad: true}
}

// shapedInstructions prefixes the core instruction list with the attempt's
// compute-budget instructions and, when padding is enabled, one zero-value
// self-transfer.
func shapedInstructions(sh txShape, owner solana.PublicKey, core []solana.Instruction) []solana.Instruction {
	ixs := make([]solana.Instruction, 0, len(core)+3)
	ixs = append(ixs, NewComputeUnitLimitIx(sh.computeUnits))
	if sh.priorityFee > 0 {
		ixs = append(ixs, NewComputeUnitPriceIx(sh.priorityFee))
	}
	if sh.pad {
		ixs = append(ixs, NewSystemTransferIx(owner, owner, 0))
	}
	return append(ixs, core...)
}
