package pairing

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
)

// Pairing says how the boxes of the two modalities relate to each other for one frame.
type Pairing int

const (
	// Unpaired: one modality is the only reliable source for each box, so visible boxes
	// and thermal boxes supervise their own modality independently.
	Unpaired Pairing = 0
	// Paired: both sensors are reliable, so every box is supervised by both modalities.
	Paired Pairing = 1
)

func (p Pairing) String() string {
	switch p {
	case Unpaired:
		return "unpaired"
	case Paired:
		return "paired"
	}
	return fmt.Sprintf("pairing(%d)", int(p))
}

// Decider chooses the pairing decision for a frame.
// Implementations must be safe for concurrent use, and must not depend on call order,
// so that a frame always gets the same decision no matter which worker loads it.
type Decider interface {
	Decide(frameKey string) Pairing
}

// Fixed always returns the same decision
type Fixed Pairing

func (f Fixed) Decide(frameKey string) Pairing {
	return Pairing(f)
}

// Seeded makes a pseudo-random decision per frame, derived only from Seed and the frame key.
// A frame is Unpaired with probability UnpairedProbability.
type Seeded struct {
	Seed                uint64
	UnpairedProbability float64
}

func (s Seeded) Decide(frameKey string) Pairing {
	if s.UnpairedProbability <= 0 {
		return Paired
	}
	if s.UnpairedProbability >= 1 {
		return Unpaired
	}
	h := fnv.New64a()
	h.Write([]byte(frameKey))
	rng := rand.New(rand.NewPCG(s.Seed, h.Sum64()))
	if rng.Float64() < s.UnpairedProbability {
		return Unpaired
	}
	return Paired
}
