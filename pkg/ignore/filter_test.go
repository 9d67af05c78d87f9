package ignore

import (
	"encoding/json"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/cyclopcam/pairedped/pkg/annot"
	"github.com/stretchr/testify/require"
)

func scenarioCondition(policy Policy) Condition {
	c := NewCondition()
	c.XRange = Range{10, 390}
	c.WRange = Range{20, 200}
	c.HRange = Range{20, 200}
	c.Policy = policy
	return c
}

func TestOutOfRangeScenario(t *testing.T) {
	W, H := 400, 300
	boxes := []annot.Box{
		annot.Sentinel,
		annot.Normalize(5, 5, 50, 50, W, H),     // x below 10
		annot.Normalize(100, 100, 5, 50, W, H),  // w below 20
		annot.Normalize(100, 100, 50, 50, W, H), // fine
	}
	for _, policy := range []Policy{PolicyPerAxis, PolicyLegacySharedX} {
		out := Apply(boxes, W, H, scenarioCondition(policy))
		require.Len(t, out, len(boxes))
		require.Equal(t, annot.CodeIgnore, out[1].Code)
		require.Equal(t, annot.CodeIgnore, out[2].Code)
		require.Equal(t, annot.CodePresent, out[3].Code)
		require.Equal(t, 2, CountIgnored(out))
		// Input is untouched
		require.Equal(t, annot.CodePresent, boxes[1].Code)
	}
}

func TestPolicyDifference(t *testing.T) {
	W, H := 640, 512
	// y=8 is inside YRange (>= 5), but below XRange.Lo (10)
	boxes := []annot.Box{annot.Sentinel, annot.Normalize(100, 8, 30, 60, W, H)}
	c := NewCondition()
	c.XRange = Range{10, 630}
	c.YRange = Range{5, 507}

	require.Equal(t, []bool{false, false}, Flagged(boxes, W, H, c))

	c.Policy = PolicyLegacySharedX
	require.Equal(t, []bool{false, true}, Flagged(boxes, W, H, c))

	// With the legacy policy, the bottom edge is compared against XRange.Hi
	tall := []annot.Box{annot.Sentinel, annot.Normalize(100, 400, 30, 100, W, H)}
	c.XRange = Range{10, 490}
	require.Equal(t, []bool{false, true}, Flagged(tall, W, H, c))
	c.Policy = PolicyPerAxis
	require.Equal(t, []bool{false, false}, Flagged(tall, W, H, c))
}

func TestBoxOnRangeLimit(t *testing.T) {
	for _, W := range []int{300, 400, 512, 640} {
		c := NewCondition()
		c.XRange = Range{0, float64(W)}
		c.YRange = Range{0, float64(W)}
		c.WRange = Range{20, 200}
		c.HRange = Range{20, 200}
		for x := 0; x+201 <= W; x++ {
			for _, w := range []int{20, 200} {
				boxes := []annot.Box{annot.Sentinel, annot.Normalize(x, x, w, w, W, W)}
				require.Equal(t, []bool{false, false}, Flagged(boxes, W, W, c), "W=%v x=%v w=%v", W, x, w)
			}
			// One pixel outside either limit is flagged
			boxes := []annot.Box{annot.Sentinel, annot.Normalize(x, x, 19, 20, W, W), annot.Normalize(x, x, 20, 201, W, W)}
			require.Equal(t, []bool{false, true, true}, Flagged(boxes, W, W, c), "W=%v x=%v", W, x)
		}
	}
}

func TestSentinelNeverFlagged(t *testing.T) {
	c := NewCondition()
	c.WRange = Range{10, 100}
	c.HRange = Range{10, 100}
	out := Apply([]annot.Box{annot.Sentinel}, 640, 512, c)
	require.Equal(t, []annot.Box{annot.Sentinel}, out)
	require.Equal(t, []bool{false}, Flagged(out, 640, 512, c))
	require.Len(t, Apply(nil, 640, 512, c), 0)

	// A real box in slot 0 is still checked
	small := annot.Normalize(100, 100, 5, 5, 640, 512)
	require.Equal(t, []bool{true, false}, Flagged([]annot.Box{small, annot.Sentinel}, 640, 512, c))
	require.Equal(t, 1, CountIgnored(Apply([]annot.Box{small, annot.Sentinel}, 640, 512, c)))
}

func randomBoxes(rng *rand.Rand, n, W, H int) []annot.Box {
	boxes := annot.NewBoxes()
	for i := 0; i < n; i++ {
		boxes = append(boxes, annot.Normalize(rng.IntN(W), rng.IntN(H), rng.IntN(200), rng.IntN(200), W, H))
	}
	return boxes
}

func randomRange(rng *rand.Rand, max int) Range {
	a := float64(rng.IntN(max))
	b := float64(rng.IntN(max))
	return Range{math.Min(a, b), math.Max(a, b)}
}

func TestIgnoreMonotonic(t *testing.T) {
	W, H := 640, 512
	rng := rand.New(rand.NewPCG(3, 4))
	for iter := 0; iter < 200; iter++ {
		boxes := randomBoxes(rng, 30, W, H)
		c := NewCondition()
		c.XRange = randomRange(rng, W)
		c.YRange = randomRange(rng, H)
		c.WRange = randomRange(rng, 200)
		c.HRange = randomRange(rng, 200)
		c.Policy = Policy(iter % 2)
		before := CountIgnored(Apply(boxes, W, H, c))

		wider := c
		switch iter % 4 {
		case 0:
			wider.XRange = c.XRange.Widen(float64(rng.IntN(50)))
		case 1:
			wider.WRange = c.WRange.Widen(float64(rng.IntN(50)))
		case 2:
			wider.HRange = c.HRange.Widen(float64(rng.IntN(50)))
		case 3:
			wider.YRange = c.YRange.Widen(float64(rng.IntN(50)))
		}
		after := CountIgnored(Apply(boxes, W, H, wider))
		require.LessOrEqual(t, after, before)
	}
}

func TestIndexPreservation(t *testing.T) {
	W, H := 640, 512
	rng := rand.New(rand.NewPCG(5, 6))
	boxes := randomBoxes(rng, 50, W, H)
	out := Apply(boxes, W, H, DefaultTrainCondition())
	require.Len(t, out, len(boxes))
	for i := range boxes {
		require.Equal(t, boxes[i].Corners(), out[i].Corners())
		if out[i].Code != boxes[i].Code {
			require.Equal(t, annot.CodeIgnore, out[i].Code)
		}
	}
}

func TestConditionJSON(t *testing.T) {
	raw := `{"xRng": [5, 635], "hRng": [12, null], "policy": "legacy-shared-x"}`
	c := Condition{}
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	require.Equal(t, Range{5, 635}, c.XRange)
	require.Equal(t, Unbounded, c.YRange)
	require.Equal(t, Unbounded, c.WRange)
	require.Equal(t, 12.0, c.HRange.Lo)
	require.True(t, math.IsInf(c.HRange.Hi, 1))
	require.Equal(t, PolicyLegacySharedX, c.Policy)

	b, err := json.Marshal(c)
	require.NoError(t, err)
	c2 := Condition{}
	require.NoError(t, json.Unmarshal(b, &c2))
	require.Equal(t, c, c2)

	require.Error(t, json.Unmarshal([]byte(`{"xRng": [5]}`), &c))
	require.Error(t, json.Unmarshal([]byte(`{"xRng": [10, 5]}`), &c))
	require.ErrorIs(t, json.Unmarshal([]byte(`{"policy": "sideways"}`), &c), ErrUnknownPolicy)
}

func TestDefaultConditions(t *testing.T) {
	W, H := 640, 512
	short := []annot.Box{annot.Sentinel, annot.Normalize(100, 100, 5, 10, W, H)}
	require.Equal(t, annot.CodeIgnore, Apply(short, W, H, DefaultTrainCondition())[1].Code)
	require.Equal(t, annot.CodePresent, Apply(short, W, H, DefaultTestCondition())[1].Code)

	edge := []annot.Box{annot.Sentinel, annot.Normalize(0, 100, 50, 100, W, H)}
	require.Equal(t, annot.CodeIgnore, Apply(edge, W, H, DefaultTestCondition())[1].Code)
}
