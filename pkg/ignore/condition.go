package ignore

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Range is a closed interval, in pixels
type Range struct {
	Lo float64
	Hi float64
}

// Unbounded accepts every value
var Unbounded = Range{math.Inf(-1), math.Inf(1)}

func (r Range) Contains(v float64) bool {
	return v >= r.Lo && v <= r.Hi
}

// Widen returns a range that is larger by 'by' on both ends
func (r Range) Widen(by float64) Range {
	return Range{r.Lo - by, r.Hi + by}
}

// MarshalJSON encodes the range as [lo, hi]. Infinite bounds become null.
func (r Range) MarshalJSON() ([]byte, error) {
	bound := func(v float64) *float64 {
		if math.IsInf(v, 0) {
			return nil
		}
		return &v
	}
	return json.Marshal([2]*float64{bound(r.Lo), bound(r.Hi)})
}

// UnmarshalJSON decodes [lo, hi], where a null bound is unbounded.
func (r *Range) UnmarshalJSON(b []byte) error {
	var raw []*float64
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("Range must be [lo, hi], but has %v elements", len(raw))
	}
	*r = Unbounded
	if raw[0] != nil {
		r.Lo = *raw[0]
	}
	if raw[1] != nil {
		r.Hi = *raw[1]
	}
	if r.Lo > r.Hi {
		return fmt.Errorf("Range [%v, %v] is empty", r.Lo, r.Hi)
	}
	return nil
}

// Policy controls which range bounds the vertical position of a box
type Policy int

const (
	// PolicyPerAxis checks x against XRange, and y against YRange
	PolicyPerAxis Policy = iota
	// PolicyLegacySharedX checks both x and y against XRange, and ignores YRange.
	// Published MLPD results on KAIST were produced with this behaviour.
	PolicyLegacySharedX
)

var ErrUnknownPolicy = errors.New("Unknown range policy")

func (p Policy) String() string {
	switch p {
	case PolicyPerAxis:
		return "per-axis"
	case PolicyLegacySharedX:
		return "legacy-shared-x"
	}
	return "unknown"
}

func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Policy) UnmarshalText(b []byte) error {
	switch string(b) {
	case "", "per-axis":
		*p = PolicyPerAxis
	case "legacy-shared-x":
		*p = PolicyLegacySharedX
	default:
		return fmt.Errorf("%w '%v'", ErrUnknownPolicy, string(b))
	}
	return nil
}

// Condition is an evaluation condition: the set of box positions and sizes that count.
// Boxes outside of the condition are kept, but labelled as ignore.
type Condition struct {
	XRange Range  `json:"xRng"`
	YRange Range  `json:"yRng"`
	WRange Range  `json:"wRng"`
	HRange Range  `json:"hRng"`
	Policy Policy `json:"policy"`
}

// Any missing range in the JSON is unbounded
func (c *Condition) UnmarshalJSON(b []byte) error {
	type plain Condition
	p := plain(NewCondition())
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = Condition(p)
	return nil
}

// NewCondition returns a condition that accepts every box
func NewCondition() Condition {
	return Condition{
		XRange: Unbounded,
		YRange: Unbounded,
		WRange: Unbounded,
		HRange: Unbounded,
		Policy: PolicyPerAxis,
	}
}

// DefaultTrainCondition is the "reasonable" training condition for 640x512 KAIST frames
func DefaultTrainCondition() Condition {
	c := NewCondition()
	c.XRange = Range{5, 635}
	c.YRange = Range{5, 507}
	c.HRange = Range{12, math.Inf(1)}
	return c
}

// DefaultTestCondition is the evaluation condition for 640x512 KAIST frames
func DefaultTestCondition() Condition {
	c := NewCondition()
	c.XRange = Range{5, 635}
	c.YRange = Range{5, 507}
	return c
}

// yRange is the range that bounds the vertical position, under the condition's policy
func (c *Condition) yRange() Range {
	if c.Policy == PolicyLegacySharedX {
		return c.XRange
	}
	return c.YRange
}
