package ignore

import (
	"github.com/cyclopcam/pairedped/pkg/annot"
)

// Check returns true if the pixel rectangle falls outside of the condition
func (c *Condition) Check(r annot.PixelRect) bool {
	y := c.yRange()
	return r.X < c.XRange.Lo ||
		r.Y < y.Lo ||
		r.X2() > c.XRange.Hi ||
		r.Y2() > y.Hi ||
		!c.WRange.Contains(r.Width) ||
		!c.HRange.Contains(r.Height)
}

// Flagged returns, for each box, whether it falls outside of the condition.
// The sentinel is never flagged.
func Flagged(boxes []annot.Box, width, height int, cond Condition) []bool {
	flags := make([]bool, len(boxes))
	for i, b := range boxes {
		if !b.IsSentinel() {
			flags[i] = cond.Check(annot.Denormalize(b, width, height))
		}
	}
	return flags
}

// Apply returns a copy of boxes, where every box outside of the condition is labelled
// CodeIgnore. No boxes are added, removed or reordered, so the result stays index
// aligned with the input. Coordinates are not changed.
func Apply(boxes []annot.Box, width, height int, cond Condition) []annot.Box {
	out := make([]annot.Box, len(boxes))
	copy(out, boxes)
	for i, ignore := range Flagged(boxes, width, height, cond) {
		if ignore {
			out[i].Code = annot.CodeIgnore
		}
	}
	return out
}

// CountIgnored returns the number of boxes, other than the sentinel, that carry CodeIgnore
func CountIgnored(boxes []annot.Box) int {
	n := 0
	for _, b := range boxes {
		if b.Code == annot.CodeIgnore && !b.IsSentinel() {
			n++
		}
	}
	return n
}
