package pairing

import (
	"sort"

	flatbush "github.com/bmharper/flatbush-go"
	"github.com/chewxy/math32"
	"github.com/cyclopcam/pairedped/pkg/annot"
)

// Match is a visible box and a thermal box that cover the same object
type Match struct {
	Visible int     `json:"visible"` // Index into the visible boxes
	Thermal int     `json:"thermal"` // Index into the thermal boxes
	IoU     float32 `json:"iou"`
}

type pixelRect struct {
	x1, y1, x2, y2 int32
}

func (r pixelRect) area() float32 {
	return float32(r.x2-r.x1) * float32(r.y2-r.y1)
}

func (r pixelRect) iou(b pixelRect) float32 {
	iw := math32.Max(0, float32(min(r.x2, b.x2)-max(r.x1, b.x1)))
	ih := math32.Max(0, float32(min(r.y2, b.y2)-max(r.y1, b.y1)))
	inter := iw * ih
	union := r.area() + b.area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

func toPixels(b annot.Box, width, height int) pixelRect {
	w := float32(width)
	h := float32(height)
	return pixelRect{
		x1: int32(math32.Round(float32(b.X1) * w)),
		y1: int32(math32.Round(float32(b.Y1) * h)),
		x2: int32(math32.Round(float32(b.X2) * w)),
		y2: int32(math32.Round(float32(b.Y2) * h)),
	}
}

// MatchModalities finds visible/thermal box pairs that overlap by at least minIoU.
// Each box takes part in at most one match. Pairs are assigned greedily, highest IoU first.
// Sentinel rows are never matched.
// This is how we measure how well the two independently produced annotations agree.
func MatchModalities(visible, thermal []annot.Box, width, height int, minIoU float32) []Match {
	matches := []Match{}
	if len(visible) == 0 || len(thermal) == 0 {
		return matches
	}
	thermalRects := make([]pixelRect, len(thermal))

	// Create spatial index to avoid O(N^2) comparisons
	fb := flatbush.NewFlatbush[int32]()
	fb.Reserve(len(thermal))
	for i, b := range thermal {
		r := toPixels(b, width, height)
		thermalRects[i] = r
		fb.Add(r.x1, r.y1, r.x2, r.y2)
	}
	fb.Finish()

	candidates := []Match{}
	for i, vb := range visible {
		if vb.IsSentinel() {
			continue
		}
		vr := toPixels(vb, width, height)
		for _, j := range fb.Search(vr.x1, vr.y1, vr.x2, vr.y2) {
			if thermal[j].IsSentinel() {
				continue
			}
			iou := vr.iou(thermalRects[j])
			if iou >= minIoU && iou > 0 {
				candidates = append(candidates, Match{Visible: i, Thermal: j, IoU: iou})
			}
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].IoU != candidates[b].IoU {
			return candidates[a].IoU > candidates[b].IoU
		}
		if candidates[a].Visible != candidates[b].Visible {
			return candidates[a].Visible < candidates[b].Visible
		}
		return candidates[a].Thermal < candidates[b].Thermal
	})

	usedVisible := map[int]bool{}
	usedThermal := map[int]bool{}
	for _, c := range candidates {
		if usedVisible[c.Visible] || usedThermal[c.Thermal] {
			continue
		}
		usedVisible[c.Visible] = true
		usedThermal[c.Thermal] = true
		matches = append(matches, c)
	}
	sort.Slice(matches, func(a, b int) bool {
		return matches[a].Visible < matches[b].Visible
	})
	return matches
}
