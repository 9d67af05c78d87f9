// Package annot reads per-modality pedestrian annotations and turns them into
// normalized two-corner boxes.
package annot

// Code is the label/provenance tag carried by a box.
type Code int32

const (
	CodeIgnore  Code = -1 // Sentinel, or a box that must not count towards loss/metrics
	CodePresent Code = 1  // A parsed box, before the two modalities are merged
	CodeVisible Code = 1  // After merge: supervised by the visible modality only
	CodeThermal Code = 2  // After merge: supervised by the thermal modality only
	CodeBoth    Code = 3  // After merge: both modalities agree
)

func (c Code) String() string {
	switch c {
	case CodeIgnore:
		return "ignore"
	case CodeVisible:
		return "visible"
	case CodeThermal:
		return "thermal"
	case CodeBoth:
		return "both"
	}
	return "unknown"
}

// Box is an axis aligned box in normalized coordinates.
// X is a fraction of the image width, and Y is a fraction of the image height.
type Box struct {
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	X2   float64 `json:"x2"`
	Y2   float64 `json:"y2"`
	Code Code    `json:"code"`
}

// Sentinel is the "no object" row that starts every box sequence.
var Sentinel = Box{0, 0, 0, 0, CodeIgnore}

func (b Box) IsSentinel() bool {
	return b == Sentinel
}

// Corners returns [x1, y1, x2, y2]
func (b Box) Corners() [4]float64 {
	return [4]float64{b.X1, b.Y1, b.X2, b.Y2}
}

// NewBoxes returns a box sequence that contains only the sentinel.
func NewBoxes() []Box {
	return []Box{Sentinel}
}

// WithSentinel returns boxes with exactly one sentinel, at index 0. Sentinels found
// elsewhere are removed, and the order of the other boxes is kept.
// A nil slice stays nil.
func WithSentinel(boxes []Box) []Box {
	if boxes == nil {
		return nil
	}
	if len(boxes) != 0 && boxes[0].IsSentinel() && CountObjects(boxes) == len(boxes)-1 {
		return boxes
	}
	out := make([]Box, 1, len(boxes)+1)
	out[0] = Sentinel
	for _, b := range boxes {
		if !b.IsSentinel() {
			out = append(out, b)
		}
	}
	return out
}

// CountObjects returns the number of boxes, excluding sentinels.
func CountObjects(boxes []Box) int {
	n := 0
	for _, b := range boxes {
		if !b.IsSentinel() {
			n++
		}
	}
	return n
}

// Split returns the parallel corner and label columns of boxes.
func Split(boxes []Box) ([][4]float64, []Code) {
	corners := make([][4]float64, len(boxes))
	labels := make([]Code, len(boxes))
	for i, b := range boxes {
		corners[i] = b.Corners()
		labels[i] = b.Code
	}
	return corners, labels
}
