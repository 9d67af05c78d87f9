// Package summary computes label statistics over a dataset split
package summary

import (
	"context"
	"sort"
	"sync"

	"github.com/cyclopcam/pairedped/pkg/annot"
	"github.com/cyclopcam/pairedped/pkg/dataset"
	"github.com/cyclopcam/pairedped/pkg/pairing"
	"gonum.org/v1/gonum/stat"
)

// Minimum IoU for a visible and a thermal box to count as the same person
const DefaultMinIoU = 0.5

// Quantiles of a distribution
type Quantiles struct {
	P10 float64 `json:"p10"`
	P50 float64 `json:"p50"`
	P90 float64 `json:"p90"`
}

// Summary of a split
type Summary struct {
	Frames              int            `json:"frames"`
	FramesWithObjects   int            `json:"framesWithObjects"`
	Paired              int            `json:"paired"`   // Frames that were merged as paired
	Unpaired            int            `json:"unpaired"` // Frames that were merged as unpaired
	Unmerged            int            `json:"unmerged"` // Evaluation frames, which are never merged
	Objects             int            `json:"objects"`  // Rows other than the sentinel, including ignored rows
	Ignored             int            `json:"ignored"`
	PerCode             map[string]int `json:"perCode"`
	MeanObjectsPerFrame float64        `json:"meanObjectsPerFrame"`
	HeightPixels        Quantiles      `json:"heightPixels"` // Height of boxes that are not ignored

	// Agreement between the two independently produced annotations
	VisibleObjects int `json:"visibleObjects"`
	ThermalObjects int `json:"thermalObjects"`
	Matched        int `json:"matched"`

	MinIoU  float32   `json:"minIoU"`
	heights []float64 // Accumulated by Add
}

func New() *Summary {
	return &Summary{
		PerCode: map[string]int{},
		MinIoU:  DefaultMinIoU,
	}
}

// Add accumulates one sample. Call Finish when done.
func (s *Summary) Add(sample *dataset.Sample) {
	s.Frames++
	switch {
	case sample.Mode != dataset.Training:
		s.Unmerged++
	case sample.Pairing == pairing.Paired:
		s.Paired++
	default:
		s.Unpaired++
	}
	objects := 0
	for _, b := range sample.Rows {
		if b.IsSentinel() {
			continue
		}
		objects++
		s.PerCode[b.Code.String()]++
		if b.Code == annot.CodeIgnore {
			s.Ignored++
			continue
		}
		s.heights = append(s.heights, (b.Y2-b.Y1)*float64(sample.Height))
	}
	s.Objects += objects
	if objects != 0 {
		s.FramesWithObjects++
	}

	if sample.VisibleBoxes != nil && sample.ThermalBoxes != nil {
		s.VisibleObjects += annot.CountObjects(sample.VisibleBoxes)
		s.ThermalObjects += annot.CountObjects(sample.ThermalBoxes)
		s.Matched += len(pairing.MatchModalities(sample.VisibleBoxes, sample.ThermalBoxes, sample.Width, sample.Height, s.MinIoU))
	}
}

// Finish computes the derived statistics
func (s *Summary) Finish() {
	if s.Frames != 0 {
		s.MeanObjectsPerFrame = float64(s.Objects) / float64(s.Frames)
	}
	s.HeightPixels = Quantiles{}
	if len(s.heights) != 0 {
		sort.Float64s(s.heights)
		s.HeightPixels = Quantiles{
			P10: stat.Quantile(0.1, stat.Empirical, s.heights, nil),
			P50: stat.Quantile(0.5, stat.Empirical, s.heights, nil),
			P90: stat.Quantile(0.9, stat.Empirical, s.heights, nil),
		}
	}
}

// Collect summarizes every frame of the dataset
func Collect(ctx context.Context, ds *dataset.Dataset, workers int) (*Summary, error) {
	s := New()
	var lock sync.Mutex
	err := dataset.ForEach(ctx, ds, workers, func(ctx context.Context, sample *dataset.Sample) error {
		lock.Lock()
		defer lock.Unlock()
		s.Add(sample)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Finish()
	return s, nil
}
