package dataset

import (
	"context"

	"github.com/cyclopcam/pairedped/pkg/annot"
	"golang.org/x/sync/errgroup"
)

// Batch is a group of samples, in column form.
// Boxes and labels are ragged: each sample keeps its own number of rows.
type Batch struct {
	Visible []Image
	Thermal []Image
	Boxes   [][][4]float64
	Labels  [][]annot.Code
	Keys    []FrameKey
}

func (b *Batch) Len() int {
	return len(b.Keys)
}

// Collate groups samples into a batch, preserving order
func Collate(samples []*Sample) *Batch {
	b := &Batch{
		Visible: make([]Image, 0, len(samples)),
		Thermal: make([]Image, 0, len(samples)),
		Boxes:   make([][][4]float64, 0, len(samples)),
		Labels:  make([][]annot.Code, 0, len(samples)),
		Keys:    make([]FrameKey, 0, len(samples)),
	}
	for _, s := range samples {
		b.Visible = append(b.Visible, s.Visible)
		b.Thermal = append(b.Thermal, s.Thermal)
		b.Boxes = append(b.Boxes, s.Boxes)
		b.Labels = append(b.Labels, s.Labels)
		b.Keys = append(b.Keys, s.Key)
	}
	return b
}

// ForEach calls fn on every sample of the dataset, from up to 'workers' goroutines.
// fn may be called in any order. The first error cancels the remaining work and is returned.
func ForEach(ctx context.Context, ds *Dataset, workers int, fn func(ctx context.Context, s *Sample) error) error {
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < ds.Len(); i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := ds.Get(i)
			if err != nil {
				return err
			}
			return fn(gctx, s)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
