package server

import (
	"context"
	"sync"
	"time"

	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/pairedped/pkg/dataset"
	"github.com/cyclopcam/pairedped/pkg/ignore"
	"github.com/cyclopcam/pairedped/server/exportdb"
	"github.com/google/uuid"
)

// Number of frames that we buffer before writing them to the export DB
const exportBatchSize = 200

// Export writes the canonical labels of every frame of a split into the export DB.
// If the export fails, the run is still recorded, with its Error set, and FinishedAt zero.
func Export(ctx context.Context, log logs.Log, db *exportdb.ExportDB, ds *dataset.Dataset, split string, workers int) (*exportdb.ExportRun, error) {
	start := time.Now()
	run := &exportdb.ExportRun{
		RunID:           uuid.NewString(),
		Split:           split,
		Mode:            ds.Mode().String(),
		Format:          ds.Format().String(),
		IgnoreCondition: dbh.MakeJSONField(ds.Condition()),
		CreatedAt:       dbh.MakeIntTime(start),
	}
	if err := db.CreateRun(run); err != nil {
		return nil, err
	}
	log.Infof("Export %v of split '%v' (%v frames) starting", run.RunID, split, ds.Len())

	var lock sync.Mutex
	pending := []*exportdb.FrameLabel{}
	flush := func() error {
		err := db.AddFrames(pending)
		pending = nil
		return err
	}

	err := dataset.ForEach(ctx, ds, workers, func(ctx context.Context, s *dataset.Sample) error {
		label := &exportdb.FrameLabel{
			ExportRunID: run.ID,
			FrameIndex:  s.Index,
			FrameKey:    s.Key.String(),
			Width:       s.Width,
			Height:      s.Height,
			Pairing:     s.Pairing.String(),
			Boxes:       dbh.MakeJSONField(s.Rows),
		}
		lock.Lock()
		defer lock.Unlock()
		run.Frames++
		run.Objects += len(s.Rows) - 1
		run.Ignored += ignore.CountIgnored(s.Rows)
		pending = append(pending, label)
		if len(pending) >= exportBatchSize {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	if err != nil {
		log.Errorf("Export %v failed after %v frames: %v", run.RunID, run.Frames, err)
		run.Error = err.Error()
		if saveErr := db.SaveRun(run); saveErr != nil {
			log.Errorf("Failed to save status of export %v: %v", run.RunID, saveErr)
		}
		return run, err
	}

	run.FinishedAt = dbh.MakeIntTime(time.Now())
	if err := db.SaveRun(run); err != nil {
		return nil, err
	}
	log.Infof("Export %v finished: %v frames, %v objects (%v ignored) in %.1f seconds", run.RunID, run.Frames, run.Objects, run.Ignored, time.Since(start).Seconds())
	return run, nil
}
