// Package exportdb stores canonical frame labels, so that training jobs can read them
// without re-parsing and re-merging the raw annotations.
package exportdb

import (
	"fmt"

	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"gorm.io/gorm"
)

// ExportDB is a database of export runs
type ExportDB struct {
	DB  *gorm.DB
	log logs.Log
}

// Open or create an export DB
func Open(log logs.Log, config dbh.DBConfig) (*ExportDB, error) {
	log.Infof("Opening export DB (%v)", config.LogSafeDescription())
	db, err := dbh.OpenDB(log, config, Migrations(log), 0)
	if err != nil {
		return nil, fmt.Errorf("Failed to open export database: %w", err)
	}
	return &ExportDB{
		DB:  db,
		log: log,
	}, nil
}

func (e *ExportDB) Close() {
	if sqlDB, err := e.DB.DB(); err == nil {
		sqlDB.Close()
	}
}

func (e *ExportDB) CreateRun(run *ExportRun) error {
	return e.DB.Create(run).Error
}

// SaveRun updates the counters and status of a run
func (e *ExportDB) SaveRun(run *ExportRun) error {
	return e.DB.Save(run).Error
}

// AddFrames inserts the labels of a batch of frames
func (e *ExportDB) AddFrames(frames []*FrameLabel) error {
	if len(frames) == 0 {
		return nil
	}
	return e.DB.CreateInBatches(frames, 100).Error
}

// Runs returns all runs, newest first
func (e *ExportDB) Runs() ([]*ExportRun, error) {
	runs := []*ExportRun{}
	if err := e.DB.Order("id DESC").Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// RunByRunID returns the run with the given UUID
func (e *ExportDB) RunByRunID(runID string) (*ExportRun, error) {
	run := &ExportRun{}
	if err := e.DB.Where("run_id = ?", runID).First(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

// Frames returns the frames of a run, ordered by frame index
func (e *ExportDB) Frames(exportRunID int64) ([]*FrameLabel, error) {
	frames := []*FrameLabel{}
	if err := e.DB.Where("export_run_id = ?", exportRunID).Order("frame_index").Find(&frames).Error; err != nil {
		return nil, err
	}
	return frames, nil
}
