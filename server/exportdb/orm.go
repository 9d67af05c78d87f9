package exportdb

import (
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/pairedped/pkg/annot"
	"github.com/cyclopcam/pairedped/pkg/ignore"
)

// BaseModel is our base class for a GORM model.
// The default GORM Model uses int, but we prefer int64
type BaseModel struct {
	ID int64 `gorm:"primaryKey" json:"id"`
}

// ExportRun is one materialisation of a split into canonical labels
type ExportRun struct {
	BaseModel
	RunID           string                           `json:"runID"` // UUID, unique across databases
	Split           string                           `json:"split"`
	Mode            string                           `json:"mode"`   // "train" or "test"
	Format          string                           `json:"format"` // Annotation format that was read
	IgnoreCondition *dbh.JSONField[ignore.Condition] `json:"ignoreCondition"`
	CreatedAt       dbh.IntTime                      `json:"createdAt"`
	FinishedAt      dbh.IntTime                      `json:"finishedAt"` // Zero if the run failed or is still busy
	Frames          int                              `json:"frames"`
	Objects         int                              `json:"objects"` // Rows after the sentinel, over all frames
	Ignored         int                              `json:"ignored"`
	Error           string                           `json:"error"`
}

// FrameLabel is the canonical label set of one frame
type FrameLabel struct {
	BaseModel
	ExportRunID int64                       `json:"exportRunID"`
	FrameIndex  int                         `json:"frameIndex"`
	FrameKey    string                      `json:"frameKey"` // set/sequence/image
	Width       int                         `json:"width"`
	Height      int                         `json:"height"`
	Pairing     string                      `json:"pairing"`
	Boxes       *dbh.JSONField[[]annot.Box] `json:"boxes"` // Starts with the sentinel
}
