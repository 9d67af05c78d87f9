package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/cyclopcam/pairedped/pkg/annot"
	"github.com/cyclopcam/pairedped/pkg/dataset"
	"github.com/cyclopcam/pairedped/pkg/ignore"
	"github.com/cyclopcam/pairedped/pkg/pairing"
	"github.com/cyclopcam/pairedped/pkg/render"
	"github.com/cyclopcam/pairedped/pkg/summary"
	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
)

type splitJSON struct {
	Name      string                  `json:"name"`
	ImageSet  string                  `json:"imageSet"`
	Mode      dataset.SupervisionMode `json:"mode"`
	Format    annot.Format            `json:"format"`
	Condition ignore.Condition        `json:"condition"`
	Frames    int                     `json:"frames"`
}

type frameJSON struct {
	Index        int              `json:"index"`
	Key          dataset.FrameKey `json:"key"`
	Width        int              `json:"width"`
	Height       int              `json:"height"`
	Pairing      string           `json:"pairing"`
	Boxes        []annot.Box      `json:"boxes"`        // Canonical rows, starting with the sentinel
	VisibleBoxes []annot.Box      `json:"visibleBoxes"` // Null if the modality was dropped
	ThermalBoxes []annot.Box      `json:"thermalBoxes"` // Null if the modality was dropped
	Matches      []pairing.Match  `json:"matches"`      // Agreement between visible and thermal boxes
}

func (s *Server) httpPing(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	type pingJSON struct {
		Time int64 `json:"time"`
	}
	ping := &pingJSON{
		Time: time.Now().Unix(),
	}
	www.SendJSON(w, ping)
}

// Returns the dataset of the split named in the URL, or panics with a 404
func (s *Server) routeSplit(params httprouter.Params) (string, *dataset.Dataset) {
	name := params.ByName("split")
	ds := s.splits[name]
	if ds == nil {
		www.Panic(http.StatusNotFound, "Unknown split '"+name+"'")
	}
	return name, ds
}

func (s *Server) makeSplitJSON(name string, ds *dataset.Dataset) *splitJSON {
	return &splitJSON{
		Name:      name,
		ImageSet:  s.Config.Splits[name].ImageSet,
		Mode:      ds.Mode(),
		Format:    ds.Format(),
		Condition: ds.Condition(),
		Frames:    ds.Len(),
	}
}

func (s *Server) httpListSplits(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	splits := []*splitJSON{}
	for _, name := range s.Config.SplitNames() {
		splits = append(splits, s.makeSplitJSON(name, s.splits[name]))
	}
	www.SendJSON(w, splits)
}

func (s *Server) httpGetSplit(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	name, ds := s.routeSplit(params)
	www.SendJSON(w, s.makeSplitJSON(name, ds))
}

func (s *Server) httpSplitSummary(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	_, ds := s.routeSplit(params)
	sum, err := summary.Collect(r.Context(), ds, s.Config.NumWorkers())
	www.Check(err)
	www.SendJSON(w, sum)
}

// Loads the sample named in the URL, or panics with the appropriate HTTP error
func (s *Server) routeSample(params httprouter.Params) *dataset.Sample {
	_, ds := s.routeSplit(params)
	index, err := strconv.Atoi(params.ByName("index"))
	if err != nil {
		www.PanicBadRequestf("Invalid frame index '%v'", params.ByName("index"))
	}
	sample, err := ds.Get(index)
	if errors.Is(err, dataset.ErrIndexOutOfRange) {
		www.Panic(http.StatusNotFound, err.Error())
	}
	www.Check(err)
	return sample
}

func (s *Server) httpGetFrame(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	sample := s.routeSample(params)
	frame := &frameJSON{
		Index:        sample.Index,
		Key:          sample.Key,
		Width:        sample.Width,
		Height:       sample.Height,
		Pairing:      sample.Pairing.String(),
		Boxes:        sample.Rows,
		VisibleBoxes: sample.VisibleBoxes,
		ThermalBoxes: sample.ThermalBoxes,
		Matches:      []pairing.Match{},
	}
	if sample.VisibleBoxes != nil && sample.ThermalBoxes != nil {
		frame.Matches = pairing.MatchModalities(sample.VisibleBoxes, sample.ThermalBoxes, sample.Width, sample.Height, summary.DefaultMinIoU)
	}
	www.SendJSON(w, frame)
}

func (s *Server) httpRenderFrame(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	sample := s.routeSample(params)
	img, err := render.Sample(sample)
	www.Check(err)
	w.Header().Set("Content-Type", "image/png")
	www.Check(render.WritePNG(w, img))
}

func (s *Server) httpExportSplit(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	name, ds := s.routeSplit(params)
	if !s.exportLock.TryLock() {
		www.Panic(http.StatusConflict, "An export is already running")
	}
	defer s.exportLock.Unlock()
	run, err := Export(r.Context(), s.Log, s.Export, ds, name, s.Config.NumWorkers())
	www.Check(err)
	www.SendJSON(w, run)
}

func (s *Server) httpListExports(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	runs, err := s.Export.Runs()
	www.Check(err)
	www.SendJSON(w, runs)
}
