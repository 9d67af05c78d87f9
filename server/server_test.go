package server

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/pairedped/pkg/annot"
	"github.com/cyclopcam/pairedped/pkg/dataset"
	"github.com/cyclopcam/pairedped/pkg/ignore"
	"github.com/cyclopcam/pairedped/pkg/storage"
	"github.com/cyclopcam/pairedped/pkg/summary"
	"github.com/cyclopcam/pairedped/server/exportdb"
	"github.com/stretchr/testify/require"
)

type testImage struct {
	img *image.RGBA
}

func (t *testImage) Size() (int, int) {
	return t.img.Bounds().Dx(), t.img.Bounds().Dy()
}

func (t *testImage) ToImage() image.Image {
	return t.img
}

type testDecoder struct{}

func (testDecoder) Decode(data []byte, modality dataset.Modality) (dataset.Image, error) {
	return &testImage{image.NewRGBA(image.Rect(0, 0, 640, 512))}, nil
}

const numTestFrames = 12

// writeTestDataset creates a small dataset with a train and a test split
func writeTestDataset(t *testing.T, root string) {
	store, err := storage.NewStorageFS(logs.NewTestingLog(t), root)
	require.NoError(t, err)
	write := func(name, content string) {
		require.NoError(t, storage.WriteFile(store, name, strings.NewReader(content)))
	}
	layout := dataset.DefaultLayout()
	list := ""
	for i := 0; i < numTestFrames; i++ {
		k := dataset.FrameKey{Root: "kaist", Set: "set00", Sequence: "V000", Image: fmt.Sprintf("I%05d", i)}
		list += k.String() + "\n"
		for _, m := range dataset.Modalities {
			write(layout.ImagePath(k, m), "jpeg")
		}
		// One box that both modalities agree on, and one tiny thermal-only box that is ignored
		write(layout.AnnotationPath(k, dataset.Visible, annot.FormatText), "% bbGt version=3\nperson 100 100 30 60\n")
		write(layout.AnnotationPath(k, dataset.Thermal, annot.FormatText), "% bbGt version=3\nperson 100 100 30 60\nperson 300 300 4 8\n")
	}
	write("imageSets/train.txt", list)
	write("imageSets/test.txt", list)
}

func testConfig(t *testing.T) *Config {
	dir := t.TempDir()
	datasetRoot := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(datasetRoot, 0755))
	writeTestDataset(t, datasetRoot)
	raw := fmt.Sprintf(`{
		"db": {"driver": "sqlite3", "database": %q},
		"datasetStorage": {"filesystem": {"root": %q}},
		"datasetRoot": "kaist",
		"imageSetDir": "imageSets",
		"annotationFormat": "text",
		"splits": {
			"train": {"imageSet": "train.txt", "mode": "train"},
			"test": {"imageSet": "test.txt", "mode": "test", "condition": {"xRng": [5, 635], "yRng": [5, 507]}}
		},
		"workers": 3
	}`, filepath.Join(dir, "export.sqlite"), datasetRoot)
	cfgFile := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(cfgFile, []byte(raw), 0644))
	cfg, err := LoadConfig(cfgFile)
	require.NoError(t, err)
	return cfg
}

func testServer(t *testing.T) *Server {
	cfg := testConfig(t)
	log := logs.NewTestingLog(t)
	store, err := OpenStorage(log, cfg.DatasetStorage)
	require.NoError(t, err)
	s, err := newServer(log, cfg, store, testDecoder{})
	require.NoError(t, err)
	t.Cleanup(s.Shutdown)
	return s
}

func request(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.httpRouter.ServeHTTP(rec, req)
	return rec
}

func requestJSON(t *testing.T, s *Server, method, path string, out any) {
	rec := request(t, s, method, path)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestLoadConfig(t *testing.T) {
	cfg := testConfig(t)
	require.Equal(t, []string{"test", "train"}, cfg.SplitNames())
	require.Equal(t, "sqlite3", cfg.DB.Driver)
	require.Equal(t, annot.FormatText, cfg.AnnotationFormat)
	require.Equal(t, 3, cfg.NumWorkers())

	train := cfg.Splits["train"]
	require.Equal(t, dataset.Training, train.Mode)
	require.Equal(t, ignore.DefaultTrainCondition(), train.IgnoreCondition())
	require.Equal(t, "imageSets/train.txt", train.ListFile(cfg.ImageSetDir))

	test := cfg.Splits["test"]
	require.Equal(t, dataset.Evaluation, test.Mode)
	require.Equal(t, ignore.DefaultTestCondition(), test.IgnoreCondition())

	bad := *cfg
	bad.DatasetStorage = StorageConfig{}
	require.Error(t, bad.Validate())
	bad = *cfg
	bad.Pairing.UnpairedProbability = 2
	require.Error(t, bad.Validate())
}

func TestPingAndSplits(t *testing.T) {
	s := testServer(t)
	require.Equal(t, http.StatusOK, request(t, s, "GET", "/api/ping").Code)

	splits := []splitJSON{}
	requestJSON(t, s, "GET", "/api/splits", &splits)
	require.Len(t, splits, 2)
	require.Equal(t, "test", splits[0].Name)
	require.Equal(t, dataset.Evaluation, splits[0].Mode)
	require.Equal(t, numTestFrames, splits[1].Frames)

	split := splitJSON{}
	requestJSON(t, s, "GET", "/api/split/train", &split)
	require.Equal(t, ignore.DefaultTrainCondition(), split.Condition)

	require.Equal(t, http.StatusNotFound, request(t, s, "GET", "/api/split/nope").Code)
}

func TestGetFrame(t *testing.T) {
	s := testServer(t)
	frame := frameJSON{}
	requestJSON(t, s, "GET", "/api/split/train/frame/3", &frame)
	require.Equal(t, 3, frame.Index)
	require.Equal(t, "I00003", frame.Key.Image)
	require.Equal(t, "paired", frame.Pairing)
	require.Len(t, frame.Boxes, 3)
	require.Equal(t, annot.Sentinel, frame.Boxes[0])
	require.Equal(t, annot.CodeBoth, frame.Boxes[1].Code)
	// 4x8 pixels is below the minimum height of the training condition
	require.Equal(t, annot.CodeIgnore, frame.Boxes[2].Code)
	require.Len(t, frame.Matches, 1)

	// Evaluation frames carry only the sentinel
	requestJSON(t, s, "GET", "/api/split/test/frame/0", &frame)
	require.Equal(t, []annot.Box{annot.Sentinel}, frame.Boxes)

	require.Equal(t, http.StatusNotFound, request(t, s, "GET", fmt.Sprintf("/api/split/train/frame/%v", numTestFrames)).Code)
	require.Equal(t, http.StatusNotFound, request(t, s, "GET", "/api/split/train/frame/-1").Code)
	require.Equal(t, http.StatusBadRequest, request(t, s, "GET", "/api/split/train/frame/abc").Code)
}

func TestRenderFrame(t *testing.T) {
	s := testServer(t)
	rec := request(t, s, "GET", "/api/split/train/frame/0/render")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 1280, 512), img.Bounds())
}

func TestSummary(t *testing.T) {
	s := testServer(t)
	sum := summary.Summary{}
	requestJSON(t, s, "GET", "/api/split/train/summary", &sum)
	require.Equal(t, numTestFrames, sum.Frames)
	require.Equal(t, 2*numTestFrames, sum.Objects)
	require.Equal(t, numTestFrames, sum.Ignored)
	require.Equal(t, numTestFrames, sum.Matched)
}

func TestExport(t *testing.T) {
	s := testServer(t)
	run := exportdb.ExportRun{}
	requestJSON(t, s, "POST", "/api/split/train/export", &run)
	require.Equal(t, numTestFrames, run.Frames)
	require.Equal(t, 2*numTestFrames, run.Objects)
	require.Equal(t, numTestFrames, run.Ignored)
	require.Equal(t, "train", run.Mode)
	require.NotEmpty(t, run.RunID)
	require.False(t, run.FinishedAt.IsZero())

	frames, err := s.Export.Frames(run.ID)
	require.NoError(t, err)
	require.Len(t, frames, numTestFrames)
	for i, f := range frames {
		require.Equal(t, i, f.FrameIndex)
		require.Equal(t, fmt.Sprintf("set00/V000/I%05d", i), f.FrameKey)
		require.Equal(t, []annot.Code{annot.CodeIgnore, annot.CodeBoth, annot.CodeIgnore}, codes(f.Boxes.Data))
	}

	runs := []exportdb.ExportRun{}
	requestJSON(t, s, "GET", "/api/exports", &runs)
	require.Len(t, runs, 1)
	require.Equal(t, run.RunID, runs[0].RunID)
}

func codes(boxes []annot.Box) []annot.Code {
	_, labels := annot.Split(boxes)
	return labels
}
