// Package dataset is the frame index of a paired visible/thermal pedestrian dataset.
// It turns an index into a training or evaluation sample: both images, plus one
// canonical set of labelled boxes.
package dataset

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/pairedped/pkg/annot"
	"github.com/cyclopcam/pairedped/pkg/ignore"
	"github.com/cyclopcam/pairedped/pkg/pairing"
	"github.com/cyclopcam/pairedped/pkg/storage"
)

var ErrIndexOutOfRange = errors.New("Frame index out of range")

// SupervisionMode selects whether annotations are read at all
type SupervisionMode int

const (
	// Read and merge annotations from both modalities
	Training SupervisionMode = iota
	// Do not read annotations. Every sample carries only the sentinel row.
	Evaluation
)

func (m SupervisionMode) String() string {
	if m == Evaluation {
		return "test"
	}
	return "train"
}

func (m SupervisionMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *SupervisionMode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "", "train", "training":
		*m = Training
	case "test", "eval", "evaluation":
		*m = Evaluation
	default:
		return fmt.Errorf("Unknown supervision mode '%v' (must be train or test)", string(b))
	}
	return nil
}

// Options for New
type Options struct {
	Store     storage.Storage
	ListFile  string // Frame list file, relative to the root of Store
	Root      string // Dataset root, relative to the root of Store
	Layout    Layout
	Format    annot.Format
	Mode      SupervisionMode
	Condition ignore.Condition
	Decoder   ImageDecoder
	Transform Transform       // Optional
	Pairing   pairing.Decider // If nil, every frame is paired
}

// Sample is the output of Get
type Sample struct {
	Index   int
	Key     FrameKey
	Visible Image
	Thermal Image
	Width   int // Width of the thermal image, before transforms
	Height  int // Height of the thermal image, before transforms
	Mode    SupervisionMode
	Pairing pairing.Pairing // Only meaningful in Training mode, where the modalities are merged

	// Canonical rows, starting with the sentinel. Boxes and Labels are the columns of Rows.
	Rows   []annot.Box
	Boxes  [][4]float64
	Labels []annot.Code

	// Per modality boxes, after transforms and before merging. Nil if a modality was dropped.
	VisibleBoxes []annot.Box
	ThermalBoxes []annot.Box
}

// Dataset is immutable after New, so Get is safe to call from multiple goroutines,
// provided that the Decoder and Transform are too.
type Dataset struct {
	log    logs.Log
	opt    Options
	parser annot.Parser
	keys   []FrameKey
}

func New(log logs.Log, opt Options) (*Dataset, error) {
	if opt.Store == nil {
		return nil, errors.New("Dataset needs a Store")
	}
	if opt.Decoder == nil {
		return nil, errors.New("Dataset needs an image Decoder")
	}
	if opt.Pairing == nil {
		opt.Pairing = pairing.Fixed(pairing.Paired)
	}
	opt.Layout = opt.Layout.withDefaults()
	parser, err := annot.NewParser(opt.Format)
	if err != nil {
		return nil, err
	}
	keys, err := LoadIndex(opt.Store, opt.ListFile, opt.Root)
	if err != nil {
		return nil, err
	}
	log.Infof("Loaded %v frames from %v (%v, %v annotations)", len(keys), opt.ListFile, opt.Mode, opt.Format)
	return &Dataset{
		log:    log,
		opt:    opt,
		parser: parser,
		keys:   keys,
	}, nil
}

// Len returns the number of frames in the index
func (d *Dataset) Len() int {
	return len(d.keys)
}

func (d *Dataset) Mode() SupervisionMode {
	return d.opt.Mode
}

func (d *Dataset) Format() annot.Format {
	return d.opt.Format
}

func (d *Dataset) Condition() ignore.Condition {
	return d.opt.Condition
}

func (d *Dataset) Layout() Layout {
	return d.opt.Layout
}

func (d *Dataset) Store() storage.Storage {
	return d.opt.Store
}

// Key returns the frame key at the given index
func (d *Dataset) Key(index int) (FrameKey, error) {
	if index < 0 || index >= len(d.keys) {
		return FrameKey{}, fmt.Errorf("%w: %v is not in [0, %v)", ErrIndexOutOfRange, index, len(d.keys))
	}
	return d.keys[index], nil
}

// ReadImage returns the raw bytes of one of the frame's images
func (d *Dataset) ReadImage(key FrameKey, m Modality) ([]byte, error) {
	name := d.opt.Layout.ImagePath(key, m)
	raw, err := storage.ReadFile(d.opt.Store, name)
	if err != nil {
		return nil, fmt.Errorf("Frame %v: failed to read %v image %v: %w", key, m, name, err)
	}
	return raw, nil
}

func (d *Dataset) decode(key FrameKey, m Modality) (Image, error) {
	raw, err := d.ReadImage(key, m)
	if err != nil {
		return nil, err
	}
	img, err := d.opt.Decoder.Decode(raw, m)
	if err != nil {
		return nil, fmt.Errorf("Frame %v: failed to decode %v image: %w", key, m, err)
	}
	return img, nil
}

func (d *Dataset) readBoxes(key FrameKey, m Modality, width, height int) ([]annot.Box, error) {
	name := d.opt.Layout.AnnotationPath(key, m, d.opt.Format)
	raw, err := storage.ReadFile(d.opt.Store, name)
	if err != nil {
		return nil, fmt.Errorf("Frame %v: failed to read %v annotation: %w", key, m, err)
	}
	boxes, err := d.parser.Parse(bytes.NewReader(raw), name, width, height)
	if err != nil {
		return nil, fmt.Errorf("Frame %v: %w", key, err)
	}
	return boxes, nil
}

// Get loads the frame at index, merges its annotations, and applies the ignore condition.
func (d *Dataset) Get(index int) (*Sample, error) {
	key, err := d.Key(index)
	if err != nil {
		return nil, err
	}
	vis, err := d.decode(key, Visible)
	if err != nil {
		return nil, err
	}
	lwir, err := d.decode(key, Thermal)
	if err != nil {
		return nil, err
	}
	// The thermal camera defines the annotation coordinate space
	width, height := lwir.Size()

	frame := &Frame{
		Visible: vis,
		Thermal: lwir,
		Pairing: d.opt.Pairing.Decide(key.String()),
	}
	if d.opt.Mode == Training {
		if frame.VisibleBoxes, err = d.readBoxes(key, Visible, width, height); err != nil {
			return nil, err
		}
		if frame.ThermalBoxes, err = d.readBoxes(key, Thermal, width, height); err != nil {
			return nil, err
		}
	} else {
		frame.VisibleBoxes = annot.NewBoxes()
		frame.ThermalBoxes = annot.NewBoxes()
	}

	if d.opt.Transform != nil {
		frame, err = d.opt.Transform.Apply(frame)
		if err != nil {
			return nil, fmt.Errorf("Frame %v: transform failed: %w", key, err)
		}
		frame.VisibleBoxes = annot.WithSentinel(frame.VisibleBoxes)
		frame.ThermalBoxes = annot.WithSentinel(frame.ThermalBoxes)
	}

	var rows []annot.Box
	if d.opt.Mode == Training {
		rows = pairing.Merge(frame.VisibleBoxes, frame.ThermalBoxes, frame.Pairing)
	}
	if len(rows) == 0 {
		rows = annot.NewBoxes()
	}
	rows = ignore.Apply(rows, width, height, d.opt.Condition)
	boxes, labels := annot.Split(rows)

	return &Sample{
		Index:        index,
		Key:          key,
		Visible:      frame.Visible,
		Thermal:      frame.Thermal,
		Width:        width,
		Height:       height,
		Mode:         d.opt.Mode,
		Pairing:      frame.Pairing,
		Rows:         rows,
		Boxes:        boxes,
		Labels:       labels,
		VisibleBoxes: frame.VisibleBoxes,
		ThermalBoxes: frame.ThermalBoxes,
	}, nil
}
