package dataset

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cyclopcam/pairedped/pkg/annot"
	"github.com/cyclopcam/pairedped/pkg/storage"
)

// FrameKey identifies one paired frame
type FrameKey struct {
	Root     string `json:"root"`     // Dataset root inside the store
	Set      string `json:"set"`      // eg set00
	Sequence string `json:"sequence"` // eg V000
	Image    string `json:"image"`    // eg I01216 (no extension)
}

// String returns "set/sequence/image", which is the form used in the frame list file
func (k FrameKey) String() string {
	return k.Set + "/" + k.Sequence + "/" + k.Image
}

// Modality is one of the two sensors
type Modality int

const (
	Visible Modality = iota
	Thermal
)

// Modalities lists both sensors, visible first
var Modalities = []Modality{Visible, Thermal}

// Dir is the directory name of the modality, inside a sequence directory
func (m Modality) Dir() string {
	if m == Thermal {
		return "lwir"
	}
	return "visible"
}

func (m Modality) String() string {
	if m == Thermal {
		return "thermal"
	}
	return "visible"
}

// Layout describes where files live, relative to the dataset root
type Layout struct {
	Images          string `json:"images"`
	TextAnnotations string `json:"textAnnotations"`
	TreeAnnotations string `json:"treeAnnotations"`
	ImageExt        string `json:"imageExt"`
}

func DefaultLayout() Layout {
	return Layout{
		Images:          "images",
		TextAnnotations: "annotations_paired",
		TreeAnnotations: "annotations_xml",
		ImageExt:        ".jpg",
	}
}

// Fill in any empty fields from DefaultLayout
func (l Layout) withDefaults() Layout {
	def := DefaultLayout()
	if l.Images == "" {
		l.Images = def.Images
	}
	if l.TextAnnotations == "" {
		l.TextAnnotations = def.TextAnnotations
	}
	if l.TreeAnnotations == "" {
		l.TreeAnnotations = def.TreeAnnotations
	}
	if l.ImageExt == "" {
		l.ImageExt = def.ImageExt
	}
	return l
}

// ImagePath returns <root>/images/<set>/<seq>/<visible|lwir>/<image>.jpg
func (l Layout) ImagePath(k FrameKey, m Modality) string {
	return path.Join(k.Root, l.Images, k.Set, k.Sequence, m.Dir(), k.Image+l.ImageExt)
}

// AnnotationPath returns <root>/annotations_paired/<set>/<seq>/<visible|lwir>/<image>.txt,
// or the tree annotation equivalent.
func (l Layout) AnnotationPath(k FrameKey, m Modality, f annot.Format) string {
	dir := l.TextAnnotations
	if f == annot.FormatTree {
		dir = l.TreeAnnotations
	}
	return path.Join(k.Root, dir, k.Set, k.Sequence, m.Dir(), k.Image+f.Extension())
}

// IndexError is returned when a line of the frame list file is not "set/sequence/image"
type IndexError struct {
	ListFile string
	Line     int
	Text     string
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("Invalid frame list entry %v:%v '%v' (expected set/sequence/image)", e.ListFile, e.Line, e.Text)
}

// LoadIndex reads a frame list file from the store.
// Each non-blank line is "set/sequence/image". Keys are returned in file order.
func LoadIndex(store storage.Storage, listFile, root string) ([]FrameKey, error) {
	raw, err := storage.ReadFile(store, listFile)
	if err != nil {
		return nil, fmt.Errorf("Failed to read frame list: %w", err)
	}
	return ParseIndex(bytes.NewReader(raw), listFile, root)
}

// ParseIndex is LoadIndex, from an already opened list
func ParseIndex(r io.Reader, listFile, root string) ([]FrameKey, error) {
	keys := []FrameKey{}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, "/")
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return nil, &IndexError{ListFile: listFile, Line: lineNo, Text: line}
		}
		keys = append(keys, FrameKey{
			Root:     root,
			Set:      parts[0],
			Sequence: parts[1],
			Image:    parts[2],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}
