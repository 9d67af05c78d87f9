package annot

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Format selects which annotation parser a dataset uses.
type Format int

const (
	FormatText Format = iota // One object per line, after a header line
	FormatTree               // XML, with repeated <object> elements
)

var ErrUnknownFormat = errors.New("Unknown annotation format")

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatTree:
		return "tree"
	}
	return "unknown"
}

func (f Format) Extension() string {
	if f == FormatTree {
		return ".xml"
	}
	return ".txt"
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "text", "txt":
		return FormatText, nil
	case "tree", "xml":
		return FormatTree, nil
	}
	return FormatText, fmt.Errorf("%w '%v'", ErrUnknownFormat, s)
}

func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Format) UnmarshalText(b []byte) error {
	v, err := ParseFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Parser reads the annotation of one modality of one frame.
// The result always begins with the Sentinel.
type Parser interface {
	Parse(r io.Reader, source string, width, height int) ([]Box, error)
}

// NewParser returns the parser for the given format.
func NewParser(f Format) (Parser, error) {
	switch f {
	case FormatText:
		return TextParser{}, nil
	case FormatTree:
		return TreeParser{}, nil
	}
	return nil, fmt.Errorf("%w %d", ErrUnknownFormat, int(f))
}

// ParseError is returned when an annotation record cannot be understood.
type ParseError struct {
	Source string // Usually the annotation file name
	Line   int    // 1-based line number, or the 1-based object index for tree annotations
	Text   string // The offending record
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Malformed annotation %v:%v '%v': %v", e.Source, e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var ErrTooFewFields = errors.New("expected '<class> <x> <y> <w> <h>'")

// TextParser reads the paired text format
type TextParser struct{}

func (TextParser) Parse(r io.Reader, source string, width, height int) ([]Box, error) {
	return ParseText(r, source, width, height)
}

// ParseText reads the paired text annotation format.
// The first line is a header, and is skipped. Every other line is
// "<class> <x> <y> <w> <h> ...", where trailing fields are ignored.
// Blank lines are skipped.
func ParseText(r io.Reader, source string, width, height int) ([]Box, error) {
	boxes := NewBoxes()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo == 1 {
			continue
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			return nil, &ParseError{Source: source, Line: lineNo, Text: line, Err: ErrTooFewFields}
		}
		var xywh [4]int
		for i := 0; i < 4; i++ {
			v, err := strconv.Atoi(fields[i+1])
			if err != nil {
				return nil, &ParseError{Source: source, Line: lineNo, Text: line, Err: err}
			}
			xywh[i] = v
		}
		boxes = append(boxes, Normalize(xywh[0], xywh[1], xywh[2], xywh[3], width, height))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("Error reading %v: %w", source, err)
	}
	return boxes, nil
}
