package annot

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

var ErrMissingElement = errors.New("missing element")

// TreeParser reads the XML annotation format
type TreeParser struct{}

func (TreeParser) Parse(r io.Reader, source string, width, height int) ([]Box, error) {
	return ParseTree(r, source, width, height)
}

// ParseTree reads an XML annotation, which looks like this:
//
//	<annotation>
//	  <object>
//	    <name>person</name>
//	    <bndbox><x>10</x><y>20</y><w>30</w><h>60</h></bndbox>
//	  </object>
//	  ...
//	</annotation>
//
// The object name is not used, but it must be present.
func ParseTree(r io.Reader, source string, width, height int) ([]Box, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("Error parsing XML %v: %w", source, err)
	}
	boxes := NewBoxes()
	for i, obj := range doc.FindElements("//object") {
		fail := func(err error) error {
			return &ParseError{Source: source, Line: i + 1, Text: describeObject(obj), Err: err}
		}
		if obj.SelectElement("name") == nil {
			return nil, fail(fmt.Errorf("%w 'name'", ErrMissingElement))
		}
		bndbox := obj.SelectElement("bndbox")
		if bndbox == nil {
			return nil, fail(fmt.Errorf("%w 'bndbox'", ErrMissingElement))
		}
		var xywh [4]int
		for j, tag := range []string{"x", "y", "w", "h"} {
			el := bndbox.SelectElement(tag)
			if el == nil {
				return nil, fail(fmt.Errorf("%w 'bndbox/%v'", ErrMissingElement, tag))
			}
			v, err := strconv.Atoi(strings.TrimSpace(el.Text()))
			if err != nil {
				return nil, fail(err)
			}
			xywh[j] = v
		}
		boxes = append(boxes, Normalize(xywh[0], xywh[1], xywh[2], xywh[3], width, height))
	}
	return boxes, nil
}

func describeObject(obj *etree.Element) string {
	name := ""
	if n := obj.SelectElement("name"); n != nil {
		name = strings.ToLower(strings.TrimSpace(n.Text()))
	}
	return "object " + name
}
