package pairing

import (
	"github.com/cyclopcam/pairedped/pkg/annot"
)

// Merge combines the boxes of the two modalities of a frame into one canonical set.
//
// A nil set means that modality was dropped upstream (eg by a transform), and in that
// case the other set is returned as-is. Otherwise every box other than the sentinel
// is re-tagged with its provenance code, the visible boxes are followed by the thermal
// boxes, and exact duplicates (same corners and same code) are removed. The first
// occurrence of a duplicate is kept, so the output order is fully determined by the
// input order.
//
// The inputs are not modified.
func Merge(visible, thermal []annot.Box, pair Pairing) []annot.Box {
	if visible == nil && thermal == nil {
		return nil
	}
	if visible == nil {
		return clone(thermal)
	}
	if thermal == nil {
		return clone(visible)
	}

	visCode, thermalCode := annot.CodeVisible, annot.CodeThermal
	if pair == Paired {
		visCode, thermalCode = annot.CodeBoth, annot.CodeBoth
	}

	merged := make([]annot.Box, 0, len(visible)+len(thermal))
	merged = appendTagged(merged, visible, visCode)
	merged = appendTagged(merged, thermal, thermalCode)
	return Dedup(merged)
}

// Dedup removes exact duplicates from boxes, keeping the first of each.
func Dedup(boxes []annot.Box) []annot.Box {
	seen := make(map[annot.Box]bool, len(boxes))
	out := make([]annot.Box, 0, len(boxes))
	for _, b := range boxes {
		if seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}
	return out
}

// Sentinel rows keep their code
func appendTagged(dst, src []annot.Box, code annot.Code) []annot.Box {
	for _, b := range src {
		if !b.IsSentinel() {
			b.Code = code
		}
		dst = append(dst, b)
	}
	return dst
}

func clone(boxes []annot.Box) []annot.Box {
	return append([]annot.Box{}, boxes...)
}
