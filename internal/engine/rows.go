package engine

import (
	"sort"
	"strings"

	"github.com/adityaks/labreport-extractor/constants"
)

// DefaultRowTolerance is the maximum vertical-center deviation, in pixel
// units, between a fragment and its row's anchor.
const DefaultRowTolerance = 20

// Box is an axis-aligned bounding box in image coordinates.
type Box struct {
	X1, Y1, X2, Y2 float64
}

// CenterY returns the vertical center of the box.
func (b Box) CenterY() float64 { return (b.Y1 + b.Y2) / 2 }

// Fragment is one OCR-detected text span. Label is empty when the text did
// not come from a labeled region detector.
type Fragment struct {
	Text       string
	Label      constants.FieldLabel
	Box        Box
	Confidence float64
}

// Row is an ordered sequence of fragments sharing an inferred vertical
// position, left to right.
type Row struct {
	Fragments []Fragment
}

// Text joins the row's fragment texts with single spaces in reading order.
func (r Row) Text() string {
	parts := make([]string, 0, len(r.Fragments))
	for _, f := range r.Fragments {
		if t := strings.TrimSpace(f.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Fields maps at most one fragment text per label; the first occurrence wins
// and later duplicates for the same label are dropped.
func (r Row) Fields() map[constants.FieldLabel]string {
	fields := make(map[constants.FieldLabel]string)
	for _, f := range r.Fragments {
		if f.Label == "" {
			continue
		}
		if _, ok := fields[f.Label]; ok {
			continue
		}
		fields[f.Label] = strings.TrimSpace(f.Text)
	}
	return fields
}

// AssembleRows clusters fragments into visual rows by vertical position and
// orders each row left to right. Single-pass greedy clustering against the
// row anchor (the first fragment placed in the row); report rows are
// near-horizontal, so an anchor-distance test is sufficient and the sort
// dominates the cost. Every fragment lands in exactly one row.
func AssembleRows(fragments []Fragment, tolerance float64) []Row {
	if len(fragments) == 0 {
		return nil
	}
	if tolerance <= 0 {
		tolerance = DefaultRowTolerance
	}

	sorted := make([]Fragment, len(fragments))
	copy(sorted, fragments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Box.CenterY() < sorted[j].Box.CenterY()
	})

	var rows []Row
	current := Row{Fragments: []Fragment{sorted[0]}}
	anchorY := sorted[0].Box.CenterY()

	for _, f := range sorted[1:] {
		if abs(f.Box.CenterY()-anchorY) <= tolerance {
			current.Fragments = append(current.Fragments, f)
			continue
		}
		rows = append(rows, finishRow(current))
		current = Row{Fragments: []Fragment{f}}
		anchorY = f.Box.CenterY()
	}
	rows = append(rows, finishRow(current))
	return rows
}

func finishRow(r Row) Row {
	sort.SliceStable(r.Fragments, func(i, j int) bool {
		return r.Fragments[i].Box.X1 < r.Fragments[j].Box.X1
	})
	return r
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
