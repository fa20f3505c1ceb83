package datasets

import (
	"fmt"

	"github.com/terratile/geosets/rastio"
)

// OrdinalMap remaps a sparse set of raw class ids onto the dense ordinal
// range [0, len(classes)) for use as training targets, keeping a parallel
// color table indexed by ordinal for visualization. Raw ids outside the
// requested class list map to ordinal 0 (background). The map is built and
// validated once at construction and immutable afterwards.
type OrdinalMap struct {
	lut  []int32
	cmap [][4]uint8
}

// NewOrdinalMap builds an ordinal map for the given class list. colors is
// the full set of valid raw ids with their display colors; classes must be a
// duplicate-free subset of it that includes the background id 0.
func NewOrdinalMap(classes []int, colors map[int][4]uint8) (*OrdinalMap, error) {
	if len(classes) == 0 {
		return nil, &ValidationError{Reason: "class list is empty"}
	}

	maxID := 0
	for id := range colors {
		if id > maxID {
			maxID = id
		}
	}

	seen := make(map[int]bool, len(classes))
	background := false
	for _, c := range classes {
		if _, ok := colors[c]; !ok {
			return nil, &ValidationError{Reason: fmt.Sprintf("class %d is not a valid class id", c)}
		}
		if seen[c] {
			return nil, &ValidationError{Reason: fmt.Sprintf("class %d listed more than once", c)}
		}
		seen[c] = true
		if c == 0 {
			background = true
		}
	}
	if !background {
		return nil, &ValidationError{Reason: "classes must include the background class 0"}
	}

	m := &OrdinalMap{
		lut:  make([]int32, maxID+1),
		cmap: make([][4]uint8, len(classes)),
	}
	for v, k := range classes {
		m.lut[k] = int32(v)
		m.cmap[v] = colors[k]
	}
	return m, nil
}

// Len returns the number of ordinals.
func (m *OrdinalMap) Len() int { return len(m.cmap) }

// Ordinal returns the ordinal for a raw class id. Unknown and out-of-range
// ids map to the background ordinal 0.
func (m *OrdinalMap) Ordinal(raw int) int32 {
	if raw < 0 || raw >= len(m.lut) {
		return 0
	}
	return m.lut[raw]
}

// Color returns the display color for an ordinal.
func (m *OrdinalMap) Color(ordinal int32) [4]uint8 {
	if ordinal < 0 || int(ordinal) >= len(m.cmap) {
		return m.cmap[0]
	}
	return m.cmap[ordinal]
}

// Apply remaps a merged label grid to ordinal rows. NoData pixels map to the
// background ordinal.
func (m *OrdinalMap) Apply(g *rastio.Grid) [][]int32 {
	rows := make([][]int32, g.Height)
	for r := range rows {
		row := make([]int32, g.Width)
		for c := range row {
			v := g.At(r, c)
			if v != g.NoData {
				row[c] = m.Ordinal(int(v))
			}
		}
		rows[r] = row
	}
	return rows
}
