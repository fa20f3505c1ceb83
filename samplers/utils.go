// Package samplers holds the patch and chip arithmetic used by training
// samplers: drawing a random fixed-size window from a tile aligned to the
// pixel grid, and counting how many strided windows cover a tile.
package samplers

import (
	"math"
	"math/rand"

	"github.com/terrascope/geometry"
)

// Square expands a scalar into a (height, width) pair for callers that want
// square chips.
func Square(v float64) [2]float64 {
	return [2]float64{v, v}
}

// GetRandomBoundingBox returns a random box of the given size inside bounds.
// size is (height, width) in map units; res is (x, y) resolution. The box
// origin is snapped to an integer multiple of res from the tile's minimum
// corner so reads at native resolution need no resampling.
//
// The caller is responsible for bounds being at least size large. rng may be
// nil, in which case the process-default source is used; pass a seeded
// *rand.Rand for reproducible sequences.
func GetRandomBoundingBox(bounds geometry.BoundingBox, size, res [2]float64, rng *rand.Rand) geometry.BoundingBox {
	uniform := rand.Float64
	if rng != nil {
		uniform = rng.Float64
	}

	// May be negative if the box doesn't fit inside bounds.
	width := (bounds.Max.X - bounds.Min.X - size[1]) / res[0]
	height := (bounds.Max.Y - bounds.Min.Y - size[0]) / res[1]

	xmin := bounds.Min.X + float64(int(uniform()*width))*res[0]
	ymin := bounds.Min.Y + float64(int(uniform()*height))*res[1]

	return geometry.BBox(xmin, ymin, xmin+size[1], ymin+size[0])
}

// TileToChips computes how many chips of the given size, sampled at the
// given stride, cover the tile: ceil((extent-size)/stride)+1 per dimension,
// so a final partially overlapping chip is counted when the extent is not an
// exact multiple of the stride. A zero stride defaults to size
// (non-overlapping tiling). size and stride are (height, width) pairs.
//
// Rows come from the y extent, columns from the x extent. TileToChips panics
// if the effective stride is not strictly positive in both dimensions.
func TileToChips(bounds geometry.BoundingBox, size, stride [2]float64) (rows, cols int) {
	if stride == [2]float64{} {
		stride = size
	}
	if stride[0] <= 0 || stride[1] <= 0 {
		panic("samplers: stride must be strictly positive")
	}

	rows = int(math.Ceil((bounds.Max.Y-bounds.Min.Y-size[0])/stride[0])) + 1
	cols = int(math.Ceil((bounds.Max.X-bounds.Min.X-size[1])/stride[1])) + 1
	return rows, cols
}
