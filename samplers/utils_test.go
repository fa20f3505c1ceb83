package samplers

import (
	"math"
	"math/rand"
	"testing"

	"github.com/terrascope/geometry"
)

func TestTileToChipsExactMultiple(t *testing.T) {
	rows, cols := TileToChips(geometry.BBox(0, 0, 10, 10), Square(5), Square(5))
	if rows != 2 || cols != 2 {
		t.Fatalf("expected (2, 2), got (%d, %d)", rows, cols)
	}
}

func TestTileToChipsPartialChip(t *testing.T) {
	// ceil((10-5)/3)+1 = 3 in each dimension: the final chip overlaps.
	rows, cols := TileToChips(geometry.BBox(0, 0, 10, 10), Square(5), Square(3))
	if rows != 3 || cols != 3 {
		t.Fatalf("expected (3, 3), got (%d, %d)", rows, cols)
	}
}

func TestTileToChipsDefaultStride(t *testing.T) {
	rows, cols := TileToChips(geometry.BBox(0, 0, 20, 10), Square(5), [2]float64{})
	if rows != 2 || cols != 4 {
		t.Fatalf("expected (2, 4), got (%d, %d)", rows, cols)
	}
}

func TestTileToChipsRejectsNonPositiveStride(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non-positive stride")
		}
	}()
	TileToChips(geometry.BBox(0, 0, 10, 10), Square(5), [2]float64{0, 3})
}

func TestGetRandomBoundingBoxSizeAndAlignment(t *testing.T) {
	bounds := geometry.BBox(100, 200, 300, 500)
	size := [2]float64{30, 20} // height, width
	res := [2]float64{2.5, 2.5}
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 100; i++ {
		box := GetRandomBoundingBox(bounds, size, res, rng)

		if w := box.Max.X - box.Min.X; math.Abs(w-20) > 1e-9 {
			t.Fatalf("width = %g, want 20", w)
		}
		if h := box.Max.Y - box.Min.Y; math.Abs(h-30) > 1e-9 {
			t.Fatalf("height = %g, want 30", h)
		}

		if box.Min.X < bounds.Min.X || box.Max.X > bounds.Max.X ||
			box.Min.Y < bounds.Min.Y || box.Max.Y > bounds.Max.Y {
			t.Fatalf("box %v escapes bounds %v", box, bounds)
		}

		// Origin snaps to the resolution grid anchored at the tile corner.
		dx := (box.Min.X - bounds.Min.X) / res[0]
		dy := (box.Min.Y - bounds.Min.Y) / res[1]
		if math.Abs(dx-math.Round(dx)) > 1e-9 || math.Abs(dy-math.Round(dy)) > 1e-9 {
			t.Fatalf("box origin %v not aligned to res %v", box.Min, res)
		}
	}
}

func TestGetRandomBoundingBoxDeterministic(t *testing.T) {
	bounds := geometry.BBox(0, 0, 1000, 1000)
	size := Square(100)
	res := [2]float64{10, 10}

	a := rand.New(rand.NewSource(42))
	b := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		ba := GetRandomBoundingBox(bounds, size, res, a)
		bb := GetRandomBoundingBox(bounds, size, res, b)
		if ba != bb {
			t.Fatalf("seeded draws diverged at %d: %v vs %v", i, ba, bb)
		}
	}
}

func TestGetRandomBoundingBoxNilSource(t *testing.T) {
	bounds := geometry.BBox(0, 0, 100, 100)
	box := GetRandomBoundingBox(bounds, Square(10), [2]float64{1, 1}, nil)
	if box.Max.X-box.Min.X != 10 || box.Max.Y-box.Min.Y != 10 {
		t.Fatalf("unexpected box size: %v", box)
	}
}
