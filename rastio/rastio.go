// Package rastio reads and merges raster tiles. Tiles are snappy-compressed
// little-endian float32 grids described by a Layer metadata entry
// (dimensions, geotransform, projection, nodata). Merging warps every source
// tile into a single output grid covering a query window, resampled to the
// query's requested resolution, with pixels outside all sources left at the
// layer's NoData value.
package rastio

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"

	"github.com/golang/snappy"
	"github.com/terrascope/geometry"
	"github.com/terrascope/proj4go"
	"github.com/terrascope/raster"
	"github.com/terrascope/scimage"

	"github.com/terratile/geosets/index"
)

// Layer describes one raster layer of a dataset: grid dimensions of a single
// tile, the GDAL-style geotransform of the tile grid, value range, nodata
// sentinel, projection and an optional display palette.
type Layer struct {
	Name         string        `json:"name"`
	XSize        int           `json:"x_size"`
	YSize        int           `json:"y_size"`
	Geotransform []float64     `json:"geotransform"`
	MinVal       float32       `json:"min_value"`
	MaxVal       float32       `json:"max_value"`
	NoData       float32       `json:"no_data"`
	Proj4        string        `json:"proj4"`
	Palette      []color.NRGBA `json:"palette"`
}

// Layers maps layer names to their metadata.
type Layers map[string]Layer

// ReadLayers loads layer metadata from a JSON file.
func ReadLayers(fileName string) (Layers, error) {
	lyrs := Layers{}

	bytes, err := os.ReadFile(fileName)
	if err != nil {
		return lyrs, err
	}
	if err := json.Unmarshal(bytes, &lyrs); err != nil {
		return lyrs, fmt.Errorf("failed to parse layer metadata %s: %w", fileName, err)
	}

	return lyrs, nil
}

// Resolution returns the layer's native (x, y) pixel size from its
// geotransform.
func (l Layer) Resolution() (x, y float64) {
	return l.Geotransform[1], -l.Geotransform[5]
}

// TileExtent returns the map-unit extent of one tile in x and y.
func (l Layer) TileExtent() (x, y float64) {
	rx, ry := l.Resolution()
	return rx * float64(l.XSize), ry * float64(l.YSize)
}

// Source pairs one tile file with its spatial extent.
type Source struct {
	Path   string
	Bounds geometry.BoundingBox
}

// Grid is a merged read result: a row-major float32 grid with its coverage.
type Grid struct {
	Pix    []float32
	Width  int
	Height int
	NoData float32
	Bounds geometry.BoundingBox
	Proj4  string
}

// At returns the pixel at (row, col).
func (g *Grid) At(row, col int) float32 {
	return g.Pix[row*g.Width+col]
}

// Rows returns the grid as nested row slices sharing the underlying buffer.
func (g *Grid) Rows() [][]float32 {
	rows := make([][]float32, g.Height)
	for r := range rows {
		rows[r] = g.Pix[r*g.Width : (r+1)*g.Width]
	}
	return rows
}

// ReadTile decodes one snappy-compressed tile into a raster positioned at
// the given bounds.
func ReadTile(path string, layer Layer, bounds geometry.BoundingBox) (*raster.Raster, error) {
	cdata, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tile %s: %w", path, err)
	}

	data, err := snappy.Decode(nil, cdata)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress tile %s: %w", path, err)
	}

	want := layer.XSize * layer.YSize * 4
	if len(data) != want {
		return nil, fmt.Errorf("tile %s has %d bytes, want %d", path, len(data), want)
	}

	pix := make([]float32, layer.XSize*layer.YSize)
	for i := range pix {
		pix[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}

	img := &scimage.GrayF32{
		Pix:    pix,
		Stride: layer.XSize,
		Rect:   image.Rect(0, 0, layer.XSize, layer.YSize),
		Min:    layer.MinVal,
		Max:    layer.MaxVal,
		NoData: layer.NoData,
	}

	return &raster.Raster{Image: img, Coverage: proj4go.Coverage{BoundingBox: bounds, Proj4: layer.Proj4}}, nil
}

// WriteTile encodes a float32 grid as a snappy-compressed tile file. It is
// the inverse of ReadTile and is used by tests and tooling to produce
// fixture tiles.
func WriteTile(path string, layer Layer, pix []float32) error {
	if len(pix) != layer.XSize*layer.YSize {
		return fmt.Errorf("tile payload has %d samples, want %d", len(pix), layer.XSize*layer.YSize)
	}
	data := make([]byte, len(pix)*4)
	for i, v := range pix {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	return os.WriteFile(path, snappy.Encode(nil, data), 0o644)
}

// Merge reads every source tile and warps it into one output grid covering
// the query window. Output resolution is the query step when set, otherwise
// the layer's native resolution. Pixels no source covers keep the layer's
// NoData value; a query with no usable sources therefore yields an entirely
// NoData-filled grid rather than an error.
func Merge(srcs []Source, layer Layer, q index.Query) (*Grid, error) {
	resX, resY := layer.Resolution()
	if q.X.Step > 0 {
		resX = q.X.Step
	}
	if q.Y.Step > 0 {
		resY = q.Y.Step
	}

	width := int(math.Round((q.X.Stop - q.X.Start) / resX))
	height := int(math.Round((q.Y.Stop - q.Y.Start) / resY))
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("query %s produces an empty %dx%d grid", q, width, height)
	}

	img := scimage.NewGrayF32(image.Rect(0, 0, width, height), layer.MinVal, layer.MaxVal, layer.NoData)
	for i := range img.Pix {
		img.Pix[i] = layer.NoData
	}

	bounds := geometry.BBox(q.X.Start, q.Y.Start, q.X.Stop, q.Y.Stop)
	out := &raster.Raster{Image: img, Coverage: proj4go.Coverage{BoundingBox: bounds, Proj4: layer.Proj4}}

	for _, src := range srcs {
		rIn, err := ReadTile(src.Path, layer, src.Bounds)
		if err != nil {
			return nil, err
		}
		out.Warp(rIn)
	}

	return &Grid{
		Pix:    img.Pix,
		Width:  width,
		Height: height,
		NoData: layer.NoData,
		Bounds: bounds,
		Proj4:  layer.Proj4,
	}, nil
}
