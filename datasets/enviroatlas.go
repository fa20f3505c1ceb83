package datasets

import (
	"fmt"
	"regexp"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/terratile/geosets/index"
	"github.com/terratile/geosets/rastio"
)

// EnviroAtlasLayers are the co-registered raster layers available per tile,
// in the order they may be stacked as input channels. "lc" is the land-cover
// label layer and becomes the sample mask when configured.
var EnviroAtlasLayers = []string{"naip", "prior", "buildings", "lc"}

const enviroAtlasGlob = "enviroatlas_*_naip.snp"

var enviroAtlasRegex = regexp.MustCompile(`^enviroatlas_(?P<x>[+-]\d{4})_(?P<y>[+-]\d{4})_(?P<layer>[a-z]+)\.snp$`)

var enviroAtlasLayer = rastio.Layer{
	Name:         "enviroatlas",
	XSize:        512,
	YSize:        512,
	Geotransform: []float64{0, 1, 0, 0, 0, -1},
	MinVal:       0,
	MaxVal:       255,
	NoData:       -1,
	Proj4:        "+proj=aea +lat_1=29.5 +lat_2=45.5 +lat_0=23 +lon_0=-96 +datum=WGS84 +units=m +no_defs",
}

// EnviroAtlasConfig configures an EnviroAtlas adapter.
type EnviroAtlasConfig struct {
	// Root is the directory holding the per-tile layer files.
	Root string

	// Layers to load, in channel order. Defaults to ("naip", "prior", "lc").
	Layers []string

	// Download fetches the dataset archive from URL when no local files are
	// found.
	Download bool

	// URL of the dataset zip archive.
	URL string

	// MD5 of the archive; verified after download when non-empty.
	MD5 string

	// Lister overrides filesystem listing, for tests.
	Lister index.Lister
}

// EnviroAtlas adapts the EnviroAtlas land-cover dataset. Its tiles are large
// debuffered city extents that cannot be mosaicked across tile seams, so a
// query window must resolve to exactly one tile; anything else is a
// *MultipleTileError.
type EnviroAtlas struct {
	*rasterDataset

	layers []string
}

// NewEnviroAtlas builds the adapter: validates the layer list, scans the
// root (downloading and extracting the archive first when requested), and
// indexes one record per tile.
func NewEnviroAtlas(cfg EnviroAtlasConfig) (*EnviroAtlas, error) {
	if len(cfg.Layers) == 0 {
		cfg.Layers = []string{"naip", "prior", "lc"}
	}
	for _, l := range cfg.Layers {
		if !contains(EnviroAtlasLayers, l) {
			return nil, &ValidationError{Reason: fmt.Sprintf("unknown layer %q", l)}
		}
	}

	layer := layerOrDefault(cfg.Root, "enviroatlas", enviroAtlasLayer)

	var download func() error
	if cfg.Download {
		root, url, sum := cfg.Root, cfg.URL, cfg.MD5
		download = func() error { return downloadArchive(root, url, sum) }
	}

	rd, err := newRasterDataset(rasterConfig{
		name:      "enviroatlas",
		root:      cfg.Root,
		layer:     layer,
		glob:      enviroAtlasGlob,
		regex:     enviroAtlasRegex,
		bands:     cfg.Layers,
		bandGroup: "layer",
		lister:    cfg.Lister,
		meta:      tileMeta(layer),
		download:  download,
	})
	if err != nil {
		return nil, err
	}

	return &EnviroAtlas{rasterDataset: rd, layers: cfg.Layers}, nil
}

// Layers returns the configured layer stack.
func (d *EnviroAtlas) Layers() []string { return d.layers }

// Get retrieves the layer stack for the single tile covering the query
// window. Input layers are stacked [layers, height, width]; the "lc" layer,
// when configured, is split off as the mask.
func (d *EnviroAtlas) Get(q index.Query) (*Sample, error) {
	records, err := d.ix.Query(q)
	if err != nil {
		return nil, err
	}
	if len(records) > 1 {
		return nil, &MultipleTileError{Query: q}
	}

	rec := records[0]
	var channels [][][]float32
	var mask [][]float32
	for _, name := range d.layers {
		src := rastio.Source{Path: d.bandPath(rec.Path, name), Bounds: rec.Bounds}
		g, err := rastio.Merge([]rastio.Source{src}, d.layer, q)
		if err != nil {
			return nil, fmt.Errorf("failed to read layer %q: %w", name, err)
		}
		if name == "lc" {
			mask = g.Rows()
		} else {
			channels = append(channels, g.Rows())
		}
	}

	sample := &Sample{CRS: d.layer.Proj4, Bounds: q}
	if len(channels) > 0 {
		sample.Image = tensors.FromAnyValue(channels)
	}
	if mask != nil {
		sample.Mask = tensors.FromAnyValue(mask)
	}
	return sample, nil
}
