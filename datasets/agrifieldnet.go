package datasets

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/terrascope/geometry"

	"github.com/terratile/geosets/fetch"
	"github.com/terratile/geosets/index"
	"github.com/terratile/geosets/rastio"
)

// AgriFieldNetBands are the Sentinel-2 bands the AgriFieldNet tiles carry,
// one file per band.
var AgriFieldNetBands = []string{
	"B01", "B02", "B03", "B04", "B05", "B06",
	"B07", "B08", "B8A", "B09", "B11", "B12",
}

// AgriFieldNetRGBBands are the bands used for true-color plotting.
var AgriFieldNetRGBBands = []string{"B04", "B03", "B02"}

// AgriFieldNetClasses are the valid raw crop-type ids. The id set is sparse;
// 0 is the background (unlabeled) class.
var AgriFieldNetClasses = []int{0, 1, 2, 3, 4, 5, 6, 8, 9, 13, 14, 15, 16, 36}

// agriFieldNetColors maps raw class ids to display colors. Copied into each
// OrdinalMap at construction; never mutated.
var agriFieldNetColors = map[int][4]uint8{
	0:  {0, 0, 0, 255},
	1:  {255, 211, 0, 255},
	2:  {255, 37, 37, 255},
	3:  {0, 168, 226, 255},
	4:  {255, 158, 9, 255},
	5:  {37, 111, 0, 255},
	6:  {255, 255, 0, 255},
	8:  {111, 166, 0, 255},
	9:  {0, 175, 73, 255},
	13: {222, 166, 9, 255},
	14: {222, 166, 9, 255},
	15: {124, 211, 255, 255},
	16: {226, 0, 124, 255},
	36: {137, 96, 83, 255},
}

const (
	agriFieldNetGlob       = "agrifieldnet_source_*_%s_10m.snp"
	agriFieldNetLabelsGlob = "agrifieldnet_labels_*.snp"
	agriFieldNetLabelsDir  = "train_labels"
)

var (
	agriFieldNetRegex       = regexp.MustCompile(`^agrifieldnet_source_(?P<x>[+-]\d{4})_(?P<y>[+-]\d{4})_(?P<band>B[0-9A-Z]{2})_10m\.snp$`)
	agriFieldNetLabelsRegex = regexp.MustCompile(`^agrifieldnet_labels_(?P<x>[+-]\d{4})_(?P<y>[+-]\d{4})\.snp$`)
)

// agriFieldNetLayer is the default tile geometry: 256x256 chips at 10 m in
// UTM zone 44N. A layers.json in the dataset root overrides it.
var agriFieldNetLayer = rastio.Layer{
	Name:         "agrifieldnet",
	XSize:        256,
	YSize:        256,
	Geotransform: []float64{0, 10, 0, 0, 0, -10},
	MinVal:       0,
	MaxVal:       65535,
	NoData:       -9999,
	Proj4:        "+proj=utm +zone=44 +datum=WGS84 +units=m +no_defs",
}

// AgriFieldNetConfig configures an AgriFieldNet adapter. Zero values select
// the defaults noted on each field.
type AgriFieldNetConfig struct {
	// Root is the directory holding the source tiles and the train_labels
	// subdirectory.
	Root string

	// Classes to keep in the ordinal mapping; all other raw ids map to the
	// background ordinal 0. Defaults to AgriFieldNetClasses. Must include 0.
	Classes []int

	// Bands to load, in channel order. Defaults to AgriFieldNetBands.
	Bands []string

	// Download fetches the dataset from URL when no local files are found.
	Download bool

	// URL of the dataset archive; a .zip is extracted into Root.
	URL string

	// Lister overrides filesystem listing, for tests.
	Lister index.Lister
}

// AgriFieldNet adapts the AgriFieldNet India Challenge dataset: 12-band
// Sentinel-2 composites with crop-type label masks collected by ground
// survey. Labels use a sparse id set remapped to dense ordinals.
type AgriFieldNet struct {
	*rasterDataset

	ordinal  *OrdinalMap
	labels   *index.Index
	rgbBands []string
}

// NewAgriFieldNet builds the adapter: validates the configuration, scans the
// root (downloading first when requested), and indexes both source tiles and
// label masks.
func NewAgriFieldNet(cfg AgriFieldNetConfig) (*AgriFieldNet, error) {
	if len(cfg.Classes) == 0 {
		cfg.Classes = AgriFieldNetClasses
	}
	if len(cfg.Bands) == 0 {
		cfg.Bands = AgriFieldNetBands
	}
	for _, b := range cfg.Bands {
		if !contains(AgriFieldNetBands, b) {
			return nil, &ValidationError{Reason: fmt.Sprintf("unknown band %q", b)}
		}
	}

	ordinal, err := NewOrdinalMap(cfg.Classes, agriFieldNetColors)
	if err != nil {
		return nil, err
	}

	layer := layerOrDefault(cfg.Root, "agrifieldnet", agriFieldNetLayer)

	var download func() error
	if cfg.Download {
		root, url := cfg.Root, cfg.URL
		download = func() error { return downloadArchive(root, url, "") }
	}

	rd, err := newRasterDataset(rasterConfig{
		name:      "agrifieldnet",
		root:      cfg.Root,
		layer:     layer,
		glob:      fmt.Sprintf(agriFieldNetGlob, cfg.Bands[0]),
		regex:     agriFieldNetRegex,
		bands:     cfg.Bands,
		bandGroup: "band",
		lister:    cfg.Lister,
		meta:      tileMeta(layer),
		download:  download,
	})
	if err != nil {
		return nil, err
	}

	lister := cfg.Lister
	if lister == nil {
		lister = index.ListDir
	}
	labelRecords, err := index.Scan(filepath.Join(cfg.Root, agriFieldNetLabelsDir),
		agriFieldNetLabelsGlob, agriFieldNetLabelsRegex, lister, tileMeta(layer))
	if err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("failed to scan labels: %w", err)
	}
	labels, err := index.New(labelRecords)
	if err != nil {
		return nil, fmt.Errorf("failed to index labels: %w", err)
	}

	return &AgriFieldNet{
		rasterDataset: rd,
		ordinal:       ordinal,
		labels:        labels,
		rgbBands:      AgriFieldNetRGBBands,
	}, nil
}

// Classes returns the ordinal mapping in use.
func (d *AgriFieldNet) Classes() *OrdinalMap { return d.ordinal }

// Get retrieves the image and ordinal mask covering the query window. The
// image is the configured bands merged and stacked [bands, height, width];
// the mask is the label tiles merged and remapped to ordinals. Areas without
// label coverage come back as background.
func (d *AgriFieldNet) Get(q index.Query) (*Sample, error) {
	image, err := d.imageTensor(q)
	if err != nil {
		return nil, err
	}

	var srcs []rastio.Source
	if records, err := d.labels.Query(q); err == nil {
		srcs = make([]rastio.Source, len(records))
		for i, r := range records {
			srcs[i] = rastio.Source{Path: r.Path, Bounds: r.Bounds}
		}
	} else {
		var notFound *index.QueryNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	grid, err := rastio.Merge(srcs, d.layer, q)
	if err != nil {
		return nil, fmt.Errorf("failed to merge labels: %w", err)
	}

	return &Sample{
		CRS:    d.layer.Proj4,
		Bounds: q,
		Image:  image,
		Mask:   tensors.FromAnyValue(d.ordinal.Apply(grid)),
	}, nil
}

// tileMeta returns a Meta deriving tile bounds from the x/y filename groups,
// in units of whole tiles from the layer origin. Records carry no date and
// span the full representable interval.
func tileMeta(layer rastio.Layer) index.Meta {
	extX, extY := layer.TileExtent()
	return func(p string, groups map[string]string) (geometry.BoundingBox, time.Time, time.Time, error) {
		fx, err := strconv.Atoi(groups["x"])
		if err != nil {
			return geometry.BoundingBox{}, time.Time{}, time.Time{}, fmt.Errorf("bad tile x in %s: %w", p, err)
		}
		fy, err := strconv.Atoi(groups["y"])
		if err != nil {
			return geometry.BoundingBox{}, time.Time{}, time.Time{}, fmt.Errorf("bad tile y in %s: %w", p, err)
		}
		b := geometry.BBox(float64(fx)*extX, float64(fy)*extY, float64(fx+1)*extX, float64(fy+1)*extY)
		return b, index.MinTime, index.MaxTime, nil
	}
}

// layerOrDefault returns the named layer from root/layers.json when present,
// otherwise the built-in default.
func layerOrDefault(root, name string, def rastio.Layer) rastio.Layer {
	lyrs, err := rastio.ReadLayers(filepath.Join(root, "layers.json"))
	if err != nil {
		return def
	}
	if l, ok := lyrs[name]; ok {
		return l
	}
	return def
}

// downloadArchive fetches url into root, verifies the optional checksum and
// extracts zip archives in place.
func downloadArchive(root, url, md5sum string) error {
	if url == "" {
		return errors.New("no download URL configured")
	}
	local, err := fetch.Download(context.Background(), url, root)
	if err != nil {
		return err
	}
	if md5sum != "" {
		if err := fetch.VerifyMD5(local, md5sum); err != nil {
			return err
		}
	}
	if strings.HasSuffix(local, ".zip") {
		return fetch.ExtractZip(local, root)
	}
	return nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
