package datasets

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/terrascope/geometry"

	"github.com/terratile/geosets/index"
	"github.com/terratile/geosets/rastio"
)

const prismaGlob = "PRS_L2D_STD_*.snp"

// PRISMA filenames carry the acquisition window start and stop timestamps
// plus the tile grid position.
var prismaRegex = regexp.MustCompile(`^PRS_L2D_STD_(?P<start>\d{14})_(?P<stop>\d{14})_(?P<x>[+-]\d{4})_(?P<y>[+-]\d{4})\.snp$`)

const prismaTimeFormat = "20060102150405"

var prismaLayer = rastio.Layer{
	Name:         "prisma",
	XSize:        256,
	YSize:        256,
	Geotransform: []float64{0, 30, 0, 0, 0, -30},
	MinVal:       0,
	MaxVal:       65535,
	NoData:       -9999,
	Proj4:        "+proj=utm +zone=32 +datum=WGS84 +units=m +no_defs",
}

// PRISMAConfig configures a PRISMA adapter.
type PRISMAConfig struct {
	// Root is the directory holding the hyperspectral tiles.
	Root string

	// Lister overrides filesystem listing, for tests.
	Lister index.Lister
}

// PRISMA adapts PRISMA hyperspectral imagery: one file per acquisition with
// the acquisition window encoded in the filename. The dataset is unlabeled;
// samples carry an image tensor only.
type PRISMA struct {
	*rasterDataset
}

// NewPRISMA builds the adapter by scanning the root. There is no public
// download source for PRISMA, so a root with no matching files is always a
// *DatasetNotFoundError.
func NewPRISMA(cfg PRISMAConfig) (*PRISMA, error) {
	layer := layerOrDefault(cfg.Root, "prisma", prismaLayer)

	rd, err := newRasterDataset(rasterConfig{
		name:   "prisma",
		root:   cfg.Root,
		layer:  layer,
		glob:   prismaGlob,
		regex:  prismaRegex,
		lister: cfg.Lister,
		meta:   prismaMeta(layer),
	})
	if err != nil {
		return nil, err
	}
	return &PRISMA{rasterDataset: rd}, nil
}

// Get retrieves the image covering the query window.
func (d *PRISMA) Get(q index.Query) (*Sample, error) {
	image, err := d.imageTensor(q)
	if err != nil {
		return nil, err
	}
	return &Sample{CRS: d.layer.Proj4, Bounds: q, Image: image}, nil
}

// prismaMeta derives bounds from the tile grid position and the half-open
// acquisition interval from the start/stop filename groups.
func prismaMeta(layer rastio.Layer) index.Meta {
	extX, extY := layer.TileExtent()
	return func(p string, groups map[string]string) (geometry.BoundingBox, time.Time, time.Time, error) {
		fx, errX := strconv.Atoi(groups["x"])
		fy, errY := strconv.Atoi(groups["y"])
		if errX != nil || errY != nil {
			return geometry.BoundingBox{}, time.Time{}, time.Time{}, fmt.Errorf("bad tile position in %s", p)
		}

		start, err := time.ParseInLocation(prismaTimeFormat, groups["start"], time.UTC)
		if err != nil {
			return geometry.BoundingBox{}, time.Time{}, time.Time{}, fmt.Errorf("bad start time in %s: %w", p, err)
		}
		stop, err := time.ParseInLocation(prismaTimeFormat, groups["stop"], time.UTC)
		if err != nil {
			return geometry.BoundingBox{}, time.Time{}, time.Time{}, fmt.Errorf("bad stop time in %s: %w", p, err)
		}

		b := geometry.BBox(float64(fx)*extX, float64(fy)*extY, float64(fx+1)*extX, float64(fy+1)*extY)
		return b, start, stop, nil
	}
}
