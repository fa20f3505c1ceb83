// Package datasets provides the dataset adapters: each adapter locates,
// indexes, merges and slices the tiles of one public satellite-imagery
// dataset, returning tensor samples keyed by spatial/temporal query windows.
//
// All adapters share the same machinery: the filesystem is scanned once at
// construction into an immutable spatial/temporal index (package index),
// queries intersect that index, and the matching tile files are merged into
// a single grid per band (package rastio) before conversion to gomlx
// tensors. Adapters are safe for concurrent readers; none of them mutate
// state after construction.
package datasets

import (
	"fmt"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/terratile/geosets/index"
)

// Sample is the result of one query: the CRS of the returned grids, the
// query window that produced it, the image tensor shaped [bands, height,
// width], and, for labeled datasets, an ordinal mask tensor shaped [height,
// width]. Prediction may be attached by callers for visualization.
type Sample struct {
	CRS        string
	Bounds     index.Query
	Image      *tensors.Tensor
	Mask       *tensors.Tensor
	Prediction *tensors.Tensor
}

// GeoDataset is the capability shared by every dataset adapter.
type GeoDataset interface {
	// Index returns the dataset's spatial/temporal index.
	Index() *index.Index

	// Bounds returns the overall extent of the dataset as a query window.
	Bounds() index.Query

	// Get retrieves the sample covering the query window.
	Get(q index.Query) (*Sample, error)

	// Verify checks that every indexed file is still present on disk.
	Verify() error
}

// Open constructs one of the known dataset adapters by name with default
// configuration. The set of names is closed: "agrifieldnet", "prisma" and
// "enviroatlas".
func Open(name, root string, download bool) (GeoDataset, error) {
	switch name {
	case "agrifieldnet":
		return NewAgriFieldNet(AgriFieldNetConfig{Root: root, Download: download})
	case "prisma":
		return NewPRISMA(PRISMAConfig{Root: root})
	case "enviroatlas":
		return NewEnviroAtlas(EnviroAtlasConfig{Root: root, Download: download})
	default:
		return nil, fmt.Errorf("unknown dataset %q", name)
	}
}
