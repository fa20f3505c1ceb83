package datasets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/terratile/geosets/index"
	"github.com/terratile/geosets/rastio"
)

// isNotExist reports whether err stems from a missing file or directory,
// unwrapping as needed.
func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// rasterConfig is the shared construction input for raster-backed adapters.
type rasterConfig struct {
	name      string
	root      string
	layer     rastio.Layer
	glob      string
	regex     *regexp.Regexp
	bands     []string
	bandGroup string // regex group substituted per band; empty means no substitution
	lister    index.Lister
	meta      index.Meta
	download  func() error // nil when the dataset has no download support
}

// rasterDataset is the common core of the raster-backed adapters: an index
// over the discovered tile files plus the machinery to merge them into
// per-band grids for a query window.
type rasterDataset struct {
	name      string
	root      string
	layer     rastio.Layer
	regex     *regexp.Regexp
	bands     []string
	bandGroup string
	ix        *index.Index
}

// newRasterDataset scans the root, downloading first if nothing is found and
// the config carries a downloader, and builds the index. A root with no
// matching files is a *DatasetNotFoundError.
func newRasterDataset(cfg rasterConfig) (*rasterDataset, error) {
	lister := cfg.lister
	if lister == nil {
		lister = index.ListDir
	}

	records, err := index.Scan(cfg.root, cfg.glob, cfg.regex, lister, cfg.meta)
	if err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("failed to scan %s: %w", cfg.root, err)
	}

	if len(records) == 0 {
		if cfg.download == nil {
			return nil, &DatasetNotFoundError{Name: cfg.name, Root: cfg.root}
		}
		if err := cfg.download(); err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", cfg.name, err)
		}
		records, err = index.Scan(cfg.root, cfg.glob, cfg.regex, lister, cfg.meta)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", cfg.root, err)
		}
		if len(records) == 0 {
			return nil, &DatasetNotFoundError{Name: cfg.name, Root: cfg.root}
		}
	}

	ix, err := index.New(records)
	if err != nil {
		return nil, fmt.Errorf("failed to index %s: %w", cfg.name, err)
	}

	return &rasterDataset{
		name:      cfg.name,
		root:      cfg.root,
		layer:     cfg.layer,
		regex:     cfg.regex,
		bands:     cfg.bands,
		bandGroup: cfg.bandGroup,
		ix:        ix,
	}, nil
}

// Index returns the dataset's spatial/temporal index.
func (d *rasterDataset) Index() *index.Index { return d.ix }

// Bounds returns the overall extent of the dataset as a query window.
func (d *rasterDataset) Bounds() index.Query { return d.ix.Bounds() }

// Verify checks that every indexed file is still present on disk.
func (d *rasterDataset) Verify() error {
	for _, r := range d.ix.Records() {
		if _, err := os.Stat(r.Path); err != nil {
			return fmt.Errorf("missing indexed file %s: %w", r.Path, err)
		}
	}
	return nil
}

// bandPath substitutes band into the band capture group of the record's
// filename, locating the sibling file holding that band.
func (d *rasterDataset) bandPath(p, band string) string {
	if d.bandGroup == "" {
		return p
	}
	i := d.regex.SubexpIndex(d.bandGroup)
	if i < 0 {
		return p
	}
	base := filepath.Base(p)
	loc := d.regex.FindStringSubmatchIndex(base)
	if loc == nil || loc[2*i] < 0 {
		return p
	}
	return filepath.Join(filepath.Dir(p), base[:loc[2*i]]+band+base[loc[2*i+1]:])
}

// mergeBands queries the index and merges the matching tiles into one grid
// per band, in band order. Query errors, including *index.QueryNotFoundError
// for empty results, are returned unwrapped.
func (d *rasterDataset) mergeBands(q index.Query) ([]*rastio.Grid, error) {
	records, err := d.ix.Query(q)
	if err != nil {
		return nil, err
	}

	bands := d.bands
	if len(bands) == 0 {
		bands = []string{""}
	}

	grids := make([]*rastio.Grid, 0, len(bands))
	for _, band := range bands {
		srcs := make([]rastio.Source, len(records))
		for i, r := range records {
			srcs[i] = rastio.Source{Path: d.bandPath(r.Path, band), Bounds: r.Bounds}
		}
		g, err := rastio.Merge(srcs, d.layer, q)
		if err != nil {
			return nil, fmt.Errorf("failed to merge band %q: %w", band, err)
		}
		grids = append(grids, g)
	}
	return grids, nil
}

// imageTensor merges the query window and stacks the per-band grids into a
// [bands, height, width] tensor.
func (d *rasterDataset) imageTensor(q index.Query) (*tensors.Tensor, error) {
	grids, err := d.mergeBands(q)
	if err != nil {
		return nil, err
	}
	channels := make([][][]float32, len(grids))
	for i, g := range grids {
		channels[i] = g.Rows()
	}
	return tensors.FromAnyValue(channels), nil
}
