// Command geosets inspects a dataset root: it builds the spatial index,
// reports its bounds, samples a random chip and optionally renders it to
// PNG panels.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/terrascope/geometry"
	"gonum.org/v1/plot/vg"

	"github.com/terratile/geosets/datasets"
	"github.com/terratile/geosets/index"
	"github.com/terratile/geosets/samplers"
)

func main() {
	var (
		name     = flag.String("dataset", "agrifieldnet", "dataset name: agrifieldnet, prisma or enviroatlas")
		root     = flag.String("root", "data", "dataset root directory")
		download = flag.Bool("download", false, "download the dataset if not present locally")
		chip     = flag.Float64("chip", 2560, "chip size in map units")
		res      = flag.Float64("res", 10, "pixel resolution in map units")
		stride   = flag.Float64("stride", 0, "chip stride in map units (0 means chip size)")
		seed     = flag.Int64("seed", 0, "random seed (0 means time-based)")
		outDir   = flag.String("out", "", "write sample panels as PNGs into this directory")
	)
	flag.Parse()

	ds, err := datasets.Open(*name, *root, *download)
	if err != nil {
		log.Fatalf("failed to open %s: %v", *name, err)
	}

	bounds := ds.Bounds()
	fmt.Printf("%s: %d tiles indexed\n", *name, ds.Index().Len())
	fmt.Printf("bounds: %s\n", bounds)

	tile := geometry.BBox(bounds.X.Start, bounds.Y.Start, bounds.X.Stop, bounds.Y.Stop)
	rows, cols := samplers.TileToChips(tile, samplers.Square(*chip), samplers.Square(*stride))
	fmt.Printf("chips at size %g stride %g: %d rows x %d cols\n", *chip, *stride, rows, cols)

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	box := samplers.GetRandomBoundingBox(tile, samplers.Square(*chip), [2]float64{*res, *res}, rng)
	q := index.Query{
		X: index.Slice{Start: box.Min.X, Stop: box.Max.X, Step: *res},
		Y: index.Slice{Start: box.Min.Y, Stop: box.Max.Y, Step: *res},
		T: bounds.T,
	}

	sample, err := ds.Get(q)
	if err != nil {
		log.Fatalf("failed to retrieve %s: %v", q, err)
	}
	fmt.Printf("sample at %s (crs %s)\n", q, sample.CRS)

	if *outDir == "" {
		return
	}
	agri, ok := ds.(*datasets.AgriFieldNet)
	if !ok {
		log.Printf("plotting is only wired up for agrifieldnet; skipping")
		return
	}
	panels, err := agri.Plot(sample, datasets.PlotOptions{ShowTitles: true})
	if err != nil {
		log.Fatalf("failed to plot sample: %v", err)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("failed to create %s: %v", *outDir, err)
	}
	for i, p := range panels {
		path := filepath.Join(*outDir, fmt.Sprintf("panel_%d.png", i))
		if err := p.Save(4*vg.Inch, 4*vg.Inch, path); err != nil {
			log.Fatalf("failed to save %s: %v", path, err)
		}
		log.Printf("wrote %s", path)
	}
}
