package index

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/terrascope/geometry"
)

func TestScanMatchesGlobAndRegex(t *testing.T) {
	lister := func(root string) ([]string, error) {
		return []string{
			root + "/tile_+0001_-0002_B02.snp",
			root + "/tile_+0003_+0004_B02.snp",
			root + "/tile_+0003_+0004_B03.snp", // wrong band, filtered by glob
			root + "/readme.txt",
		}, nil
	}
	re := regexp.MustCompile(`^tile_(?P<x>[+-]\d{4})_(?P<y>[+-]\d{4})_(?P<band>B\d{2})\.snp$`)

	var seen []map[string]string
	meta := func(p string, groups map[string]string) (geometry.BoundingBox, time.Time, time.Time, error) {
		seen = append(seen, groups)
		return geometry.BBox(0, 0, 1, 1), MinTime, MaxTime, nil
	}

	records, err := Scan("/data", "tile_*_B02.snp", re, lister, meta)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Path != "/data/tile_+0001_-0002_B02.snp" {
		t.Fatalf("unexpected path: %s", records[0].Path)
	}
	if seen[0]["x"] != "+0001" || seen[0]["y"] != "-0002" || seen[0]["band"] != "B02" {
		t.Fatalf("unexpected capture groups: %v", seen[0])
	}
}

func TestScanPropagatesMetaErrors(t *testing.T) {
	lister := func(root string) ([]string, error) {
		return []string{root + "/tile_bad.snp"}, nil
	}
	re := regexp.MustCompile(`^tile_(?P<x>\w+)\.snp$`)
	metaErr := errors.New("unparseable")
	meta := func(p string, groups map[string]string) (geometry.BoundingBox, time.Time, time.Time, error) {
		return geometry.BoundingBox{}, time.Time{}, time.Time{}, metaErr
	}

	_, err := Scan("/data", "tile_*.snp", re, lister, meta)
	if !errors.Is(err, metaErr) {
		t.Fatalf("expected meta error, got %v", err)
	}
}

func TestScanEmptyRoot(t *testing.T) {
	lister := func(root string) ([]string, error) { return nil, nil }
	re := regexp.MustCompile(`.`)

	records, err := Scan("/data", "*", re, lister, nil)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %v", records)
	}
}

func TestListDir(t *testing.T) {
	dir := t.TempDir()
	paths, err := ListDir(dir)
	if err != nil {
		t.Fatalf("ListDir failed: %v", err)
	}
	if len(paths) != 0 {
		t.Fatalf("expected empty dir, got %v", paths)
	}
}
