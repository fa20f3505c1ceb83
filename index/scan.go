package index

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"regexp"
	"time"

	"github.com/terrascope/geometry"
)

// Lister returns the candidate file paths under a root. It exists so that
// scanning can be exercised without touching a real filesystem.
type Lister func(root string) ([]string, error)

// ListDir is the default Lister; it walks root and returns every regular
// file found beneath it.
func ListDir(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return paths, nil
}

// Meta derives a record's spatial bounds and time interval from its path and
// the named capture groups of the filename regex.
type Meta func(p string, groups map[string]string) (geometry.BoundingBox, time.Time, time.Time, error)

// Scan lists files under root, keeps those whose base name matches both the
// glob and the regex, and builds one record per match using meta. It is a
// pure function of its inputs; pass ListDir for real directories.
func Scan(root, glob string, re *regexp.Regexp, list Lister, meta Meta) ([]Record, error) {
	paths, err := list(root)
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, p := range paths {
		base := filepath.Base(p)
		if ok, _ := path.Match(glob, base); !ok {
			continue
		}
		m := re.FindStringSubmatch(base)
		if m == nil {
			continue
		}
		groups := make(map[string]string)
		for i, name := range re.SubexpNames() {
			if name != "" && i < len(m) {
				groups[name] = m[i]
			}
		}
		bounds, start, end, err := meta(p, groups)
		if err != nil {
			return nil, fmt.Errorf("failed to extract metadata from %s: %w", p, err)
		}
		records = append(records, Record{Path: p, Bounds: bounds, Start: start, End: end})
	}
	return records, nil
}
