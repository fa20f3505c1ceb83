// Package index builds and queries the spatial/temporal index shared by all
// dataset adapters. The index is a flat list of records, one per source file,
// built once at dataset construction and read-only afterwards. Queries filter
// by time-interval overlap first, apply an optional stride over the
// time-sorted survivors, and finally keep records whose bounding box
// intersects the query rectangle.
package index

import (
	"fmt"
	"sort"
	"time"

	"github.com/terrascope/geometry"
)

// MinTime and MaxTime are the interval endpoints used for records whose
// filenames carry no date. A record spanning [MinTime, MaxTime) overlaps
// every non-empty query interval.
var (
	MinTime = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	MaxTime = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)
)

// Record is one indexed source file: its path, spatial extent and half-open
// time interval [Start, End).
type Record struct {
	Path   string
	Bounds geometry.BoundingBox
	Start  time.Time
	End    time.Time
}

// Slice is a coordinate range with an optional step. A zero Step means the
// native resolution of the underlying files.
type Slice struct {
	Start float64
	Stop  float64
	Step  float64
}

// TimeSlice is a half-open time range [Start, Stop) with an optional stride
// over the matching records. A Step below 1 means every record.
type TimeSlice struct {
	Start time.Time
	Stop  time.Time
	Step  int
}

// Query is one spatiotemporal window: an x range, a y range and a time range.
type Query struct {
	X Slice
	Y Slice
	T TimeSlice
}

func (q Query) String() string {
	return fmt.Sprintf("[%g:%g:%g, %g:%g:%g, %s:%s:%d]",
		q.X.Start, q.X.Stop, q.X.Step,
		q.Y.Start, q.Y.Stop, q.Y.Step,
		q.T.Start.Format(time.RFC3339), q.T.Stop.Format(time.RFC3339), q.T.Step)
}

// QueryNotFoundError reports a query window that matched no index records.
type QueryNotFoundError struct {
	Query  Query
	Bounds Query
}

func (e *QueryNotFoundError) Error() string {
	return fmt.Sprintf("query: %s not found in index with bounds: %s", e.Query, e.Bounds)
}

// Index is an immutable collection of records sorted by interval start.
type Index struct {
	records []Record
	bounds  Query
}

// New validates the records and builds an index over them. Every record must
// have a non-degenerate bounding box and an interval whose start does not
// come after its end.
func New(records []Record) (*Index, error) {
	for _, r := range records {
		if r.Bounds.Min.X >= r.Bounds.Max.X || r.Bounds.Min.Y >= r.Bounds.Max.Y {
			return nil, fmt.Errorf("degenerate bounds for %s: %v", r.Path, r.Bounds)
		}
		if r.Start.After(r.End) {
			return nil, fmt.Errorf("inverted time interval for %s: %s after %s", r.Path, r.Start, r.End)
		}
	}

	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	ix := &Index{records: sorted}
	ix.bounds = ix.computeBounds()
	return ix, nil
}

// Len returns the number of indexed records.
func (ix *Index) Len() int { return len(ix.records) }

// Records returns the indexed records in time order. The returned slice is
// shared; callers must not modify it.
func (ix *Index) Records() []Record { return ix.records }

// Bounds returns the overall extent of the index as a query window, suitable
// for retrieving everything the dataset covers.
func (ix *Index) Bounds() Query { return ix.bounds }

func (ix *Index) computeBounds() Query {
	if len(ix.records) == 0 {
		return Query{}
	}
	b := ix.records[0].Bounds
	start, end := ix.records[0].Start, ix.records[0].End
	for _, r := range ix.records[1:] {
		if r.Bounds.Min.X < b.Min.X {
			b.Min.X = r.Bounds.Min.X
		}
		if r.Bounds.Min.Y < b.Min.Y {
			b.Min.Y = r.Bounds.Min.Y
		}
		if r.Bounds.Max.X > b.Max.X {
			b.Max.X = r.Bounds.Max.X
		}
		if r.Bounds.Max.Y > b.Max.Y {
			b.Max.Y = r.Bounds.Max.Y
		}
		if r.Start.Before(start) {
			start = r.Start
		}
		if r.End.After(end) {
			end = r.End
		}
	}
	return Query{
		X: Slice{Start: b.Min.X, Stop: b.Max.X},
		Y: Slice{Start: b.Min.Y, Stop: b.Max.Y},
		T: TimeSlice{Start: start, Stop: end},
	}
}

// Query returns the records matching the given window, in time order.
// Records are first filtered by half-open interval overlap, then strided by
// q.T.Step over the time-filtered set, then filtered by bounding box
// intersection with the closed rectangle [X.Start, X.Stop] x [Y.Start, Y.Stop].
// An empty result is a *QueryNotFoundError.
func (ix *Index) Query(q Query) ([]Record, error) {
	step := q.T.Step
	if step < 1 {
		step = 1
	}

	var hits []Record
	n := 0
	for _, r := range ix.records {
		if !overlaps(r.Start, r.End, q.T) {
			continue
		}
		if n%step == 0 && intersects(r.Bounds, q) {
			hits = append(hits, r)
		}
		n++
	}

	if len(hits) == 0 {
		return nil, &QueryNotFoundError{Query: q, Bounds: ix.bounds}
	}
	return hits, nil
}

// overlaps reports whether the record interval [start, end) overlaps the
// query interval [t.Start, t.Stop). A zero-length record is treated as the
// instant at its start.
func overlaps(start, end time.Time, t TimeSlice) bool {
	if start.Equal(end) {
		return !start.Before(t.Start) && start.Before(t.Stop)
	}
	return start.Before(t.Stop) && end.After(t.Start)
}

// intersects reports whether the box intersects the closed query rectangle.
func intersects(b geometry.BoundingBox, q Query) bool {
	return b.Min.X <= q.X.Stop && b.Max.X >= q.X.Start &&
		b.Min.Y <= q.Y.Stop && b.Max.Y >= q.Y.Start
}
