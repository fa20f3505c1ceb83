package datasets

import (
	"fmt"

	"github.com/terratile/geosets/index"
)

// DatasetNotFoundError is returned by constructors when no matching files
// are found under the root and downloading was not requested.
type DatasetNotFoundError struct {
	Name string
	Root string
}

func (e *DatasetNotFoundError) Error() string {
	return fmt.Sprintf("dataset not found: no %s files under %s; set Download to fetch it", e.Name, e.Root)
}

// MultipleTileError is returned by datasets that only support single-tile
// queries when a query window spans more than one source tile.
type MultipleTileError struct {
	Query index.Query
}

func (e *MultipleTileError) Error() string {
	return fmt.Sprintf("query: %s spans multiple tiles which is not valid", e.Query)
}

// RGBBandsMissingError is returned by Plot when the configured bands do not
// include all bands needed for an RGB rendering.
type RGBBandsMissingError struct{}

func (e *RGBBandsMissingError) Error() string {
	return "dataset does not contain some of the RGB bands"
}

// ValidationError is returned by constructors for invalid configuration,
// such as a class list without the background class or an unknown band.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + e.Reason
}
