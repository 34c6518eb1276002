package clustering

import (
	"errors"
	"fmt"
)

// ErrInvalidAreaData marks an active area that cannot be placed on the map.
var ErrInvalidAreaData = errors.New("invalid area data")

// InvalidAreaDataError names the area that was skipped and why.
type InvalidAreaDataError struct {
	AreaID string
	Field  string
}

func (e *InvalidAreaDataError) Error() string {
	return fmt.Sprintf("%v: area %q is missing %s", ErrInvalidAreaData, e.AreaID, e.Field)
}

func (e *InvalidAreaDataError) Unwrap() error {
	return ErrInvalidAreaData
}

func missingCenter(areaID string, latOK, lngOK bool) error {
	field := "centerLat and centerLng"
	switch {
	case latOK:
		field = "centerLng"
	case lngOK:
		field = "centerLat"
	}
	return &InvalidAreaDataError{AreaID: areaID, Field: field}
}
