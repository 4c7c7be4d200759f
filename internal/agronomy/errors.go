package agronomy

import "errors"

var (
	// ErrInvalidInput is returned for non-positive acreage, sowing dates after
	// the evaluation date, and blank crop or location input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownCrop is returned when a crop name is not in the catalog.
	ErrUnknownCrop = errors.New("unknown crop")

	// ErrUnknownStage is returned when a stage name is not part of a crop's
	// stage table.
	ErrUnknownStage = errors.New("unknown growth stage")

	// ErrInvalidReferenceData is returned when catalog or region data fails
	// validation at load time.
	ErrInvalidReferenceData = errors.New("invalid reference data")
)
