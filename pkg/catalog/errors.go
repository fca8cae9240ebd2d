package catalog

import "errors"

// Define static errors
var (
	// ErrMalformedMetadata is returned when a metadata file contains invalid JSON
	ErrMalformedMetadata = errors.New("malformed metadata file")
	// ErrMissingEntity is returned when a definition references an unknown entity
	ErrMissingEntity = errors.New("metadata references missing entity")
	// ErrInvalidKPI is returned when a KPI definition is internally inconsistent
	ErrInvalidKPI = errors.New("invalid KPI definition")
	// ErrFormulaCycle is returned when derived formulas form a dependency cycle
	ErrFormulaCycle = errors.New("derived formula dependency cycle")
)
