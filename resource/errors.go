package resource

import "errors"

var (
	// ErrDataSourceUnavailable is returned when a data file is missing or unreadable.
	ErrDataSourceUnavailable = errors.New("resource: data source unavailable")
	// ErrMalformedData is returned when a data file parses but holds invalid records.
	ErrMalformedData = errors.New("resource: malformed data")
	// ErrMaterialNotFound is returned by catalog lookups for unknown names/ids.
	ErrMaterialNotFound = errors.New("resource: material not found")
	// ErrUnknownArchetype is returned when an archetype is absent from a volume table.
	ErrUnknownArchetype = errors.New("resource: unknown archetype")
	// ErrUnknownComponent is returned when a component is absent for an archetype.
	ErrUnknownComponent = errors.New("resource: unknown component")
	// ErrUnknownFamily is returned for a volume family the store was not configured with.
	ErrUnknownFamily = errors.New("resource: unknown family")
)
