package craft

import (
	"errors"

	"github.com/kasuganosora/rpgcraft/resource"
)

// Errors shared with the resource layer.
var (
	ErrDataSourceUnavailable = resource.ErrDataSourceUnavailable
	ErrMalformedData         = resource.ErrMalformedData
	ErrMaterialNotFound      = resource.ErrMaterialNotFound
	ErrUnknownArchetype      = resource.ErrUnknownArchetype
	ErrUnknownComponent      = resource.ErrUnknownComponent
	ErrUnknownFamily         = resource.ErrUnknownFamily
)

var (
	// ErrInsufficientMaterials is returned when fewer materials are supplied than the item needs.
	ErrInsufficientMaterials = errors.New("craft: insufficient materials")
	// ErrInvalidArchetypeForOperation is returned when an archetype is valid but not for this resolver.
	ErrInvalidArchetypeForOperation = errors.New("craft: invalid archetype for operation")
	// ErrInvalidParameter is returned for out-of-range numeric inputs and malformed assignments.
	ErrInvalidParameter = errors.New("craft: invalid parameter")
	// ErrBannedName is returned when a custom item name contains a banned fragment.
	ErrBannedName = errors.New("craft: banned name")
)
