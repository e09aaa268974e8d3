package registry

import "errors"

var (
	// ErrUnrecognizedDrug is returned when a name matches no catalog entry or alias.
	ErrUnrecognizedDrug = errors.New("drug not recognized")

	// Load-time invariant violations
	ErrEmptyCatalog    = errors.New("catalog has no drugs")
	ErrDuplicateDrug   = errors.New("duplicate drug in catalog")
	ErrAmbiguousAlias  = errors.New("alias maps to more than one drug")
	ErrDuplicateRule   = errors.New("duplicate pair rule")
	ErrSelfPair        = errors.New("pair rule references the same drug twice")
	ErrUnknownRuleDrug = errors.New("pair rule references a drug not in the catalog")
	ErrInvalidLevel    = errors.New("invalid compatibility level")
	ErrInvalidEvidence = errors.New("invalid evidence tier")
	ErrInvalidRange    = errors.New("invalid CRI dose range")
)
