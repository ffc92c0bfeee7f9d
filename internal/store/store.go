// ABOUTME: Shared types and sentinel errors for example curation storage
// ABOUTME: Defines DomainKey enumeration, Example record, and error taxonomy

package store

import "errors"

// DomainKey identifies which business-intelligence product's example set
// and backend is being addressed.
type DomainKey string

// The closed set of supported domains. Any other value is rejected at the
// boundary before side effects are attempted.
const (
	DomainCognos        DomainKey = "cognos"
	DomainMicroStrategy DomainKey = "microstrategy"
	DomainTableau       DomainKey = "tableau"
)

// Store errors
var (
	// ErrInvalidDomain means the domain key is outside the closed enumeration
	ErrInvalidDomain = errors.New("invalid domain key")

	// ErrNotFound means the requested example does not exist in the collection
	ErrNotFound = errors.New("example not found")

	// ErrCorrupt means an existing collection file could not be decoded.
	// Distinct from the never-written state, which loads as an empty collection.
	ErrCorrupt = errors.New("collection file is corrupt")
)

// DomainKeys returns all valid domain keys in stable order.
func DomainKeys() []DomainKey {
	return []DomainKey{DomainCognos, DomainMicroStrategy, DomainTableau}
}

// ParseDomainKey validates a raw string against the closed enumeration.
func ParseDomainKey(s string) (DomainKey, error) {
	k := DomainKey(s)
	if !k.Valid() {
		return "", ErrInvalidDomain
	}
	return k, nil
}

// Valid reports whether the key is one of the supported domains.
func (k DomainKey) Valid() bool {
	switch k {
	case DomainCognos, DomainMicroStrategy, DomainTableau:
		return true
	}
	return false
}

// Example is a single curated training item: a source BI expression paired
// with the proposed DAX translation and an optional human correction.
// JSON tags match the on-disk collection format exactly.
type Example struct {
	ID                  string `json:"id"`
	SourceExpression    string `json:"sourceExpression"`
	TargetDaxFormula    string `json:"targetDaxFormula"`
	CorrectedDaxFormula string `json:"correctedDaxFormula"`
}
