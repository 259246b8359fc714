package rules

import "errors"

var (
	// ErrEmptyTable is returned when a table declares no domains.
	ErrEmptyTable = errors.New("rule table has no domains")
	// ErrDuplicateDomain is returned when two domains share a name.
	ErrDuplicateDomain = errors.New("duplicate domain name")
	// ErrInvalidDomain is returned for a domain with bad names or weights.
	ErrInvalidDomain = errors.New("invalid domain")
	// ErrTableRequired is returned when a filter is built without a table.
	ErrTableRequired = errors.New("rule table is required")
)
