package thermal

import "errors"

var (
	// ErrInvalidPackage is returned for identifiers that are empty or
	// contain a list separator.
	ErrInvalidPackage = errors.New("invalid package name")
	// ErrMalformedTable is returned by ParseTable. The Store recovers from
	// it by treating the table as empty.
	ErrMalformedTable = errors.New("malformed profile table")
	// ErrStorageRead is returned by writes that could not load the current
	// table. Reads recover from the same failure by falling back to Default.
	ErrStorageRead = errors.New("profile storage read failed")
	// ErrStorageWrite means a preference could not be persisted; the
	// previous value stays in effect.
	ErrStorageWrite = errors.New("profile storage write failed")
	// ErrSinkWrite means the thermal property could not be set.
	ErrSinkWrite = errors.New("thermal property write failed")
)
