package sentinel

import "errors"

// Sentinel errors for infrastructure facts. The file store and artifact
// stores return these (optionally wrapped) so services can translate them
// into stage-tagged pipeline errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: file or record does not exist
// - ErrInvalidState: resource in wrong state for requested operation
// - ErrUnavailable: backing resource temporarily unavailable
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
