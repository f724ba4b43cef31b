// Package idgen produces process-unique opaque identifiers for new
// entities. IDs come from a cryptographically strong random source, so
// collision probability is negligible at this tool's scale and no
// cross-process coordination is needed.
package idgen

import "github.com/google/uuid"

// NewID returns a new opaque identifier.
func NewID() string {
	return uuid.NewString()
}
