package anno

import "github.com/google/uuid"

// NewUID returns a unique identifier for a data item, an operation or a
// document. Identifiers are random UUID strings and need no coordination.
func NewUID() string {
	return uuid.NewString()
}

// NewDeterministicUID returns an identifier derived from a reference id.
// The same reference always yields the same identifier, which makes it
// suitable for items that must keep a stable uid across runs, such as the
// raw text segment of a document.
func NewDeterministicUID(referenceID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(referenceID)).String()
}
