package types

import (
	"time"

	"github.com/google/uuid"
)

// NewDocumentID generates a UUIDv7 document identifier.
// Time-ordered IDs ensure sequential inserts cluster in B-tree pages.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewDocumentID() DocumentID {
	return DocumentID(uuid.Must(uuid.NewV7()).String())
}

// NewRunID generates a UUIDv7 batch run identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewRunID() RunID {
	return RunID(uuid.Must(uuid.NewV7()).String())
}

// ParseDocumentID validates and converts a string to DocumentID.
// Rejects malformed UUIDs to prevent invalid IDs from entering the system.
func ParseDocumentID(s string) (DocumentID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return DocumentID(s), nil
}

// RunIDTime extracts the timestamp embedded in a UUIDv7 run ID.
// Enables time-based queries without database lookup.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func RunIDTime(id RunID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
