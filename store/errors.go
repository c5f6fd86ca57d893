package store

import "github.com/pkg/errors"

// Domain sentinel errors. Handlers check these with errors.Is to decide the
// HTTP status; everything else is treated as a store failure.
var (
	// ErrInvalidZone marks a zone outside the closed zone set. It is raised
	// before any store access happens.
	ErrInvalidZone = errors.New("invalid zone")

	// ErrItemNotFound marks a reference to an item that is missing or past
	// its TTL. Expired items are indistinguishable from deleted ones on
	// every read path.
	ErrItemNotFound = errors.New("item not found")
)
