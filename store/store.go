// Package store persists grant records and their chunk embeddings. A
// Repository is selected at construction time; the Gateway layers the
// remote repository over an in-memory fallback and recomputes the derived
// status on every read.
package store

import (
	"context"
	"errors"

	"github.com/hongwoogi/grantrag/grant"
)

// ErrNotFound is returned when no grant exists for the requested id.
var ErrNotFound = errors.New("grant not found")

// Repository stores grants and their embeddings. Implementations must
// return embeddings ordered by chunk index ascending, and deleting a
// grant must delete its embeddings with it.
type Repository interface {
	SaveGrant(ctx context.Context, g *grant.Grant) error
	SaveEmbeddings(ctx context.Context, grantID string, chunks []grant.ChunkEmbedding) error
	ListGrants(ctx context.Context) ([]grant.Grant, error)
	GetGrant(ctx context.Context, id string) (*grant.Grant, error)
	GetEmbeddings(ctx context.Context, grantID string) ([]grant.ChunkEmbedding, error)
	DeleteGrant(ctx context.Context, id string) error
}

// WriteOutcome reports where a write landed. Degraded writes are not
// errors: the record is safe in the fallback store and ingestion
// continues.
type WriteOutcome int

const (
	// WriteStored means the write reached the configured primary store.
	WriteStored WriteOutcome = iota
	// WriteDegraded means the remote write failed and the record was
	// kept in the in-memory fallback instead.
	WriteDegraded
)

func (o WriteOutcome) String() string {
	if o == WriteDegraded {
		return "degraded"
	}
	return "stored"
}
