package store

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/hongwoogi/grantrag/grant"
)

// Gateway is the persistence entry point for the rest of the system.
// Writes go to the remote repository when one is configured and degrade
// to the in-memory store on failure; reads prefer the remote store and
// fall back to memory on error or not-found. Every grant leaving the
// gateway has its status recomputed, so a record's open/closed state can
// never go stale between writes.
type Gateway struct {
	remote Repository
	local  *MemoryRepository
	logger zerolog.Logger
	now    func() time.Time
}

// NewGateway builds a gateway over an optional remote repository. Pass a
// nil remote to run memory-only.
func NewGateway(remote Repository, logger zerolog.Logger) *Gateway {
	return &Gateway{
		remote: remote,
		local:  NewMemoryRepository(),
		logger: logger,
		now:    time.Now,
	}
}

func (gw *Gateway) SaveGrant(ctx context.Context, g *grant.Grant) (WriteOutcome, error) {
	if gw.remote == nil {
		return WriteStored, gw.local.SaveGrant(ctx, g)
	}

	if err := gw.remote.SaveGrant(ctx, g); err != nil {
		gw.logger.Warn().Err(err).Str("grant", g.ID).Msg("remote grant write failed, keeping record in memory")
		if lerr := gw.local.SaveGrant(ctx, g); lerr != nil {
			return WriteDegraded, lerr
		}
		return WriteDegraded, nil
	}
	return WriteStored, nil
}

func (gw *Gateway) SaveEmbeddings(ctx context.Context, grantID string, chunks []grant.ChunkEmbedding) (WriteOutcome, error) {
	if gw.remote == nil {
		return WriteStored, gw.local.SaveEmbeddings(ctx, grantID, chunks)
	}

	if err := gw.remote.SaveEmbeddings(ctx, grantID, chunks); err != nil {
		gw.logger.Warn().Err(err).Str("grant", grantID).Msg("remote embedding write failed, keeping chunks in memory")
		if lerr := gw.local.SaveEmbeddings(ctx, grantID, chunks); lerr != nil {
			return WriteDegraded, lerr
		}
		return WriteDegraded, nil
	}
	return WriteStored, nil
}

func (gw *Gateway) ListGrants(ctx context.Context) ([]grant.Grant, error) {
	grants, err := gw.listGrants(ctx)
	if err != nil {
		return nil, err
	}
	for i := range grants {
		grants[i].Status = grant.DeriveStatus(grants[i].Period, grants[i].Deadline, gw.now())
	}
	return grants, nil
}

func (gw *Gateway) listGrants(ctx context.Context) ([]grant.Grant, error) {
	if gw.remote != nil {
		grants, err := gw.remote.ListGrants(ctx)
		if err == nil {
			return grants, nil
		}
		gw.logger.Warn().Err(err).Msg("remote grant listing failed, serving memory store")
	}
	return gw.local.ListGrants(ctx)
}

func (gw *Gateway) GetGrant(ctx context.Context, id string) (*grant.Grant, error) {
	g, err := gw.getGrant(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Status = grant.DeriveStatus(g.Period, g.Deadline, gw.now())
	return g, nil
}

func (gw *Gateway) getGrant(ctx context.Context, id string) (*grant.Grant, error) {
	if gw.remote != nil {
		g, err := gw.remote.GetGrant(ctx, id)
		if err == nil {
			return g, nil
		}
		if !errors.Is(err, ErrNotFound) {
			gw.logger.Warn().Err(err).Str("grant", id).Msg("remote grant read failed, trying memory store")
		}
	}
	return gw.local.GetGrant(ctx, id)
}

// GetEmbeddings returns a grant's chunk embeddings ordered by chunk
// index. A remote read that errors or comes back empty falls through to
// the memory store, so degraded writes stay retrievable.
func (gw *Gateway) GetEmbeddings(ctx context.Context, grantID string) ([]grant.ChunkEmbedding, error) {
	if gw.remote != nil {
		chunks, err := gw.remote.GetEmbeddings(ctx, grantID)
		if err == nil && len(chunks) > 0 {
			return chunks, nil
		}
		if err != nil {
			gw.logger.Warn().Err(err).Str("grant", grantID).Msg("remote embedding read failed, trying memory store")
		}
	}
	return gw.local.GetEmbeddings(ctx, grantID)
}

// DeleteGrant removes the grant and its embeddings from every store that
// holds it.
func (gw *Gateway) DeleteGrant(ctx context.Context, id string) error {
	found := false

	if gw.remote != nil {
		switch err := gw.remote.DeleteGrant(ctx, id); {
		case err == nil:
			found = true
		case !errors.Is(err, ErrNotFound):
			return err
		}
	}

	switch err := gw.local.DeleteGrant(ctx, id); {
	case err == nil:
		found = true
	case !errors.Is(err, ErrNotFound):
		return err
	}

	if !found {
		return ErrNotFound
	}
	return nil
}
