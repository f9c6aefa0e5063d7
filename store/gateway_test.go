package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongwoogi/grantrag/grant"
)

// flakyRepository wraps a MemoryRepository and fails the operations named
// in fail, standing in for an unreachable database.
type flakyRepository struct {
	*MemoryRepository
	fail map[string]error
}

func newFlakyRepository() *flakyRepository {
	return &flakyRepository{MemoryRepository: NewMemoryRepository(), fail: map[string]error{}}
}

func (f *flakyRepository) SaveGrant(ctx context.Context, g *grant.Grant) error {
	if err := f.fail["SaveGrant"]; err != nil {
		return err
	}
	return f.MemoryRepository.SaveGrant(ctx, g)
}

func (f *flakyRepository) SaveEmbeddings(ctx context.Context, grantID string, chunks []grant.ChunkEmbedding) error {
	if err := f.fail["SaveEmbeddings"]; err != nil {
		return err
	}
	return f.MemoryRepository.SaveEmbeddings(ctx, grantID, chunks)
}

func (f *flakyRepository) ListGrants(ctx context.Context) ([]grant.Grant, error) {
	if err := f.fail["ListGrants"]; err != nil {
		return nil, err
	}
	return f.MemoryRepository.ListGrants(ctx)
}

func (f *flakyRepository) GetGrant(ctx context.Context, id string) (*grant.Grant, error) {
	if err := f.fail["GetGrant"]; err != nil {
		return nil, err
	}
	return f.MemoryRepository.GetGrant(ctx, id)
}

func (f *flakyRepository) GetEmbeddings(ctx context.Context, grantID string) ([]grant.ChunkEmbedding, error) {
	if err := f.fail["GetEmbeddings"]; err != nil {
		return nil, err
	}
	return f.MemoryRepository.GetEmbeddings(ctx, grantID)
}

func newTestGateway(remote Repository) *Gateway {
	gw := NewGateway(remote, zerolog.Nop())
	gw.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return gw
}

func TestGatewayMemoryOnlyWrites(t *testing.T) {
	ctx := context.Background()
	gw := newTestGateway(nil)

	outcome, err := gw.SaveGrant(ctx, &grant.Grant{ID: "GRANT-1", Period: "2025-01-01 ~ 2025-12-31"})
	require.NoError(t, err)
	assert.Equal(t, WriteStored, outcome)

	g, err := gw.GetGrant(ctx, "GRANT-1")
	require.NoError(t, err)
	assert.Equal(t, "GRANT-1", g.ID)
}

func TestGatewayDegradesOnRemoteWriteFailure(t *testing.T) {
	ctx := context.Background()
	remote := newFlakyRepository()
	remote.fail["SaveGrant"] = errors.New("connection refused")
	remote.fail["SaveEmbeddings"] = errors.New("connection refused")
	gw := newTestGateway(remote)

	outcome, err := gw.SaveGrant(ctx, &grant.Grant{ID: "GRANT-1", Title: "청년창업"})
	require.NoError(t, err)
	assert.Equal(t, WriteDegraded, outcome)

	outcome, err = gw.SaveEmbeddings(ctx, "GRANT-1", []grant.ChunkEmbedding{{Content: "청크"}})
	require.NoError(t, err)
	assert.Equal(t, WriteDegraded, outcome)

	// Degraded writes remain readable through the gateway.
	g, err := gw.GetGrant(ctx, "GRANT-1")
	require.NoError(t, err)
	assert.Equal(t, "청년창업", g.Title)

	chunks, err := gw.GetEmbeddings(ctx, "GRANT-1")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
}

func TestGatewayRecomputesStatusOnRead(t *testing.T) {
	ctx := context.Background()
	gw := newTestGateway(nil)

	// Stored as Open, but the period ended before the injected clock.
	_, err := gw.SaveGrant(ctx, &grant.Grant{
		ID:     "GRANT-1",
		Period: "2025-01-01 ~ 2025-03-31",
		Status: grant.StatusOpen,
	})
	require.NoError(t, err)

	g, err := gw.GetGrant(ctx, "GRANT-1")
	require.NoError(t, err)
	assert.Equal(t, grant.StatusClosed, g.Status)

	grants, err := gw.ListGrants(ctx)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, grant.StatusClosed, grants[0].Status)
}

func TestGatewayReadsFallBackToMemory(t *testing.T) {
	ctx := context.Background()
	remote := newFlakyRepository()
	gw := newTestGateway(remote)

	// Remote is healthy for the write, then goes dark for reads.
	_, err := gw.SaveGrant(ctx, &grant.Grant{ID: "GRANT-1", Title: "원격에만 저장"})
	require.NoError(t, err)
	_, err = gw.SaveGrant(ctx, &grant.Grant{ID: "GRANT-2"})
	require.NoError(t, err)

	remote.fail["GetGrant"] = errors.New("connection reset")
	remote.fail["ListGrants"] = errors.New("connection reset")

	_, err = gw.GetGrant(ctx, "GRANT-1")
	assert.ErrorIs(t, err, ErrNotFound, "record was never mirrored locally")

	grants, err := gw.ListGrants(ctx)
	require.NoError(t, err)
	assert.Empty(t, grants)
}

func TestGatewayEmbeddingsFallBackOnEmptyRemote(t *testing.T) {
	ctx := context.Background()
	remote := newFlakyRepository()
	gw := newTestGateway(remote)

	// Chunks landed only in memory because the remote write degraded.
	remote.fail["SaveEmbeddings"] = errors.New("connection refused")
	_, err := gw.SaveEmbeddings(ctx, "GRANT-1", []grant.ChunkEmbedding{{Index: 0, Content: "청크"}})
	require.NoError(t, err)
	delete(remote.fail, "SaveEmbeddings")

	chunks, err := gw.GetEmbeddings(ctx, "GRANT-1")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "청크", chunks[0].Content)
}

func TestGatewayDeleteSpansBothStores(t *testing.T) {
	ctx := context.Background()
	remote := newFlakyRepository()
	gw := newTestGateway(remote)

	// One record in the remote store, another stranded in memory.
	_, err := gw.SaveGrant(ctx, &grant.Grant{ID: "GRANT-remote"})
	require.NoError(t, err)

	remote.fail["SaveGrant"] = errors.New("connection refused")
	_, err = gw.SaveGrant(ctx, &grant.Grant{ID: "GRANT-local"})
	require.NoError(t, err)
	delete(remote.fail, "SaveGrant")

	require.NoError(t, gw.DeleteGrant(ctx, "GRANT-remote"))
	require.NoError(t, gw.DeleteGrant(ctx, "GRANT-local"))
	assert.ErrorIs(t, gw.DeleteGrant(ctx, "GRANT-missing"), ErrNotFound)
}
