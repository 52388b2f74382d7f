package snapshot

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/fullsail-labs/clmm-core/pkg/config"
	"github.com/fullsail-labs/clmm-core/pkg/events"
	"github.com/fullsail-labs/clmm-core/pkg/pool"
)

func newTestPool(t *testing.T) *pool.Pool {
	t.Helper()
	p := pool.New("pool-1", common.HexToAddress("0x1"), common.HexToAddress("0x2"), 60, 3000, 1, config.NewDefault(), &events.SliceSink{}, 0)
	require.NoError(t, p.Initialize(uint128.From64(1).Lsh(64)))
	return p
}

func TestSaveCreatesThenUpdates(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)

	p := newTestPool(t)
	require.NoError(t, store.Save(p))

	row, err := store.Load(p.ID)
	require.NoError(t, err)
	require.NotNil(t, row)
	require.True(t, row.HasCreated)
	require.Equal(t, int32(0), row.TickCurrent)

	p.ReserveA = 500
	p.TickCurrent = 12
	require.NoError(t, store.Save(p))

	row2, err := store.Load(p.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(500), row2.ReserveA)
	require.Equal(t, int32(12), row2.TickCurrent)
}

func TestLoadMissingPoolReturnsNil(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)

	row, err := store.Load("does-not-exist")
	require.NoError(t, err)
	require.Nil(t, row)
}

func TestSqrtPriceUint128RoundTrips(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)

	p := newTestPool(t)
	require.NoError(t, store.Save(p))

	row, err := store.Load(p.ID)
	require.NoError(t, err)

	got, err := row.SqrtPriceUint128()
	require.NoError(t, err)
	require.Equal(t, 0, got.Cmp(p.SqrtPrice))
}
