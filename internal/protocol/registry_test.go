package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/yieldscan/internal/config"
	"github.com/alanyoungcy/yieldscan/internal/domain"
)

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	r := newStubReader()

	require.NoError(t, reg.Register(Entry{
		Adapter: NewLending("venus", compAddr, r),
	}))
	err := reg.Register(Entry{
		Adapter: NewLending("venus", compAddr, r),
	})
	assert.Error(t, err)
}

func TestRegistryRejectsNilAdapter(t *testing.T) {
	reg := NewRegistry()
	assert.Error(t, reg.Register(Entry{}))
}

func TestRegistryListPreservesOrder(t *testing.T) {
	reg := NewRegistry()
	r := newStubReader()

	require.NoError(t, reg.Register(Entry{Adapter: NewAmmFarm("pancakeswap", chefAddr, rewardAddr, "cakePerBlock", r)}))
	require.NoError(t, reg.Register(Entry{Adapter: NewLending("venus", compAddr, r)}))
	require.NoError(t, reg.Register(Entry{Adapter: NewVault("alpaca", launchAddr, rewardAddr, "alpacaPerBlock", r)}))

	entries := reg.List()
	require.Len(t, entries, 3)
	assert.Equal(t, "pancakeswap", entries[0].Adapter.Name())
	assert.Equal(t, "venus", entries[1].Adapter.Name())
	assert.Equal(t, "alpaca", entries[2].Adapter.Name())
}

func TestBuildFromConfig(t *testing.T) {
	cfg := config.Defaults()
	reg, err := Build(cfg.Protocols, newStubReader())
	require.NoError(t, err)

	entries := reg.List()
	require.Len(t, entries, 4)

	kinds := map[domain.PoolKind]int{}
	for _, e := range entries {
		kinds[e.Adapter.Kind()]++
		assert.Greater(t, e.BaseReputation, 0.0)
		assert.NotEmpty(t, e.MetricsID)
	}
	assert.Equal(t, 2, kinds[domain.PoolKindFarm])
	assert.Equal(t, 1, kinds[domain.PoolKindLending])
	assert.Equal(t, 1, kinds[domain.PoolKindVault])

	venus, ok := reg.Get("venus")
	require.True(t, ok)
	assert.Equal(t, domain.PoolKindLending, venus.Adapter.Kind())
}
