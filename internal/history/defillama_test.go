package history

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/yieldscan/internal/domain"
)

func TestDefiLlamaGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/protocol/venus", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"tvl": [
				{"date": 1700092800, "totalLiquidityUSD": 800000000},
				{"date": 1700179200, "totalLiquidityUSD": 1000000000}
			],
			"mcap": 250000000
		}`))
	}))
	t.Cleanup(srv.Close)

	c := NewDefiLlamaClient(srv.URL)
	m, err := c.Get(context.Background(), "venus")
	require.NoError(t, err)

	assert.Equal(t, 1_000_000_000.0, m.TVL)
	assert.InDelta(t, 25.0, m.TVLChange24h, 1e-9)
	assert.InDelta(t, 0.25, m.McapRatio, 1e-9)
}

func TestDefiLlamaGetSinglePoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"tvl":[{"date":1700179200,"totalLiquidityUSD":5000000}],"mcap":0}`))
	}))
	t.Cleanup(srv.Close)

	c := NewDefiLlamaClient(srv.URL)
	m, err := c.Get(context.Background(), "newprotocol")
	require.NoError(t, err)
	assert.Equal(t, 5_000_000.0, m.TVL)
	assert.Zero(t, m.TVLChange24h)
	assert.Zero(t, m.McapRatio)
}

func TestDefiLlamaGetUnknownSlug(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	c := NewDefiLlamaClient(srv.URL)
	_, err := c.Get(context.Background(), "no-such-protocol")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDefiLlamaGetEmptySeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"tvl":[],"mcap":0}`))
	}))
	t.Cleanup(srv.Close)

	c := NewDefiLlamaClient(srv.URL)
	_, err := c.Get(context.Background(), "empty")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDefiLlamaGetServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c := NewDefiLlamaClient(srv.URL)
	_, err := c.Get(context.Background(), "venus")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}
