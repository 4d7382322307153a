package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/alanyoungcy/yieldscan/internal/domain"
)

// DefiLlamaClient fetches protocol-wide TVL and market-cap figures from the
// DefiLlama HTTP API.
type DefiLlamaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewDefiLlamaClient creates a client for the given API base URL, e.g.
// "https://api.llama.fi".
func NewDefiLlamaClient(baseURL string) *DefiLlamaClient {
	return &DefiLlamaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// protocolResponse is the subset of the /protocol/{slug} payload we read.
type protocolResponse struct {
	TVL []struct {
		Date              int64   `json:"date"`
		TotalLiquidityUSD float64 `json:"totalLiquidityUSD"`
	} `json:"tvl"`
	Mcap float64 `json:"mcap"`
}

// Get returns current TVL, 24h TVL change and mcap/TVL ratio for a protocol
// slug. Unknown slugs yield domain.ErrNotFound.
func (c *DefiLlamaClient) Get(ctx context.Context, protocolID string) (domain.ProtocolMetrics, error) {
	endpoint := fmt.Sprintf("%s/protocol/%s", c.baseURL, url.PathEscape(protocolID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.ProtocolMetrics{}, fmt.Errorf("history: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ProtocolMetrics{}, fmt.Errorf("history: fetch protocol %s: %w", protocolID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ProtocolMetrics{}, fmt.Errorf("history: protocol %s: %w", protocolID, domain.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.ProtocolMetrics{}, fmt.Errorf("history: protocol %s: HTTP %d: %s", protocolID, resp.StatusCode, string(body))
	}

	var payload protocolResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.ProtocolMetrics{}, fmt.Errorf("history: decode protocol %s: %w", protocolID, err)
	}
	if len(payload.TVL) == 0 {
		return domain.ProtocolMetrics{}, fmt.Errorf("history: protocol %s has no tvl series: %w", protocolID, domain.ErrNotFound)
	}

	latest := payload.TVL[len(payload.TVL)-1].TotalLiquidityUSD

	metrics := domain.ProtocolMetrics{TVL: latest}
	if len(payload.TVL) >= 2 {
		prev := payload.TVL[len(payload.TVL)-2].TotalLiquidityUSD
		if prev > 0 {
			metrics.TVLChange24h = (latest - prev) / prev * 100
		}
	}
	if latest > 0 {
		metrics.McapRatio = payload.Mcap / latest
	}
	return metrics, nil
}

// Compile-time interface check.
var _ domain.ProtocolMetricsProvider = (*DefiLlamaClient)(nil)
