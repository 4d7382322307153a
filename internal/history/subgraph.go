// Package history fetches the historical inputs for risk scoring: daily
// token-price and pair-TVL series from an AMM exchange subgraph and
// protocol-wide metrics from the DefiLlama API.
package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/yieldscan/internal/domain"
)

// SubgraphClient is a GraphQL client for an exchange subgraph (Uniswap v2
// schema). It serves daily series for tokens and pairs plus pair creation
// times.
type SubgraphClient struct {
	graphqlURL string
	apiKey     string
	httpClient *http.Client
}

// NewSubgraphClient creates a subgraph client.
//
// graphqlURL is the exchange subgraph endpoint, e.g.
// "https://api.thegraph.com/subgraphs/name/pancakeswap/exchange-v2".
func NewSubgraphClient(graphqlURL, apiKey string) *SubgraphClient {
	return &SubgraphClient{
		graphqlURL: graphqlURL,
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// graphqlRequest is the standard GraphQL request envelope.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlResponse is the standard GraphQL response envelope.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// DailySeries returns up to `days` daily points for the referenced entity,
// oldest first. Entities the subgraph has never indexed yield
// domain.ErrNotFound.
func (c *SubgraphClient) DailySeries(ctx context.Context, ref domain.SeriesRef, days int) ([]domain.DailyPoint, error) {
	switch ref.Kind {
	case domain.SeriesTokenPriceUSD:
		return c.tokenPriceSeries(ctx, ref.Address, days)
	case domain.SeriesPairTVLUSD:
		return c.pairTVLSeries(ctx, ref.Address, days)
	default:
		return nil, fmt.Errorf("history: unknown series kind %q", ref.Kind)
	}
}

func (c *SubgraphClient) tokenPriceSeries(ctx context.Context, tokenAddress string, days int) ([]domain.DailyPoint, error) {
	query := `
		query TokenDays($token: String!, $days: Int!) {
			tokenDayDatas(
				first: $days
				orderBy: date
				orderDirection: desc
				where: { token: $token }
			) {
				date
				priceUSD
			}
		}
	`

	variables := map[string]any{
		"token": strings.ToLower(tokenAddress),
		"days":  days,
	}

	respData, err := c.doQuery(ctx, query, variables)
	if err != nil {
		return nil, fmt.Errorf("history: fetch token days %s: %w", tokenAddress, err)
	}

	var result struct {
		TokenDayDatas []struct {
			Date     int64  `json:"date"`
			PriceUSD string `json:"priceUSD"`
		} `json:"tokenDayDatas"`
	}
	if err := json.Unmarshal(respData, &result); err != nil {
		return nil, fmt.Errorf("history: decode token days: %w", err)
	}
	if len(result.TokenDayDatas) == 0 {
		return nil, fmt.Errorf("history: token %s: %w", tokenAddress, domain.ErrNotFound)
	}

	points := make([]domain.DailyPoint, 0, len(result.TokenDayDatas))
	for i := len(result.TokenDayDatas) - 1; i >= 0; i-- {
		d := result.TokenDayDatas[i]
		v, err := strconv.ParseFloat(d.PriceUSD, 64)
		if err != nil {
			return nil, fmt.Errorf("history: parse priceUSD %q: %w", d.PriceUSD, err)
		}
		points = append(points, domain.DailyPoint{
			Date:  time.Unix(d.Date, 0).UTC(),
			Value: v,
		})
	}
	return points, nil
}

func (c *SubgraphClient) pairTVLSeries(ctx context.Context, pairAddress string, days int) ([]domain.DailyPoint, error) {
	query := `
		query PairDays($pair: Bytes!, $days: Int!) {
			pairDayDatas(
				first: $days
				orderBy: date
				orderDirection: desc
				where: { pairAddress: $pair }
			) {
				date
				reserveUSD
			}
		}
	`

	variables := map[string]any{
		"pair": strings.ToLower(pairAddress),
		"days": days,
	}

	respData, err := c.doQuery(ctx, query, variables)
	if err != nil {
		return nil, fmt.Errorf("history: fetch pair days %s: %w", pairAddress, err)
	}

	var result struct {
		PairDayDatas []struct {
			Date       int64  `json:"date"`
			ReserveUSD string `json:"reserveUSD"`
		} `json:"pairDayDatas"`
	}
	if err := json.Unmarshal(respData, &result); err != nil {
		return nil, fmt.Errorf("history: decode pair days: %w", err)
	}
	if len(result.PairDayDatas) == 0 {
		return nil, fmt.Errorf("history: pair %s: %w", pairAddress, domain.ErrNotFound)
	}

	points := make([]domain.DailyPoint, 0, len(result.PairDayDatas))
	for i := len(result.PairDayDatas) - 1; i >= 0; i-- {
		d := result.PairDayDatas[i]
		v, err := strconv.ParseFloat(d.ReserveUSD, 64)
		if err != nil {
			return nil, fmt.Errorf("history: parse reserveUSD %q: %w", d.ReserveUSD, err)
		}
		points = append(points, domain.DailyPoint{
			Date:  time.Unix(d.Date, 0).UTC(),
			Value: v,
		})
	}
	return points, nil
}

// CreatedAt returns the creation time of a pair, from the subgraph's pair
// entity. Pairs the subgraph does not know yield domain.ErrNotFound.
func (c *SubgraphClient) CreatedAt(ctx context.Context, pairAddress string) (time.Time, error) {
	query := `
		query PairCreated($id: ID!) {
			pair(id: $id) {
				timestamp
			}
		}
	`

	variables := map[string]any{
		"id": strings.ToLower(pairAddress),
	}

	respData, err := c.doQuery(ctx, query, variables)
	if err != nil {
		return time.Time{}, fmt.Errorf("history: fetch pair created %s: %w", pairAddress, err)
	}

	var result struct {
		Pair *struct {
			Timestamp string `json:"timestamp"`
		} `json:"pair"`
	}
	if err := json.Unmarshal(respData, &result); err != nil {
		return time.Time{}, fmt.Errorf("history: decode pair created: %w", err)
	}
	if result.Pair == nil {
		return time.Time{}, fmt.Errorf("history: pair %s: %w", pairAddress, domain.ErrNotFound)
	}

	ts, err := strconv.ParseInt(result.Pair.Timestamp, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("history: parse pair timestamp %q: %w", result.Pair.Timestamp, err)
	}
	return time.Unix(ts, 0).UTC(), nil
}

// doQuery executes a GraphQL query and returns the raw "data" field from the
// response.
func (c *SubgraphClient) doQuery(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	reqBody := graphqlRequest{
		Query:     query,
		Variables: variables,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var gqlResp graphqlResponse
	if err := json.Unmarshal(body, &gqlResp); err != nil {
		return nil, fmt.Errorf("decode graphql response: %w", err)
	}

	if len(gqlResp.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %s", gqlResp.Errors[0].Message)
	}

	return gqlResp.Data, nil
}

// Compile-time interface checks.
var (
	_ domain.HistoryProvider = (*SubgraphClient)(nil)
	_ domain.AgeProvider     = (*SubgraphClient)(nil)
)
