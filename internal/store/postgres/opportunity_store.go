package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/yieldscan/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates an OpportunityStore backed by the given pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

const insertOpportunity = `
	INSERT INTO opportunities (
		id, scan_id, protocol, kind, address,
		tvl_usd, rate_percent, risk_score, expected_roi, scanned_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9, $10
	)
	ON CONFLICT (id) DO NOTHING`

// SaveBatch inserts all opportunities from one scan in a single batch.
func (s *OpportunityStore) SaveBatch(ctx context.Context, opps []domain.Opportunity) error {
	if len(opps) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, o := range opps {
		batch.Queue(insertOpportunity,
			o.ID, o.ScanID, o.Protocol, string(o.Kind), o.Address,
			o.TVLUSD, o.RatePercent, o.RiskScore, o.ExpectedROI, o.Timestamp,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range opps {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: save opportunity batch item %d: %w", i, err)
		}
	}
	return nil
}

const opportunityCols = `id, scan_id, protocol, kind, address,
	tvl_usd, rate_percent, risk_score, expected_roi, scanned_at`

// ListByScan returns a scan's opportunities in ranked order.
func (s *OpportunityStore) ListByScan(ctx context.Context, scanID string) ([]domain.Opportunity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+opportunityCols+` FROM opportunities
		 WHERE scan_id = $1
		 ORDER BY expected_roi DESC, risk_score ASC, address ASC`, scanID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list opportunities for scan %s: %w", scanID, err)
	}
	defer rows.Close()

	var opps []domain.Opportunity
	for rows.Next() {
		var o domain.Opportunity
		var kind string
		if err := rows.Scan(
			&o.ID, &o.ScanID, &o.Protocol, &kind, &o.Address,
			&o.TVLUSD, &o.RatePercent, &o.RiskScore, &o.ExpectedROI, &o.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity row: %w", err)
		}
		o.Kind = domain.PoolKind(kind)
		opps = append(opps, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list opportunities rows: %w", err)
	}
	return opps, nil
}

// LatestScanID returns the scan ID of the most recently stored scan.
func (s *OpportunityStore) LatestScanID(ctx context.Context) (string, error) {
	var scanID string
	err := s.pool.QueryRow(ctx,
		`SELECT scan_id FROM opportunities ORDER BY scanned_at DESC LIMIT 1`,
	).Scan(&scanID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("postgres: latest scan id: %w", err)
	}
	return scanID, nil
}

// Compile-time interface check.
var _ domain.OpportunityStore = (*OpportunityStore)(nil)
