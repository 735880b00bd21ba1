package store

import (
	"context"
	"database/sql"
	"fmt"
)

// QueryRow is one row of the queries table.
type QueryRow struct {
	QueryID string `json:"query_id"`
	Def     string `json:"def"`
	Length  int    `json:"length"`
}

// HitRow is one row of the hits table. QueryID is the owning query's ID.
type HitRow struct {
	HitID     string `json:"hit_id"`
	Def       string `json:"def"`
	Accession string `json:"accession"`
	QueryID   string `json:"query_id"`
}

// HSPRow is one row of the hsps table. HitID is the owning hit's ID.
type HSPRow struct {
	HSPID       int64   `json:"hsp_id"`
	AlignLength int     `json:"align_length"`
	BitScore    float64 `json:"bit_score"`
	EValue      float64 `json:"evalue"`
	Gaps        int     `json:"gaps"`
	PercentID   float64 `json:"percent_id"`
	HitID       string  `json:"hit_id"`
}

// Counts returns the number of rows in each table.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM queries),
			(SELECT COUNT(*) FROM hits),
			(SELECT COUNT(*) FROM hsps)
	`).Scan(&c.Queries, &c.Hits, &c.HSPs)
	if err != nil {
		return Counts{}, fmt.Errorf("count rows: %w", err)
	}
	return c, nil
}

// ReadQueries returns every query row in insertion order.
// Returns an empty slice (not nil) if the table is empty.
func (s *Store) ReadQueries(ctx context.Context) ([]QueryRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT queryID, queryDef, queryLength
		FROM queries
		ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query queries: %w", err)
	}
	defer rows.Close()

	out := []QueryRow{}
	for rows.Next() {
		var r QueryRow
		var def sql.NullString
		if err := rows.Scan(&r.QueryID, &def, &r.Length); err != nil {
			return nil, fmt.Errorf("scan query: %w", err)
		}
		r.Def = def.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queries: %w", err)
	}
	return out, nil
}

// ReadHits returns the hit rows owned by queryID in insertion order.
// Rows from every run that stored queryID are included.
func (s *Store) ReadHits(ctx context.Context, queryID string) ([]HitRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT hitID, hitDef, accession, queryID
		FROM hits
		WHERE queryID = ?
		ORDER BY rowid ASC
	`, queryID)
	if err != nil {
		return nil, fmt.Errorf("query hits: %w", err)
	}
	defer rows.Close()

	out := []HitRow{}
	for rows.Next() {
		var r HitRow
		var def, acc sql.NullString
		if err := rows.Scan(&r.HitID, &def, &acc, &r.QueryID); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		r.Def, r.Accession = def.String, acc.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hits: %w", err)
	}
	return out, nil
}

// ReadHSPs returns the HSP rows owned by hitID ordered by hspID.
func (s *Store) ReadHSPs(ctx context.Context, hitID string) ([]HSPRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT hspID, alignLength, bitScore, eValue, gaps, percentID, hitID
		FROM hsps
		WHERE hitID = ?
		ORDER BY hspID ASC
	`, hitID)
	if err != nil {
		return nil, fmt.Errorf("query hsps: %w", err)
	}
	defer rows.Close()

	out := []HSPRow{}
	for rows.Next() {
		var r HSPRow
		if err := rows.Scan(&r.HSPID, &r.AlignLength, &r.BitScore, &r.EValue, &r.Gaps, &r.PercentID, &r.HitID); err != nil {
			return nil, fmt.Errorf("scan hsp: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hsps: %w", err)
	}
	return out, nil
}
