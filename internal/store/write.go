package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/blastdb/internal/blastxml"
)

// Counts holds the number of rows per table, either written by one call
// or present in the whole store.
type Counts struct {
	Queries int `json:"queries"`
	Hits    int `json:"hits"`
	HSPs    int `json:"hsps"`
}

// Add returns the element-wise sum of c and o.
func (c Counts) Add(o Counts) Counts {
	return Counts{
		Queries: c.Queries + o.Queries,
		Hits:    c.Hits + o.Hits,
		HSPs:    c.HSPs + o.HSPs,
	}
}

const (
	insertQuery = `INSERT INTO queries (queryID, queryDef, queryLength) VALUES (?, ?, ?)`
	insertHit   = `INSERT INTO hits (hitID, hitDef, accession, queryID) VALUES (?, ?, ?, ?)`
	insertHSP   = `INSERT INTO hsps (alignLength, bitScore, eValue, gaps, percentID, hitID) VALUES (?, ?, ?, ?, ?, ?)`
)

// WriteReport appends one row per query, hit and HSP in the report, in
// document order. Each hit row carries its query's ID and each HSP row its
// hit's ID. Nothing is deduplicated against earlier runs.
//
// The rows are written in a single transaction; on error nothing from this
// report is left behind.
func (s *Store) WriteReport(ctx context.Context, report *blastxml.Report) (Counts, error) {
	var counts Counts

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return counts, fmt.Errorf("write report: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	w, err := prepareWriter(ctx, tx)
	if err != nil {
		return counts, fmt.Errorf("write report: %w", err)
	}
	defer w.close()

	for _, q := range report.Queries {
		if _, err := w.query.ExecContext(ctx, q.ID, q.Def, q.Length); err != nil {
			return Counts{}, fmt.Errorf("write report: insert query %s: %w", q.ID, err)
		}
		counts.Queries++

		for _, h := range q.Hits {
			if _, err := w.hit.ExecContext(ctx, h.ID, h.Def, h.Accession, q.ID); err != nil {
				return Counts{}, fmt.Errorf("write report: insert hit %s: %w", h.ID, err)
			}
			counts.Hits++

			for _, hsp := range h.HSPs {
				_, err := w.hsp.ExecContext(ctx,
					hsp.AlignLength,
					hsp.BitScore,
					hsp.EValue,
					hsp.Gaps,
					hsp.PercentIdentity,
					h.ID,
				)
				if err != nil {
					return Counts{}, fmt.Errorf("write report: insert hsp for hit %s: %w", h.ID, err)
				}
				counts.HSPs++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Counts{}, fmt.Errorf("write report: commit: %w", err)
	}

	return counts, nil
}

// writer holds the three insert statements prepared on one transaction.
type writer struct {
	query *sql.Stmt
	hit   *sql.Stmt
	hsp   *sql.Stmt
}

func prepareWriter(ctx context.Context, tx *sql.Tx) (*writer, error) {
	w := &writer{}
	var err error
	if w.query, err = tx.PrepareContext(ctx, insertQuery); err != nil {
		return nil, fmt.Errorf("prepare queries insert: %w", err)
	}
	if w.hit, err = tx.PrepareContext(ctx, insertHit); err != nil {
		w.close()
		return nil, fmt.Errorf("prepare hits insert: %w", err)
	}
	if w.hsp, err = tx.PrepareContext(ctx, insertHSP); err != nil {
		w.close()
		return nil, fmt.Errorf("prepare hsps insert: %w", err)
	}
	return w, nil
}

func (w *writer) close() {
	for _, stmt := range []*sql.Stmt{w.query, w.hit, w.hsp} {
		if stmt != nil {
			stmt.Close()
		}
	}
}
