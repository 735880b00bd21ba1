package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/blastdb/internal/blastxml"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s := openAt(t, filepath.Join(t.TempDir(), "test.db"))
	t.Cleanup(func() { s.Close() })
	return s
}

func openAt(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	return s
}

func mustCounts(t *testing.T, s *Store) Counts {
	t.Helper()
	c, err := s.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts() failed: %v", err)
	}
	return c
}

// fixtureReport is one query with two hits carrying three and zero HSPs.
func fixtureReport() *blastxml.Report {
	return &blastxml.Report{
		Program:  "blastn",
		Database: "nt",
		Queries: []blastxml.Query{{
			ID:     "Query_14919",
			Def:    "sample1",
			Length: 120,
			Hits: []blastxml.Hit{
				{
					ID:        "gi|1234|gb|MN908947.3|",
					Def:       "SARS-CoV-2 isolate Wuhan-Hu-1",
					Accession: "MN908947",
					HSPs: []blastxml.HSP{
						{AlignLength: 120, BitScore: 222.5, EValue: 1.5e-54, Gaps: 0, PercentIdentity: 100},
						{AlignLength: 80, BitScore: 130.2, EValue: 3e-27, Gaps: 2, PercentIdentity: 90},
						{AlignLength: 40, BitScore: 56, EValue: 0.0012, Gaps: 1, PercentIdentity: 75},
					},
				},
				{
					ID:        "gi|5678|gb|OK091006.1|",
					Def:       "Synthetic construct clone 7",
					Accession: "OK091006",
					HSPs:      []blastxml.HSP{},
				},
			},
		}},
	}
}

func writeFixture(t *testing.T, s *Store) Counts {
	t.Helper()
	c, err := s.WriteReport(context.Background(), fixtureReport())
	if err != nil {
		t.Fatalf("WriteReport() failed: %v", err)
	}
	return c
}
