package testutil

// FixedRunID generates the same run ID every time.
//
// Pipeline runs tag their log lines with a run ID; a fixed one keeps test
// output deterministic.
//
// Thread-safety: FixedRunID is stateless and safe for concurrent use.
type FixedRunID struct {
	id string
}

// NewFixedRunID creates a fixed run ID generator.
// If id is empty, Generate() returns "test-run-default".
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunID{id: id}
}

// Generate returns the fixed run ID.
//
// Implements pipeline.RunIDGenerator interface.
func (g *FixedRunID) Generate() string {
	return g.id
}
