package blastxml

// Report is a decoded BlastOutput document.
type Report struct {
	Program  string  `json:"program"`
	Version  string  `json:"version"`
	Database string  `json:"database"`
	Queries  []Query `json:"queries"`
}

// Query is one BlastOutput Iteration: a submitted sequence and its hits.
type Query struct {
	ID     string `json:"id"`
	Def    string `json:"def"`
	Length int    `json:"length"`
	Hits   []Hit  `json:"hits"`
}

// Hit is a database sequence the search judged similar to the query.
type Hit struct {
	ID        string `json:"id"`
	Def       string `json:"def"`
	Accession string `json:"accession"`
	HSPs      []HSP  `json:"hsps"`
}

// HSP is one high-scoring pair (local alignment) within a hit.
type HSP struct {
	AlignLength     int     `json:"align_length"`
	BitScore        float64 `json:"bit_score"`
	EValue          float64 `json:"evalue"`
	Gaps            int     `json:"gaps"`
	Identity        *int    `json:"identity,omitempty"`
	PercentIdentity float64 `json:"percent_identity"`
}

// NumHits returns the number of hits across all queries.
func (r *Report) NumHits() int {
	n := 0
	for _, q := range r.Queries {
		n += len(q.Hits)
	}
	return n
}

// NumHSPs returns the number of HSPs across all hits of all queries.
func (r *Report) NumHSPs() int {
	n := 0
	for _, q := range r.Queries {
		for _, h := range q.Hits {
			n += len(h.HSPs)
		}
	}
	return n
}
