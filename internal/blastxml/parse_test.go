package blastxml

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFile(t *testing.T, name string) *Report {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", name))
	require.NoError(t, err)
	defer f.Close()

	report, err := Parse(f)
	require.NoError(t, err)
	return report
}

func TestParse_Golden(t *testing.T) {
	report := parseFile(t, "two_hits.xml")

	data, err := json.MarshalIndent(report, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "two_hits", append(data, '\n'))
}

func TestParse_Structure(t *testing.T) {
	report := parseFile(t, "two_hits.xml")

	assert.Equal(t, "blastn", report.Program)
	assert.Equal(t, "nt", report.Database)
	require.Len(t, report.Queries, 1)

	q := report.Queries[0]
	assert.Equal(t, "Query_14919", q.ID)
	assert.Equal(t, 120, q.Length)
	require.Len(t, q.Hits, 2)
	assert.Len(t, q.Hits[0].HSPs, 3)
	assert.Len(t, q.Hits[1].HSPs, 0)

	assert.Equal(t, 2, report.NumHits())
	assert.Equal(t, 3, report.NumHSPs())
}

func TestParse_PercentIdentity(t *testing.T) {
	report := parseFile(t, "two_hits.xml")
	hsps := report.Queries[0].Hits[0].HSPs

	// align-len over the 120-residue query, not identity over align-len.
	assert.InDelta(t, 100.0, hsps[0].PercentIdentity, 1e-9)
	assert.InDelta(t, 100.0*80/120, hsps[1].PercentIdentity, 1e-9)
	assert.InDelta(t, 100.0*40/120, hsps[2].PercentIdentity, 1e-9)

	require.NotNil(t, hsps[1].Identity)
	assert.Equal(t, 72, *hsps[1].Identity)
}

func TestParse_IdentityOptional(t *testing.T) {
	doc := `<BlastOutput><BlastOutput_iterations><Iteration>
<Iteration_query-ID>Query_1</Iteration_query-ID>
<Iteration_query-def>half</Iteration_query-def>
<Iteration_query-len>200</Iteration_query-len>
<Iteration_hits><Hit>
<Hit_id>gi|1|</Hit_id><Hit_def>h</Hit_def><Hit_accession>A1</Hit_accession>
<Hit_hsps><Hsp>
<Hsp_bit-score>180</Hsp_bit-score>
<Hsp_evalue>1e-40</Hsp_evalue>
<Hsp_gaps>0</Hsp_gaps>
<Hsp_align-len>100</Hsp_align-len>
</Hsp></Hit_hsps>
</Hit></Iteration_hits>
</Iteration></BlastOutput_iterations></BlastOutput>`

	report, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	hsp := report.Queries[0].Hits[0].HSPs[0]
	assert.Nil(t, hsp.Identity)
	assert.InDelta(t, 50.0, hsp.PercentIdentity, 1e-9)
}

func TestParse_NormalizesDefinitions(t *testing.T) {
	report := parseFile(t, "two_hits.xml")

	// Cafe + U+0301 in the document, precomposed U+00E9 after parsing.
	assert.Equal(t, "Synthetic construct Café clone 7", report.Queries[0].Hits[1].Def)
}

func TestParse_TrimsIdentifiers(t *testing.T) {
	doc := `<BlastOutput><BlastOutput_iterations><Iteration>
<Iteration_query-ID>
  Query_1
</Iteration_query-ID>
<Iteration_query-def>  padded def  </Iteration_query-def>
<Iteration_query-len>10</Iteration_query-len>
<Iteration_hits><Hit>
<Hit_id> gi|1| </Hit_id><Hit_def>h</Hit_def><Hit_accession>	A1	</Hit_accession>
<Hit_hsps></Hit_hsps>
</Hit></Iteration_hits>
</Iteration></BlastOutput_iterations></BlastOutput>`

	report, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	q := report.Queries[0]
	assert.Equal(t, "Query_1", q.ID)
	assert.Equal(t, "padded def", q.Def)
	assert.Equal(t, "gi|1|", q.Hits[0].ID)
	assert.Equal(t, "A1", q.Hits[0].Accession)
}

func TestParse_NoHits(t *testing.T) {
	report := parseFile(t, "no_hits.xml")

	require.Len(t, report.Queries, 1)
	assert.Equal(t, "Query_20001", report.Queries[0].ID)
	assert.Empty(t, report.Queries[0].Hits)
	assert.NotNil(t, report.Queries[0].Hits)
}

func TestParse_NoIterations(t *testing.T) {
	doc := `<BlastOutput><BlastOutput_program>blastn</BlastOutput_program><BlastOutput_iterations></BlastOutput_iterations></BlastOutput>`

	_, err := Parse(strings.NewReader(doc))
	assert.ErrorIs(t, err, ErrNoIterations)
}

func TestParse_WrongRoot(t *testing.T) {
	_, err := Parse(strings.NewReader(`<html><body>Error</body></html>`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode BlastOutput")
}

func TestParse_Truncated(t *testing.T) {
	_, err := Parse(strings.NewReader(`<BlastOutput><BlastOutput_iterations><Iteration>`))
	require.Error(t, err)
}

func TestParse_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		drop   string
		record string
	}{
		{"query id", "<Iteration_query-ID>Query_14919</Iteration_query-ID>", "Iteration[1]"},
		{"query length", "<Iteration_query-len>120</Iteration_query-len>", "Iteration[1]"},
		{"hit accession", "<Hit_accession>OK091006</Hit_accession>", "Iteration[1]/Hit[2]"},
		{"hsp gaps", "<Hsp_gaps>1</Hsp_gaps>", "Iteration[1]/Hit[1]/Hsp[3]"},
		{"hsp evalue", "<Hsp_evalue>3e-27</Hsp_evalue>", "Iteration[1]/Hit[1]/Hsp[2]"},
	}

	raw, err := os.ReadFile(filepath.Join("testdata", "two_hits.xml"))
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Contains(t, string(raw), tt.drop)
			doc := strings.Replace(string(raw), tt.drop, "", 1)

			report, err := Parse(strings.NewReader(doc))
			require.Error(t, err)
			assert.Nil(t, report)
			assert.ErrorIs(t, err, ErrMissingField)

			var fe *FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.record, fe.Record)
		})
	}
}

func TestParse_MalformedNumbers(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("testdata", "two_hits.xml"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		from  string
		to    string
		field string
	}{
		{"non-numeric gaps", "<Hsp_gaps>2</Hsp_gaps>", "<Hsp_gaps>two</Hsp_gaps>", "Hsp_gaps"},
		{"non-numeric identity", "<Hsp_identity>72</Hsp_identity>", "<Hsp_identity>most</Hsp_identity>", "Hsp_identity"},
		{"bad bit score", "<Hsp_bit-score>56</Hsp_bit-score>", "<Hsp_bit-score>n/a</Hsp_bit-score>", "Hsp_bit-score"},
		{"zero align length", "<Hsp_align-len>40</Hsp_align-len>", "<Hsp_align-len>0</Hsp_align-len>", "Hsp_align-len"},
		{"negative query length", "<Iteration_query-len>120</Iteration_query-len>", "<Iteration_query-len>-1</Iteration_query-len>", "Iteration_query-len"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := strings.Replace(string(raw), tt.from, tt.to, 1)

			_, err := Parse(strings.NewReader(doc))
			require.Error(t, err)

			var fe *FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.field, fe.Field)
			assert.NotErrorIs(t, err, ErrMissingField)
		})
	}
}

func TestParse_EmptyDefinitionAllowed(t *testing.T) {
	doc := `<BlastOutput><BlastOutput_iterations><Iteration>
<Iteration_query-ID>Query_1</Iteration_query-ID>
<Iteration_query-def></Iteration_query-def>
<Iteration_query-len>10</Iteration_query-len>
<Iteration_hits></Iteration_hits>
</Iteration></BlastOutput_iterations></BlastOutput>`

	report, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "", report.Queries[0].Def)
}

func TestFieldError_Message(t *testing.T) {
	err := &FieldError{Record: "Iteration[1]/Hit[2]", Field: "Hit_id", Err: ErrMissingField}
	assert.Equal(t, "Iteration[1]/Hit[2]/Hit_id: missing required field", err.Error())
}
