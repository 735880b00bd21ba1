package blastxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrMissingField is wrapped by a *FieldError when a required element is absent.
var ErrMissingField = errors.New("missing required field")

// ErrNoIterations is returned when a document holds no Iteration at all.
var ErrNoIterations = errors.New("no BlastOutput iterations in document")

// FieldError reports a required field that is missing or malformed on a
// record that is present in the document.
type FieldError struct {
	// Record locates the record, e.g. "Iteration[1]/Hit[2]/Hsp[1]".
	Record string

	// Field is the element name, e.g. "Hsp_gaps".
	Field string

	// Err is ErrMissingField or the conversion error.
	Err error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s/%s: %v", e.Record, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Wire structs. Pointer fields distinguish an absent element (nil) from an
// empty one.
type xmlOutput struct {
	XMLName    xml.Name       `xml:"BlastOutput"`
	Program    string         `xml:"BlastOutput_program"`
	Version    string         `xml:"BlastOutput_version"`
	DB         string         `xml:"BlastOutput_db"`
	Iterations []xmlIteration `xml:"BlastOutput_iterations>Iteration"`
}

type xmlIteration struct {
	QueryID  *string  `xml:"Iteration_query-ID"`
	QueryDef *string  `xml:"Iteration_query-def"`
	QueryLen *string  `xml:"Iteration_query-len"`
	Hits     []xmlHit `xml:"Iteration_hits>Hit"`
}

type xmlHit struct {
	ID        *string  `xml:"Hit_id"`
	Def       *string  `xml:"Hit_def"`
	Accession *string  `xml:"Hit_accession"`
	HSPs      []xmlHSP `xml:"Hit_hsps>Hsp"`
}

type xmlHSP struct {
	AlignLen *string `xml:"Hsp_align-len"`
	BitScore *string `xml:"Hsp_bit-score"`
	EValue   *string `xml:"Hsp_evalue"`
	Gaps     *string `xml:"Hsp_gaps"`
	Identity *string `xml:"Hsp_identity"`
}

// Parse decodes a BlastOutput XML document.
//
// Records are returned in document order. Parse either returns a complete
// Report or an error; it never returns a partially decoded one.
func Parse(r io.Reader) (*Report, error) {
	var out xmlOutput
	if err := xml.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode BlastOutput: %w", err)
	}
	if len(out.Iterations) == 0 {
		return nil, ErrNoIterations
	}

	report := &Report{
		Program:  strings.TrimSpace(out.Program),
		Version:  strings.TrimSpace(out.Version),
		Database: strings.TrimSpace(out.DB),
		Queries:  make([]Query, 0, len(out.Iterations)),
	}

	for i, it := range out.Iterations {
		q, err := convertIteration(fmt.Sprintf("Iteration[%d]", i+1), it)
		if err != nil {
			return nil, err
		}
		report.Queries = append(report.Queries, q)
	}

	return report, nil
}

func convertIteration(rec string, it xmlIteration) (Query, error) {
	f := fields{record: rec}
	q := Query{
		ID:     f.text("Iteration_query-ID", it.QueryID),
		Def:    f.def("Iteration_query-def", it.QueryDef),
		Length: f.positive("Iteration_query-len", it.QueryLen),
		Hits:   make([]Hit, 0, len(it.Hits)),
	}
	if f.err != nil {
		return Query{}, f.err
	}

	for i, h := range it.Hits {
		hit, err := convertHit(fmt.Sprintf("%s/Hit[%d]", rec, i+1), h, q.Length)
		if err != nil {
			return Query{}, err
		}
		q.Hits = append(q.Hits, hit)
	}
	return q, nil
}

func convertHit(rec string, h xmlHit, queryLen int) (Hit, error) {
	f := fields{record: rec}
	hit := Hit{
		ID:        f.text("Hit_id", h.ID),
		Def:       f.def("Hit_def", h.Def),
		Accession: f.text("Hit_accession", h.Accession),
		HSPs:      make([]HSP, 0, len(h.HSPs)),
	}
	if f.err != nil {
		return Hit{}, f.err
	}

	for i, x := range h.HSPs {
		hsp, err := convertHSP(fmt.Sprintf("%s/Hsp[%d]", rec, i+1), x, queryLen)
		if err != nil {
			return Hit{}, err
		}
		hit.HSPs = append(hit.HSPs, hsp)
	}
	return hit, nil
}

// convertHSP computes PercentIdentity as the share of the query covered by
// the alignment. Hsp_identity is optional and does not feed into it.
func convertHSP(rec string, x xmlHSP, queryLen int) (HSP, error) {
	f := fields{record: rec}
	hsp := HSP{
		AlignLength: f.positive("Hsp_align-len", x.AlignLen),
		BitScore:    f.float("Hsp_bit-score", x.BitScore),
		EValue:      f.float("Hsp_evalue", x.EValue),
		Gaps:        f.integer("Hsp_gaps", x.Gaps),
	}
	if x.Identity != nil {
		n := f.integer("Hsp_identity", x.Identity)
		hsp.Identity = &n
	}
	if f.err != nil {
		return HSP{}, f.err
	}
	hsp.PercentIdentity = 100 * float64(hsp.AlignLength) / float64(queryLen)
	return hsp, nil
}

// fields converts required elements of one record, keeping the first error.
type fields struct {
	record string
	err    error
}

func (f *fields) fail(field string, err error) {
	if f.err == nil {
		f.err = &FieldError{Record: f.record, Field: field, Err: err}
	}
}

func (f *fields) text(field string, v *string) string {
	if v == nil {
		f.fail(field, ErrMissingField)
		return ""
	}
	return strings.TrimSpace(*v)
}

func (f *fields) def(field string, v *string) string {
	return norm.NFC.String(f.text(field, v))
}

func (f *fields) integer(field string, v *string) int {
	s := f.text(field, v)
	if v == nil {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f.fail(field, fmt.Errorf("invalid integer %q", s))
		return 0
	}
	return n
}

func (f *fields) positive(field string, v *string) int {
	n := f.integer(field, v)
	if v != nil && f.err == nil && n <= 0 {
		f.fail(field, fmt.Errorf("must be positive, got %d", n))
	}
	return n
}

func (f *fields) float(field string, v *string) float64 {
	s := f.text(field, v)
	if v == nil {
		return 0
	}
	x, err := strconv.ParseFloat(s, 64)
	if err != nil {
		f.fail(field, fmt.Errorf("invalid number %q", s))
		return 0
	}
	return x
}
