package testutil

import (
	"fmt"
	"strings"
)

// HitSpec describes one Hit for BlastXML. HSPs is the number of Hsp
// records to generate under it.
type HitSpec struct {
	ID        string
	Def       string
	Accession string
	HSPs      int
}

// BlastXML renders a single-iteration BlastOutput document.
//
// HSP k (1-based) of every hit gets Hsp_align-len 100-10*(k-1),
// Hsp_identity align-len minus k, Hsp_gaps k-1, Hsp_bit-score 200/k and
// Hsp_evalue 1e-(50/k).
func BlastXML(queryID, queryDef string, queryLen int, hits ...HitSpec) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?>
<!DOCTYPE BlastOutput PUBLIC "-//NCBI//NCBI BlastOutput/EN" "http://www.ncbi.nlm.nih.gov/dtd/NCBI_BlastOutput.dtd">
<BlastOutput>
  <BlastOutput_program>blastn</BlastOutput_program>
  <BlastOutput_version>BLASTN 2.15.0+</BlastOutput_version>
  <BlastOutput_db>nt</BlastOutput_db>
  <BlastOutput_iterations>
    <Iteration>
      <Iteration_iter-num>1</Iteration_iter-num>
`)
	fmt.Fprintf(&b, "      <Iteration_query-ID>%s</Iteration_query-ID>\n", queryID)
	fmt.Fprintf(&b, "      <Iteration_query-def>%s</Iteration_query-def>\n", queryDef)
	fmt.Fprintf(&b, "      <Iteration_query-len>%d</Iteration_query-len>\n", queryLen)
	b.WriteString("      <Iteration_hits>\n")

	for i, h := range hits {
		b.WriteString("        <Hit>\n")
		fmt.Fprintf(&b, "          <Hit_num>%d</Hit_num>\n", i+1)
		fmt.Fprintf(&b, "          <Hit_id>%s</Hit_id>\n", h.ID)
		fmt.Fprintf(&b, "          <Hit_def>%s</Hit_def>\n", h.Def)
		fmt.Fprintf(&b, "          <Hit_accession>%s</Hit_accession>\n", h.Accession)
		b.WriteString("          <Hit_hsps>\n")
		for k := 1; k <= h.HSPs; k++ {
			alignLen := 100 - 10*(k-1)
			b.WriteString("            <Hsp>\n")
			fmt.Fprintf(&b, "              <Hsp_num>%d</Hsp_num>\n", k)
			fmt.Fprintf(&b, "              <Hsp_bit-score>%g</Hsp_bit-score>\n", 200.0/float64(k))
			fmt.Fprintf(&b, "              <Hsp_evalue>1e-%d</Hsp_evalue>\n", 50/k)
			fmt.Fprintf(&b, "              <Hsp_identity>%d</Hsp_identity>\n", alignLen-k)
			fmt.Fprintf(&b, "              <Hsp_gaps>%d</Hsp_gaps>\n", k-1)
			fmt.Fprintf(&b, "              <Hsp_align-len>%d</Hsp_align-len>\n", alignLen)
			b.WriteString("            </Hsp>\n")
		}
		b.WriteString("          </Hit_hsps>\n")
		b.WriteString("        </Hit>\n")
	}

	b.WriteString(`      </Iteration_hits>
    </Iteration>
  </BlastOutput_iterations>
</BlastOutput>
`)
	return []byte(b.String())
}

// TwoHitsXML is one query with two hits carrying three and zero HSPs.
func TwoHitsXML() []byte {
	return BlastXML("Query_14919", "sample1 test sequence", 120,
		HitSpec{ID: "gi|1234|gb|MN908947.3|", Def: "SARS-CoV-2 isolate Wuhan-Hu-1", Accession: "MN908947", HSPs: 3},
		HitSpec{ID: "gi|5678|gb|OK091006.1|", Def: "Synthetic construct clone 7", Accession: "OK091006", HSPs: 0},
	)
}

// SampleFASTA is a one-record query file.
const SampleFASTA = `>sample1 test sequence
ATGTTTGTTTTTCTTGTTTTATTGCCACTAGTCTCTAGTCAGTGTGTTAATCTTACAACCAGAACTCAATTACCCCCTGCATACACTAATTCTTTCACACGTGGTGTTTATTACCCTGACAAAG
`
