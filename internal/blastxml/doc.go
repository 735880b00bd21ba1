// Package blastxml decodes NCBI BLAST XML output (the BlastOutput document
// returned by the QBlast URL API with FORMAT_TYPE=XML) into queries, hits,
// and high-scoring pairs.
//
// Only the fields that are persisted are decoded. Every one of them is
// required on a record that is present: a Hit without Hit_accession or an
// Hsp without Hsp_gaps fails the whole document with a *FieldError rather
// than being skipped, so callers never see a partially decoded record.
//
// Definition lines are NFC-normalised before they are returned.
package blastxml
