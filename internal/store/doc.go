// Package store provides SQLite-backed storage for BLAST search results.
//
// The store is an append-only set of three tables:
//   - queries: one row per submitted sequence (queryID, queryDef, queryLength)
//   - hits: one row per database match (hitID, hitDef, accession, queryID)
//   - hsps: one row per high-scoring pair (hspID, alignLength, bitScore,
//     eValue, gaps, percentID, hitID)
//
// # Associations
//
// hits.queryID and hsps.hitID hold the owning record's identifier by value.
// They are not foreign keys and identifiers are not unique: storing the
// same report twice doubles every row count.
//
// # Stored Values
//
// Rows hold what blastxml.Parse produced, which is not always the exact
// bytes of the XML document:
//   - identifiers, accessions and definitions have surrounding whitespace
//     trimmed
//   - queryDef and hitDef are in Unicode NFC, so a decomposed "e" plus
//     combining acute is stored as the single rune "é"
//   - percentID is 100 * alignLength / queryLength, the share of the query
//     the alignment spans
//
// Look up rows with the trimmed, NFC form of a value.
//
// # Database Configuration
//
//   - WAL mode
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - user_version tracks applied migrations
package store
