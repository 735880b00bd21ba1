// Package qblast talks to the NCBI BLAST URL API ("QBlast").
//
// A search is three kinds of call against one CGI endpoint:
//
//	CMD=Put                          submit, returns RID and RTOE
//	CMD=Get&FORMAT_OBJECT=SearchInfo status: WAITING, READY, FAILED or UNKNOWN
//	CMD=Get&FORMAT_TYPE=XML          the BlastOutput document
//
// Put and SearchInfo answers are HTML pages carrying a
// QBlastInfoBegin/QBlastInfoEnd comment block with key=value lines; Client
// extracts those. Poller drives the status loop: one wait for RTOE, then a
// fixed interval between checks until the search is ready.
//
// NCBI asks clients not to poll a single RID more than once a minute and to
// identify themselves with TOOL and EMAIL.
package qblast
