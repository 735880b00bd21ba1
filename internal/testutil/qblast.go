package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
)

// QBlastRequest is one request seen by FakeQBlast.
type QBlastRequest struct {
	Method       string
	Cmd          string
	FormatObject string
	FormatType   string
	RID          string
	Program      string
	Database     string
	Query        string
	Tool         string
	Email        string
}

// FakeQBlast is an in-process stand-in for the NCBI BLAST CGI.
//
// Put answers with a fresh RID and RTOE. SearchInfo answers walk through
// Statuses, repeating the last entry. XML fetches return Result. Any RID
// other than the one handed out reports Status=UNKNOWN.
//
// Fields may be changed between requests; access is serialised.
type FakeQBlast struct {
	// RID is returned by Put. Empty generates one.
	RID string

	// RTOE is the estimate (seconds) returned by Put.
	RTOE int

	// Statuses is the sequence of SearchInfo answers. Empty means READY.
	Statuses []string

	// ThereAreHits is reported alongside READY when non-empty.
	ThereAreHits string

	// Result is the body of the XML fetch.
	Result []byte

	// PutStatus, FetchStatus override the HTTP status of those calls.
	PutStatus   int
	FetchStatus int

	// StatusFailures makes the first N SearchInfo calls answer 503.
	StatusFailures int

	// PutBody replaces the whole Put answer when non-empty.
	PutBody string

	mu       sync.Mutex
	server   *httptest.Server
	requests []QBlastRequest
	checks   int
}

// NewFakeQBlast starts a fake service that is closed when the test ends.
func NewFakeQBlast(t *testing.T) *FakeQBlast {
	t.Helper()
	f := &FakeQBlast{RTOE: 30, ThereAreHits: "yes"}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

// URL is the CGI endpoint to point a client at.
func (f *FakeQBlast) URL() string {
	return f.server.URL + "/blast/Blast.cgi"
}

// Requests returns a copy of every request received so far.
func (f *FakeQBlast) Requests() []QBlastRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]QBlastRequest(nil), f.requests...)
}

// Count returns how many requests had the given kind: "Put", "SearchInfo"
// or "XML".
func (f *FakeQBlast) Count(kind string) int {
	n := 0
	for _, r := range f.Requests() {
		switch {
		case kind == "Put" && r.Cmd == "Put",
			kind == "SearchInfo" && r.FormatObject == "SearchInfo",
			kind == "XML" && r.FormatType == "XML":
			n++
		}
	}
	return n
}

func (f *FakeQBlast) handle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req := QBlastRequest{
		Method:       r.Method,
		Cmd:          r.Form.Get("CMD"),
		FormatObject: r.Form.Get("FORMAT_OBJECT"),
		FormatType:   r.Form.Get("FORMAT_TYPE"),
		RID:          r.Form.Get("RID"),
		Program:      r.Form.Get("PROGRAM"),
		Database:     r.Form.Get("DATABASE"),
		Query:        r.Form.Get("QUERY"),
		Tool:         r.Form.Get("TOOL"),
		Email:        r.Form.Get("EMAIL"),
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)

	switch {
	case req.Cmd == "Put":
		f.put(w)
	case req.Cmd == "Get" && req.FormatObject == "SearchInfo":
		f.searchInfo(w, req.RID)
	case req.Cmd == "Get" && req.FormatType == "XML":
		f.fetch(w, req.RID)
	default:
		http.Error(w, "unsupported request", http.StatusBadRequest)
	}
}

func (f *FakeQBlast) put(w http.ResponseWriter) {
	if f.PutStatus != 0 {
		http.Error(w, "put failed", f.PutStatus)
		return
	}
	if f.PutBody != "" {
		fmt.Fprint(w, f.PutBody)
		return
	}
	if f.RID == "" {
		f.RID = strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:11])
	}
	fmt.Fprintf(w, `<html><body>
<!--QBlastInfoBegin
    RID = %s
    RTOE = %d
QBlastInfoEnd
-->
<p>Your request has been submitted.</p>
</body></html>
`, f.RID, f.RTOE)
}

func (f *FakeQBlast) searchInfo(w http.ResponseWriter, rid string) {
	if f.StatusFailures > 0 {
		f.StatusFailures--
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	status := "READY"
	if len(f.Statuses) > 0 {
		i := f.checks
		if i >= len(f.Statuses) {
			i = len(f.Statuses) - 1
		}
		status = f.Statuses[i]
	}
	f.checks++
	if f.RID == "" || rid != f.RID {
		status = "UNKNOWN"
	}

	// NCBI reports ThereAreHits in a second block after Status.
	fmt.Fprintf(w, "<html><body>\n<!--QBlastInfoBegin\n\tStatus=%s\nQBlastInfoEnd\n-->\n", status)
	if status == "READY" && f.ThereAreHits != "" {
		fmt.Fprintf(w, "<p>Results are ready.</p>\n<!--QBlastInfoBegin\n\tThereAreHits=%s\nQBlastInfoEnd\n-->\n", f.ThereAreHits)
	}
	fmt.Fprint(w, "</body></html>\n")
}

func (f *FakeQBlast) fetch(w http.ResponseWriter, rid string) {
	if f.FetchStatus != 0 {
		http.Error(w, "fetch failed", f.FetchStatus)
		return
	}
	if f.RID == "" || rid != f.RID {
		fmt.Fprint(w, "<!--QBlastInfoBegin\n\tStatus=UNKNOWN\nQBlastInfoEnd\n-->\n")
		return
	}
	w.Header().Set("Content-Type", "text/xml")
	w.Write(f.Result)
}
