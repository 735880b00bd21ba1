package qblast

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blastdb/internal/testutil"
)

func newTestClient(f *testutil.FakeQBlast) *Client {
	return NewClient(Options{URL: f.URL(), Tool: "blastdb-test", Email: "dev@example.org", Timeout: 5 * time.Second})
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Options{})
	assert.Equal(t, DefaultURL, c.baseURL)
	assert.Equal(t, ProgramBlastn, c.program)
	assert.Equal(t, DefaultDatabase, c.Database())
	assert.Equal(t, defaultTimeout, c.http.Timeout)
}

func TestSubmit(t *testing.T) {
	f := testutil.NewFakeQBlast(t)
	f.RID = "8B1ZRJ4S016"
	f.RTOE = 27

	sub, err := newTestClient(f).Submit(context.Background(), testutil.SampleFASTA)
	require.NoError(t, err)
	assert.Equal(t, "8B1ZRJ4S016", sub.RID)
	assert.Equal(t, 27*time.Second, sub.RTOE)

	reqs := f.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "Put", reqs[0].Cmd)
	assert.Equal(t, "blastn", reqs[0].Program)
	assert.Equal(t, "nt", reqs[0].Database)
	assert.Equal(t, testutil.SampleFASTA, reqs[0].Query)
	assert.Equal(t, "blastdb-test", reqs[0].Tool)
	assert.Equal(t, "dev@example.org", reqs[0].Email)
}

func TestSubmit_CustomDatabase(t *testing.T) {
	f := testutil.NewFakeQBlast(t)

	c := NewClient(Options{URL: f.URL(), Database: "core_nt"})
	_, err := c.Submit(context.Background(), ">q\nACGT\n")
	require.NoError(t, err)
	assert.Equal(t, "core_nt", f.Requests()[0].Database)
	assert.Equal(t, "", f.Requests()[0].Tool)
}

func TestSubmit_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *testutil.FakeQBlast)
		wantErr error
		wantMsg string
	}{
		{
			name:    "http status",
			setup:   func(f *testutil.FakeQBlast) { f.PutStatus = http.StatusBadRequest },
			wantMsg: "submit: unexpected HTTP status 400",
		},
		{
			name:    "no info block",
			setup:   func(f *testutil.FakeQBlast) { f.PutBody = "<html>Message ID#24 Error: bad query</html>" },
			wantErr: ErrNoInfo,
		},
		{
			name:    "no rid",
			setup:   func(f *testutil.FakeQBlast) { f.PutBody = "QBlastInfoBegin\n RTOE = 10\nQBlastInfoEnd" },
			wantErr: ErrNoRID,
		},
		{
			name:    "no rtoe",
			setup:   func(f *testutil.FakeQBlast) { f.PutBody = "QBlastInfoBegin\n RID = X\nQBlastInfoEnd" },
			wantErr: ErrNoRTOE,
		},
		{
			name:    "bad rtoe",
			setup:   func(f *testutil.FakeQBlast) { f.PutBody = "QBlastInfoBegin\n RID = X\n RTOE = soon\nQBlastInfoEnd" },
			wantErr: ErrNoRTOE,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := testutil.NewFakeQBlast(t)
			tt.setup(f)

			_, err := newTestClient(f).Submit(context.Background(), ">q\nACGT\n")
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestSubmit_TransportError(t *testing.T) {
	c := NewClient(Options{URL: "http://127.0.0.1:1/blast/Blast.cgi", Timeout: time.Second})

	_, err := c.Submit(context.Background(), ">q\nACGT\n")
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestStatus(t *testing.T) {
	f := testutil.NewFakeQBlast(t)
	f.RID = "RID1"
	f.Statuses = []string{"WAITING", "READY"}
	c := newTestClient(f)

	si, err := c.Status(context.Background(), "RID1")
	require.NoError(t, err)
	assert.Equal(t, StatusWaiting, si.Status)
	assert.False(t, si.HitsKnown)

	si, err = c.Status(context.Background(), "RID1")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, si.Status)
	assert.True(t, si.HitsKnown)
	assert.True(t, si.HasHits)

	req := f.Requests()[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "Get", req.Cmd)
	assert.Equal(t, "SearchInfo", req.FormatObject)
	assert.Equal(t, "RID1", req.RID)
}

func TestStatus_NoHits(t *testing.T) {
	f := testutil.NewFakeQBlast(t)
	f.RID = "RID1"
	f.ThereAreHits = "no"

	si, err := newTestClient(f).Status(context.Background(), "RID1")
	require.NoError(t, err)
	assert.True(t, si.HitsKnown)
	assert.False(t, si.HasHits)
}

func TestStatus_SplitInfoBlocks(t *testing.T) {
	page := `<html><body>
<!--QBlastInfoBegin
	Status=READY
QBlastInfoEnd
-->
<p class="info">Your results are ready.</p>
<!--QBlastInfoBegin
	ThereAreHits=no
QBlastInfoEnd
-->
</body></html>`
	srv := newStaticServer(t, http.StatusOK, page)

	si, err := NewClient(Options{URL: srv}).Status(context.Background(), "R")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, si.Status)
	assert.True(t, si.HitsKnown)
	assert.False(t, si.HasHits)
}

func TestStatus_FailedAndUnknown(t *testing.T) {
	f := testutil.NewFakeQBlast(t)
	f.RID = "RID1"
	f.Statuses = []string{"FAILED"}
	c := newTestClient(f)

	si, err := c.Status(context.Background(), "RID1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, si.Status)

	si, err = c.Status(context.Background(), "EXPIRED")
	require.NoError(t, err)
	assert.Equal(t, StatusUnknown, si.Status)
}

func TestStatus_Malformed(t *testing.T) {
	tests := map[string]string{
		"no block":     "<html>busy</html>",
		"no status":    "QBlastInfoBegin\n ThereAreHits=yes\nQBlastInfoEnd",
		"weird status": "QBlastInfoBegin\n Status=PONDERING\nQBlastInfoEnd",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			srv := newStaticServer(t, http.StatusOK, body)
			_, err := NewClient(Options{URL: srv}).Status(context.Background(), "R")
			require.Error(t, err)
			assert.False(t, IsTransient(err))
		})
	}
}

func TestStatus_ServerError(t *testing.T) {
	srv := newStaticServer(t, http.StatusBadGateway, "bad gateway")

	_, err := NewClient(Options{URL: srv}).Status(context.Background(), "R")
	require.Error(t, err)

	var he *HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, "status", he.Op)
	assert.Equal(t, http.StatusBadGateway, he.StatusCode)
	assert.True(t, IsTransient(err))
}

func TestFetch(t *testing.T) {
	f := testutil.NewFakeQBlast(t)
	f.RID = "RID1"
	f.Result = testutil.TwoHitsXML()

	body, err := newTestClient(f).Fetch(context.Background(), "RID1")
	require.NoError(t, err)
	assert.Equal(t, testutil.TwoHitsXML(), body)

	req := f.Requests()[0]
	assert.Equal(t, "Get", req.Cmd)
	assert.Equal(t, "XML", req.FormatType)
	assert.Equal(t, "RID1", req.RID)
}

func TestFetch_StatusPage(t *testing.T) {
	f := testutil.NewFakeQBlast(t)
	f.RID = "RID1"

	_, err := newTestClient(f).Fetch(context.Background(), "OTHER")
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestFetch_HTTPError(t *testing.T) {
	f := testutil.NewFakeQBlast(t)
	f.RID = "RID1"
	f.FetchStatus = http.StatusInternalServerError

	_, err := newTestClient(f).Fetch(context.Background(), "RID1")
	var he *HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, "fetch", he.Op)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"503", &HTTPError{StatusCode: 503}, true},
		{"429", &HTTPError{StatusCode: 429}, true},
		{"404", &HTTPError{StatusCode: 404}, false},
		{"transport", &url.Error{Op: "Get", URL: "x", Err: errors.New("connection refused")}, true},
		{"cancelled", fmt.Errorf("status: %w", &url.Error{Op: "Get", URL: "x", Err: context.Canceled}), false},
		{"parse", fmt.Errorf("status: %w", ErrNoInfo), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

// newStaticServer answers every request with the same status and body.
func newStaticServer(t *testing.T, code int, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}
