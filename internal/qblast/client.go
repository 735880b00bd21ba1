package qblast

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultURL is the public NCBI BLAST CGI endpoint.
const DefaultURL = "https://blast.ncbi.nlm.nih.gov/blast/Blast.cgi"

const (
	// ProgramBlastn is a nucleotide query against a nucleotide database.
	ProgramBlastn = "blastn"

	// DefaultDatabase is the NCBI nucleotide collection.
	DefaultDatabase = "nt"

	defaultTimeout = 2 * time.Minute
	userAgent      = "blastdb/1.0"
)

// Options configures a Client. Zero values select the defaults above.
type Options struct {
	URL      string
	Database string
	Tool     string
	Email    string

	// Timeout bounds each HTTP request. Ignored when HTTPClient is set.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client issues QBlast requests. The program is always blastn.
type Client struct {
	baseURL  string
	program  string
	database string
	tool     string
	email    string
	http     *http.Client
	logger   *slog.Logger
}

// Submission is what a successful Put returns.
type Submission struct {
	RID string

	// RTOE is the service's estimate of time until results are ready.
	RTOE time.Duration
}

// Status is the state of a submitted search.
type Status string

const (
	StatusWaiting Status = "WAITING"
	StatusReady   Status = "READY"
	StatusFailed  Status = "FAILED"
	StatusUnknown Status = "UNKNOWN"
)

// SearchInfo is a decoded SearchInfo answer.
type SearchInfo struct {
	Status Status

	// HitsKnown is set when the answer carried ThereAreHits; HasHits is its value.
	HitsKnown bool
	HasHits   bool
}

// NewClient creates a Client.
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:  opts.URL,
		program:  ProgramBlastn,
		database: opts.Database,
		tool:     opts.Tool,
		email:    opts.Email,
		http:     opts.HTTPClient,
		logger:   opts.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultURL
	}
	if c.database == "" {
		c.database = DefaultDatabase
	}
	if c.http == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		c.http = &http.Client{Timeout: timeout}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Database returns the database searches are submitted against.
func (c *Client) Database() string {
	return c.database
}

// Submit sends query (raw FASTA text, unvalidated) as a new blastn search.
func (c *Client) Submit(ctx context.Context, query string) (Submission, error) {
	form := c.params()
	form.Set("CMD", "Put")
	form.Set("PROGRAM", c.program)
	form.Set("DATABASE", c.database)
	form.Set("QUERY", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Submission{}, fmt.Errorf("submit: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.logger.Debug("submitting search", "program", c.program, "database", c.database, "bytes", len(query))
	body, err := c.do(req, "submit")
	if err != nil {
		return Submission{}, err
	}

	info, err := parseInfo(body)
	if err != nil {
		return Submission{}, fmt.Errorf("submit: %w", err)
	}

	rid := info["RID"]
	if rid == "" {
		return Submission{}, fmt.Errorf("submit: %w", ErrNoRID)
	}
	rtoe, err := strconv.Atoi(info["RTOE"])
	if err != nil || rtoe < 0 {
		return Submission{}, fmt.Errorf("submit: %w: %q", ErrNoRTOE, info["RTOE"])
	}

	return Submission{RID: rid, RTOE: time.Duration(rtoe) * time.Second}, nil
}

// Status performs one SearchInfo check for rid.
func (c *Client) Status(ctx context.Context, rid string) (SearchInfo, error) {
	q := c.params()
	q.Set("CMD", "Get")
	q.Set("FORMAT_OBJECT", "SearchInfo")
	q.Set("RID", rid)

	body, err := c.get(ctx, q, "status")
	if err != nil {
		return SearchInfo{}, err
	}

	info, err := parseInfo(body)
	if err != nil {
		return SearchInfo{}, fmt.Errorf("status: %w", err)
	}

	status := Status(strings.ToUpper(info["Status"]))
	switch status {
	case StatusWaiting, StatusReady, StatusFailed, StatusUnknown:
	case "":
		return SearchInfo{}, fmt.Errorf("status: no Status in SearchInfo for %s", rid)
	default:
		return SearchInfo{}, fmt.Errorf("status: unrecognised status %q for %s", status, rid)
	}

	si := SearchInfo{Status: status}
	if v, ok := info["ThereAreHits"]; ok {
		si.HitsKnown = true
		si.HasHits = strings.EqualFold(v, "yes")
	}
	return si, nil
}

// Fetch retrieves the XML result document for a ready search.
func (c *Client) Fetch(ctx context.Context, rid string) ([]byte, error) {
	q := c.params()
	q.Set("CMD", "Get")
	q.Set("FORMAT_TYPE", "XML")
	q.Set("RID", rid)

	body, err := c.get(ctx, q, "fetch")
	if err != nil {
		return nil, err
	}

	// A status page instead of a document means the RID was not ready.
	if bytes.Contains(body, []byte(infoBegin)) {
		if info, err := parseInfo(body); err == nil && info["Status"] != "" {
			return nil, fmt.Errorf("fetch %s: %w (status %s)", rid, ErrNotReady, info["Status"])
		}
	}
	return body, nil
}

// params returns the parameters sent with every request.
func (c *Client) params() url.Values {
	v := url.Values{}
	if c.tool != "" {
		v.Set("TOOL", c.tool)
	}
	if c.email != "" {
		v.Set("EMAIL", c.email)
	}
	return v
}

func (c *Client) get(ctx context.Context, q url.Values, op string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c.do(req, op)
}

func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &HTTPError{Op: op, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", op, err)
	}
	return body, nil
}
