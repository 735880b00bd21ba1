// Package fasta loads the query sequence file submitted to BLAST.
//
// The content is passed through to the remote service unvalidated; only the
// record names are extracted, for logging.
package fasta

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// Payload is the full content of a sequence file.
type Payload struct {
	Path    string
	Content string

	// Names holds the first whitespace-separated token of each '>' header,
	// in file order.
	Names []string
}

// Load reads the whole file at path. "-" reads standard input, and gzip
// input (by magic number or .gz suffix) is decompressed.
func Load(path string) (*Payload, error) {
	rc, err := openReader(path)
	if err != nil {
		return nil, fmt.Errorf("open sequence file: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read sequence file %s: %w", path, err)
	}

	return &Payload{
		Path:    path,
		Content: string(data),
		Names:   headerNames(data),
	}, nil
}

// headerNames collects record names the same way the stream readers assign
// record IDs: the first field after '>'.
func headerNames(data []byte) []string {
	var names []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 || line[0] != '>' {
			continue
		}
		fields := strings.Fields(string(line[1:]))
		if len(fields) == 0 {
			names = append(names, "")
			continue
		}
		names = append(names, fields[0])
	}
	return names
}

// multiReadCloser closes multiple io.Closers when Close() is called.
type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func openReader(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	// Detect gzip by magic number (1F 8B) or by .gz suffix.
	var sig [2]byte
	n, _ := fh.Read(sig[:])
	_, _ = fh.Seek(0, io.SeekStart)
	if (n == 2 && sig[0] == 0x1f && sig[1] == 0x8b) || strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(fh)
		if err != nil {
			_ = fh.Close()
			return nil, err
		}
		return &multiReadCloser{Reader: gr, closers: []io.Closer{gr, fh}}, nil
	}
	return fh, nil
}
