package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/blastdb/internal/testutil"
)

// cliHarness runs the root command against a fake service.
type cliHarness struct {
	fake    *testutil.FakeQBlast
	sleeper *testutil.RecordingSleeper
	dir     string
	config  string
	db      string
	input   string
}

func newCLIHarness(t *testing.T) *cliHarness {
	t.Helper()
	dir := t.TempDir()
	h := &cliHarness{
		fake:    testutil.NewFakeQBlast(t),
		sleeper: testutil.NewRecordingSleeper(),
		dir:     dir,
		config:  filepath.Join(dir, "blastdb.yaml"),
		db:      filepath.Join(dir, "results.db"),
		input:   filepath.Join(dir, "query.fasta"),
	}
	h.fake.Result = testutil.TwoHitsXML()

	cfg := fmt.Sprintf(`qblast:
  url: %s
  email: test@example.org
poll:
  interval: 60s
  attempts: 2
  retry_delay: 1s
  jitter: 0
`, h.fake.URL())
	require.NoError(t, os.WriteFile(h.config, []byte(cfg), 0o644))
	require.NoError(t, os.WriteFile(h.input, []byte(testutil.SampleFASTA), 0o644))
	return h
}

// execute runs blastdb with --config prepended. It returns stdout, stderr
// and the command error.
func (h *cliHarness) execute(args ...string) (string, string, error) {
	opts := &RootOptions{
		Sleeper: h.sleeper,
		RunIDs:  testutil.NewFixedRunID("run-cli"),
	}
	cmd := newRootCommand(opts)
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(append([]string{"--config", h.config}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func (h *cliHarness) writeXML(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(h.dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
