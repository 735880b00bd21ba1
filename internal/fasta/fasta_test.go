package fasta

import (
	"compress/gzip"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const plain = `>seq1 first sample
ACGT
ACGT
>seq2
NNnn
`

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func TestLoad_Plain(t *testing.T) {
	path := writeFile(t, "query.fa", plain)

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, p.Path)
	assert.Equal(t, plain, p.Content)
	assert.Equal(t, []string{"seq1", "seq2"}, p.Names)
}

func TestLoad_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query.fa.gz")
	fh, err := os.Create(path)
	require.NoError(t, err)
	gw := gzip.NewWriter(fh)
	_, err = gw.Write([]byte(plain))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	require.NoError(t, fh.Close())

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, plain, p.Content)
	assert.Len(t, p.Names, 2)
}

func TestLoad_ContentNotValidated(t *testing.T) {
	// Not FASTA at all: still passed through verbatim.
	path := writeFile(t, "junk.txt", "hello world\n")

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", p.Content)
	assert.Empty(t, p.Names)
}

func TestLoad_EmptyHeader(t *testing.T) {
	path := writeFile(t, "q.fa", ">\nACGT\n")

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{""}, p.Names)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.fa"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "open sequence file")
}

func TestLoad_Directory(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
}
