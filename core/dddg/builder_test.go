package dddg

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalTrace = `0,1,main,bb0:0,i0,11,0
r,32,1,1,%x
0,2,main,bb0:0,i1,11,1
1,32,1,1,%x
r,32,1,1,%y
0,3,main,bb0:0,i2,2,2
`

func writeTrace(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.txt")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestBuildInitialDDDGMinimalTrace(t *testing.T) {
	path := writeTrace(t, minimalTrace)
	progressPath := filepath.Join(t.TempDir(), "progress.csv")
	b := NewNullBuilder()
	offset, err := b.BuildInitialDDDG(path, progressPath)
	require.NoError(t, err)
	assert.Greater(t, offset, int64(0))
	assert.Equal(t, 3, b.Store.NumNodes())
	assert.True(t, b.Store.HasRegisterEdge(0, 1, 1))
}

func TestBuildInitialDDDGEmptyTraceReturnsEndOfTrace(t *testing.T) {
	path := writeTrace(t, "")
	progressPath := filepath.Join(t.TempDir(), "progress.csv")
	b := NewNullBuilder()
	offset, err := b.BuildInitialDDDG(path, progressPath)
	require.NoError(t, err)
	assert.Equal(t, EndOfTrace, offset)
}

// TestBuildInitialDDDGDefaultsProgressFileName confirms an empty
// --progress-file still produces the mandated sidecar name, in the
// current working directory, the way the original always did.
func TestBuildInitialDDDGDefaultsProgressFileName(t *testing.T) {
	path := writeTrace(t, minimalTrace)

	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	b := NewNullBuilder()
	_, err = b.BuildInitialDDDG(path, "")
	require.NoError(t, err)

	data, err := os.ReadFile(defaultProgressFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "bytes,nodes")
}

func TestBuildInitialDDDGTransparentlyDecompressesGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.txt.gz")

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(minimalTrace))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	progressPath := filepath.Join(dir, "progress.csv")
	b := NewNullBuilder()
	_, err = b.BuildInitialDDDG(path, progressPath)
	require.NoError(t, err)
	assert.Equal(t, 3, b.Store.NumNodes())
	assert.True(t, b.Store.HasRegisterEdge(0, 1, 1))
}

func TestBuildInitialDDDGParsesLabelMapSection(t *testing.T) {
	trace := strings.Join([]string{
		"%%%% LABEL MAP START %%%%",
		"main/loop1 10",
		"helper/loop1 10 inline main",
		"%%%% LABEL MAP END %%%%",
		strings.TrimRight(minimalTrace, "\n"),
	}, "\n") + "\n"

	path := writeTrace(t, trace)
	progressPath := filepath.Join(t.TempDir(), "progress.csv")
	b := NewNullBuilder()
	_, err := b.BuildInitialDDDG(path, progressPath)
	require.NoError(t, err)

	labels := b.Store.Labels(10)
	require.Len(t, labels, 2)
	assert.Equal(t, 3, b.Store.NumNodes())
}

func TestBuildInitialDDDGWritesProgressFile(t *testing.T) {
	path := writeTrace(t, minimalTrace)
	progressPath := filepath.Join(t.TempDir(), "progress.csv")

	b := NewNullBuilder()
	_, err := b.BuildInitialDDDG(path, progressPath)
	require.NoError(t, err)

	data, err := os.ReadFile(progressPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "bytes,nodes")
}
