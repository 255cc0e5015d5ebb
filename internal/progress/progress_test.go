package progress

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCadenceTightensForLargeTraces(t *testing.T) {
	assert.Equal(t, 0.05, Cadence(1000))
	assert.Equal(t, 0.01, Cadence(int64(6e8)))
}

func TestNewWithEmptyPathDiscardsReports(t *testing.T) {
	tr, err := New("", 1000)
	require.NoError(t, err)
	assert.NotPanics(t, func() { tr.Report(500, 3) })
	assert.NoError(t, tr.Close())
}

func TestTrackerWritesRowsAtCadenceBoundaries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "progress.csv")

	tr, err := New(path, 100)
	require.NoError(t, err)
	tr.Report(0, 0)
	tr.Report(4, 1)
	tr.Report(5, 2)
	tr.Report(100, 10)
	require.NoError(t, tr.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())

	assert.Equal(t, "bytes,nodes", lines[0])
	assert.Contains(t, lines, "5,2")
	assert.Contains(t, lines, "100,10")
}
