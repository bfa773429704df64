package check

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskSpacePasses(t *testing.T) {
	res, err := DiskSpace{Path: t.TempDir(), ThresholdMB: 0}.Evaluate(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Passed)
	assert.Contains(t, res.Detail, "free space")
}

func TestDiskSpaceBelowThreshold(t *testing.T) {
	// No filesystem has an exabyte free, so this must fail.
	res, err := DiskSpace{Path: t.TempDir(), ThresholdMB: 1 << 40}.Evaluate(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Passed)
	assert.Contains(t, res.Detail, "< threshold")
}

func TestDiskSpaceMissingPath(t *testing.T) {
	_, err := DiskSpace{Path: filepath.Join(t.TempDir(), "missing"), ThresholdMB: 1}.Evaluate(context.Background())
	assert.Error(t, err)
}

func TestProcessAliveRunning(t *testing.T) {
	c := NewProcessAlive("myproc")
	c.pidof = func(context.Context, string) (string, error) {
		return "1234", nil
	}

	res, err := c.Evaluate(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Passed)
	assert.Contains(t, res.Detail, "pid 1234")
}

func TestProcessAliveAbsent(t *testing.T) {
	c := NewProcessAlive("myproc")
	c.pidof = func(context.Context, string) (string, error) {
		// pidof exits non-zero for "no such process".
		return "", &exec.ExitError{}
	}

	res, err := c.Evaluate(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Passed)
	assert.Equal(t, "process myproc not running", res.Detail)
}

func TestProcessAliveLookupBroken(t *testing.T) {
	c := NewProcessAlive("myproc")
	c.pidof = func(context.Context, string) (string, error) {
		return "", exec.ErrNotFound
	}

	_, err := c.Evaluate(context.Background())
	assert.Error(t, err)
}

func TestFileFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.log")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	res, err := FileFresh{Path: path, MaxAge: time.Hour}.Evaluate(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Passed)
}

func TestFileFreshStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.log")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	old := time.Now().Add(-10 * time.Minute)
	require.NoError(t, os.Chtimes(path, old, old))

	res, err := FileFresh{Path: path, MaxAge: time.Minute}.Evaluate(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Passed)
	assert.Contains(t, res.Detail, "last modified")
}

func TestFileFreshMissing(t *testing.T) {
	res, err := FileFresh{Path: filepath.Join(t.TempDir(), "gone"), MaxAge: time.Minute}.Evaluate(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Passed)
	assert.Contains(t, res.Detail, "does not exist")
}

func TestFileGrows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.log")
	require.NoError(t, os.WriteFile(path, []byte("boot noise"), 0o644))

	c := NewFileGrows(path)

	// Pre-existing content is not growth.
	res, err := c.Evaluate(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Passed)

	require.NoError(t, os.WriteFile(path, []byte("boot noise + new error"), 0o644))
	res, err = c.Evaluate(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Passed)
	assert.Contains(t, res.Detail, "grew")

	// Stable size passes again.
	res, err = c.Evaluate(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Passed)

	// Truncation (rotation) is not a failure.
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	res, err = c.Evaluate(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Passed)
}

func TestFileGrowsMissingFile(t *testing.T) {
	c := NewFileGrows(filepath.Join(t.TempDir(), "never"))
	res, err := c.Evaluate(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Passed)
}
