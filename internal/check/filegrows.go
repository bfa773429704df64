package check

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// FileGrows fails on any cycle where Path grew since the previous
// evaluation. It watches error logs that are expected to stay silent; a
// growing log means something is writing failures. A shrinking file is
// treated as rotation and passes.
type FileGrows struct {
	Path string

	mu       sync.Mutex
	lastSize int64
}

// NewFileGrows creates a growth check primed with the file's current size,
// so pre-existing content does not count as growth.
func NewFileGrows(path string) *FileGrows {
	c := &FileGrows{Path: path}
	c.lastSize = fileSize(path)
	return c
}

// Evaluate implements Check.
func (c *FileGrows) Evaluate(_ context.Context) (Result, error) {
	size := fileSize(c.Path)

	c.mu.Lock()
	grew := size > c.lastSize
	c.lastSize = size
	c.mu.Unlock()

	if grew {
		return Result{
			Passed: false,
			Detail: fmt.Sprintf("file %s grew to %d bytes", c.Path, size),
		}, nil
	}
	return Result{
		Passed: true,
		Detail: fmt.Sprintf("file %s stable at %d bytes", c.Path, size),
	}, nil
}

// fileSize returns 0 for a missing file; absence of an error log is fine.
func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
