package check

import (
	"context"
	"fmt"
)

const mb = 1024 * 1024

// DiskSpace fails when the free space on the filesystem containing Path
// drops below ThresholdMB megabytes.
type DiskSpace struct {
	Path        string
	ThresholdMB int64
}

// Evaluate implements Check.
func (c DiskSpace) Evaluate(_ context.Context) (Result, error) {
	avail, err := statFs(c.Path)
	if err != nil {
		return Result{}, fmt.Errorf("statfs %s: %w", c.Path, err)
	}

	availMB := int64(avail) / mb
	if availMB < c.ThresholdMB {
		return Result{
			Passed: false,
			Detail: fmt.Sprintf("free space %dMB < threshold %dMB on %s", availMB, c.ThresholdMB, c.Path),
		}, nil
	}
	return Result{
		Passed: true,
		Detail: fmt.Sprintf("free space %dMB on %s", availMB, c.Path),
	}, nil
}
