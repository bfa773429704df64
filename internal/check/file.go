package check

import (
	"context"
	"fmt"
	"os"
	"time"
)

// FileFresh fails when Path has not been modified within MaxAge, or does not
// exist. It watches data files that a healthy producer keeps appending to.
type FileFresh struct {
	Path   string
	MaxAge time.Duration
}

// Evaluate implements Check.
func (c FileFresh) Evaluate(_ context.Context) (Result, error) {
	info, err := os.Stat(c.Path)
	if os.IsNotExist(err) {
		return Result{
			Passed: false,
			Detail: fmt.Sprintf("file %s does not exist", c.Path),
		}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("stat %s: %w", c.Path, err)
	}

	age := time.Since(info.ModTime())
	if age > c.MaxAge {
		return Result{
			Passed: false,
			Detail: fmt.Sprintf("file %s last modified %.1fs ago (max %.0fs)", c.Path, age.Seconds(), c.MaxAge.Seconds()),
		}, nil
	}
	return Result{
		Passed: true,
		Detail: fmt.Sprintf("file %s last modified %.1fs ago", c.Path, age.Seconds()),
	}, nil
}
