// Package check defines the health check capability and the concrete checks
// used to babysit disk space, processes and data files.
package check

import "context"

// Result is the outcome of a single evaluation.
type Result struct {
	Passed bool
	Detail string
}

// Check evaluates one health condition. Expected failure conditions (process
// absent, file missing, disk low) are reported as Passed=false with an
// explanatory Detail, not as an error. An error is reserved for the check's
// own machinery breaking; the engine treats it as a failure whose detail is
// the error text.
type Check interface {
	Evaluate(ctx context.Context) (Result, error)
}

// Func adapts a plain function into a Check.
type Func func(ctx context.Context) (Result, error)

// Evaluate implements Check.
func (f Func) Evaluate(ctx context.Context) (Result, error) {
	return f(ctx)
}
