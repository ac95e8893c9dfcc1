// Package sandbox defines the code-execution collaborator boundary of the
// round loop. The engine hands a code payload across this boundary and
// consumes a single opaque result string; whether the sandbox ran the code
// successfully is deliberately not distinguishable from this side.
package sandbox

import "context"

// Executor runs one unit of code and returns its textual result. The result
// is opaque: execution failures inside the sandbox come back as ordinary
// text, not as an error. The error return is reserved for failures to reach
// the sandbox at all.
type Executor interface {
	ExecuteCode(ctx context.Context, source string) (string, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, source string) (string, error)

func (f ExecutorFunc) ExecuteCode(ctx context.Context, source string) (string, error) {
	return f(ctx, source)
}
