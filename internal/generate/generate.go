// Package generate is the boundary to the external text-generation
// collaborator. Everything downstream (parsing, signal fallback,
// deliverables, the day report) consumes it through the Generator
// interface so tests can substitute a scripted implementation.
package generate

import "context"

// Generator produces text for a prompt. Implementations must return
// eventually; callers treat any error as a degraded-but-survivable
// condition, never fatal to a round.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Func adapts a plain function to the Generator interface.
type Func func(ctx context.Context, prompt string) (string, error)

// Generate implements Generator.
func (f Func) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
