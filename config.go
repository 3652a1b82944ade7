package tinywasm

import "github.com/RI5255/tinywasm/internal/runtime"

// RuntimeConfig controls the resource limits a Store is allocated with.
// It uses a clone-and-With builder: a RuntimeConfig is immutable, and
// each With* method returns a new value, leaving the receiver untouched.
type RuntimeConfig struct {
	stackCapacity    int
	callStackCeiling int
}

// NewRuntimeConfig returns the default configuration: a fixed stack pool
// sized runtime.DefaultStackCapacity and a call-stack ceiling of
// runtime.DefaultCallStackCeiling.
func NewRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		stackCapacity:    runtime.DefaultStackCapacity,
		callStackCeiling: runtime.DefaultCallStackCeiling,
	}
}

// WithStackCapacity overrides the fixed operand/label/frame pool size. A
// small capacity is useful for tests exercising ErrStackOverflow.
func (c RuntimeConfig) WithStackCapacity(n int) RuntimeConfig {
	c.stackCapacity = n
	return c
}

// WithCallStackCeiling overrides the maximum nesting depth of active
// Frames (recursive/nested calls). Exceeding it panics with
// runtime.ErrStackOverflow, which Store.Invoke recovers and returns as an
// error.
func (c RuntimeConfig) WithCallStackCeiling(n int) RuntimeConfig {
	c.callStackCeiling = n
	return c
}

func (c RuntimeConfig) toInternal() runtime.Config {
	return runtime.Config{
		StackCapacity:    c.stackCapacity,
		CallStackCeiling: c.callStackCeiling,
	}
}
