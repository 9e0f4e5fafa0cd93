// Package input implements the two input representations — LinearInput and
// MappedInput — plus their mutation (havoc) and splicing operators.
//
// Grounded on shwoo03-Project/smart web fuzzer's internal/coverage/corpus.go
// for how an input's identity and metadata travel together, and on
// internal/mutator/afl.go's secureRandomInt/secureRandomBytes idiom for
// drawing fresh random bytes (the mutator package itself is not kept: its
// pluggable multi-strategy mutation registry conflicts with the byte/index
// operators-only scope here, but the "draw a random byte/offset" helper
// idiom is reused via internal/input.Rng).
package input

import "errors"

// EOF is the sentinel returned by GetOrGenerateFresh when the input is
// exhausted and GENERATE_EOF_WHEN_OUT is set.
const EOF = -1

// ErrOutOfOrderRead is an invariant violation: a LinearInput was asked for
// byte i when the next expected read is some other index.
var ErrOutOfOrderRead = errors.New("input: out-of-order linear read")

// ErrMutateAfterExecute is an invariant violation: a MappedInput's mutation
// or fresh-generation path was invoked after it was marked executed.
var ErrMutateAfterExecute = errors.New("input: mutate after execute")

// Input is the tagged-variant operation set common to LinearInput and
// MappedInput, replacing the inheritance hierarchy the spec describes with
// a small interface, per the "polymorphic input" design note.
type Input interface {
	// Size returns the number of bytes currently materialized.
	Size() int
	// GC truncates/rebuilds internal state to exactly what was requested
	// during the last run.
	GC()
	// Bytes returns the materialized byte content in request order, for
	// persistence and for exposing to the target as a byte stream.
	Bytes() []byte
}

// Limits bundles the size-related configuration options that both input
// representations must honor.
type Limits struct {
	MaxInputSize     int  // MAX_INPUT_SIZE, default 10240
	GenerateEOFOnOut bool // GENERATE_EOF_WHEN_OUT
}

// DefaultLimits returns the spec's documented defaults.
func DefaultLimits() Limits {
	return Limits{MaxInputSize: 10240, GenerateEOFOnOut: false}
}
