package idgen

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// NewFunc returns a new globally unique identifier as string.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new session identifier.
func New() string { return NewFunc() }

// Sequence replaces NewFunc with a deterministic "<prefix>-<n>" generator
// and returns a function restoring the previous generator.
func Sequence(prefix string) (restore func()) {
	prev := NewFunc
	var n atomic.Int64
	NewFunc = func() string { return fmt.Sprintf("%s-%d", prefix, n.Add(1)) }
	return func() { NewFunc = prev }
}
