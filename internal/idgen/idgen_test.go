package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequence(t *testing.T) {
	restore := Sequence("sess")
	assert.Equal(t, "sess-1", New())
	assert.Equal(t, "sess-2", New())
	restore()
	assert.Len(t, New(), 36)
}
