package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Offset(1, 10))
	assert.Equal(t, 10, Offset(2, 10))
	assert.Equal(t, 8, Offset(5, 2))
	assert.Equal(t, 0, Offset(0, 10), "page zero clamps to the first page")
	assert.Equal(t, 0, Offset(-3, 10))
}
