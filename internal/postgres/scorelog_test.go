package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasWildcard(t *testing.T) {
	assert.False(t, HasWildcard("player123"))
	assert.True(t, HasWildcard("test_%"))
	assert.True(t, HasWildcard("%_bot"))
	assert.True(t, HasWildcard("demo%player%"))
	assert.True(t, HasWildcard("player_1"))
	assert.False(t, HasWildcard(""))
}
