package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageKeyEmbedsVersion(t *testing.T) {
	p := &Pages{}

	assert.Equal(t, "leaderboard:v0:page:50:0", p.pageKey(0, 50, 0))
	assert.Equal(t, "leaderboard:v7:page:10:20", p.pageKey(7, 10, 20))

	// Bumping the version must change every page key
	assert.NotEqual(t, p.pageKey(1, 50, 0), p.pageKey(2, 50, 0))
}
