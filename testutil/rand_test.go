package testutil

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomAlphaNum(t *testing.T) {
	valid := regexp.MustCompile(`^[a-z0-9]+$`)
	for _, length := range []int{1, 3, 16} {
		s, err := RandomAlphaNum(length)
		require.NoError(t, err)
		assert.Len(t, s, length)
		assert.Regexp(t, valid, s)
	}

	_, err := RandomAlphaNum(0)
	assert.Error(t, err)
}
