package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPtr(t *testing.T) {
	v := 42
	p := Ptr(v)
	v++

	assert.Equal(t, 42, *p)
	assert.Equal(t, "", *Ptr(""))
}
