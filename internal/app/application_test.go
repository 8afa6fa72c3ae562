package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHiddenByUser(t *testing.T) {
	tests := map[float64]bool{
		-1:  false,
		-10: false,
		0:   true,
		0.5: true,
		1:   false,
	}
	for visible, want := range tests {
		assert.Equal(t, want, hiddenByUser(visible), "visible=%v", visible)
	}
}
