package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextWidth(t *testing.T) {
	assert.Equal(t, 0.0, TextWidth("", 16))
	assert.Equal(t, 0.0, TextWidth("x", 0))

	short := TextWidth("hi", 16)
	long := TextWidth("hello there", 16)
	assert.Greater(t, short, 0.0)
	assert.Greater(t, long, short)

	small := TextWidth("hello", 12)
	big := TextWidth("hello", 48)
	assert.Greater(t, big, small)

	// Same input hits the face cache and stays deterministic.
	assert.Equal(t, TextWidth("hello", 24), TextWidth("hello", 24))
}
