package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, "frame_12/1", GenerateKey(12, 0))
	assert.Equal(t, "frame_3/2", GenerateKey(3, 1))
}

func TestLogger(t *testing.T) {
	assert.NotNil(t, Logger())
	assert.Equal(t, Logger(), Logger())
	assert.NotNil(t, FrameLogger("test", "control", 1, 0))
}
