package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrameTimestamp(t *testing.T) {
	assert.Equal(t, "00:00:01", FrameTimestamp(time.Second))
	assert.Equal(t, "01:02:03", FrameTimestamp(time.Hour+2*time.Minute+3*time.Second))
}

func TestExtractCover_MissingVideo(t *testing.T) {
	_, err := ExtractCover(context.Background(), "/nonexistent/video.mp4", t.TempDir(), 0)
	assert.Error(t, err)
}
