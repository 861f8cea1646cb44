package ytvideo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVideoID(t *testing.T) {
	valid := []string{
		"dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s",
		"youtube.com/watch?v=dQw4w9WgXcQ",
		"https://m.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ?si=abc",
		"https://www.youtube.com/embed/dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/dQw4w9WgXcQ",
		"  https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ ",
	}
	for _, in := range valid {
		got, err := ExtractVideoID(in)
		require.NoError(t, err, in)
		assert.Equal(t, "dQw4w9WgXcQ", got, in)
	}

	invalid := []string{
		"",
		"not a url",
		"https://vimeo.com/123456",
		"https://www.youtube.com/watch?v=short",
		"https://www.youtube.com/channel/UC123",
	}
	for _, in := range invalid {
		_, err := ExtractVideoID(in)
		assert.ErrorIs(t, err, ErrInvalidVideoURL, in)
	}
}
