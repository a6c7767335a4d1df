package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClampTTL(t *testing.T) {
	tests := []struct {
		name     string
		ttl      time.Duration
		expected time.Duration
	}{
		{
			name:     "zero falls back to default",
			ttl:      0,
			expected: DefaultPresignTTL,
		},
		{
			name:     "negative falls back to default",
			ttl:      -time.Minute,
			expected: DefaultPresignTTL,
		},
		{
			name:     "below minimum is clamped up",
			ttl:      time.Minute,
			expected: MinPresignTTL,
		},
		{
			name:     "above maximum is clamped down",
			ttl:      48 * time.Hour,
			expected: MaxPresignTTL,
		},
		{
			name:     "in range is kept",
			ttl:      2 * time.Hour,
			expected: 2 * time.Hour,
		},
		{
			name:     "boundaries are kept",
			ttl:      MinPresignTTL,
			expected: MinPresignTTL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClampTTL(tt.ttl))
		})
	}
}

func TestObjectKey(t *testing.T) {
	body := []byte("image bytes")

	key := objectKey("media", "https://example.com/images/photo.JPG", "image/jpeg", body)

	assert.True(t, strings.HasPrefix(key, "media/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"), "original extension is kept, lowercased")

	// Same content a moment later must still get a distinct key
	other := objectKey("media", "https://example.com/images/photo.JPG", "image/jpeg", body)
	assert.NotEqual(t, key, other, "keys must not collide across uploads")
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		contentType string
		expected    string
	}{
		{
			name:        "extension from url path",
			url:         "https://example.com/a/photo.png",
			contentType: "image/jpeg",
			expected:    ".png",
		},
		{
			name:        "extension from content type when url has none",
			url:         "https://example.com/a/photo",
			contentType: "image/png",
			expected:    ".png",
		},
		{
			name:        "query string does not leak into extension",
			url:         "https://example.com/a/photo.gif?size=large",
			contentType: "image/jpeg",
			expected:    ".gif",
		},
		{
			name:        "overlong path suffix is ignored",
			url:         "https://example.com/a/archive.backup",
			contentType: "image/webp",
			expected:    ".webp",
		},
		{
			name:        "unknown content type yields none",
			url:         "https://example.com/a/stream",
			contentType: "application/x-mystery",
			expected:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extensionFor(tt.url, tt.contentType))
		})
	}
}
