package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataRoundTrip(t *testing.T) {
	meta, err := EncodeMetadata("buyer@example.com", []string{"a.png", "b.png"})
	require.NoError(t, err)

	assert.Equal(t, "buyer@example.com", MetadataEmail(meta))
	assert.Equal(t, []string{"a.png", "b.png"}, DecodeImages(meta))
}

func TestEncodeMetadataNilImages(t *testing.T) {
	meta, err := EncodeMetadata("buyer@example.com", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{}, DecodeImages(meta))
}

func TestDecodeImagesFailsClosed(t *testing.T) {
	tests := []struct {
		name string
		meta map[string]string
	}{
		{"nil metadata", nil},
		{"missing key", map[string]string{"email": "x@y.z"}},
		{"empty value", map[string]string{"images": ""}},
		{"malformed json", map[string]string{"images": "not-json"}},
		{"wrong type", map[string]string{"images": `{"a":1}`}},
		{"json null", map[string]string{"images": "null"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, []string{}, DecodeImages(tt.meta))
		})
	}
}

func TestMetadataEmailMissing(t *testing.T) {
	assert.Equal(t, "", MetadataEmail(nil))
	assert.Equal(t, "", MetadataEmail(map[string]string{"images": "[]"}))
}
