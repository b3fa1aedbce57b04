package payment

import "encoding/json"

const (
	metadataEmailKey  = "email"
	metadataImagesKey = "images"
)

// EncodeMetadata serializes the purchaser email and the ordered image list
// into session metadata. This is the only channel from session creation to
// the webhook handler, so it must round-trip exactly.
func EncodeMetadata(email string, images []string) (map[string]string, error) {
	if images == nil {
		images = []string{}
	}
	raw, err := json.Marshal(images)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		metadataEmailKey:  email,
		metadataImagesKey: string(raw),
	}, nil
}

// MetadataEmail extracts the purchaser email from session metadata, empty
// when absent.
func MetadataEmail(meta map[string]string) string {
	return meta[metadataEmailKey]
}

// DecodeImages parses the image list back out of session metadata. Missing or
// malformed metadata yields an empty list; fulfillment degrades instead of
// failing on a field only used for display.
func DecodeImages(meta map[string]string) []string {
	raw, ok := meta[metadataImagesKey]
	if !ok || raw == "" {
		return []string{}
	}
	var images []string
	if err := json.Unmarshal([]byte(raw), &images); err != nil {
		return []string{}
	}
	if images == nil {
		return []string{}
	}
	return images
}
