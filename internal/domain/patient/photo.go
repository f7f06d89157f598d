package patient

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DecodePhoto accepts either a raw base64 string or a data URL
// ("data:image/jpeg;base64,<payload>") and returns the image bytes.
func DecodePhoto(encoded string) ([]byte, error) {
	payload := encoded
	if idx := strings.Index(payload, ","); idx >= 0 {
		payload = payload[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPhoto, err)
	}
	return data, nil
}

// EncodePhoto re-encodes stored photo bytes as a self-describing data URL.
func EncodePhoto(data []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)
}
