package executor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
)

// CheckImage verifies the content is a PNG or JPEG image by decoding its header.
func CheckImage(content []byte) error {
	if len(content) == 0 {
		return fmt.Errorf("%w: empty file", ErrImageDecode)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(content)); err != nil {
		return fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	return nil
}
