package images

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Discord serves some avatars as WebP

	"welcomer/domain/entities"
)

const (
	pngSignatureLen = 8
	ihdrChunkLen    = 4 + 4 + 13 + 4 // length, type, data, crc
	inchesPerMeter  = 0.0254
)

// decode reads any supported image format
func decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no image data", entities.ErrDecode)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrDecode, err)
	}
	return img, nil
}

// encodePNG encodes img as PNG. A positive dpi adds a pHYs chunk.
func encodePNG(img image.Image, dpi int) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	if dpi <= 0 {
		return buf.Bytes(), nil
	}
	return withPhysicalDimensions(buf.Bytes(), dpi)
}

// withPhysicalDimensions inserts a pHYs chunk right after IHDR.
// image/png has no option for it.
func withPhysicalDimensions(data []byte, dpi int) ([]byte, error) {
	insertAt := pngSignatureLen + ihdrChunkLen
	if len(data) < insertAt || string(data[pngSignatureLen+4:pngSignatureLen+8]) != "IHDR" {
		return nil, fmt.Errorf("failed to add pHYs chunk: not a png stream")
	}

	ppm := uint32(math.Round(float64(dpi) / inchesPerMeter))

	chunk := make([]byte, 4+4+9+4)
	binary.BigEndian.PutUint32(chunk[0:4], 9)
	copy(chunk[4:8], "pHYs")
	binary.BigEndian.PutUint32(chunk[8:12], ppm)
	binary.BigEndian.PutUint32(chunk[12:16], ppm)
	chunk[16] = 1 // unit: meter
	binary.BigEndian.PutUint32(chunk[17:21], crc32.ChecksumIEEE(chunk[4:17]))

	out := make([]byte, 0, len(data)+len(chunk))
	out = append(out, data[:insertAt]...)
	out = append(out, chunk...)
	out = append(out, data[insertAt:]...)
	return out, nil
}
