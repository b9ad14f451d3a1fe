package images

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"welcomer/domain/entities"
)

// TemplateNormalizer rescales uploads to the canonical template size
type TemplateNormalizer struct {
	width  int
	height int
	dpi    int
}

// NewTemplateNormalizer creates a normaliser for the canonical template format
func NewTemplateNormalizer() *TemplateNormalizer {
	return &TemplateNormalizer{
		width:  entities.CanonicalTemplateWidth,
		height: entities.CanonicalTemplateHeight,
		dpi:    entities.CanonicalTemplateDPI,
	}
}

// Normalize decodes an upload and re-encodes it as a canonical PNG
func (n *TemplateNormalizer) Normalize(data []byte) ([]byte, error) {
	src, err := decode(data)
	if err != nil {
		return nil, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, n.width, n.height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out, err := encodePNG(dst, n.dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to encode template: %w", err)
	}
	return out, nil
}
