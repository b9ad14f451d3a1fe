package images

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"welcomer/domain/entities"
)

// Compositor pastes a member's avatar onto a welcome template
type Compositor struct {
	overlays *Overlays
}

// NewCompositor creates a compositor using the given overlays.
// A nil overlay set falls back to the generated one.
func NewCompositor(overlays *Overlays) *Compositor {
	if overlays == nil {
		overlays = DefaultOverlays()
	}
	return &Compositor{overlays: overlays}
}

// Render decodes both images, composes them and returns PNG bytes
func (c *Compositor) Render(template, avatar []byte, placement entities.Placement) ([]byte, error) {
	if placement.Radius > entities.MaxAvatarRadius {
		return nil, fmt.Errorf("%w: avatar size %d exceeds %d", entities.ErrValidation, placement.Radius, entities.MaxAvatarRadius)
	}

	tpl, err := decode(template)
	if err != nil {
		return nil, fmt.Errorf("failed to decode template: %w", err)
	}
	av, err := decode(avatar)
	if err != nil {
		return nil, fmt.Errorf("failed to decode avatar: %w", err)
	}

	out := c.Compose(tpl, av, placement)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode welcome image: %w", err)
	}
	return buf.Bytes(), nil
}

// Compose draws the border and the avatar into a copy of the template.
// The template itself is never modified.
func (c *Compositor) Compose(template, avatar image.Image, placement entities.Placement) *image.RGBA {
	tb := template.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, tb.Dx(), tb.Dy()))
	draw.Draw(canvas, canvas.Bounds(), template, tb.Min, draw.Src)

	size := placement.Radius
	if size <= 0 {
		return canvas
	}

	target := image.Rect(placement.X, placement.Y, placement.X+size, placement.Y+size)

	border := imaging.Resize(c.overlays.Border, size, size, imaging.Box)
	borderMask := scaleMask(c.overlays.BorderMask, size)
	draw.DrawMask(canvas, target, border, image.Point{}, borderMask, image.Point{}, draw.Over)

	resized := imaging.Resize(avatar, size, size, imaging.Box)
	avatarMask := scaleMask(c.overlays.AvatarMask, size)
	draw.DrawMask(canvas, target, resized, image.Point{}, avatarMask, image.Point{}, draw.Over)

	return canvas
}

// scaleMask resizes coverage levels to size×size and exposes them as alpha
func scaleMask(mask *image.Gray, size int) *image.Alpha {
	scaled := imaging.Resize(mask, size, size, imaging.Box)
	alpha := image.NewAlpha(scaled.Rect)
	for i := 0; i < len(alpha.Pix); i++ {
		// NRGBA stores gray levels identically in R, G and B
		alpha.Pix[i] = scaled.Pix[i*4]
	}
	return alpha
}
