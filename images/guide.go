package images

import (
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"

	"welcomer/domain/entities"
)

const guideGridStep = 100

// GenerateTemplateGuide draws a canonical-size grid that helps admins pick
// avatar coordinates for their templates
func GenerateTemplateGuide() ([]byte, error) {
	w, h := entities.CanonicalTemplateWidth, entities.CanonicalTemplateHeight
	dc := gg.NewContext(w, h)

	grad := gg.NewLinearGradient(0, 0, 0, float64(h))
	grad.AddColorStop(0, colorRGB(0.16, 0.18, 0.24))
	grad.AddColorStop(1, colorRGB(0.09, 0.10, 0.14))
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, float64(w), float64(h))
	dc.Fill()

	labelFace, err := loadFont(gomono.TTF, 12)
	if err != nil {
		return nil, fmt.Errorf("failed to load label font: %w", err)
	}
	dc.SetFontFace(labelFace)

	dc.SetLineWidth(1)
	for x := guideGridStep; x < w; x += guideGridStep {
		dc.SetRGBA(1, 1, 1, 0.15)
		dc.DrawLine(float64(x), 0, float64(x), float64(h))
		dc.Stroke()
		dc.SetRGBA(1, 1, 1, 0.7)
		dc.DrawStringAnchored(fmt.Sprintf("%d", x), float64(x), 4, 0.5, 1)
	}
	for y := guideGridStep; y < h; y += guideGridStep {
		dc.SetRGBA(1, 1, 1, 0.15)
		dc.DrawLine(0, float64(y), float64(w), float64(y))
		dc.Stroke()
		dc.SetRGBA(1, 1, 1, 0.7)
		dc.DrawStringAnchored(fmt.Sprintf("%d", y), 4, float64(y), 0, 0.5)
	}

	// Example placement at the default radius
	ex, ey, r := 100.0, 200.0, float64(entities.DefaultAvatarRadius)
	dc.SetRGBA(0.35, 0.6, 1, 0.35)
	dc.DrawRectangle(ex, ey, r, r)
	dc.Fill()
	dc.SetRGBA(0.35, 0.6, 1, 0.9)
	dc.SetLineWidth(3)
	dc.DrawCircle(ex+r/2, ey+r/2, r/2)
	dc.Stroke()
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(fmt.Sprintf("x=%d y=%d radius=%d", int(ex), int(ey), int(r)), ex, ey+r+16, 0, 0.5)

	titleFace, err := loadFont(gobold.TTF, 28)
	if err != nil {
		return nil, fmt.Errorf("failed to load title font: %w", err)
	}
	dc.SetFontFace(titleFace)
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(fmt.Sprintf("Welcome template %dx%d", w, h), float64(w)/2, float64(h)-60, 0.5, 0.5)

	dc.SetFontFace(labelFace)
	dc.SetRGBA(1, 1, 1, 0.8)
	dc.DrawStringAnchored("x and y are the top left corner of the avatar; radius is its width in pixels",
		float64(w)/2, float64(h)-28, 0.5, 0.5)

	return encodePNG(dc.Image(), entities.CanonicalTemplateDPI)
}

func colorRGB(r, g, b float64) color.Color {
	return color.RGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 255}
}

// loadFont loads a font from byte data
func loadFont(fontData []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(fontData)
	if err != nil {
		return nil, err
	}
	face := truetype.NewFace(f, &truetype.Options{
		Size:       size,
		DPI:        72,
		Hinting:    font.HintingFull,
		SubPixelsX: 4,
		SubPixelsY: 4,
	})
	return face, nil
}
