package images

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	log "github.com/sirupsen/logrus"
)

const (
	AvatarMaskFile = "MASK.png"
	BorderFile     = "BORDER.png"
	BorderMaskFile = "BORDER_mask.png"

	generatedOverlaySize = 512
	generatedBorderWidth = 16
)

// Overlays holds the border artwork and the two paste masks.
// Masks are stored as coverage levels where 0 leaves the template untouched.
type Overlays struct {
	Border     image.Image
	BorderMask *image.Gray
	AvatarMask *image.Gray
}

// LoadOverlays reads overlay files from dir, generating any that are missing
func LoadOverlays(dir string) (*Overlays, error) {
	border, err := loadOverlayFile(dir, BorderFile)
	if err != nil {
		return nil, err
	}
	borderMask, err := loadOverlayFile(dir, BorderMaskFile)
	if err != nil {
		return nil, err
	}
	avatarMask, err := loadOverlayFile(dir, AvatarMaskFile)
	if err != nil {
		return nil, err
	}

	o := &Overlays{Border: border}
	if border == nil {
		o.Border = generateBorder(generatedOverlaySize, generatedBorderWidth)
	}
	if borderMask == nil {
		o.BorderMask = coverage(generateBorderMask(generatedOverlaySize, generatedBorderWidth))
	} else {
		o.BorderMask = coverage(borderMask)
	}
	if avatarMask == nil {
		o.AvatarMask = coverage(generateAvatarMask(generatedOverlaySize, generatedBorderWidth))
	} else {
		o.AvatarMask = coverage(avatarMask)
	}
	return o, nil
}

// DefaultOverlays returns the generated overlay set
func DefaultOverlays() *Overlays {
	return &Overlays{
		Border:     generateBorder(generatedOverlaySize, generatedBorderWidth),
		BorderMask: coverage(generateBorderMask(generatedOverlaySize, generatedBorderWidth)),
		AvatarMask: coverage(generateAvatarMask(generatedOverlaySize, generatedBorderWidth)),
	}
}

func loadOverlayFile(dir, name string) (image.Image, error) {
	if dir == "" {
		return nil, nil
	}
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.WithField("overlay", name).Info("Overlay not found, using generated one")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read overlay %s: %w", path, err)
	}
	img, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode overlay %s: %w", path, err)
	}
	return img, nil
}

// coverage converts a mask image to per-pixel paste levels.
// Opaque or grayscale masks use luminance, others their alpha channel.
func coverage(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}

	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	useLuma := img.ColorModel() == color.GrayModel || img.ColorModel() == color.Gray16Model
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		useLuma = true
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.At(x, y)
			var level uint8
			if useLuma {
				level = color.GrayModel.Convert(c).(color.Gray).Y
			} else {
				_, _, _, a := c.RGBA()
				level = uint8(a >> 8)
			}
			out.SetGray(x-b.Min.X, y-b.Min.Y, color.Gray{Y: level})
		}
	}
	return out
}

func generateAvatarMask(size, borderWidth int) image.Image {
	dc := gg.NewContext(size, size)
	dc.SetColor(color.Black)
	dc.Clear()

	half := float64(size) / 2
	dc.DrawCircle(half, half, half-float64(borderWidth))
	dc.SetColor(color.White)
	dc.Fill()
	return dc.Image()
}

func generateBorderMask(size, borderWidth int) image.Image {
	dc := gg.NewContext(size, size)
	dc.SetColor(color.Black)
	dc.Clear()

	half := float64(size) / 2
	dc.SetFillRuleEvenOdd()
	dc.DrawCircle(half, half, half)
	dc.DrawCircle(half, half, half-float64(borderWidth))
	dc.SetColor(color.White)
	dc.Fill()
	return dc.Image()
}

func generateBorder(size, borderWidth int) image.Image {
	dc := gg.NewContext(size, size)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// Faint inner edge so the ring reads on light templates
	half := float64(size) / 2
	dc.SetRGBA(0, 0, 0, 0.25)
	dc.SetLineWidth(2)
	dc.DrawCircle(half, half, half-float64(borderWidth)+1)
	dc.Stroke()
	return dc.Image()
}
