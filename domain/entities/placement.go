package entities

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// DefaultTemplateKey is the image key of a guild's non-random template
	DefaultTemplateKey = "default.png"

	// ImageFileExt is appended to pool image names to build their keys
	ImageFileExt = ".png"

	// Stored templates are normalised to this size so admin-entered
	// coordinates stay valid whatever the upload resolution was.
	CanonicalTemplateWidth  = 1193
	CanonicalTemplateHeight = 671
	CanonicalTemplateDPI    = 72

	// DefaultAvatarRadius is used when the radius prompt is skipped
	DefaultAvatarRadius = 200

	// MaxAvatarRadius caps the avatar side at the larger template dimension
	MaxAvatarRadius = CanonicalTemplateWidth
)

var imageNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Placement is where the avatar goes on a template and how large it is
type Placement struct {
	GuildID   int64     `db:"guild_id"`
	ImageKey  string    `db:"image_key"`
	X         int       `db:"x"`
	Y         int       `db:"y"`
	Radius    int       `db:"radius"` // side of the square the avatar is resized to
	CreatedAt time.Time `db:"created_at"`
}

// Validate checks the placement coordinates
func (p Placement) Validate() error {
	if p.X < 0 || p.Y < 0 || p.Radius < 0 {
		return fmt.Errorf("%w: placement values must be non-negative (x=%d, y=%d, radius=%d)", ErrValidation, p.X, p.Y, p.Radius)
	}
	if p.Radius > MaxAvatarRadius {
		return fmt.Errorf("%w: avatar size %d is larger than the template (max %d)", ErrValidation, p.Radius, MaxAvatarRadius)
	}
	if p.ImageKey == "" {
		return fmt.Errorf("%w: placement has no image key", ErrValidation)
	}
	return nil
}

// PoolImageKey builds the storage key for a named pool image
func PoolImageKey(name string) (string, error) {
	name = strings.TrimSpace(name)
	if !imageNamePattern.MatchString(name) {
		return "", fmt.Errorf("%w: image names may only contain letters, digits, '-' and '_' (max 64)", ErrValidation)
	}
	if strings.EqualFold(name, strings.TrimSuffix(DefaultTemplateKey, ImageFileExt)) {
		return "", fmt.Errorf("%w: %q is reserved for the default template", ErrValidation, name)
	}
	return name + ImageFileExt, nil
}

// ImageNameFromKey strips the file extension from an image key
func ImageNameFromKey(key string) string {
	return strings.TrimSuffix(key, ImageFileExt)
}
