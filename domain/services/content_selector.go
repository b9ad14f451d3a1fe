package services

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"welcomer/domain/entities"
)

// Greeting is the content chosen for one join event
type Greeting struct {
	Text      string
	SendText  bool
	ImageKey  string
	SendImage bool
}

// ContentSelector picks the text and image for a greeting from a guild's settings
type ContentSelector struct {
	intn func(n int) int
}

// NewContentSelector creates a selector backed by the process random source
func NewContentSelector() *ContentSelector {
	return &ContentSelector{intn: rand.IntN}
}

// NewContentSelectorWithSource creates a selector with an injected random source.
// intn must return a value in [0, n).
func NewContentSelectorWithSource(intn func(n int) int) *ContentSelector {
	return &ContentSelector{intn: intn}
}

// Select chooses the greeting text and image key.
// poolImageKeys is the guild's pool listing and is only consulted when the
// image randomiser is on.
func (s *ContentSelector) Select(settings *entities.WelcomeSettings, poolImageKeys []string, mention string) (*Greeting, error) {
	text, err := s.SelectText(settings, mention)
	if err != nil {
		return nil, err
	}

	imageKey, err := s.SelectImage(settings, poolImageKeys)
	if err != nil {
		return nil, err
	}

	return &Greeting{
		Text:      text,
		SendText:  settings.ShouldSendText(),
		ImageKey:  imageKey,
		SendImage: settings.ShouldSendImage(),
	}, nil
}

// SelectText returns the greeting text with the mention and suffix applied
func (s *ContentSelector) SelectText(settings *entities.WelcomeSettings, mention string) (string, error) {
	var fragment string
	switch {
	case settings.RandomizeText:
		if len(settings.MessagePool) == 0 {
			return "", fmt.Errorf("failed to pick greeting message: %w", entities.ErrEmptyPool)
		}
		fragment = settings.MessagePool[s.intn(len(settings.MessagePool))]
	case settings.SendText:
		fragment = settings.FixedMessage
	}
	return ComposeText(fragment, settings.MandatorySuffix, mention), nil
}

// SelectImage returns the key of the image to render, or "" when images are off
func (s *ContentSelector) SelectImage(settings *entities.WelcomeSettings, poolImageKeys []string) (string, error) {
	switch {
	case settings.RandomizeImage:
		if len(poolImageKeys) == 0 {
			return "", fmt.Errorf("failed to pick greeting image: %w", entities.ErrEmptyPool)
		}
		return poolImageKeys[s.intn(len(poolImageKeys))], nil
	case settings.SendImage:
		return entities.DefaultTemplateKey, nil
	default:
		return "", nil
	}
}

// ComposeText substitutes the mention into a fragment and appends the suffix
func ComposeText(fragment, suffix, mention string) string {
	text := strings.ReplaceAll(fragment, entities.UserPlaceholder, mention)
	switch {
	case text == "":
		return suffix
	case suffix == "":
		return text
	default:
		return text + ". " + suffix
	}
}
