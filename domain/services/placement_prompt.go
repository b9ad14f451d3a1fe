package services

import (
	"fmt"
	"strconv"
	"strings"

	"welcomer/domain/entities"
)

// PromptState is a step of the placement prompt
type PromptState int

const (
	PromptAwaitingX PromptState = iota
	PromptAwaitingY
	PromptAwaitingRadius
	PromptCommitting
	PromptAborted
)

func (s PromptState) String() string {
	switch s {
	case PromptAwaitingX:
		return "awaiting_x"
	case PromptAwaitingY:
		return "awaiting_y"
	case PromptAwaitingRadius:
		return "awaiting_radius"
	case PromptCommitting:
		return "committing"
	case PromptAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

const (
	promptSkipKeyword   = "skip"
	promptCancelKeyword = "cancel"
)

// PlacementPrompt collects the avatar placement for an image one answer at a time.
// It is not safe for concurrent use; the prompt manager serialises access.
type PlacementPrompt struct {
	imageKey        string
	allowSkipRadius bool

	state  PromptState
	x, y   int
	radius int
	err    error
}

// NewPlacementPrompt starts a prompt for the given image key.
// With allowSkipRadius the radius answer may be "skip" to keep DefaultAvatarRadius.
func NewPlacementPrompt(imageKey string, allowSkipRadius bool) *PlacementPrompt {
	return &PlacementPrompt{
		imageKey:        imageKey,
		allowSkipRadius: allowSkipRadius,
		state:           PromptAwaitingX,
		radius:          entities.DefaultAvatarRadius,
	}
}

// State returns the current step
func (p *PlacementPrompt) State() PromptState {
	return p.state
}

// Err returns why the prompt was aborted, or nil
func (p *PlacementPrompt) Err() error {
	return p.err
}

// Done reports whether no more answers are expected
func (p *PlacementPrompt) Done() bool {
	return p.state == PromptCommitting || p.state == PromptAborted
}

// Question returns the text to show for the current step
func (p *PlacementPrompt) Question() string {
	switch p.state {
	case PromptAwaitingX:
		return "What is the X coordinate of the avatar's top left corner? Reply with a whole number, or `cancel`."
	case PromptAwaitingY:
		return "What is the Y coordinate of the avatar's top left corner?"
	case PromptAwaitingRadius:
		if p.allowSkipRadius {
			return fmt.Sprintf("How large should the avatar be, in pixels? Reply `skip` to keep %d.", entities.DefaultAvatarRadius)
		}
		return "How large should the avatar be, in pixels?"
	default:
		return ""
	}
}

// Feed applies one answer and returns the new state.
// Invalid input aborts the prompt with ErrValidation.
func (p *PlacementPrompt) Feed(input string) (PromptState, error) {
	if p.Done() {
		return p.state, p.err
	}

	input = strings.TrimSpace(input)
	if strings.EqualFold(input, promptCancelKeyword) {
		return p.abort(entities.ErrPromptCancelled)
	}

	if p.state == PromptAwaitingRadius && p.allowSkipRadius && strings.EqualFold(input, promptSkipKeyword) {
		p.state = PromptCommitting
		return p.state, nil
	}

	value, err := strconv.Atoi(input)
	if err != nil {
		return p.abort(fmt.Errorf("%w: %q is not a whole number", entities.ErrValidation, input))
	}
	if value < 0 {
		return p.abort(fmt.Errorf("%w: %d must not be negative", entities.ErrValidation, value))
	}

	switch p.state {
	case PromptAwaitingX:
		p.x = value
		p.state = PromptAwaitingY
	case PromptAwaitingY:
		p.y = value
		p.state = PromptAwaitingRadius
	case PromptAwaitingRadius:
		if value > entities.MaxAvatarRadius {
			return p.abort(fmt.Errorf("%w: avatar size %d is larger than the template (max %d)", entities.ErrValidation, value, entities.MaxAvatarRadius))
		}
		p.radius = value
		p.state = PromptCommitting
	}
	return p.state, nil
}

// Timeout aborts the prompt because the current step's wait expired
func (p *PlacementPrompt) Timeout() error {
	if p.Done() {
		return p.err
	}
	_, err := p.abort(fmt.Errorf("%w while %s", entities.ErrPromptTimeout, p.state))
	return err
}

// Cancel aborts the prompt at the user's (or shutdown's) request
func (p *PlacementPrompt) Cancel() error {
	if p.Done() {
		return p.err
	}
	_, err := p.abort(entities.ErrPromptCancelled)
	return err
}

// Placement returns the collected values once the prompt reached Committing
func (p *PlacementPrompt) Placement() (entities.Placement, error) {
	if p.state != PromptCommitting {
		if p.err != nil {
			return entities.Placement{}, p.err
		}
		return entities.Placement{}, fmt.Errorf("%w: prompt is still %s", entities.ErrValidation, p.state)
	}
	return entities.Placement{
		ImageKey: p.imageKey,
		X:        p.x,
		Y:        p.y,
		Radius:   p.radius,
	}, nil
}

func (p *PlacementPrompt) abort(err error) (PromptState, error) {
	p.state = PromptAborted
	p.err = err
	return p.state, err
}
