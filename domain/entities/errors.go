package entities

import "errors"

var (
	// ErrEmptyPool is returned when a randomiser has nothing to pick from
	ErrEmptyPool = errors.New("content pool is empty")

	// ErrDecode is returned for avatar or template bytes that are not an image
	ErrDecode = errors.New("image could not be decoded")

	// ErrMissingPlacement is returned when an image key has no placement
	ErrMissingPlacement = errors.New("no placement configured for image")

	// ErrPromptTimeout is returned when an interactive prompt step expires
	ErrPromptTimeout = errors.New("prompt timed out")

	// ErrValidation is returned for malformed admin input
	ErrValidation = errors.New("invalid input")

	ErrTemplateMissing = errors.New("default template has not been set")
	ErrImageExists     = errors.New("image name already in use")
	ErrImageNotFound   = errors.New("image not found")
	ErrNoAvatar        = errors.New("user has no avatar")
	ErrPromptCancelled = errors.New("prompt cancelled")
)
