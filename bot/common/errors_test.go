package common

import (
	"errors"
	"fmt"
	"testing"

	"welcomer/domain/entities"

	"github.com/stretchr/testify/assert"
)

func TestFromDomainError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		userError   bool
		wantMessage string
	}{
		{
			name:        "template missing",
			err:         fmt.Errorf("failed to toggle image: %w", entities.ErrTemplateMissing),
			userError:   true,
			wantMessage: "Set a default welcome image first with `/welcome-content set image`.",
		},
		{
			name:        "validation keeps detail",
			err:         fmt.Errorf("%w: position 4 is out of range", entities.ErrValidation),
			userError:   true,
			wantMessage: "Invalid input: position 4 is out of range",
		},
		{
			name:        "unknown error is a system error",
			err:         errors.New("connection refused"),
			userError:   false,
			wantMessage: genericErrorMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			botErr := FromDomainError(tt.err, "test")
			assert.Equal(t, tt.userError, botErr.IsUserError())
			assert.Equal(t, tt.wantMessage, botErr.UserMessage)
			assert.ErrorIs(t, botErr, tt.err)
		})
	}
}

func TestFromDomainError_KeepsBotError(t *testing.T) {
	original := NewUserError("Pick a channel", "no channel")
	assert.Same(t, original, FromDomainError(fmt.Errorf("wrapped: %w", original), "other"))
}
