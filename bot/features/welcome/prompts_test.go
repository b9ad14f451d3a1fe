package welcome

import (
	"context"
	"sync"
	"testing"
	"time"

	"welcomer/domain/entities"
	"welcomer/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedAsker answers each question by delivering the next scripted reply
type scriptedAsker struct {
	mu        sync.Mutex
	manager   *PromptManager
	channelID string
	userID    string
	replies   []string
	questions []string
}

func (a *scriptedAsker) ask(question string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.questions = append(a.questions, question)
	if len(a.replies) == 0 {
		return nil
	}
	reply := a.replies[0]
	a.replies = a.replies[1:]
	go a.manager.Deliver(a.channelID, a.userID, reply)
	return nil
}

func TestPromptManager_CollectsPlacement(t *testing.T) {
	manager := NewPromptManager(time.Second)
	session, err := manager.Start("chan", "user", services.NewPlacementPrompt("party.png", false))
	require.NoError(t, err)

	asker := &scriptedAsker{manager: manager, channelID: "chan", userID: "user", replies: []string{"100", "50", "80"}}
	var echoed []string
	placement, err := manager.Run(context.Background(), session, asker.ask, func(step services.PromptState, answer string) {
		echoed = append(echoed, step.String()+"="+answer)
	})
	require.NoError(t, err)

	assert.Equal(t, entities.Placement{ImageKey: "party.png", X: 100, Y: 50, Radius: 80}, placement)
	assert.Len(t, asker.questions, 3)
	assert.Equal(t, []string{"awaiting_x=100", "awaiting_y=50", "awaiting_radius=80"}, echoed)
	assert.False(t, manager.Active("chan", "user"), "session is released after the prompt ends")
}

func TestPromptManager_RejectsSecondPromptForSameUserAndChannel(t *testing.T) {
	manager := NewPromptManager(time.Second)
	_, err := manager.Start("chan", "user", services.NewPlacementPrompt("a.png", false))
	require.NoError(t, err)

	_, err = manager.Start("chan", "user", services.NewPlacementPrompt("b.png", false))
	assert.ErrorIs(t, err, ErrPromptActive)

	_, err = manager.Start("other-chan", "user", services.NewPlacementPrompt("b.png", false))
	assert.NoError(t, err)
	_, err = manager.Start("chan", "other-user", services.NewPlacementPrompt("b.png", false))
	assert.NoError(t, err)
}

func TestPromptManager_Timeout(t *testing.T) {
	manager := NewPromptManager(20 * time.Millisecond)
	session, err := manager.Start("chan", "user", services.NewPlacementPrompt(entities.DefaultTemplateKey, true))
	require.NoError(t, err)

	asker := &scriptedAsker{manager: manager, channelID: "chan", userID: "user", replies: []string{"10"}}
	_, err = manager.Run(context.Background(), session, asker.ask, nil)

	assert.ErrorIs(t, err, entities.ErrPromptTimeout)
	assert.Contains(t, err.Error(), "awaiting_y")
	assert.False(t, manager.Active("chan", "user"))
}

func TestPromptManager_InvalidInputAborts(t *testing.T) {
	manager := NewPromptManager(time.Second)
	session, err := manager.Start("chan", "user", services.NewPlacementPrompt("a.png", false))
	require.NoError(t, err)

	asker := &scriptedAsker{manager: manager, channelID: "chan", userID: "user", replies: []string{"12", "-4"}}
	_, err = manager.Run(context.Background(), session, asker.ask, nil)

	assert.ErrorIs(t, err, entities.ErrValidation)
	assert.Len(t, asker.questions, 2, "no further questions after invalid input")
}

func TestPromptManager_SkipRadiusForDefaultTemplate(t *testing.T) {
	manager := NewPromptManager(time.Second)
	session, err := manager.Start("chan", "user", services.NewPlacementPrompt(entities.DefaultTemplateKey, true))
	require.NoError(t, err)

	asker := &scriptedAsker{manager: manager, channelID: "chan", userID: "user", replies: []string{"1", "2", "skip"}}
	placement, err := manager.Run(context.Background(), session, asker.ask, nil)
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultAvatarRadius, placement.Radius)
}

func TestPromptManager_ContextCancelled(t *testing.T) {
	manager := NewPromptManager(time.Minute)
	session, err := manager.Start("chan", "user", services.NewPlacementPrompt("a.png", false))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = manager.Run(ctx, session, func(string) error { return nil }, nil)
	assert.ErrorIs(t, err, entities.ErrPromptCancelled)
}

func TestPromptManager_DeliverWithoutPrompt(t *testing.T) {
	manager := NewPromptManager(time.Second)
	assert.False(t, manager.Deliver("chan", "user", "100"))
}
