package welcome

import (
	"context"
	"errors"
	"sync"
	"time"

	"welcomer/domain/entities"
	"welcomer/domain/services"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// ErrPromptActive is returned when the user already has a prompt open in the channel
var ErrPromptActive = errors.New("a placement prompt is already running for this user in this channel")

type promptKey struct {
	channelID string
	userID    string
}

// PromptSession is one running placement prompt
type PromptSession struct {
	ID      string
	key     promptKey
	prompt  *services.PlacementPrompt
	answers chan string
}

// PromptManager routes channel replies to running placement prompts.
// At most one prompt runs per (channel, user).
type PromptManager struct {
	mu       sync.Mutex
	sessions map[promptKey]*PromptSession
	timeout  time.Duration
}

// NewPromptManager creates a manager whose prompts wait timeout per step
func NewPromptManager(timeout time.Duration) *PromptManager {
	return &PromptManager{
		sessions: make(map[promptKey]*PromptSession),
		timeout:  timeout,
	}
}

// Start registers a prompt for the user in the channel
func (m *PromptManager) Start(channelID, userID string, prompt *services.PlacementPrompt) (*PromptSession, error) {
	key := promptKey{channelID: channelID, userID: userID}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[key]; exists {
		return nil, ErrPromptActive
	}
	session := &PromptSession{
		ID:      uuid.New().String(),
		key:     key,
		prompt:  prompt,
		answers: make(chan string, 1),
	}
	m.sessions[key] = session
	return session, nil
}

// Deliver hands a message to the prompt waiting on this user and channel.
// Returns false when no prompt is waiting.
func (m *PromptManager) Deliver(channelID, userID, content string) bool {
	m.mu.Lock()
	session, ok := m.sessions[promptKey{channelID: channelID, userID: userID}]
	m.mu.Unlock()
	if !ok {
		return false
	}

	select {
	case session.answers <- content:
		return true
	default:
		// an answer is already queued for this step
		return false
	}
}

// Active reports whether a prompt is running for the user in the channel
func (m *PromptManager) Active(channelID, userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[promptKey{channelID: channelID, userID: userID}]
	return ok
}

// Run drives the prompt until it commits or aborts. ask is called with each
// question, echo with each accepted value. The session is released on return.
func (m *PromptManager) Run(ctx context.Context, session *PromptSession, ask func(question string) error, echo func(state services.PromptState, answer string)) (entities.Placement, error) {
	defer m.release(session)

	logger := log.WithFields(log.Fields{
		"session_id": session.ID,
		"channel_id": session.key.channelID,
		"user_id":    session.key.userID,
	})

	for !session.prompt.Done() {
		if err := ask(session.prompt.Question()); err != nil {
			session.prompt.Cancel()
			return entities.Placement{}, err
		}

		timer := time.NewTimer(m.timeout)
		select {
		case answer := <-session.answers:
			timer.Stop()
			step := session.prompt.State()
			if _, err := session.prompt.Feed(answer); err != nil {
				logger.WithError(err).Info("Placement prompt aborted")
				return entities.Placement{}, err
			}
			if echo != nil {
				echo(step, answer)
			}
		case <-timer.C:
			err := session.prompt.Timeout()
			logger.WithError(err).Info("Placement prompt timed out")
			return entities.Placement{}, err
		case <-ctx.Done():
			timer.Stop()
			return entities.Placement{}, session.prompt.Cancel()
		}
	}

	return session.prompt.Placement()
}

func (m *PromptManager) release(session *PromptSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.sessions[session.key]; ok && current == session {
		delete(m.sessions, session.key)
	}
}
