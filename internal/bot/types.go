package bot

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"ghexplorer/internal/message"
	"ghexplorer/internal/storage"
	"ghexplorer/internal/view"
)

// Views runs actions against chat messages
type Views interface {
	// Open sends placeholder as a new message and runs a on it
	Open(ctx context.Context, conversationID, chatID int64, placeholder string, a view.Action) error
	// Attach wraps an existing message
	Attach(conversationID int64, h message.Handle, text string, kb message.Keyboard) *message.State
	// HandleToken runs the action encoded in a callback token
	HandleToken(ctx context.Context, conversationID int64, state *message.State, token string) error
}

// Bot represents the Telegram bot wrapper
type Bot struct {
	api          *tgbotapi.BotAPI
	platform     message.Platform
	views        Views
	db           storage.Storage
	allowedUsers map[int64]bool
	states       map[int64]*ConversationState
	statesMu     sync.RWMutex
	inflight     sync.WaitGroup
	logger       *zap.Logger
}

// ConversationState tracks a command waiting for free-text input
type ConversationState struct {
	Command string
	Step    int
	Data    map[string]interface{}
}
