package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"ghexplorer/internal/message"
	"ghexplorer/internal/storage"
)

// NewBotAPI connects to Telegram with token
func NewBotAPI(token string, logger *zap.Logger) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Error("Failed to create bot API", zap.Error(err))
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	logger.Info("Bot created", zap.String("bot_username", api.Self.UserName))
	return api, nil
}

// NewBot creates the update handler. An empty allowedUserIDs lets everyone in.
func NewBot(api *tgbotapi.BotAPI, platform message.Platform, views Views, db storage.Storage, allowedUserIDs []int64, logger *zap.Logger) *Bot {
	allowedUsers := make(map[int64]bool)
	for _, id := range allowedUserIDs {
		allowedUsers[id] = true
	}

	return &Bot{
		api:          api,
		platform:     platform,
		views:        views,
		db:           db,
		allowedUsers: allowedUsers,
		states:       make(map[int64]*ConversationState),
		logger:       logger,
	}
}

// GetAPI returns the bot API
func (b *Bot) GetAPI() *tgbotapi.BotAPI {
	return b.api
}
