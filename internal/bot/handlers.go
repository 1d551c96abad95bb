package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"ghexplorer/internal/message"
)

// handleMessage processes a single message
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	// Recover from panics to prevent bot crashes
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleMessage", zap.Any("panic", r))
			b.reply(ctx, msg.Chat.ID, "An error occurred while processing your request. Please try again.")
		}
	}()

	userID := msg.From.ID

	if state, ok := b.conversation(userID); ok {
		// Any command interrupts an ongoing conversation
		if msg.IsCommand() {
			b.endConversation(userID)
		} else {
			b.handleConversation(ctx, msg, state)
			return
		}
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.handleStart(ctx, msg)
		case "help":
			b.handleHelp(ctx, msg)
		case "profile":
			b.handleProfile(ctx, msg)
		case "repo":
			b.handleRepo(ctx, msg)
		case "trending":
			b.handleTrending(ctx, msg)
		case "popular":
			b.handlePopular(ctx, msg)
		default:
			b.reply(ctx, msg.Chat.ID, "Unknown command. Use /help to see available commands.")
		}
		return
	}

	b.handleText(ctx, msg)
}

// handleCallbackQuery processes inline keyboard button clicks
func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleCallbackQuery", zap.Any("panic", r))
		}
	}()

	// Answer the callback query to remove loading state
	if err := b.platform.AnswerCallback(ctx, query.ID, ""); err != nil {
		b.logger.Debug("Failed to answer callback", zap.Error(err))
	}

	msg := query.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	h := message.Handle{ChatID: msg.Chat.ID, MessageID: msg.MessageID, Kind: message.KindText}
	text := msg.Text
	if len(msg.Photo) > 0 {
		h.Kind = message.KindPhoto
		text = msg.Caption
	}

	state := b.views.Attach(msg.Chat.ID, h, text, keyboardFrom(msg.ReplyMarkup))
	if err := b.views.HandleToken(ctx, msg.Chat.ID, state, query.Data); err != nil {
		b.logger.Error("Failed to handle callback",
			zap.Error(err),
			zap.Int64("chat_id", msg.Chat.ID),
			zap.String("callback_data", query.Data),
		)
	}
}

// reply sends a plain informational message
func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if _, err := b.platform.SendText(ctx, chatID, text, nil); err != nil {
		b.logger.Error("Failed to send message", zap.Error(err), zap.Int64("chat_id", chatID))
	}
}

func keyboardFrom(markup *tgbotapi.InlineKeyboardMarkup) message.Keyboard {
	if markup == nil {
		return nil
	}
	kb := make(message.Keyboard, 0, len(markup.InlineKeyboard))
	for _, row := range markup.InlineKeyboard {
		out := make([]message.Button, 0, len(row))
		for _, btn := range row {
			data := ""
			if btn.CallbackData != nil {
				data = *btn.CallbackData
			}
			out = append(out, message.Button{Label: btn.Text, Action: data})
		}
		kb = append(kb, out)
	}
	return kb
}
