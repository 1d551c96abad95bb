package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"ghexplorer/internal/message"
)

// API is the part of *tgbotapi.BotAPI the platform adapter uses
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Platform implements message.Platform on the Telegram Bot API. Bodies are
// sent as legacy Markdown; a body Telegram cannot parse is resent as plain
// text.
type Platform struct {
	api    API
	logger *zap.Logger
}

// NewPlatform wraps api
func NewPlatform(api API, logger *zap.Logger) *Platform {
	return &Platform{api: api, logger: logger}
}

func (p *Platform) EditText(ctx context.Context, h message.Handle, body string, kb message.Keyboard) error {
	return p.withMarkdown(ctx, "edit_text", func(parseMode string) error {
		cfg := tgbotapi.NewEditMessageText(h.ChatID, h.MessageID, body)
		cfg.ParseMode = parseMode
		cfg.DisableWebPagePreview = true
		cfg.ReplyMarkup = inlineMarkup(kb)
		_, err := p.api.Request(cfg)
		return err
	})
}

func (p *Platform) EditCaption(ctx context.Context, h message.Handle, caption string, kb message.Keyboard) error {
	return p.withMarkdown(ctx, "edit_caption", func(parseMode string) error {
		cfg := tgbotapi.NewEditMessageCaption(h.ChatID, h.MessageID, caption)
		cfg.ParseMode = parseMode
		cfg.ReplyMarkup = inlineMarkup(kb)
		_, err := p.api.Request(cfg)
		return err
	})
}

func (p *Platform) SendText(ctx context.Context, chatID int64, body string, kb message.Keyboard) (message.Handle, error) {
	h := message.Handle{ChatID: chatID, Kind: message.KindText}
	err := p.withMarkdown(ctx, "send_text", func(parseMode string) error {
		cfg := tgbotapi.NewMessage(chatID, body)
		cfg.ParseMode = parseMode
		cfg.DisableWebPagePreview = true
		if mk := inlineMarkup(kb); mk != nil {
			cfg.ReplyMarkup = *mk
		}
		sent, err := p.api.Send(cfg)
		h.MessageID = sent.MessageID
		return err
	})
	return h, err
}

func (p *Platform) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, kb message.Keyboard) (message.Handle, error) {
	h := message.Handle{ChatID: chatID, Kind: message.KindPhoto}
	err := p.withMarkdown(ctx, "send_photo", func(parseMode string) error {
		cfg := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(photoURL))
		cfg.Caption = caption
		cfg.ParseMode = parseMode
		if mk := inlineMarkup(kb); mk != nil {
			cfg.ReplyMarkup = *mk
		}
		sent, err := p.api.Send(cfg)
		h.MessageID = sent.MessageID
		return err
	})
	return h, err
}

func (p *Platform) Delete(ctx context.Context, h message.Handle) error {
	if err := ctx.Err(); err != nil {
		return &message.PlatformError{Op: "delete", Err: err}
	}
	_, err := p.api.Request(tgbotapi.NewDeleteMessage(h.ChatID, h.MessageID))
	return classify("delete", err)
}

func (p *Platform) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return &message.PlatformError{Op: "answer_callback", Err: err}
	}
	_, err := p.api.Request(tgbotapi.NewCallback(callbackID, text))
	return classify("answer_callback", err)
}

// withMarkdown runs send with Markdown and retries once without a parse
// mode when Telegram rejects the entities
func (p *Platform) withMarkdown(ctx context.Context, op string, send func(parseMode string) error) error {
	if err := ctx.Err(); err != nil {
		return &message.PlatformError{Op: op, Err: err}
	}
	err := send(tgbotapi.ModeMarkdown)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "can't parse entities") {
		p.logger.Warn("Markdown rejected, sending plain text", zap.String("op", op), zap.Error(err))
		err = send("")
	}
	return classify(op, err)
}

// classify maps Telegram's error descriptions onto the message sentinels
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	desc := strings.ToLower(err.Error())
	var kind error
	switch {
	case strings.Contains(desc, "message is not modified"):
		kind = message.ErrNotModified
	case strings.Contains(desc, "message to edit not found"),
		strings.Contains(desc, "message can't be edited"),
		strings.Contains(desc, "message to delete not found"),
		strings.Contains(desc, "message can't be deleted"):
		kind = message.ErrMessageGone
	case strings.Contains(desc, "too long"):
		kind = message.ErrTooLong
	}
	if kind == nil {
		return &message.PlatformError{Op: op, Err: err}
	}
	return &message.PlatformError{Op: op, Err: fmt.Errorf("%w: %v", kind, err)}
}

func inlineMarkup(kb message.Keyboard) *tgbotapi.InlineKeyboardMarkup {
	if kb == nil {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Action))
		}
		rows = append(rows, buttons)
	}
	return &tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}
