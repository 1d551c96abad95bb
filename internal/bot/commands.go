package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"ghexplorer/internal/format"
	"ghexplorer/internal/view"
)

const (
	placeholder      = "⏳ Loading..."
	askUsername      = "👤 Send me a GitHub username, e.g. octocat"
	askRepository    = "📦 Send me a repository as owner/repo or a github.com link"
	badUsername      = "❌ That does not look like a GitHub username. Try again or send /help"
	badRepository    = "❌ That does not look like a repository. Use owner/repo, e.g. golang/go"
	badTrending      = "❌ Usage: /trending [language] [daily|weekly|monthly]"
	unrecognizedText = "🤔 I did not get that. Send @username, owner/repo or a GitHub link, or use /help"
)

// open runs a on a fresh message in the chat
func (b *Bot) open(ctx context.Context, chatID int64, text string, a view.Action) {
	if err := b.views.Open(ctx, chatID, chatID, text, a); err != nil {
		b.logger.Error("Failed to open view",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
			zap.String("action", a.Name()),
		)
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	b.open(ctx, msg.Chat.ID, placeholder, view.ShowHome{})
}

func (b *Bot) handleHelp(ctx context.Context, msg *tgbotapi.Message) {
	b.open(ctx, msg.Chat.ID, placeholder, view.ShowHelp{})
}

func (b *Bot) handlePopular(ctx context.Context, msg *tgbotapi.Message) {
	b.open(ctx, msg.Chat.ID, placeholder, view.ShowPopular{})
}

// handleProfile opens a profile, or asks for a username when none was given
func (b *Bot) handleProfile(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		b.startConversation(msg.From.ID, "profile")
		b.reply(ctx, msg.Chat.ID, askUsername)
		return
	}

	a, ok := profileAction(args[0])
	if !ok {
		b.reply(ctx, msg.Chat.ID, badUsername)
		return
	}
	b.openProfile(ctx, msg.Chat.ID, a)
}

// handleRepo opens a repository, or asks for one when none was given
func (b *Bot) handleRepo(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		b.startConversation(msg.From.ID, "repo")
		b.reply(ctx, msg.Chat.ID, askRepository)
		return
	}

	a, ok := repoAction(args[0])
	if !ok {
		b.reply(ctx, msg.Chat.ID, badRepository)
		return
	}
	b.openRepository(ctx, msg.Chat.ID, a)
}

func (b *Bot) handleTrending(ctx context.Context, msg *tgbotapi.Message) {
	a, ok := parseTrending(strings.Fields(msg.CommandArguments()))
	if !ok {
		b.reply(ctx, msg.Chat.ID, badTrending)
		return
	}
	b.open(ctx, msg.Chat.ID, placeholder, a)
}

// handleText treats plain messages as lookups
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	a, ok := parseInput(msg.Text)
	if !ok {
		b.reply(ctx, msg.Chat.ID, unrecognizedText)
		return
	}
	switch a := a.(type) {
	case view.ShowProfile:
		b.openProfile(ctx, msg.Chat.ID, a)
	default:
		b.openRepository(ctx, msg.Chat.ID, a)
	}
}

func (b *Bot) openProfile(ctx context.Context, chatID int64, a view.Action) {
	name := a.(view.ShowProfile).Username
	b.open(ctx, chatID, fmt.Sprintf("🔍 Looking up %s\n%s", format.EscapeMarkdown(name), placeholder), a)
}

func (b *Bot) openRepository(ctx context.Context, chatID int64, a view.Action) {
	name := a.(view.ShowRepository).FullName
	b.open(ctx, chatID, fmt.Sprintf("🔍 Looking up %s\n%s", format.EscapeMarkdown(name), placeholder), a)
}
