package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) conversation(userID int64) (*ConversationState, bool) {
	b.statesMu.RLock()
	defer b.statesMu.RUnlock()
	state, ok := b.states[userID]
	return state, ok
}

func (b *Bot) startConversation(userID int64, command string) {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	b.states[userID] = &ConversationState{
		Command: command,
		Step:    1,
		Data:    make(map[string]interface{}),
	}
}

func (b *Bot) endConversation(userID int64) {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	delete(b.states, userID)
}

// handleConversation consumes the input a command asked for. Invalid input
// keeps the conversation open.
func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message, state *ConversationState) {
	userID := msg.From.ID

	switch state.Command {
	case "profile":
		a, ok := profileAction(msg.Text)
		if !ok {
			b.reply(ctx, msg.Chat.ID, badUsername)
			return
		}
		state.Step = -1
		b.endConversation(userID)
		b.openProfile(ctx, msg.Chat.ID, a)
	case "repo":
		a, ok := repoAction(msg.Text)
		if !ok {
			b.reply(ctx, msg.Chat.ID, badRepository)
			return
		}
		state.Step = -1
		b.endConversation(userID)
		b.openRepository(ctx, msg.Chat.ID, a)
	default:
		b.endConversation(userID)
	}
}
