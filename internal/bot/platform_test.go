package bot

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ghexplorer/internal/message"
)

// fakeAPI records chattables and fails with queued errors
type fakeAPI struct {
	sent   []tgbotapi.Chattable
	errs   []error
	nextID int
}

func (f *fakeAPI) pop() error {
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	if err := f.pop(); err != nil {
		return tgbotapi.Message{}, err
	}
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.sent = append(f.sent, c)
	if err := f.pop(); err != nil {
		return nil, err
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func badRequest(desc string) error {
	return &tgbotapi.Error{Code: 400, Message: "Bad Request: " + desc}
}

func TestPlatform_SendTextWithoutKeyboard(t *testing.T) {
	api := &fakeAPI{nextID: 10}
	p := NewPlatform(api, zap.NewNop())

	h, err := p.SendText(context.Background(), 5, "*hi*", nil)
	require.NoError(t, err)
	assert.Equal(t, message.Handle{ChatID: 5, MessageID: 11, Kind: message.KindText}, h)

	require.Len(t, api.sent, 1)
	cfg := api.sent[0].(tgbotapi.MessageConfig)
	assert.Nil(t, cfg.ReplyMarkup)
	assert.Equal(t, tgbotapi.ModeMarkdown, cfg.ParseMode)
	assert.True(t, cfg.DisableWebPagePreview)
}

func TestPlatform_SendPhotoWithKeyboard(t *testing.T) {
	api := &fakeAPI{}
	p := NewPlatform(api, zap.NewNop())
	kb := message.Keyboard{{{Label: "⬅️ Back", Action: "back"}}}

	h, err := p.SendPhoto(context.Background(), 5, "https://avatars.example/u/1?s=400", "caption", kb)
	require.NoError(t, err)
	assert.Equal(t, message.KindPhoto, h.Kind)

	cfg := api.sent[0].(tgbotapi.PhotoConfig)
	markup, ok := cfg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 1)
	assert.Equal(t, "back", *markup.InlineKeyboard[0][0].CallbackData)
}

func TestPlatform_MarkdownFallback(t *testing.T) {
	api := &fakeAPI{errs: []error{badRequest("can't parse entities: Can't find end of the entity")}}
	p := NewPlatform(api, zap.NewNop())

	err := p.EditText(context.Background(), message.Handle{ChatID: 1, MessageID: 2}, "*broken", nil)
	require.NoError(t, err)

	require.Len(t, api.sent, 2)
	assert.Equal(t, tgbotapi.ModeMarkdown, api.sent[0].(tgbotapi.EditMessageTextConfig).ParseMode)
	assert.Equal(t, "", api.sent[1].(tgbotapi.EditMessageTextConfig).ParseMode)
}

func TestPlatform_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		desc string
		want error
	}{
		{"message is not modified: specified new message content and reply markup are exactly the same", message.ErrNotModified},
		{"message to edit not found", message.ErrMessageGone},
		{"message can't be edited", message.ErrMessageGone},
		{"message to delete not found", message.ErrMessageGone},
		{"message is too long", message.ErrTooLong},
		{"chat not found", nil},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			api := &fakeAPI{errs: []error{badRequest(tt.desc)}}
			p := NewPlatform(api, zap.NewNop())

			err := p.EditCaption(context.Background(), message.Handle{ChatID: 1, MessageID: 2, Kind: message.KindPhoto}, "c", nil)
			require.Error(t, err)

			var pe *message.PlatformError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, "edit_caption", pe.Op)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
			for _, sentinel := range []error{message.ErrNotModified, message.ErrMessageGone, message.ErrTooLong} {
				if sentinel != tt.want {
					assert.NotErrorIs(t, err, sentinel)
				}
			}
		})
	}
}

func TestPlatform_CanceledContext(t *testing.T) {
	api := &fakeAPI{}
	p := NewPlatform(api, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Delete(ctx, message.Handle{ChatID: 1, MessageID: 2})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = p.SendText(ctx, 1, "x", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, api.sent)
}

func TestInlineMarkup(t *testing.T) {
	assert.Nil(t, inlineMarkup(nil))

	// An empty keyboard clears the buttons instead of leaving them untouched
	mk := inlineMarkup(message.Keyboard{})
	require.NotNil(t, mk)
	assert.NotNil(t, mk.InlineKeyboard)
	assert.Empty(t, mk.InlineKeyboard)
}
