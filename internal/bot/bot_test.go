package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ghexplorer/internal/message"
	"ghexplorer/internal/message/messagetest"
	"ghexplorer/internal/models"
	"ghexplorer/internal/storage/stubs"
	"ghexplorer/internal/view"
)

// fakeViews records what the bot asks the view layer to do
type fakeViews struct {
	mu           sync.Mutex
	opened       []view.Action
	placeholders []string
	attached     []message.Handle
	texts        []string
	tokens       []string
}

func (f *fakeViews) Open(ctx context.Context, conversationID, chatID int64, placeholder string, a view.Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, a)
	f.placeholders = append(f.placeholders, placeholder)
	return nil
}

func (f *fakeViews) Attach(conversationID int64, h message.Handle, text string, kb message.Keyboard) *message.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attached = append(f.attached, h)
	f.texts = append(f.texts, text)
	return message.NewState(messagetest.New(), h, text, kb)
}

func (f *fakeViews) HandleToken(ctx context.Context, conversationID int64, state *message.State, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, token)
	return nil
}

func newTestBot(allowed ...int64) (*Bot, *fakeViews, *messagetest.Platform) {
	views := &fakeViews{}
	platform := messagetest.New()
	return NewBot(nil, platform, views, stubs.NewMockDB(), allowed, zap.NewNop()), views, platform
}

const (
	userID = int64(123)
	chatID = int64(456)
)

func textMessage(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
	}
}

func commandMessage(command, args string) *tgbotapi.Message {
	text := command
	if args != "" {
		text += " " + args
	}
	msg := textMessage(text)
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(command)}}
	return msg
}

func TestBot_ProfileConversation(t *testing.T) {
	b, views, platform := newTestBot()
	ctx := context.Background()

	b.handleMessage(ctx, commandMessage("/profile", ""))

	state, ok := b.conversation(userID)
	if !ok {
		t.Fatal("Expected conversation state to be created")
	}
	if state.Command != "profile" {
		t.Errorf("Expected command 'profile', got '%s'", state.Command)
	}
	sent := platform.CallsOf(messagetest.OpSendText)
	require.Len(t, sent, 1)
	assert.Equal(t, askUsername, sent[0].Body)

	// Invalid input keeps the conversation open
	b.handleMessage(ctx, textMessage("-not-a-user-"))
	if _, ok := b.conversation(userID); !ok {
		t.Fatal("Expected conversation to survive invalid input")
	}
	assert.Empty(t, views.opened)

	b.handleMessage(ctx, textMessage("@octocat"))
	if _, ok := b.conversation(userID); ok {
		t.Error("Expected conversation to be finished")
	}
	require.Len(t, views.opened, 1)
	assert.Equal(t, view.ShowProfile{Username: "octocat"}, views.opened[0])
	assert.Contains(t, views.placeholders[0], "octocat")
}

func TestBot_RepoConversation(t *testing.T) {
	b, views, _ := newTestBot()
	ctx := context.Background()

	b.handleMessage(ctx, commandMessage("/repo", ""))
	b.handleMessage(ctx, textMessage("https://github.com/Golang/Go.git"))

	require.Len(t, views.opened, 1)
	assert.Equal(t, view.ShowRepository{FullName: "golang/go"}, views.opened[0])
}

func TestBot_CommandInterruptsConversation(t *testing.T) {
	b, views, _ := newTestBot()
	ctx := context.Background()

	b.handleMessage(ctx, commandMessage("/repo", ""))
	b.handleMessage(ctx, commandMessage("/popular", ""))

	if _, ok := b.conversation(userID); ok {
		t.Error("Expected command to cancel the conversation")
	}
	require.Len(t, views.opened, 1)
	assert.Equal(t, view.ShowPopular{}, views.opened[0])
}

func TestBot_Commands(t *testing.T) {
	tests := []struct {
		command, args string
		want          view.Action
	}{
		{"/start", "", view.ShowHome{}},
		{"/help", "", view.ShowHelp{}},
		{"/popular", "", view.ShowPopular{}},
		{"/profile", "torvalds", view.ShowProfile{Username: "torvalds"}},
		{"/repo", "rust-lang/rust", view.ShowRepository{FullName: "rust-lang/rust"}},
		{"/trending", "", view.ShowTrending{}},
		{"/trending", "Go daily", view.ShowTrending{Language: "go", Range: view.RangeDaily}},
		{"/trending", "c++", view.ShowTrending{Language: "cpp", Range: view.RangeWeekly}},
		{"/trending", "monthly", view.ShowTrending{Language: "all", Range: view.RangeMonthly}},
	}
	for _, tt := range tests {
		t.Run(tt.command+" "+tt.args, func(t *testing.T) {
			b, views, _ := newTestBot()
			b.handleMessage(context.Background(), commandMessage(tt.command, tt.args))
			require.Len(t, views.opened, 1)
			assert.Equal(t, tt.want, views.opened[0])
		})
	}
}

func TestBot_InvalidCommandArguments(t *testing.T) {
	tests := map[string]string{
		"/profile":  "-bad-",
		"/repo":     "notarepo",
		"/trending": "go yearly",
	}
	for command, args := range tests {
		b, views, platform := newTestBot()
		b.handleMessage(context.Background(), commandMessage(command, args))
		assert.Empty(t, views.opened, command)
		assert.Len(t, platform.CallsOf(messagetest.OpSendText), 1, command)
	}
}

func TestBot_UnknownCommand(t *testing.T) {
	b, views, platform := newTestBot()
	b.handleMessage(context.Background(), commandMessage("/read", ""))

	assert.Empty(t, views.opened)
	sent := platform.CallsOf(messagetest.OpSendText)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Body, "Unknown command")
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		in   string
		want view.Action
		ok   bool
	}{
		{"@octocat", view.ShowProfile{Username: "octocat"}, true},
		{"octocat", view.ShowProfile{Username: "octocat"}, true},
		{"https://github.com/octocat", view.ShowProfile{Username: "octocat"}, true},
		{"github.com/golang/go", view.ShowRepository{FullName: "golang/go"}, true},
		{"Golang/Go", view.ShowRepository{FullName: "golang/go"}, true},
		{"hi", nil, false},
		{"hello there", nil, false},
		{"@-bad", nil, false},
		{"", nil, false},
	}
	for _, tt := range tests {
		got, ok := parseInput(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestBot_UnauthorizedUser(t *testing.T) {
	b, views, platform := newTestBot(999)
	b.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage("/start", "")})

	assert.Empty(t, views.opened)
	sent := platform.CallsOf(messagetest.OpSendText)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Body, "not authorized")
}

func TestBot_CallbackQuery(t *testing.T) {
	b, views, platform := newTestBot(userID)
	data := "user_repos_octocat_page_2"
	query := &tgbotapi.CallbackQuery{
		ID:   "cb-1",
		From: &tgbotapi.User{ID: userID},
		Data: data,
		Message: &tgbotapi.Message{
			MessageID: 77,
			Chat:      &tgbotapi.Chat{ID: chatID},
			Caption:   "octocat avatar",
			Photo:     []tgbotapi.PhotoSize{{FileID: "p"}},
			ReplyMarkup: &tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{
				{tgbotapi.NewInlineKeyboardButtonData("⬅️ Back to Profile", "back")},
			}},
		},
	}

	b.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: query})

	assert.Len(t, platform.CallsOf(messagetest.OpAnswer), 1)
	require.Len(t, views.attached, 1)
	assert.Equal(t, message.Handle{ChatID: chatID, MessageID: 77, Kind: message.KindPhoto}, views.attached[0])
	assert.Equal(t, "octocat avatar", views.texts[0])
	assert.Equal(t, []string{data}, views.tokens)
}

func TestBot_DispatchAndWait(t *testing.T) {
	b, views, _ := newTestBot()
	for i := 0; i < 5; i++ {
		b.Dispatch(context.Background(), tgbotapi.Update{Message: commandMessage("/help", "")})
	}
	b.Wait()

	views.mu.Lock()
	defer views.mu.Unlock()
	assert.Len(t, views.opened, 5)
}

func TestKeyboardFrom(t *testing.T) {
	assert.Nil(t, keyboardFrom(nil))

	markup := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Next ➡️", "readme_page_2"),
		tgbotapi.NewInlineKeyboardButtonURL("GitHub", "https://github.com"),
	))
	kb := keyboardFrom(&markup)
	require.Len(t, kb, 1)
	assert.Equal(t, message.Button{Label: "Next ➡️", Action: "readme_page_2"}, kb[0][0])
	assert.Equal(t, "", kb[0][1].Action)
}

func TestHTTPServer_Popular(t *testing.T) {
	b, _, _ := newTestBot()
	ctx := context.Background()
	for _, entity := range []string{"golang/go", "golang/go", "rust-lang/rust"} {
		require.NoError(t, b.db.RecordInteraction(ctx, models.Interaction{
			Kind: models.EntityRepository, Entity: entity, Outcome: models.OutcomeOK, CreatedAt: time.Now(),
		}))
	}

	mux := http.NewServeMux()
	NewHTTPServer(b, "secret", true).RegisterRoutes(mux)

	t.Run("requires token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/popular", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects wrong token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/popular", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("lists entities", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/popular?limit=1", nil)
		req.Header.Set("Authorization", "Bearer secret")
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp PopularResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Len(t, resp.Repositories, 1)
		assert.Equal(t, "golang/go", resp.Repositories[0].Entity)
		assert.Equal(t, 2, resp.Repositories[0].Views)
		assert.Empty(t, resp.Profiles)
	})

	t.Run("validates limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/popular?limit=0", nil)
		req.Header.Set("Authorization", "Bearer secret")
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("stats", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
		req.Header.Set("Authorization", "Bearer secret")
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]int
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, 3, resp["interactions_7d"])
	})
}

func TestHTTPServer_NoTokenInWebhookMode(t *testing.T) {
	b, _, _ := newTestBot()
	mux := http.NewServeMux()
	NewHTTPServer(b, "", true).RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/popular", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
