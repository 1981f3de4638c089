package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ad/go-telegram-recipes/internal/config"
	"github.com/ad/go-telegram-recipes/internal/services"
	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"
)

type fakeTelegram struct {
	mu      sync.Mutex
	nextID  int
	sent    []*bot.SendMessageParams
	answers []*bot.AnswerCallbackQueryParams
}

func (f *fakeTelegram) SendMessage(_ context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sent = append(f.sent, params)
	return &tgmodels.Message{ID: f.nextID}, nil
}

func (f *fakeTelegram) SendPhoto(_ context.Context, params *bot.SendPhotoParams) (*tgmodels.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return &tgmodels.Message{ID: f.nextID}, nil
}

func (f *fakeTelegram) EditMessageText(_ context.Context, params *bot.EditMessageTextParams) (*tgmodels.Message, error) {
	return &tgmodels.Message{}, nil
}

func (f *fakeTelegram) AnswerCallbackQuery(_ context.Context, params *bot.AnswerCallbackQueryParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, params)
	return true, nil
}

func (f *fakeTelegram) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent), len(f.answers)
}

func testConfig(t *testing.T, mealdbURL string) *config.Config {
	t.Helper()
	env := map[string]string{
		"BOT_TOKEN":       "test-token",
		"DB_PATH":         filepath.Join(t.TempDir(), "recipes.db"),
		"MEALDB_BASE_URL": mealdbURL,
		"FETCH_TIMEOUT":   "2s",
	}
	cfg, err := config.LoadFrom(func(key string) string { return env[key] })
	require.NoError(t, err)
	return cfg
}

func TestOpenFavoritesStoreSQLite(t *testing.T) {
	cfg := testConfig(t, "http://unused")
	ctx := context.Background()

	store, closeStore, err := openFavoritesStore(ctx, cfg)
	require.NoError(t, err)
	defer closeStore()

	ledger := services.NewFavoritesLedger(store)
	added, err := ledger.Add(ctx, 7, "52977")
	require.NoError(t, err)
	require.True(t, added)

	ids, err := ledger.List(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, []string{"52977"}, ids)
}

func TestOpenFavoritesStoreDynamoRequiresTable(t *testing.T) {
	cfg := testConfig(t, "http://unused")
	cfg.FavoritesBackend = config.BackendDynamoDB
	cfg.DynamoDBTable = ""
	t.Setenv("AWS_REGION", "eu-west-1")

	_, _, err := openFavoritesStore(context.Background(), cfg)
	require.Error(t, err)
}

func TestBotHandlerIntegration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/categories.php" {
			_, _ = w.Write([]byte(`{"categories":[{"strCategory":"Beef"},{"strCategory":"Dessert"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"meals":null}`))
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	store, closeStore, err := openFavoritesStore(context.Background(), cfg)
	require.NoError(t, err)
	defer closeStore()

	api := &fakeTelegram{}
	handler := newBotHandler(api, cfg, store)
	ctx := context.Background()

	handler.HandleUpdate(ctx, nil, &tgmodels.Update{
		Message: &tgmodels.Message{ID: 1, Chat: tgmodels.Chat{ID: 42}, Text: "/categories"},
	})
	handler.HandleUpdate(ctx, nil, &tgmodels.Update{
		CallbackQuery: &tgmodels.CallbackQuery{
			ID:      "cb-1",
			From:    tgmodels.User{ID: 42},
			Message: tgmodels.MaybeInaccessibleMessage{Message: &tgmodels.Message{ID: 1, Chat: tgmodels.Chat{ID: 42}}},
			Data:    "save:52977",
		},
	})

	require.Eventually(t, func() bool {
		sent, answers := api.counts()
		return sent == 1 && answers == 1
	}, 5*time.Second, 10*time.Millisecond)

	api.mu.Lock()
	defer api.mu.Unlock()
	require.Contains(t, api.sent[0].Text, "Select a Category")
	kb, ok := api.sent[0].ReplyMarkup.(*tgmodels.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Equal(t, "select:category:Beef:0", kb.InlineKeyboard[0][0].CallbackData)
	require.Equal(t, "cb-1", api.answers[0].CallbackQueryID)
	require.Equal(t, "💾 Saved to favorites.", api.answers[0].Text)
}

func TestFormatUser(t *testing.T) {
	tests := []struct {
		user *tgmodels.User
		want string
	}{
		{nil, "unknown"},
		{&tgmodels.User{ID: 1, FirstName: "Ann"}, "Ann [1]"},
		{&tgmodels.User{ID: 2, FirstName: "Bo", LastName: "Li", Username: "boli"}, "Bo Li @boli [2]"},
	}
	for _, tt := range tests {
		if got := formatUser(tt.user); got != tt.want {
			t.Errorf("formatUser(%+v) = %q, want %q", tt.user, got, tt.want)
		}
	}
}

func TestLogMiddlewareCallsNext(t *testing.T) {
	called := false
	next := func(ctx context.Context, b *bot.Bot, update *tgmodels.Update) { called = true }

	logMiddleware(next)(context.Background(), nil, &tgmodels.Update{
		Message: &tgmodels.Message{Text: "hi"},
	})
	require.True(t, called)
}
