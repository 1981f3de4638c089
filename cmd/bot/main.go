package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ad/go-telegram-recipes/internal/config"
	"github.com/ad/go-telegram-recipes/internal/db"
	"github.com/ad/go-telegram-recipes/internal/handlers"
	"github.com/ad/go-telegram-recipes/internal/mealdb"
	"github.com/ad/go-telegram-recipes/internal/services"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	_ "github.com/joho/godotenv/autoload"
	"gopkg.in/natefinch/lumberjack.v2"
	_ "modernc.org/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.LogFile != "" {
		logFile := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		}
		defer logFile.Close()
		log.SetOutput(io.MultiWriter(os.Stderr, logFile))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := openFavoritesStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open favorites store: %v", err)
	}
	defer closeStore()

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	b, err := bot.New(cfg.BotToken, bot.WithHTTPClient(15*time.Second, httpClient))
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	var botInfo *tgmodels.User
	for i := 0; i < 3; i++ {
		log.Printf("Attempting to connect to Telegram API (attempt %d/3)...", i+1)
		getMeCtx, getMeCancel := context.WithTimeout(ctx, 10*time.Second)
		botInfo, err = b.GetMe(getMeCtx)
		getMeCancel()
		if err == nil {
			log.Printf("Successfully connected to Telegram API")
			break
		}
		log.Printf("Failed to get bot info (attempt %d/3): %v", i+1, err)
		if i < 2 {
			log.Printf("Retrying in 2 seconds...")
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatalf("Failed to get bot info after 3 attempts: %v", err)
	}

	handler := newBotHandler(b, cfg, store)

	b.RegisterHandlerMatchFunc(func(update *tgmodels.Update) bool {
		return true
	}, handler.HandleUpdate, logMiddleware)

	log.Printf("Bot @%s started. Favorites: %s, recipes: %s", botInfo.Username, cfg.FavoritesBackend, cfg.MealDBBaseURL)

	b.Start(ctx)
}

// newBotHandler wires the recipe browser on top of a Telegram client and a
// favorites store.
func newBotHandler(api services.TelegramAPI, cfg *config.Config, store services.FavoritesStore) *handlers.BotHandler {
	errorManager := services.NewErrorManager(api, cfg.AdminID)
	msgManager := services.NewMessageManager(api, errorManager)

	source := mealdb.NewClient(mealdb.WithBaseURL(cfg.MealDBBaseURL))
	walkthrough := services.NewWalkthroughEngine(services.NewSessionStore(cfg.SessionTTL))
	favorites := services.NewFavoritesLedger(store)

	router := handlers.NewRouter(source, msgManager, walkthrough, favorites, cfg.FetchTimeout)
	return handlers.NewBotHandler(router, msgManager, services.NewChatQueue(), errorManager)
}

func openFavoritesStore(ctx context.Context, cfg *config.Config) (services.FavoritesStore, func(), error) {
	switch cfg.FavoritesBackend {
	case config.BackendDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("load aws config: %w", err)
		}
		repo, err := db.NewDynamoFavoritesRepository(dynamodb.NewFromConfig(awsCfg), cfg.DynamoDBTable)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Using DynamoDB table %s for favorites", cfg.DynamoDBTable)
		return repo, func() {}, nil
	}

	sqlDB, err := sql.Open("sqlite", cfg.DBPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.InitSchema(sqlDB); err != nil {
		sqlDB.Close()
		return nil, nil, fmt.Errorf("initialize schema: %w", err)
	}
	dbQueue := db.NewDBQueue(sqlDB)
	log.Printf("Using SQLite database %s for favorites", cfg.DBPath)

	return db.NewFavoritesRepository(dbQueue), func() {
		dbQueue.Close()
		sqlDB.Close()
	}, nil
}

func formatUser(u *tgmodels.User) string {
	if u == nil {
		return "unknown"
	}
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	if u.Username != "" {
		name += " @" + u.Username
	}
	return fmt.Sprintf("%s [%d]", name, u.ID)
}

func logMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *tgmodels.Update) {
		if update.Message != nil {
			log.Printf("[MSG] from=%s text=%q", formatUser(update.Message.From), update.Message.Text)
		}
		if update.CallbackQuery != nil {
			log.Printf("[CALLBACK] from=%s data=%q", formatUser(&update.CallbackQuery.From), update.CallbackQuery.Data)
		}
		next(ctx, b, update)
	}
}
