package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/vitaplus/vitabot/common"
	"github.com/vitaplus/vitabot/config"
	"github.com/vitaplus/vitabot/database"
	"github.com/vitaplus/vitabot/internal/audio"
	"github.com/vitaplus/vitabot/internal/bot"
	"github.com/vitaplus/vitabot/internal/conversation"
	"github.com/vitaplus/vitabot/internal/gemini"
	"github.com/vitaplus/vitabot/internal/health"
	"github.com/vitaplus/vitabot/internal/notify"
	"github.com/vitaplus/vitabot/internal/sheets"
)

type application struct {
	db       *gorm.DB
	redis    *database.RedisCache
	bot      *tgbotapi.BotAPI
	contexts *conversation.Storage
	gemini   *gemini.Client
	analyzer *gemini.Analyzer
	sheets   *sheets.Manager
	notifier *notify.Notifier
	audio    *audio.Pipeline
	monitor  *health.Monitor
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &application{}

	config.LogAction("Initializing application...")
	if err := app.initialize(ctx); err != nil {
		config.LogAction(fmt.Sprintf("Failed to initialize application: %v", err))
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.shutdown()

	botRepo := bot.NewRepository(app.db)
	app.notifier = notify.NewNotifier(app.buildAdapters(), config.AdminIDs(), func(entry common.NotificationLog) {
		if err := botRepo.CreateNotificationLog(&entry); err != nil {
			log.Printf("Не удалось записать лог уведомления: %v", err)
		}
	})
	botService := bot.NewService(botRepo, app.sheets, app.notifier)

	app.monitor = health.NewMonitor(app.notifier)
	app.registerHealthChecks()

	botHandler := bot.NewHandler(botService, app.bot, app.contexts, app.analyzer, app.audio, app.monitor)
	config.LogAction("Bot components created")

	go app.monitor.Run(ctx)
	go app.contexts.RunCleanup(ctx, time.Hour)
	go app.notifier.RunDigestScheduler(ctx, botService.DigestEvents)

	config.LogAction("Bot started")
	app.runBot(ctx, botHandler)
}

func (app *application) initialize(ctx context.Context) error {
	config.LogAction("Initializing configuration...")
	config.Init()
	config.LogAction("Configuration initialized")

	config.LogAction("Initializing database...")
	if err := app.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	config.LogAction("Database initialized")

	config.LogAction("Initializing Redis...")
	app.redis = database.NewRedisCache(viper.GetString("cache.host"))
	if err := app.redis.Ping(ctx); err != nil {
		log.Printf("Redis недоступен, контексты диалогов останутся в памяти: %v", err)
		app.contexts = conversation.NewStorage(nil)
	} else {
		app.contexts = conversation.NewStorage(app.redis)
	}
	if maxAge := viper.GetInt("session.max_age_seconds"); maxAge > 0 {
		app.contexts.SetMaxAge(time.Duration(maxAge) * time.Second)
	}

	config.LogAction("Initializing bot...")
	if err := app.initBot(); err != nil {
		return fmt.Errorf("failed to initialize bot: %w", err)
	}
	config.LogAction("Bot initialized")

	config.LogAction("Initializing Gemini...")
	app.initGemini(ctx)

	config.LogAction("Initializing Google Sheets...")
	sheetsManager, err := sheets.NewManager(ctx)
	if err != nil {
		// Бот работает и без таблицы, синхронизация будет недоступна
		log.Printf("Google Sheets недоступен: %v", err)
	} else {
		app.sheets = sheetsManager
	}

	config.LogAction("Initializing audio pipeline...")
	app.audio = audio.NewPipeline(ctx, func(errorType, message, errContext string) {
		if app.sheets != nil {
			app.sheets.LogError(ctx, errorType, message, errContext)
		}
	})

	return nil
}

func (app *application) initDatabase() error {
	db, err := database.InitDatabase()
	if err != nil {
		return fmt.Errorf("could not initialize database connection: %w", err)
	}

	if err := database.PingDatabase(db); err != nil {
		return fmt.Errorf("could not ping database: %w", err)
	}

	if err := database.RunMigrations(db); err != nil {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	app.db = db
	return nil
}

func (app *application) initBot() error {
	botAPI, err := tgbotapi.NewBotAPI(viper.GetString("telegram.token"))
	if err != nil {
		return err
	}
	log.Printf("Авторизация в Telegram выполнена: @%s", botAPI.Self.UserName)

	app.bot = botAPI
	return nil
}

// initGemini нефатальна: без ключа бот отвечает по сценарию без ИИ.
func (app *application) initGemini(ctx context.Context) {
	client, err := gemini.NewClient(ctx)
	if err != nil {
		log.Printf("Gemini недоступен, классификация запросов отключена: %v", err)
		return
	}
	app.gemini = client

	cacheTTL := time.Duration(viper.GetInt("gemini.cache_ttl")) * time.Second
	app.analyzer = gemini.NewAnalyzer(client, cacheTTL, func(service, errorMsg string) {
		if app.notifier != nil {
			app.notifier.NotifyAdmins(ctx, fmt.Sprintf("Сбой сервиса %s: %s", service, errorMsg))
		}
	})
}

func (app *application) buildAdapters() []notify.Adapter {
	adapters := []notify.Adapter{
		notify.NewTelegramAdapter(app.bot),
		notify.NewWhatsAppAdapter(),
		notify.NewInstagramAdapter(),
	}
	return adapters
}

func (app *application) registerHealthChecks() {
	app.monitor.Register("database", func(ctx context.Context) error {
		return database.PingDatabase(app.db)
	})
	app.monitor.Register("redis", func(ctx context.Context) error {
		return app.redis.Ping(ctx)
	})
	if app.sheets != nil {
		app.monitor.Register("sheets", func(ctx context.Context) error {
			return app.sheets.Ping(ctx)
		})
	}
	if app.gemini != nil {
		app.monitor.Register("gemini", func(ctx context.Context) error {
			return app.gemini.Ping(ctx)
		})
	}
}

func (app *application) runBot(ctx context.Context, handler *bot.Handler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	config.LogAction("Starting to receive updates...")
	updates := app.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			config.LogAction("Shutdown signal received")
			app.bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			handler.HandleUpdate(ctx, update)
		}
	}
}

func (app *application) shutdown() {
	if app.gemini != nil {
		if err := app.gemini.Close(); err != nil {
			log.Printf("Не удалось закрыть клиент Gemini: %v", err)
		}
	}
	config.LogAction("Application stopped")
}
