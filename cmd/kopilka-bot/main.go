package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"kopilka/internal/amqp"
	"kopilka/internal/bot"
	"kopilka/internal/config"
	"kopilka/internal/dialog"
	applog "kopilka/internal/log"
	"kopilka/internal/render/chart"
	"kopilka/internal/render/gsheet"
	"kopilka/internal/render/xlsx"
	"kopilka/internal/report"
	"kopilka/internal/session"
	"kopilka/internal/storage"
	"kopilka/internal/taxonomy"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	logger.Info("Starting kopilka-bot", applog.FieldOperation, applog.OpStartup)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	categories, err := taxonomy.Default()
	if err != nil {
		logger.Error("Failed to load category directory", "error", err)
		os.Exit(1)
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Error("Failed to connect to Telegram", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to Telegram", "bot", api.Self.UserName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions := session.NewStore(cfg.SessionLimit, cfg.SessionTTL)

	var dispatcher dialog.ReportDispatcher
	var tgBot *bot.Bot
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		dispatcher = bot.NewQueueDispatcher(amqpClient)
		logger.Info("Reports go through AMQP", "queue", cfg.AMQPQueue)
	} else {
		reports, err := buildReportService(ctx, cfg, repo, categories)
		if err != nil {
			logger.Error("Failed to initialize report service", "error", err)
			os.Exit(1)
		}
		dispatcher = bot.NewInlineDispatcher(reports, func(ctx context.Context, chatID int64, text string) error {
			return tgBot.SendText(ctx, chatID, text)
		})
		logger.Info("Reports render inline", "backend", cfg.ReportBackend)
	}

	machine := dialog.NewMachine(repo, categories, sessions, dispatcher, cfg.PageSize, cfg.UndoWindow)
	tgBot = bot.New(api, machine, sessions)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received",
			applog.FieldOperation, applog.OpShutdown, "signal", sig.String())
		cancel()
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	logger.Info("Update loop running")
	tgBot.Run(ctx, updates)
	logger.Info("Stopped gracefully", applog.FieldOperation, applog.OpShutdown)
}

// buildReportService wires the aggregation engine with the configured
// workbook backend and the local chart renderer.
func buildReportService(ctx context.Context, cfg *config.Config, repo *storage.SQLiteRepository, categories *taxonomy.Directory) (*report.Service, error) {
	var workbook report.WorkbookRenderer
	if cfg.ReportBackend == "gsheet" {
		gs, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID)
		if err != nil {
			return nil, err
		}
		workbook = gs
	} else {
		workbook = xlsx.New()
	}

	return report.NewService(
		repo,
		categories,
		workbook,
		chart.New(cfg.ChartFontPath),
		cfg.ExportDir,
		cfg.MaxReportDays,
		cfg.MaxReportRows,
	), nil
}
