package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"kopilka/internal/amqp"
	"kopilka/internal/bot"
	"kopilka/internal/config"
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

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	applog.SetDefault(logger)

	logger.Info("Starting report-worker", applog.FieldOperation, applog.OpStartup)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the report worker")
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var workbook report.WorkbookRenderer
	if cfg.ReportBackend == "gsheet" {
		gs, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets backend", "error", err)
			os.Exit(1)
		}
		workbook = gs
	} else {
		workbook = xlsx.New()
	}

	reports := report.NewService(
		repo,
		categories,
		workbook,
		chart.New(cfg.ChartFontPath),
		cfg.ExportDir,
		cfg.MaxReportDays,
		cfg.MaxReportRows,
	)

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Error("Failed to connect to Telegram", "error", err)
		os.Exit(1)
	}
	// The worker sends documents only; it never consumes updates, so the
	// session store and machine stay empty shells.
	sender := bot.New(api, nil, session.NewStore(1, time.Minute))

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received",
			applog.FieldOperation, applog.OpShutdown, "signal", sig.String())
		cancel()
	}()

	handler := func(msg *amqp.ReportRequestMessage) error {
		return handleRequest(ctx, reports, sender, msg)
	}
	if err := amqpClient.ConsumeReportRequests(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("Stopped gracefully", applog.FieldOperation, applog.OpShutdown)
}

func handleRequest(ctx context.Context, reports *report.Service, sender *bot.Bot, msg *amqp.ReportRequestMessage) error {
	mode, err := report.ParseMode(msg.Mode)
	if err != nil {
		// A bad mode never becomes valid; report it to the chat and drop
		// the message.
		return sender.SendText(ctx, msg.ChatID, "Не получилось построить отчёт.")
	}

	art, err := reports.Generate(ctx, report.Request{
		UserID: msg.UserID,
		Kind:   msg.Kind,
		Mode:   mode,
		Days:   msg.Days,
	})
	if err != nil {
		if errors.Is(err, report.ErrWindowTooWide) || errors.Is(err, report.ErrSectionsKind) {
			return sender.SendText(ctx, msg.ChatID, "Не получилось построить отчёт.")
		}
		return err
	}

	files := []string{art.ChartPath}
	if _, statErr := os.Stat(art.WorkbookRef); statErr == nil {
		files = append([]string{art.WorkbookRef}, files...)
	} else if sendErr := sender.SendText(ctx, msg.ChatID, "Таблица: "+art.WorkbookRef); sendErr != nil {
		return sendErr
	}
	return sender.SendDocuments(ctx, msg.ChatID, "Готово, отчёт во вложении.", files)
}
