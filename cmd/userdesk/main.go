package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	"github.com/goliatone/go-print"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	userdesk "github.com/userdesk/go-userdesk"
	"github.com/userdesk/go-userdesk/mailer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "userdesk: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := userdesk.LoadConfig()
	if err != nil {
		return err
	}

	if err := config.Validate(); err != nil {
		return err
	}

	zl := newZerolog(config)
	logger := userdesk.NewZerologAdapter(zl)

	if !config.IsProduction() {
		logger.Debug("loaded configuration: %s", print.MaybePrettyJSON(config))
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, config.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	ctx := context.Background()

	if err := userdesk.CreateSchema(ctx, db); err != nil {
		return err
	}

	repo := userdesk.NewRepositoryManager(db)
	repo.MustValidate()

	if err := userdesk.SeedRootUser(ctx, repo, config.Root, logger); err != nil {
		return err
	}

	sessions := userdesk.NewSessionService(repo, config.Session, config.IsProduction(), logger)

	mail := mailer.New(mailer.Config{
		Host:     config.SMTP.Host,
		Port:     config.SMTP.Port,
		Username: config.SMTP.Username,
		Password: config.SMTP.Password,
		From:     config.SMTP.From,
	})

	engine := django.New("./views", ".html")

	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: userdesk.ErrorHandler(logger),
	})

	controller := userdesk.NewAuthController(repo, sessions, mail,
		userdesk.WithControllerLogger(logger),
		userdesk.WithControllerDebug(!config.IsProduction()),
		userdesk.WithVerificationConfig(config.Verification),
	)
	controller.RegisterRoutes(app)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(config.HTTPAddr)
	}()

	logger.Info("listening on %s", config.HTTPAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("received %s, shutting down", sig)
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}

func newZerolog(config *userdesk.Config) zerolog.Logger {
	if config.IsProduction() {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		With().
		Timestamp().
		Logger().
		Level(zerolog.DebugLevel)
}
