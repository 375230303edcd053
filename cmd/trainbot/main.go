package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	coreconfig "trainbot/core/config"
	coredatabase "trainbot/core/database"
	"trainbot/core/logger"
	tg "trainbot/core/telegram"
	"trainbot/internal/access"
	"trainbot/internal/bot"
	"trainbot/internal/otp"
	"trainbot/internal/store"
	"trainbot/internal/webapp"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "trainbot:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yml"
	}
	cfg, err := coreconfig.Load(configPath)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg); err != nil {
		return err
	}
	defer func() { _ = logger.Shutdown() }()

	users, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = users.Close() }()

	var phones *access.PhoneList
	if cfg.Access.RequirePhone {
		phones, err = access.NewPhoneList(cfg.Access.AllowedPhones, cfg.Access.AllowedPhonesFile)
		if err != nil {
			return err
		}
	}

	codes := otp.NewRegistry(otp.Options{
		Length:   cfg.OTP.Length,
		TTL:      time.Duration(cfg.OTP.TTLSeconds) * time.Second,
		Attempts: cfg.OTP.Attempts,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	codes.StartSweeper(ctx, time.Duration(cfg.OTP.SweepSeconds)*time.Second)

	if cfg.WebApp.URL != "" {
		form, err := webapp.NewServer(webapp.Options{
			Listen:       cfg.WebApp.Listen,
			BotToken:     cfg.Telegram.Token,
			Codes:        codes,
			Users:        users,
			Phones:       phones,
			RequirePhone: cfg.Access.RequirePhone,
		})
		if err != nil {
			return err
		}
		go func() {
			if err := form.Run(ctx); err != nil {
				logger.Web.LogAttrs(ctx, slog.LevelError, "web.serve_failed",
					slog.String("err", err.Error()),
				)
				stop()
			}
		}()
	}

	app := bot.New(cfg, users, codes, phones)
	reg := app.Registry()

	return tg.RunTelegram(ctx, tg.RunOptions{
		Config:      cfg,
		Registry:    reg,
		Middlewares: app.Middlewares(),
		Routes:      app.Routes(reg),
		OnStart: func(_ context.Context, rt tg.Runtime) error {
			app.AttachBot(rt.Bot)
			return nil
		},
	})
}

func buildStore(cfg *coreconfig.Config) (store.Store, error) {
	switch cfg.Storage.Backend {
	case coreconfig.StoragePostgres:
		dbCfg := coredatabase.Config{
			Host:           cfg.Storage.Database.Host,
			Port:           cfg.Storage.Database.Port,
			User:           cfg.Storage.Database.User,
			Password:       cfg.Storage.Database.Password,
			Name:           cfg.Storage.Database.Name,
			SSLMode:        cfg.Storage.Database.SSLMode,
			MaxConnections: cfg.Storage.Database.MaxConnections,
		}
		if err := coredatabase.RunMigrations(dbCfg); err != nil {
			return nil, err
		}
		db, err := coredatabase.Connect(dbCfg)
		if err != nil {
			return nil, err
		}
		return store.NewPostgresStore(db)
	default:
		return store.NewFileStore(cfg.Storage.FilePath)
	}
}
