package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"match-predictor/config"
	wsh "match-predictor/internal/WSH"
	"match-predictor/internal/bot"
	"match-predictor/internal/clock"
	dbpkg "match-predictor/internal/db"
	"match-predictor/internal/handlers"
	"match-predictor/internal/models"

	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.InitConfig()
	if err != nil {
		log.WithError(err).Fatal("config")
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithError(err).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	zone, err := clock.LoadZone(cfg.Timezone)
	if err != nil {
		log.WithError(err).Fatal("time zone")
	}

	DB, err := dbpkg.InitDatabase(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("database")
	}

	base := models.Handler{
		DB:    DB,
		Log:   logrus.NewEntry(log),
		Clock: clock.System,
		Zone:  zone,
		Rules: models.Rules{DeadlineLead: cfg.DeadlineLead, LiveWindow: cfg.LiveWindow},
	}
	set := handlers.New(base)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := wsh.StartWS(ctx, cfg.HTTPAddr, wsh.NewServer(set, base)); err != nil {
			log.WithError(err).Error("http server stopped")
		}
	}()

	tgBot, err := bot.NewBot(cfg, set, base)
	if err != nil {
		log.WithError(err).Fatal("telegram bot")
	}
	tgBot.Run(ctx)
	log.Info("shutting down")
}
