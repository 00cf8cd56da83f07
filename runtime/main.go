package main

import (
	"os"

	"github.com/Fababum/portfolio/services"
	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using system environment variables")
	}

	configureLogging(os.Getenv("LOG_LEVEL"))

	ctx, err := context.NewCtx(
		&services.DatabaseService{},
		&services.RedisService{},
		&services.RateLimitService{},
		&services.SessionService{},
		&services.VisitorService{},
		&services.AdminService{},
		&services.GeminiService{},
		&services.ChatService{},
		&services.MonitoringService{},

		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build service context")
		return
	}

	log.Info().Msg("Starting portfolio API")
	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err).Msg("Service context stopped")
		return
	}
}

func configureLogging(level string) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		log.Warn().Str("level", level).Msg("Unknown LOG_LEVEL, using info")
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}
