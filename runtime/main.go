package main

import (
	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/wiz-rewards/wiz_api/middleware"
	"github.com/wiz-rewards/wiz_api/services"
)

// @title WIZ API
// @version 1.0
// @description XP rewards backend for YouTube watching
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
func main() {
	err := godotenv.Load()
	if err != nil {
		log.Warn().Err(err).Msg("No .env file loaded")
	}

	ctx, err := context.NewCtx(
		&services.PostgresService{},
		&services.RedisService{},
		&services.MinIOService{},
		&services.JWTService{},

		&services.LocalMetadataService{},
		&services.YouTubeService{},
		&services.LedgerService{},
		&services.XPService{},
		&services.PlaybackService{},
		&services.UserService{},
		&services.VideoService{},
		&services.AuthService{},
		&services.MediaService{},

		&middleware.AuthMiddleware{},
		&middleware.RateLimitMiddleware{},

		&services.MonitoringService{},
		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err)
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err)
		return
	}
}
