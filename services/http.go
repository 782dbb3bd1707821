package services

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/rs/zerolog/log"

	"github.com/alphabatem/common/context"

	"github.com/wiz-rewards/wiz_api/services/handlers"
	"github.com/wiz-rewards/wiz_api/shared"
)

type HttpService struct {
	context.DefaultService

	port   int
	server *fiber.App

	authHandler        *handlers.AuthHandler
	userHandler        *handlers.UserHandler
	videoHandler       *handlers.VideoHandler
	playbackHandler    *handlers.PlaybackHandler
	leaderboardHandler *handlers.LeaderboardHandler
	mediaHandler       *handlers.MediaHandler
}

const HTTP_SVC = "http_svc"

// The middleware services register under these IDs. Asserted through local
// interfaces so the handler wiring stays one-directional.
const (
	authMiddlewareID      = "auth"
	rateLimitMiddlewareID = "rate_limit"
)

type authGuard interface {
	RequiredAuth() fiber.Handler
}

type rateLimiter interface {
	IPRateLimit() fiber.Handler
	AuthRateLimit() fiber.Handler
	PlaybackRateLimit() fiber.Handler
	EngagementRateLimit() fiber.Handler
}

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.authHandler = handlers.NewAuthHandler(svc.Service(AUTH_SVC).(*AuthService))
	svc.userHandler = handlers.NewUserHandler(svc.Service(USER_SVC).(*UserService))
	svc.videoHandler = handlers.NewVideoHandler(svc.Service(VIDEO_SVC).(*VideoService))
	svc.playbackHandler = handlers.NewPlaybackHandler(svc.Service(PLAYBACK_SVC).(*PlaybackService))
	svc.leaderboardHandler = handlers.NewLeaderboardHandler(svc.Service(USER_SVC).(*UserService))
	svc.mediaHandler = handlers.NewMediaHandler(svc.Service(MEDIA_SVC).(*MediaService))

	auth := svc.Service(authMiddlewareID).(authGuard)
	rateLimit := svc.Service(rateLimitMiddlewareID).(rateLimiter)
	monitoringSvc := svc.Service(MONITORING_SVC).(*MonitoringService)

	app := fiber.New(fiber.Config{
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		ErrorHandler: svc.handleError,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(MonitoringMiddleware(monitoringSvc))
	app.Use(rateLimit.IPRateLimit())

	app.Get("/ping", svc.ping)
	app.Get("/swagger/*", swagger.HandlerDefault)

	v1 := app.Group("/api/v1")
	v1.Get("/ping", svc.ping)

	v1.Post("/register", rateLimit.AuthRateLimit(), svc.authHandler.Register)
	v1.Post("/login", rateLimit.AuthRateLimit(), svc.authHandler.Login)
	v1.Post("/login/google", rateLimit.AuthRateLimit(), svc.authHandler.LoginWithGoogle)

	user := v1.Group("/user", auth.RequiredAuth())
	user.Get("/progress", svc.userHandler.GetProgress)
	user.Put("/profile", svc.userHandler.UpdateProfile)
	user.Post("/daily-bonus", svc.userHandler.ClaimDailyBonus)

	videos := v1.Group("/videos", auth.RequiredAuth())
	videos.Post("/", svc.videoHandler.CreateVideo)
	videos.Get("/", svc.videoHandler.ListVideos)
	videos.Get("/:videoId", svc.videoHandler.GetVideo)
	videos.Get("/:videoId/metadata", svc.videoHandler.GetVideoMetadata)
	videos.Post("/:videoId/engage", rateLimit.EngagementRateLimit(), svc.videoHandler.RecordEngagement)
	videos.Post("/:videoId/view", rateLimit.EngagementRateLimit(), svc.videoHandler.RecordView)

	playback := v1.Group("/playback", auth.RequiredAuth())
	playback.Post("/events", rateLimit.PlaybackRateLimit(), svc.playbackHandler.HandleEvent)

	v1.Get("/leaderboard", auth.RequiredAuth(), svc.leaderboardHandler.GetLeaderboard)

	media := v1.Group("/media", auth.RequiredAuth())
	media.Post("/avatar", svc.mediaHandler.UploadAvatar)
	media.Post("/videos/:videoId/thumbnail", svc.mediaHandler.UploadThumbnail)

	app.Use(func(c *fiber.Ctx) error {
		return shared.ResponseJSON(c, http.StatusNotFound, "Not Found", nil)
	})

	svc.server = app

	log.Info().Int("port", svc.port).Msg("HTTP server started")
	return app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept  json
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set("Cache-Control", "max-age=10")

	return shared.ResponseJSON(c, http.StatusOK, "Success", "pong")
}

func (svc *HttpService) handleError(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return shared.ResponseJSON(c, fiberErr.Code, fiberErr.Message, nil)
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("Unhandled error")
	return shared.ResponseJSON(c, http.StatusInternalServerError, "Internal server error", nil)
}
