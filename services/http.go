package services

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Fababum/portfolio/middleware"
	"github.com/Fababum/portfolio/services/handlers"
	"github.com/Fababum/portfolio/shared"
	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"
)

type HttpService struct {
	context.DefaultService

	port           int
	allowedOrigins []string
	app            *fiber.App
}

const HTTP_SVC = "http_svc"

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

	svc.allowedOrigins = middleware.ParseAllowedOrigins(os.Getenv("ALLOWED_ORIGINS"))

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	sessionSvc := svc.Service(SESSION_SVC).(*SessionService)
	visitorSvc := svc.Service(VISITOR_SVC).(*VisitorService)

	svc.app = NewRouter(RouterConfig{
		AllowedOrigins: svc.allowedOrigins,
		RateLimiter:    svc.Service(RATE_LIMIT_SVC).(*RateLimitService),
		Sessions:       sessionSvc,
		Admin:          svc.Service(ADMIN_SVC).(*AdminService),
		Visitors:       visitorSvc,
		Chat:           svc.Service(CHAT_SVC).(*ChatService),
	})

	log.WithField("port", svc.port).Info("HTTP server listening")
	return svc.app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.app != nil {
		_ = svc.app.ShutdownWithTimeout(10 * time.Second)
	}
}

// RouterLimiter is what the routes need from the rate limit service.
type RouterLimiter interface {
	middleware.RateLimiter
	handlers.RateLimitResetter
}

// RouterSessions is what the routes need from the session service.
type RouterSessions interface {
	middleware.SessionValidator
	handlers.SessionServiceInterface
}

type RouterConfig struct {
	AllowedOrigins []string
	RateLimiter    RouterLimiter
	Sessions       RouterSessions
	Admin          handlers.AdminServiceInterface
	Visitors       handlers.VisitorServiceInterface
	Chat           handlers.ChatServiceInterface
}

// NewRouter builds the public API. Each route carries its own origin, rate
// limit and session requirements.
func NewRouter(cfg RouterConfig) *fiber.App {
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = middleware.DefaultAllowedOrigins
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		JSONEncoder:           shared.Marshal,
		JSONDecoder:           shared.Unmarshal,
		ErrorHandler:          shared.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(MonitoringMiddleware())
	app.Use(middleware.RequestLogger())

	origin := middleware.OriginGuard(cfg.AllowedOrigins)
	limit := func(bucket string) fiber.Handler {
		return middleware.RateLimit(cfg.RateLimiter, bucket)
	}
	session := middleware.RequiredSession(cfg.Sessions)

	adminHandler := handlers.NewAdminHandler(cfg.Admin, cfg.Sessions, cfg.Visitors, cfg.RateLimiter, BucketLogin)
	visitorHandler := handlers.NewVisitorHandler(cfg.Visitors)
	chatHandler := handlers.NewChatHandler(cfg.Chat)

	app.Get("/ping", ping)

	api := app.Group("/api")
	api.Post("/chat", origin, limit(BucketChat), chatHandler.Chat)

	admin := api.Group("/admin")
	admin.Post("/login", limit(BucketLogin), adminHandler.Login)
	admin.Post("/logout", origin, limit(BucketLogout), adminHandler.Logout)
	admin.Post("/logout-all", origin, limit(BucketLogout), session, adminHandler.LogoutAll)
	admin.Get("/users", origin, limit(BucketAdminRead), session, adminHandler.Users)
	admin.Get("/sessions", origin, limit(BucketAdminRead), session, adminHandler.Sessions)
	admin.Post("/update-status", origin, limit(BucketUpdateStatus), session, adminHandler.UpdateStatus)
	admin.Post("/setup", limit(BucketSetup), adminHandler.Setup)

	admin.Post("/track-visit", origin, limit(BucketTrackVisit), visitorHandler.TrackVisit)
	admin.Get("/check-status", visitorHandler.CheckStatus)

	app.Use(func(c *fiber.Ctx) error {
		return shared.ErrNotFound("Not found")
	})

	return app
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Produce json
// @Success 200 {object} dto.MessageResponse
// @Router /ping [get]
func ping(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "max-age=10")
	return shared.ResponseOK(c, fiber.Map{"success": true, "message": "pong"})
}
