package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	admissiondomain "github.com/gymgate/gymgate/internal/admission/domain"
	checkindomain "github.com/gymgate/gymgate/internal/checkin/domain"
	"github.com/gymgate/gymgate/internal/clock"
	"github.com/gymgate/gymgate/internal/config"
	"github.com/gymgate/gymgate/internal/events"
	"github.com/gymgate/gymgate/internal/health"
	memberdomain "github.com/gymgate/gymgate/internal/member/domain"
	"github.com/gymgate/gymgate/internal/renewal"
	"github.com/gymgate/gymgate/internal/square"
	logdomain "github.com/gymgate/gymgate/internal/systemlog/domain"
	"github.com/gymgate/gymgate/internal/webhook"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	clock        clock.Clock
	admissionSvc admissiondomain.Service
	memberSvc    memberdomain.Service
	checkinSvc   checkindomain.Service
	logSvc       logdomain.Service
	renewalSvc   *renewal.Service
	feed         *events.Feed
	webhookSvc   *webhook.Service
	squareClient square.Client
	tracker      *health.Tracker
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	Clock        clock.Clock
	AdmissionSvc admissiondomain.Service
	MemberSvc    memberdomain.Service
	CheckinSvc   checkindomain.Service
	LogSvc       logdomain.Service
	RenewalSvc   *renewal.Service
	Feed         *events.Feed
	WebhookSvc   *webhook.Service
	SquareClient square.Client
	Tracker      *health.Tracker
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		log:          p.Log.Named("http.server"),
		clock:        p.Clock,
		admissionSvc: p.AdmissionSvc,
		memberSvc:    p.MemberSvc,
		checkinSvc:   p.CheckinSvc,
		logSvc:       p.LogSvc,
		renewalSvc:   p.RenewalSvc,
		feed:         p.Feed,
		webhookSvc:   p.WebhookSvc,
		squareClient: p.SquareClient,
		tracker:      p.Tracker,
	}

	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.POST("/checkin", s.CheckIn)
	api.GET("/checkins", s.ListCheckIns)
	api.GET("/members", s.ListMembers)
	api.GET("/renewals", s.RenewalReport)
	api.GET("/events", s.PollEvents)
	api.GET("/status", s.Status)
	api.GET("/logs", s.ListLogs)
	api.POST("/webhooks/square", s.SquareWebhook)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api/admin")

	admin.POST("/purge", s.Purge)
	admin.DELETE("/status", s.ResetStatus)
}
