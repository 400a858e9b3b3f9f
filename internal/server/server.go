package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/lotbid/internal/audit"
	"github.com/smallbiznis/lotbid/internal/award"
	awarddomain "github.com/smallbiznis/lotbid/internal/award/domain"
	"github.com/smallbiznis/lotbid/internal/config"
	"github.com/smallbiznis/lotbid/internal/events"
	"github.com/smallbiznis/lotbid/internal/invitation"
	invitationdomain "github.com/smallbiznis/lotbid/internal/invitation/domain"
	"github.com/smallbiznis/lotbid/internal/lock"
	"github.com/smallbiznis/lotbid/internal/lot"
	lotdomain "github.com/smallbiznis/lotbid/internal/lot/domain"
	"github.com/smallbiznis/lotbid/internal/observability"
	obsmiddleware "github.com/smallbiznis/lotbid/internal/observability/logger"
	obstracing "github.com/smallbiznis/lotbid/internal/observability/tracing"
	"github.com/smallbiznis/lotbid/internal/offer"
	"github.com/smallbiznis/lotbid/internal/ratelimit"
	"github.com/smallbiznis/lotbid/internal/round"
	rounddomain "github.com/smallbiznis/lotbid/internal/round/domain"
	"github.com/smallbiznis/lotbid/internal/settlement"
	settlementdomain "github.com/smallbiznis/lotbid/internal/settlement/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	audit.Module,
	events.Module,
	lock.Module,
	ratelimit.Module,
	lot.Module,
	offer.Module,
	round.Module,
	award.Module,
	settlement.Module,
	invitation.Module,
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, _ *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
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
	engine        *gin.Engine
	cfg           config.Config
	log           *zap.Logger
	lotSvc        lotdomain.Service
	roundSvc      rounddomain.Service
	awardSvc      awarddomain.Service
	settlementSvc settlementdomain.Service
	invitationSvc invitationdomain.Service
	statusLimiter *ratelimit.PublicStatusLimiter
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Log           *zap.Logger
	LotSvc        lotdomain.Service
	RoundSvc      rounddomain.Service
	AwardSvc      awarddomain.Service
	SettlementSvc settlementdomain.Service
	InvitationSvc invitationdomain.Service
	StatusLimiter *ratelimit.PublicStatusLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		log:           p.Log.Named("http.server"),
		lotSvc:        p.LotSvc,
		roundSvc:      p.RoundSvc,
		awardSvc:      p.AwardSvc,
		settlementSvc: p.SettlementSvc,
		invitationSvc: p.InvitationSvc,
		statusLimiter: p.StatusLimiter,
	}

	svc.registerAPIRoutes()
	svc.registerPublicRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(OrgContext())

	// -------- Rounds --------
	api.POST("/lots/:id/rounds/ensure", s.EnsureRounds)
	api.GET("/lots/:id/rounds", s.ListRounds)
	api.POST("/lots/:id/rounds", s.OpenRound)
	api.POST("/rounds/:id/close", s.CloseRound)

	// -------- Optimizer --------
	api.GET("/lots/:id/optimizer", s.PreviewOptimizer)
	api.POST("/lots/:id/optimizer/run", s.RunOptimizer)

	// -------- Take-all --------
	api.POST("/lots/:id/offers/:offer_id/accept", s.AcceptTakeAll)
	api.POST("/lots/:id/offers/:offer_id/accept/retry", s.RetryTakeAllAward)

	// -------- Awards --------
	api.GET("/lots/:id/awards", s.ListAwards)
}

func (s *Server) registerPublicRoutes() {
	public := s.engine.Group("/public")

	public.GET("/invitations/:token/status", s.PublicStatusRateLimit(), s.GetInvitationStatus)
}
