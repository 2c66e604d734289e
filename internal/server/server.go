package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/tailorbook/internal/auth"
	authdomain "github.com/smallbiznis/tailorbook/internal/auth/domain"
	"github.com/smallbiznis/tailorbook/internal/auth/session"
	"github.com/smallbiznis/tailorbook/internal/bill"
	billdomain "github.com/smallbiznis/tailorbook/internal/bill/domain"
	"github.com/smallbiznis/tailorbook/internal/config"
	"github.com/smallbiznis/tailorbook/internal/measurement"
	measurementdomain "github.com/smallbiznis/tailorbook/internal/measurement/domain"
	"github.com/smallbiznis/tailorbook/internal/observability"
	obsmiddleware "github.com/smallbiznis/tailorbook/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/tailorbook/internal/observability/metrics"
	obstracing "github.com/smallbiznis/tailorbook/internal/observability/tracing"
	"github.com/smallbiznis/tailorbook/internal/providers/pdf"
	"github.com/smallbiznis/tailorbook/internal/record"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	record.Module,
	measurement.Module,
	bill.Module,
	auth.Module,
	pdf.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
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
	engine         *gin.Engine
	cfg            config.Config
	log            *zap.Logger
	measurementSvc measurementdomain.Service
	billSvc        billdomain.Service
	authsvc        authdomain.Service
	sessions       *session.Manager
	pdf            pdf.Provider
	obsMetrics     *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	Log            *zap.Logger
	MeasurementSvc measurementdomain.Service
	BillSvc        billdomain.Service
	Authsvc        authdomain.Service
	Sessions       *session.Manager
	PDF            pdf.Provider
	ObsMetrics     *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}

	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		log:            log.Named("http.server"),
		measurementSvc: p.MeasurementSvc,
		billSvc:        p.BillSvc,
		authsvc:        p.Authsvc,
		sessions:       p.Sessions,
		pdf:            p.PDF,
		obsMetrics:     p.ObsMetrics,
	}

	svc.registerAuthRoutes()
	svc.registerRecordRoutes(svc.engine.Group(""))
	svc.registerRecordRoutes(svc.engine.Group("/api"))
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	for _, prefix := range []string{"/auth", "/api/auth"} {
		group := s.engine.Group(prefix)
		group.POST("/login", s.Login)
		group.POST("/logout", s.Logout)
		group.GET("/me", s.Me)
	}
}

func (s *Server) registerRecordRoutes(group *gin.RouterGroup) {
	group.Use(s.AuthRequired())

	measurements := group.Group("/measurements")
	{
		measurements.GET("", s.ListMeasurements)
		measurements.POST("", s.CreateMeasurement)
		measurements.GET("/:key", s.GetMeasurement)
		measurements.PUT("/:key", s.UpdateMeasurement)
		measurements.DELETE("/:key", s.DeleteMeasurement)
	}

	bills := group.Group("/bills")
	{
		bills.GET("", s.ListBills)
		bills.POST("", s.CreateBill)
		bills.GET("/:key", s.GetBill)
		bills.PUT("/:key", s.UpdateBill)
		bills.DELETE("/:key", s.DeleteBill)
		bills.GET("/:key/receipt", s.GetBillReceipt)
	}
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
