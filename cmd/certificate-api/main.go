package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"techstar/certificate-portal/certificate-portal-backend/internal/certificates"
	"techstar/certificate-portal/certificate-portal-backend/internal/config"
	"techstar/certificate-portal/certificate-portal-backend/internal/metrics"
	"techstar/certificate-portal/certificate-portal-backend/internal/notifications"
	"techstar/certificate-portal/certificate-portal-backend/pkg/pdf"
	"techstar/certificate-portal/certificate-portal-backend/pkg/qr"
	"techstar/certificate-portal/certificate-portal-backend/pkg/raster"
	"techstar/certificate-portal/certificate-portal-backend/web"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		bootstrap, _ := zap.NewDevelopment()
		bootstrap.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize logger
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Collaborators
	qrEncoder, err := newQREncoder(cfg.QR)
	if err != nil {
		logger.Fatal("Failed to configure QR encoder", zap.Error(err))
	}

	renderer, err := raster.NewRenderer()
	if err != nil {
		logger.Fatal("Failed to load fonts", zap.Error(err))
	}

	pageOptions := pdf.DefaultPageOptions()
	pageOptions.Format = cfg.Export.PageFormat
	documents := pdf.NewGenerator(pageOptions)

	layout, err := newLayout(cfg.Certificate)
	if err != nil {
		logger.Fatal("Failed to load certificate logo", zap.String("path", cfg.Certificate.LogoPath), zap.Error(err))
	}

	background, err := raster.ParseHexColor(cfg.Export.Background)
	if err != nil {
		logger.Fatal("Invalid export background", zap.Error(err))
	}
	exporter := certificates.NewExporter(renderer, documents, layout, certificates.ExportOptions{
		PDFScale:     cfg.Export.PDFScale,
		PNGScale:     cfg.Export.PNGScale,
		PreviewScale: cfg.Export.PreviewScale,
		Background:   background,
	})

	// Sessions, notifications and metrics
	promMetrics := metrics.New()
	hub := notifications.NewHub(logger)

	codes := certificates.NewCodeGenerator(cfg.Certificate.CodePrefix, certificates.NewRandomSource(), time.Now)
	sessions := certificates.NewSessionStore(certificates.SessionStoreOptions{
		IdleTTL: cfg.Sessions.IdleTTL.Duration,
		NewSession: func() *certificates.Controller {
			return certificates.NewController(certificates.ControllerOptions{
				Codes:           codes,
				QR:              qrEncoder,
				VerificationURL: cfg.Certificate.VerificationURL,
			})
		},
		OnEvict: hub.Close,
		Gauge:   promMetrics.ActiveSessions,
	})

	sweeper, err := certificates.NewSessionSweeper(sessions, cfg.Sessions.SweepSchedule, logger)
	if err != nil {
		logger.Fatal("Invalid session sweep schedule", zap.Error(err))
	}
	sweeper.Start()
	defer sweeper.Stop()

	service := certificates.NewService(sessions, exporter, hub, promMetrics, logger)
	handler := certificates.NewHandler(service, hub, logger, certificates.HandlerOptions{
		SecureCookies: cfg.Server.SecureCookies,
		Page: web.Page{
			Title:        cfg.Certificate.Title,
			Organization: cfg.Certificate.Organization,
			EventName:    cfg.Certificate.EventName,
		},
	})

	// Setup Router
	router := gin.Default()
	router.Use(promMetrics.Middleware())

	handler.RegisterRoutes(&router.RouterGroup)

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"sessions":  sessions.Size(),
		})
	})
	router.GET("/metrics", gin.WrapH(promMetrics.Handler()))

	// Start Server
	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
		IdleTimeout:  cfg.Server.IdleTimeout.Duration,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", srv.Addr))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
	defer cancel()

	hub.Shutdown()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zapConfig := zap.NewDevelopmentConfig()
	if cfg.Format == "json" {
		zapConfig = zap.NewProductionConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	return zapConfig.Build()
}

func newQREncoder(cfg config.QRConfig) (*qr.Encoder, error) {
	foreground, err := raster.ParseHexColor(cfg.Foreground)
	if err != nil {
		return nil, err
	}
	background, err := raster.ParseHexColor(cfg.Background)
	if err != nil {
		return nil, err
	}

	options := qr.DefaultOptions()
	options.Width = cfg.Width
	options.Margin = cfg.Margin
	options.Foreground = foreground
	options.Background = background
	return qr.NewEncoder(options), nil
}

func newLayout(cfg config.CertificateConfig) (certificates.Layout, error) {
	logo, err := certificates.LoadLogo(cfg.LogoPath)
	if err != nil {
		return certificates.Layout{}, err
	}

	return certificates.Layout{
		Organization: cfg.Organization,
		Title:        cfg.Title,
		Intro:        certificates.DefaultLayout().Intro,
		Description:  cfg.Description,
		SignerName:   cfg.SignerName,
		SignerRole:   cfg.SignerRole,
		Logo:         logo,
	}, nil
}
