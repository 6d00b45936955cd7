// Package main runs the check-in kiosk: camera scanning, manual codes and the UI surface.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ttatard/attendance-frontend/config"
	"github.com/ttatard/attendance-frontend/internal/apiclient"
	"github.com/ttatard/attendance-frontend/internal/auth"
	"github.com/ttatard/attendance-frontend/internal/camera"
	"github.com/ttatard/attendance-frontend/internal/checkin"
	"github.com/ttatard/attendance-frontend/internal/decoder"
	"github.com/ttatard/attendance-frontend/internal/journal"
	"github.com/ttatard/attendance-frontend/internal/kiosk"
	"github.com/ttatard/attendance-frontend/internal/manualcode"
	"github.com/ttatard/attendance-frontend/internal/metrics"
	"github.com/ttatard/attendance-frontend/internal/middleware"
	"github.com/ttatard/attendance-frontend/internal/models"
	"github.com/ttatard/attendance-frontend/internal/realtime"
	"github.com/ttatard/attendance-frontend/internal/registrations"
	"github.com/ttatard/attendance-frontend/internal/verify"
	"github.com/ttatard/attendance-frontend/pkg/redis"
	"github.com/ttatard/attendance-frontend/pkg/response"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		newLogger("info").Fatal("load config", zap.Error(err))
	}
	logger := newLogger(cfg.Log.Level)
	defer logger.Sync()

	ctx := context.Background()
	api := apiclient.New(cfg.API.BaseURL, cfg.API.Timeout, logger)
	collectors := metrics.New(prometheus.DefaultRegisterer)

	var jrnl *journal.Journal
	if cfg.Redis.Enabled() {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Warn("redis unavailable, outcome journal disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			jrnl = journal.New(rdb.Client, logger)
		}
	}

	var event *models.EventIdentity
	if cfg.Scanner.EventID > 0 {
		event, err = api.GetEvent(ctx, cfg.Scanner.EventID)
		if err != nil {
			logger.Fatal("fetch event", zap.Int64("event_id", cfg.Scanner.EventID), zap.Error(err))
		}
		logger.Info("event loaded", zap.Int64("event_id", event.ID), zap.String("name", event.Name))
	}

	validator := verify.NewValidator(api, cfg.Scanner.PayloadPrefix, logger, collectors)
	submitter := verify.NewSubmitter(api, cfg.API.Timeout, logger, collectors)

	var machine *checkin.Machine
	if device := newDevice(cfg.Scanner, logger); event != nil && device != nil {
		cam := camera.NewManager(device, logger)
		cam.SetIndicator(func(on bool) {
			logger.Info("camera indicator", zap.Bool("on", on))
		})
		deps := checkin.Deps{
			Camera:  cam,
			Decoder: decoder.NewQR(),
			Checker: verify.Pipeline{Validator: validator, Submitter: submitter},
			Metrics: collectors,
			Logger:  logger,
		}
		if jrnl != nil {
			deps.Journal = jrnl
		}
		machine = checkin.NewMachine(checkin.Options{
			EventID: event.ID,
			Constraints: camera.Constraints{
				FacingMode: cfg.Scanner.FacingMode,
				Width:      cfg.Scanner.Width,
				Height:     cfg.Scanner.Height,
			},
			ScanInterval:   cfg.Scanner.Interval,
			Cooldown:       cfg.Scanner.ErrorCooldown,
			SuccessDisplay: cfg.Scanner.SuccessDisplay,
		}, deps)
		defer machine.Close()
	} else {
		logger.Info("camera check-in disabled; set EVENT_ID and CAMERA_URL or CAMERA_FILE to enable it")
	}

	codeOpts := manualcode.Options{
		CodeLength: cfg.Manual.CodeLength,
		Dismiss:    cfg.Manual.PopupDismiss,
		Metrics:    collectors,
		Logger:     logger,
	}
	if jrnl != nil {
		codeOpts.Journal = jrnl
	}
	codes := manualcode.NewRegistry(submitter, codeOpts)
	defer codes.CloseAll()

	hub := realtime.NewHub(logger)
	kiosk.Publish(hub, machine, codes)

	handler := kiosk.NewHandler(machine, codes, registrations.NewService(api, logger), event, logger)
	bearer := middleware.Bearer(auth.NewInspector(cfg.Auth.Leeway))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	r.Use(middleware.Logger(logger, "/health", "/metrics"))

	r.GET("/health", func(c *gin.Context) {
		response.OK(c, gin.H{"status": "ok", "camera_checkin": machine != nil})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", realtime.ServeWs(hub, logger))
	handler.Register(r, bearer)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("kiosk listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	logger.Info("kiosk stopped")
}

// newDevice picks the snapshot camera when a URL is set, else the file replay camera.
func newDevice(cfg config.ScannerConfig, logger *zap.Logger) camera.Device {
	switch {
	case cfg.CameraURL != "":
		return camera.NewSnapshotDevice(cfg.CameraURL, cfg.Interval*4, logger)
	case cfg.CameraFile != "":
		return camera.FileDevice{Path: cfg.CameraFile}
	}
	return nil
}

func newLogger(level string) *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		config.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, _ := config.Build()
	return logger
}
