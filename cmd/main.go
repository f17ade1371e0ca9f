package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/harmoni/harmoniconnect/internal/config"
	"github.com/harmoni/harmoniconnect/internal/db"
	"github.com/harmoni/harmoniconnect/internal/httpapi"
	"github.com/harmoni/harmoniconnect/internal/jobs"
	"github.com/harmoni/harmoniconnect/internal/logging"
	"github.com/harmoni/harmoniconnect/internal/model"
	"github.com/harmoni/harmoniconnect/internal/payments"
	"github.com/harmoni/harmoniconnect/internal/repository"
	"github.com/harmoni/harmoniconnect/internal/service"
	"github.com/harmoni/harmoniconnect/internal/validation"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// 1. Загружаем конфиг из .env и окружения.
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	// 2. Логгер.
	log := logging.New(cfg.Log.Level, cfg.Log.Format)
	if cfg.Debug {
		log.SetLevel(logrus.DebugLevel)
	}

	// Для локальной отладки: `harmoniconnect token <user-id>` печатает токен.
	if len(os.Args) == 3 && os.Args[1] == "token" {
		printToken(cfg, os.Args[2])
		return
	}

	// 3. Подключаемся к БД через GORM.
	gormDB, err := db.NewGormDB(cfg.DB, log)
	if err != nil {
		log.Fatalf("init db: %v", err)
	}

	// 4. Миграции моделей.
	if err := model.AutoMigrate(gormDB); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("sql DB: %v", err)
	}
	defer sqlDB.Close()

	// 5. Репозитории и валидатор.
	repos := repository.New(gormDB)
	validator := validation.New(repos, nil)

	// 6. Платёжный шлюз: без URL работаем в песочнице.
	var gateway payments.Gateway = payments.SandboxGateway{}
	if cfg.Payments.GatewayURL != "" {
		gateway = payments.NewHTTPGateway(cfg.Payments.GatewayURL, cfg.Payments.GatewayKey, cfg.Payments.Timeout, log)
	} else {
		log.Warn("PAYMENT_GATEWAY_URL is empty, using sandbox gateway")
	}

	// 7. Сервисы.
	deps := service.Deps{
		Repos:        repos,
		Validator:    validator,
		Logger:       log,
		ReadAttempts: cfg.ReadRetryAttempts,
	}
	bookings := service.NewBookingService(deps)
	services := httpapi.Services{
		Identity:     service.NewIdentityService(deps),
		Providers:    service.NewProviderService(deps),
		Catalog:      service.NewCatalogService(deps),
		Bookings:     bookings,
		Reviews:      service.NewReviewService(deps),
		Payments:     service.NewPaymentService(deps, gateway),
		EventDetails: service.NewEventDetailsService(deps),
		Store:        repos,
	}

	// 8. HTTP API.
	gin.SetMode(cfg.HTTP.GinMode)
	router := httpapi.NewRouter(services, httpapi.Options{
		JWTSecret:      []byte(cfg.Auth.JWTSecret),
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		Logger:         log,
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("HTTP API listening on %s", cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http serve: %v", err)
		}
	}()

	// 9. gRPC: health-check и reflection для оркестратора.
	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen %s: %v", cfg.GRPCAddr, err)
	}

	go func() {
		log.Infof("gRPC health listening on %s", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("grpc serve: %v", err)
		}
	}()

	// статус health-check следует за доступностью БД
	probeCtx, stopProbe := context.WithCancel(context.Background())
	defer stopProbe()
	go probeStore(probeCtx, repos, healthSrv, log)

	// 10. Фоновые задачи.
	scheduler, err := jobs.NewScheduler(cfg.Jobs.ExpirePendingCron, bookings, log)
	if err != nil {
		log.Fatalf("init jobs: %v", err)
	}
	scheduler.Start()

	// 11. Грейсфул-шатдаун по сигналу.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down...")
	healthSrv.Shutdown()
	stopProbe()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	scheduler.Stop(ctx)
	grpcServer.GracefulStop()
}

func probeStore(ctx context.Context, store httpapi.Pinger, srv *health.Server, log *logrus.Logger) {
	t := time.NewTicker(10 * time.Second)
	defer t.Stop()

	for {
		status := healthpb.HealthCheckResponse_SERVING
		if err := store.Ping(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.WithError(err).Warn("store ping failed")
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		srv.SetServingStatus("", status)

		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func printToken(cfg *config.Config, rawID string) {
	userID, err := uuid.Parse(rawID)
	if err != nil {
		logrus.Fatalf("parse user id: %v", err)
	}
	tok, err := httpapi.GenerateToken([]byte(cfg.Auth.JWTSecret), userID, cfg.Auth.TokenTTL)
	if err != nil {
		logrus.Fatalf("sign token: %v", err)
	}
	fmt.Println(tok)
}
