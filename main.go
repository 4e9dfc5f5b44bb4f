package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/artifact-scout/internal/audit"
	"github.com/example/artifact-scout/internal/auth"
	"github.com/example/artifact-scout/internal/classifier"
	"github.com/example/artifact-scout/internal/config"
	"github.com/example/artifact-scout/internal/handlers"
	"github.com/example/artifact-scout/internal/imageprocessor"
	"github.com/example/artifact-scout/internal/logging"
	"github.com/example/artifact-scout/internal/metrics"
	"github.com/example/artifact-scout/internal/repository"
	"github.com/example/artifact-scout/internal/resolver"
	"github.com/example/artifact-scout/internal/rpc"
	"github.com/example/artifact-scout/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db := initDatabase(ctx, cfg.DatabaseDSN, logger)
	repo := repository.NewArtifactRepository(db, logger)
	if err := repo.AutoMigrate(ctx); err != nil {
		logger.Fatal("auto migrate failed", zap.Error(err))
	}

	var cache resolver.Cache
	if cfg.RedisAddr != "" {
		redisCtx, redisCancel := context.WithTimeout(ctx, 5*time.Second)
		redisClient := initRedis(redisCtx, cfg.RedisAddr, logger)
		redisCancel()
		defer redisClient.Close()
		cache = resolver.NewRedisCache(redisClient, "artifact-scout:")
	}
	teams := resolver.NewTeamResolver(repo, cache, cfg.TeamCacheTTL, logger)

	vision := classifier.NewAnthropicClient(classifier.Config{
		APIKey:    cfg.AnthropicAPIKey,
		BaseURL:   cfg.AnthropicBaseURL,
		Model:     cfg.ClassifierModel,
		MaxTokens: cfg.ClassifierMaxTokens,
		Timeout:   cfg.ClassifierTimeout,
	}, logger)

	recorder := audit.NewRecorder(repo, cfg.AuditTimeout, logger)

	var processor imageprocessor.Client = imageprocessor.NewLocal(logger)
	if cfg.EnhancerAddr != "" {
		remote, conn, err := rpc.DialEnhancer(ctx, cfg.EnhancerAddr, logger)
		if err != nil {
			logger.Fatal("failed to connect to enhancer", zap.Error(err))
		}
		defer conn.Close()
		processor = remote
	}

	metrics.Register()

	if cfg.GRPCAddr != "" {
		listener, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			logger.Fatal("failed to listen for gRPC", zap.Error(err))
		}
		grpcServer := startGRPCServer(listener, imageprocessor.NewLocal(logger), logger)
		defer grpcServer.GracefulStop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = handlers.MaxUploadSize

	handlers.RegisterRoutes(r, handlers.Dependencies{
		Analyzer:    usecase.NewAnalysisUseCase(vision, teams, recorder, logger),
		Submissions: usecase.NewSubmissionUseCase(logger),
		Processor:   processor,
		Logger:      logger,
	}, auth.Optional(cfg.JWTSecret, cfg.JWTAudience))

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	logger.Info("artifact scout listening", zap.String("addr", cfg.HTTPAddr))
	if err := serveHTTPServer(server, cfg.ShutdownTimeout, logger); err != nil {
		logger.Error("server failed", zap.Error(err))
	}

	drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer drainCancel()
	if err := recorder.Close(drainCtx); err != nil {
		logger.Warn("audit writes still pending at shutdown", zap.Error(err))
	}
}

func initDatabase(ctx context.Context, dsn string, zapLogger *zap.Logger) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		zapLogger.Fatal("failed to access db handle", zap.Error(err))
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		zapLogger.Fatal("database ping failed", zap.Error(err))
	}

	return db
}

func initRedis(ctx context.Context, addr string, zapLogger *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	return client
}

func startGRPCServer(listener net.Listener, processor imageprocessor.Client, logger *zap.Logger) *grpc.Server {
	server := grpc.NewServer()
	rpc.RegisterEnhancerServer(server, rpc.NewEnhancerServer(processor, logger))
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Error("gRPC server stopped", zap.Error(err))
		}
	}()

	logger.Info("enhancer gRPC listening", zap.String("addr", listener.Addr().String()))
	return server
}

func serveHTTPServer(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	return serveHTTPServerWithOptions(server, shutdownTimeout, logger, nil, nil)
}

func serveHTTPServerWithOptions(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	var (
		sigCh       <-chan os.Signal
		stopSignals func()
	)

	if signalCh != nil {
		sigCh = signalCh
		stopSignals = func() {}
	} else {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		sigCh = ch
		stopSignals = func() {
			signal.Stop(ch)
		}
	}
	defer stopSignals()

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}
