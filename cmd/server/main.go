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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/teresa-solution/tenant-order-service/internal/auth"
	"github.com/teresa-solution/tenant-order-service/internal/config"
	"github.com/teresa-solution/tenant-order-service/internal/httpapi"
	"github.com/teresa-solution/tenant-order-service/internal/monitoring"
	"github.com/teresa-solution/tenant-order-service/internal/service"
	"github.com/teresa-solution/tenant-order-service/internal/store"
	"github.com/teresa-solution/tenant-order-service/internal/telemetry"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

var version = "dev"

func main() {
	v := config.NewViper()
	cmd := &cobra.Command{
		Use:           "tenant-order-service",
		Short:         "Multi-tenant tenant and order management API",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), v)
		},
	}
	config.BindOptions(cmd.Flags(), v, config.ServerOptions)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("Server failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, v *viper.Viper) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	if err := config.SetupLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: telemetry.ServiceName,
		Version:     version,
		Stdout:      cfg.TraceStdout,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Error().Err(err).Msg("Failed to flush traces")
		}
	}()

	monitoring.InitMetrics()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	var verifier *auth.Verifier
	if cfg.AuthDisabled {
		log.Warn().Msg("Authentication is disabled; /tenants and /orders are open")
	} else {
		verifier, err = auth.NewVerifier(auth.Config{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			HMACSecret: cfg.AuthHMACSecret,
		})
		if err != nil {
			return err
		}
	}

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(httpapi.RouterConfig{
		Tenants:         service.NewTenantService(st.Tenants),
		Orders:          service.NewOrderService(st.Orders, st.Tenants),
		Verifier:        verifier,
		CORSOrigins:     cfg.CORSOrigins,
		DefaultPageSize: cfg.DefaultPageSize,
		MaxPageSize:     cfg.MaxPageSize,
	})

	apiServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           metricsMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(telemetry.ServiceName, healthpb.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.StoreDriver).Msg("Starting Tenant Order Service")
		return serveHTTP(apiServer)
	})
	g.Go(func() error {
		log.Info().Str("addr", cfg.MetricsAddr).Msg("HTTP server for health checks and metrics started")
		return serveHTTP(metricsServer)
	})
	g.Go(func() error {
		log.Info().Msgf("gRPC health server listening at %v", lis.Addr())
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")
		healthServer.Shutdown()

		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := apiServer.Shutdown(sctx); err != nil {
			log.Error().Err(err).Msg("API server shutdown")
		}
		if err := metricsServer.Shutdown(sctx); err != nil {
			log.Error().Err(err).Msg("Metrics server shutdown")
		}
		grpcServer.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("Server exiting")
	return nil
}

func openStore(ctx context.Context, cfg config.Config) (*store.Store, error) {
	key, err := cfg.CursorKeyBytes()
	if err != nil {
		return nil, err
	}
	if key == nil {
		log.Warn().Msg("No cursor key configured; pagination cursors will not survive a restart")
	}
	cursors, err := store.NewCursorCodec(key)
	if err != nil {
		return nil, err
	}

	switch cfg.StoreDriver {
	case "redis":
		return store.NewRedisStore(ctx, store.RedisConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.KeyPrefix,
		}, cursors)
	default:
		return store.NewPostgresStore(ctx, store.PostgresConfig{
			DSN:          cfg.PostgresDSN(),
			TenantsTable: cfg.TenantsTable,
			OrdersTable:  cfg.OrdersTable,
		}, cursors)
	}
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// serveHTTP treats a graceful shutdown as success
func serveHTTP(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
