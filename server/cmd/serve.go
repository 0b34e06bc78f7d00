package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	pb "github.com/ponyo877/sketchsphere/grpc"
	"github.com/ponyo877/sketchsphere/discovery"
	"github.com/ponyo877/sketchsphere/server/adaptor"
	"github.com/ponyo877/sketchsphere/server/domain"
	"github.com/ponyo877/sketchsphere/server/metrics"
	"github.com/ponyo877/sketchsphere/server/repository"
	"github.com/ponyo877/sketchsphere/server/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const shutdownTimeout = 10 * time.Second

// Run serves gRPC and HTTP until ctx is done.
func Run(ctx context.Context, cfg Config, logger *slog.Logger) error {
	db, err := repository.Open(cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	hub := domain.NewHub(domain.WithDropHandler(func(sessionID string, event domain.Event) {
		m.EventDropped(event.Type.String())
		logger.Warn("outbound queue full, event dropped", "session", sessionID, "event", event.Type.String(), "room", event.RoomID)
	}))
	uc := usecase.NewBoardUsecase(hub, repository.NewRepository(db),
		usecase.WithRecorder(m),
		usecase.WithLogger(logger),
		usecase.WithChatHistoryLimit(cfg.ChatHistoryLimit),
	)
	ad := adaptor.NewAdaptor(uc,
		adaptor.WithLogger(logger),
		adaptor.WithBufferSize(cfg.SessionBufferSize),
		adaptor.WithAllowedOrigins(cfg.AllowedOrigins),
	)

	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.GRPCAddr, err)
	}
	httpLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		grpcLis.Close()
		return fmt.Errorf("failed to listen on %s: %w", cfg.HTTPAddr, err)
	}

	// Stop returns only after Connect handlers have left their rooms, so no
	// session outlives the database.
	s := grpc.NewServer(grpc.WaitForHandlers(true))
	pb.RegisterBoardServiceServer(s, ad)
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(s, healthSrv)
	healthSrv.SetServingStatus(pb.BoardService_ServiceDesc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(s)

	gin.SetMode(gin.ReleaseMode)
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpSrv := &http.Server{
		Handler:           adaptor.NewRouter(ad, reg),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	// hijacked WebSocket connections watch the base context
	httpSrv.RegisterOnShutdown(cancelBase)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("gRPC server listening", "addr", grpcLis.Addr().String())
		if err := s.Serve(grpcLis); err != nil {
			return fmt.Errorf("gRPC server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", httpLis.Addr().String())
		if err := httpSrv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})
	if cfg.MDNSEnabled {
		g.Go(func() error {
			return advertise(ctx, cfg.MDNSInstance, grpcLis.Addr().String(), httpLis.Addr().String(), logger)
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		healthSrv.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP shutdown incomplete", "error", err)
		}
		if err := ad.WaitWebSockets(shutdownCtx); err != nil {
			logger.Warn("WebSocket sessions still open", "error", err)
		}

		// open board streams never end on their own
		stopped := make(chan struct{})
		go func() {
			s.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			s.Stop()
		}
		return nil
	})

	err = g.Wait()
	logger.Info("server stopped", "stats", uc.Stats())
	return err
}

func advertise(ctx context.Context, instance, grpcAddr, httpAddr string, logger *slog.Logger) error {
	grpcPort, err := discovery.PortFromAddr(grpcAddr)
	if err != nil {
		return err
	}
	httpPort, err := discovery.PortFromAddr(httpAddr)
	if err != nil {
		return err
	}
	server, err := discovery.Advertise(discovery.Service{
		Instance: instance,
		GRPCPort: grpcPort,
		HTTPPort: httpPort,
	})
	if err != nil {
		return err
	}
	logger.Info("advertising over mDNS", "service", discovery.ServiceType, "grpc_port", grpcPort, "http_port", httpPort)

	<-ctx.Done()
	return server.Shutdown()
}
