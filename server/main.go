package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ponyo877/summitpoker/server/adaptor"
	"github.com/ponyo877/summitpoker/server/config"
	"github.com/ponyo877/summitpoker/server/domain"
	"github.com/ponyo877/summitpoker/server/observability"
	"github.com/ponyo877/summitpoker/server/repository"
	"github.com/ponyo877/summitpoker/server/usecase"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const serviceName = "summitpoker"

func main() {
	log.SetPrefix("[POKER] ")
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("summitpoker: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := observability.RunWithTelemetry(ctx, serviceName, func(ctx context.Context) error {
		return run(ctx, cfg)
	}); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	var repo usecase.Repository
	if cfg.TelemetryDB != "" {
		db, err := repository.Open(cfg.TelemetryDB)
		if err != nil {
			return err
		}
		defer db.Close()
		rp := repository.NewRepository(db)
		if err := rp.Migrate(ctx); err != nil {
			return err
		}
		repo = rp
		log.Printf("telemetry: writing to %s", cfg.TelemetryDB)
	} else {
		log.Printf("telemetry: sink disabled")
	}
	hub := domain.NewHub(cfg.SubscriberBuffer)
	store := domain.NewStore(hub)
	emitter := usecase.NewEmitter(repo, usecase.WithEmitterClock(store.Now))

	g, gctx := errgroup.WithContext(ctx)

	countdown := usecase.NewCountdown(store,
		usecase.WithTick(cfg.CountdownTick),
		usecase.WithBaseContext(gctx),
	)
	sweeper := usecase.NewSweeper(store, emitter,
		usecase.WithSweepInterval(cfg.SweepInterval),
		usecase.WithRoomTTL(cfg.RoomTTL),
		usecase.WithChatRetention(cfg.ChatRetention),
	)
	heartbeat := usecase.NewHeartbeat(store, emitter, cfg.HeartbeatInterval())
	uc := usecase.NewUsecase(store, countdown, heartbeat, emitter)
	ad := adaptor.NewAdaptor(uc)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}
	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(adaptor.LoggingInterceptor()),
		grpc.ChainStreamInterceptor(adaptor.StreamLoggingInterceptor()),
	)
	ad.Register(s)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(s, healthServer)
	healthServer.SetServingStatus(adaptor.ServiceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(s)

	httpServer := &http.Server{
		Addr:              cfg.HTTPListenAddr(),
		Handler:           adaptor.NewHTTPHandler(uc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		log.Printf("grpc: listening on %s", lis.Addr())
		return s.Serve(lis)
	})
	g.Go(func() error {
		log.Printf("http: listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return sweeper.Run(gctx) })
	g.Go(func() error { return heartbeat.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		log.Printf("shutting down")
		healthServer.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("http: shutdown: %v", err)
		}
		stopped := make(chan struct{})
		go func() {
			s.GracefulStop()
			close(stopped)
		}()
		// Watch streams only end when clients leave.
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			s.Stop()
		}
		return nil
	})

	err = g.Wait()
	countdown.Wait()
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}
