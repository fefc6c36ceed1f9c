package main

import (
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"slimelist/internal/app"
	"slimelist/internal/grpcserver"
	"slimelist/pkg/logger"
	"slimelist/pkg/utils"
)

func main() {
	configPath := flag.String("config", "", "path to slimelist.toml")
	flag.Parse()

	cfg, err := utils.Load(*configPath)
	if err != nil {
		logger.New(logger.Options{Name: "grpc-server"}).Error("load config failed", "error", err)
		os.Exit(1)
	}
	log := logger.New(logger.Options{Name: "grpc-server", Level: cfg.Logging.Level, JSON: cfg.Logging.JSON})

	a, err := app.New(cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	listener, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		log.Error("grpc listen failed", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		grpcserver.LoggingInterceptor(log.Named("rpc")),
		grpcserver.AuthInterceptor(a.Tokens, a.Users),
	))
	grpcserver.RegisterListServiceServer(grpcServer, grpcserver.NewServer(a.Tracker, a.Catalog))

	errCh := make(chan error, 1)
	go func() {
		log.Info("gRPC server listening", "addr", cfg.Server.GRPCAddr)
		errCh <- grpcServer.Serve(listener)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", "signal", sig.String())
		grpcServer.GracefulStop()
	case err := <-errCh:
		if err != nil {
			log.Error("grpc server stopped", "error", err)
		}
	}
	log.Info("server stopped")
}
