package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/barberdesk/barberdesk/config"
	"github.com/barberdesk/barberdesk/internal/adminapi"
	"github.com/barberdesk/barberdesk/internal/app"
	"github.com/barberdesk/barberdesk/internal/shopapi"
	"github.com/barberdesk/barberdesk/internal/webserver"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("c", "barberdesk.yml", "config file path")
	initDb     = flag.Bool("initdb", false, "drop and recreate all tables, then exit")
	showVer    = flag.Bool("v", false, "print version and exit")
)

var version = "dev"

// @title BarberDesk API
// @version 1.0
// @description Barbershop e-commerce and appointment booking backend.
// @BasePath /api/v1
func main() {
	flag.Parse()

	if *showVer {
		fmt.Println("barberdesk", version)
		return
	}

	cfg := config.LoadConfig(*configFile)

	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initDb {
		application.InitDb()
		zap.L().Info("database initialized")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application.StartBackgroundJobs(ctx)

	adminapi.InitRouter()
	shopapi.InitRouter()
	server := webserver.Init(application)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		zap.L().Error("web server stopped", zap.Error(err))
	case sig := <-sigCh:
		zap.L().Info("shutting down", zap.String("signal", sig.String()))
	}
}
