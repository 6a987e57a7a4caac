package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/brewpos/brewpos/config"
	"github.com/brewpos/brewpos/internal/app"
	"github.com/brewpos/brewpos/internal/webapi"
	"github.com/brewpos/brewpos/internal/webserver"
)

var (
	conffile = flag.String("c", "brewpos.yml", "config file path")
	initdb   = flag.Bool("initdb", false, "drop and recreate the database schema, then exit")
	showver  = flag.Bool("v", false, "print version and exit")
)

var version = "dev"

func main() {
	flag.Parse()

	if *showver {
		fmt.Printf("brewpos %s\n", version)
		return
	}

	cfg := config.LoadConfig(*conffile)
	cfg.InitDirs()

	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initdb {
		application.InitDb()
		zap.S().Info("database initialized")
		return
	}

	if err := webserver.Init(application); err != nil {
		zap.S().Fatalf("web server init failed: %v", err)
	}
	webapi.RegisterRoutes()

	go func() {
		if err := webserver.Start(); err != nil {
			zap.S().Fatalf("web server stopped: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	zap.S().Info("shutting down")
}
