package main

import (
	"context"
	_ "time/tzdata"

	"roomsync/internal/engine"
	"roomsync/pkg/app"
	"roomsync/pkg/config"
)

const ServiceName = "roomsync"

func main() {
	cfg := config.Load(ServiceName)
	if cfg.UsesMongo() {
		cfg.SetMongo()
	}

	cfg.Log.Info("Starting room synchronization engine")
	e, err := engine.New(cfg, engine.Options{})
	if err != nil {
		cfg.Log.Fatal("Failed to initialize engine", "error", err)
	}
	e.Start(context.Background())

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(e)
	serverApp.Run()
}
