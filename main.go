package main

import (
	"context"

	"github.com/tradenote/tradenote/config"
	"github.com/tradenote/tradenote/models"
	"github.com/tradenote/tradenote/realtime"
	"github.com/tradenote/tradenote/routes"
	"github.com/tradenote/tradenote/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.Profile{},
		&models.Post{},
		&models.Comment{},
		&models.Notification{},
		&models.Follow{},
		&models.PageView{},
	)

	// Realtime hub rides Redis pub/sub; the relay stops with the process.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := realtime.NewHub(utils.GetRedis(), utils.Sugar)
	hub.Start(ctx)

	r := routes.SetupRouter(db, hub)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.RunServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
