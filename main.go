package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/borischow0801-web/OMS/config"
	"github.com/borischow0801-web/OMS/routes"
	"github.com/borischow0801-web/OMS/services"
	"github.com/borischow0801-web/OMS/storage"
)

func main() {
	config.Load()

	db := config.ConnectDB()
	if err := config.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	smsSvc := services.NewSmsService(db)
	queue := services.NewSmsQueue(smsSvc, 64)
	queue.Start()

	store := storage.NewDateBasedStore(config.Env("UPLOAD_DIR", "uploads"))

	r := routes.SetupRouter(db, store, smsSvc, queue)

	go func() {
		if err := r.Run(config.ListenAddr()); err != nil {
			log.Fatalf("server: %v", err)
		}
	}()

	// Drain queued SMS events before exiting.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	queue.Close()
}
