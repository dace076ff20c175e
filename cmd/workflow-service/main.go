package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fuelserve/internal/shared/config"
	"fuelserve/internal/shared/db"
	"fuelserve/internal/shared/health"
	"fuelserve/internal/shared/mq"
	"fuelserve/internal/shared/util"
	"fuelserve/internal/workflow/api"
	"fuelserve/internal/workflow/app"
	"fuelserve/internal/workflow/events"
	"fuelserve/internal/workflow/psql"
)

func main() {
	log := util.New()

	log.Info("WorkflowService", "Starting service initialization...")

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatal("Config", err)
	}
	log.OK("Config", "Configuration loaded successfully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	database, err := db.ConnectToDB(ctx, &cfg.Database)
	cancel()
	if err != nil {
		log.Fatal("Database", err)
	}
	defer database.Close()
	log.OK("Database", "Connected successfully")

	hub := api.NewHub(log)
	publishers := events.Fanout{hub}

	// The service stays up without RabbitMQ; events then only reach
	// connected websocket clients.
	rmqConn, rmqCh, err := mq.ConnectToRMQ(&cfg.RabbitMQ)
	if err != nil {
		log.Warn("RabbitMQ", "unavailable, continuing without event publishing: "+err.Error())
	} else {
		defer rmqConn.Close()
		defer rmqCh.Close()

		amqpPub, err := events.NewAMQPPublisher(mq.NewPublisher(rmqCh))
		if err != nil {
			log.Fatal("RabbitMQ", err)
		}
		publishers = append(publishers, amqpPub)
		log.OK("RabbitMQ", "Connected successfully")
	}

	store := psql.NewStore(database)
	service := app.NewWorkflowService(store, publishers, log, cfg.Workflow.CommissionRate)
	handler := api.NewHandler(service, log, []byte(cfg.Workflow.JWTSecret), hub)

	mux := handler.Router(health.Handler("workflow-service", database, rmqConn))

	server := &http.Server{
		Addr:    ":" + cfg.HTTP.Port,
		Handler: mux,
	}

	go func() {
		log.OK("HTTP", "workflow-service running on :"+cfg.HTTP.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Warn("WorkflowService", "Shutting down workflow-service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP", err)
	} else {
		log.OK("HTTP", "Server stopped gracefully")
	}
	log.Info("WorkflowService", "Shutdown complete")
}
