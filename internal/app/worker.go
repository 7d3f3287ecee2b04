package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Laktab-Noureddine-code/NessRH/internal/contract"
	"github.com/Laktab-Noureddine-code/NessRH/internal/messaging/kafka"
	"github.com/Laktab-Noureddine-code/NessRH/internal/messaging/kafka/producer"
	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/connection"
)

const contractSweepInterval = 1 * time.Hour

// RunWorker hosts the outbox relay and the contract expiry sweep.
func RunWorker() error {
	logger := zap.L().Named("app.worker")

	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	kafkaWriter, err := connection.ConnectKafkaWithRetry(kafkaBroker, 5)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	outboxRepo := kafka.NewOutboxRepository(sqlDB)
	contractRepo := contract.NewRepository(gormDB)
	contractService := contract.NewService(sqlDB, contractRepo, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go producer.ProcessOutboxEvents(
		ctx,
		outboxRepo,
		kafkaWriter,
		logger,
		3*time.Second,
	)

	go sweepContracts(ctx, contractService, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("worker shutting down")
	cancel()

	return nil
}

func sweepContracts(ctx context.Context, contracts contract.Service, logger *zap.Logger) {
	log := logger.Named("contract.sweep")
	ticker := time.NewTicker(contractSweepInterval)
	defer ticker.Stop()

	// One pass at startup so a long-idle deployment catches up
	// immediately.
	if _, err := contracts.SweepExpired(ctx); err != nil {
		log.Error("initial contract sweep failed", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("contract sweep stopped")
			return
		case <-ticker.C:
			if _, err := contracts.SweepExpired(ctx); err != nil {
				log.Error("contract sweep failed", zap.Error(err))
			}
		}
	}
}
