package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Laktab-Noureddine-code/NessRH/internal/bootstrap"
	"github.com/Laktab-Noureddine-code/NessRH/internal/events"
	"github.com/Laktab-Noureddine-code/NessRH/internal/messaging/kafka/consumer"
)

// RunConsumer subscribes to the lifecycle topics and feeds them into
// the audit trail.
func RunConsumer() error {
	logger := zap.L().Named("app.consumer")

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	audit := bootstrap.NewStdoutAuditLogger()

	employeeReader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{kafkaBroker},
		Topic:          events.EmployeeCreatedTopic,
		GroupID:        "nessrh-audit-employee",
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer employeeReader.Close()

	contractReader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{kafkaBroker},
		Topic:          events.ContractTerminatedTopic,
		GroupID:        "nessrh-audit-contract",
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer contractReader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.ConsumeEmployeeLifecycle(ctx, employeeReader, audit, logger)
	go consumer.ConsumeContractLifecycle(ctx, contractReader, audit, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()

	return nil
}
