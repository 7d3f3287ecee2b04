package consumer

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Laktab-Noureddine-code/NessRH/internal/bootstrap"
	"github.com/Laktab-Noureddine-code/NessRH/internal/events"
)

// ConsumeContractLifecycle feeds contract_terminated events into the
// audit trail.
func ConsumeContractLifecycle(
	ctx context.Context,
	reader *kafkago.Reader,
	audit bootstrap.AuditLogger,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.contract_lifecycle")
	log.Info("contract lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("contract lifecycle consumer stopped")
				return
			}
			log.Error("fetch contract lifecycle message failed", zap.Error(err))
			continue
		}

		var event events.ContractTerminatedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode contract_terminated event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		audit.Log(ctx, bootstrap.AuditLog{
			Action:  "CONTRACT_TERMINATED",
			Message: "Contract terminated",
			Meta: map[string]any{
				"contract_id": event.ContractID,
				"employee_id": event.EmployeeID,
				"company_id":  event.CompanyID,
				"occurred_at": event.OccurredAt,
			},
		})

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit contract lifecycle message failed", zap.Error(err))
			continue
		}

		log.Info("contract_terminated event audited",
			zap.String("contract_id", event.ContractID),
			zap.String("company_id", event.CompanyID),
		)
	}
}
