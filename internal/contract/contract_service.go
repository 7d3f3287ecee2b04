package contract

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Laktab-Noureddine-code/NessRH/internal/authz"
	contracterrors "github.com/Laktab-Noureddine-code/NessRH/internal/contract/errors"
	"github.com/Laktab-Noureddine-code/NessRH/internal/events"
	"github.com/Laktab-Noureddine-code/NessRH/internal/messaging/kafka"
	"github.com/Laktab-Noureddine-code/NessRH/internal/organization"
	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/apperror"
	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/contextutil"
)

const dateLayout = "2006-01-02"

// EmployeeDirectory resolves the contract holder into its
// organization-graph view, by ID only.
type EmployeeDirectory interface {
	FindMember(ctx context.Context, employeeID string) (organization.Member, error)
}

type Service interface {
	Create(ctx context.Context, p authz.Principal, req CreateContractRequest) (ContractResponse, error)
	GetAll(ctx context.Context, p authz.Principal, employeeID string) ([]ContractResponse, error)
	GetByID(ctx context.Context, p authz.Principal, id string) (ContractResponse, error)
	Update(ctx context.Context, p authz.Principal, id string, req UpdateContractRequest) (ContractResponse, error)
	Terminate(ctx context.Context, p authz.Principal, id string) (ContractResponse, error)
	Delete(ctx context.Context, p authz.Principal, id string) error
	// SweepExpired persists the derived expired status for contracts
	// whose end date has passed. Run from the worker, not a handler.
	SweepExpired(ctx context.Context) (int64, error)
}

type service struct {
	db        *sql.DB
	repo      Repository
	employees EmployeeDirectory
	outbox    kafka.OutboxRepository
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(
	db *sql.DB,
	repo Repository,
	employees EmployeeDirectory,
	outboxRepo kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("contract.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("contract.service")
	}
	return &service{
		db:        db,
		repo:      repo,
		employees: employees,
		outbox:    outboxRepo,
		logger:    l,
		now:       time.Now,
	}
}

func employeeNotFoundError() error {
	return apperror.FieldError("employee_id", "Selected employee does not exist")
}

func crossTenantEmployeeError() error {
	return &apperror.AppError{
		Code:       "CROSS_TENANT_REFERENCE",
		Message:    "The given data was invalid",
		HTTPStatus: http.StatusUnprocessableEntity,
		Fields:     apperror.FieldErrors{"employee_id": {"Employee must belong to the same company"}},
	}
}

func invalidDateError(field string) error {
	return apperror.FieldError(field, "Date must use the YYYY-MM-DD format")
}

func endBeforeStartError() error {
	return apperror.FieldError("end_date", "End date must be on or after the start date")
}

func (s *service) Create(ctx context.Context, p authz.Principal, req CreateContractRequest) (ContractResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	decision := authz.Authorize(p, authz.ActionCreate, authz.Resource{
		Kind:      "contract",
		CompanyID: p.CompanyID,
	})
	if err := decision.Err(); err != nil {
		return ContractResponse{}, err
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return ContractResponse{}, invalidDateError("start_date")
	}

	var endDate *time.Time
	if req.EndDate != "" {
		parsed, err := time.Parse(dateLayout, req.EndDate)
		if err != nil {
			return ContractResponse{}, invalidDateError("end_date")
		}
		if parsed.Before(startDate) {
			return ContractResponse{}, endBeforeStartError()
		}
		endDate = &parsed
	}

	member, err := s.employees.FindMember(ctx, req.EmployeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ContractResponse{}, employeeNotFoundError()
		}
		return ContractResponse{}, err
	}
	if member.CompanyID.String() != p.CompanyID {
		return ContractResponse{}, crossTenantEmployeeError()
	}

	contractType := TypeCDI
	if req.Type != "" {
		contractType = Type(req.Type)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create contract begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return ContractResponse{}, err
	}
	defer tx.Rollback()

	contract := &Contract{
		ID:          uuid.New(),
		CompanyID:   member.CompanyID,
		EmployeeID:  member.ID,
		Type:        contractType,
		Status:      StatusActive,
		JobTitle:    req.JobTitle,
		StartDate:   startDate,
		EndDate:     endDate,
		GrossSalary: req.GrossSalary,
	}
	if req.FilePath != "" {
		contract.FilePath = &req.FilePath
	}

	if err := s.repo.WithTx(tx).Create(ctx, contract); err != nil {
		s.logger.Error("create contract persist failed", zap.String("request_id", rid), zap.Error(err))
		return ContractResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		return ContractResponse{}, err
	}

	s.logger.Info("contract created",
		zap.String("request_id", rid),
		zap.String("contract_id", contract.ID.String()),
		zap.String("employee_id", contract.EmployeeID.String()),
	)

	return s.mapToResponse(contract), nil
}

func (s *service) GetAll(ctx context.Context, p authz.Principal, employeeID string) ([]ContractResponse, error) {
	// Employees see their own contracts only, whatever filter the
	// request carries.
	if p.Role == authz.RoleEmployee {
		if p.EmployeeID == "" {
			return nil, authz.Authorize(p, authz.ActionRead, authz.Resource{
				Kind:      "contract",
				CompanyID: p.CompanyID,
			}).Err()
		}
		employeeID = p.EmployeeID
	} else {
		decision := authz.Authorize(p, authz.ActionRead, authz.Resource{
			Kind:      "contract",
			CompanyID: p.CompanyID,
		})
		if err := decision.Err(); err != nil {
			return nil, err
		}
	}

	contracts, err := s.repo.FindAllByCompany(ctx, p.CompanyID, employeeID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	return s.mapToListResponse(contracts), nil
}

func (s *service) GetByID(ctx context.Context, p authz.Principal, id string) (ContractResponse, error) {
	contract, err := s.repo.FindByIDAndCompany(ctx, p.CompanyID, id)
	if err != nil {
		return ContractResponse{}, mapRepositoryError(err)
	}

	decision := authz.Authorize(p, authz.ActionRead, authz.Resource{
		Kind:            "contract",
		CompanyID:       contract.CompanyID.String(),
		OwnerEmployeeID: contract.EmployeeID.String(),
	})
	if err := decision.Err(); err != nil {
		return ContractResponse{}, err
	}

	return s.mapToResponse(contract), nil
}

func (s *service) Update(ctx context.Context, p authz.Principal, id string, req UpdateContractRequest) (ContractResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ContractResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	contract, err := qtx.FindByIDAndCompany(ctx, p.CompanyID, id)
	if err != nil {
		return ContractResponse{}, mapRepositoryError(err)
	}

	decision := authz.Authorize(p, authz.ActionUpdate, authz.Resource{
		Kind:      "contract",
		CompanyID: contract.CompanyID.String(),
	})
	if err := decision.Err(); err != nil {
		return ContractResponse{}, err
	}

	if contract.EffectiveStatus(s.now()).Terminal() {
		return ContractResponse{}, contracterrors.ErrContractTerminal
	}

	if req.Type != "" {
		contract.Type = Type(req.Type)
	}
	contract.JobTitle = req.JobTitle
	contract.GrossSalary = req.GrossSalary
	if req.FilePath != "" {
		contract.FilePath = &req.FilePath
	}

	if req.EndDate != "" {
		parsed, err := time.Parse(dateLayout, req.EndDate)
		if err != nil {
			return ContractResponse{}, invalidDateError("end_date")
		}
		if parsed.Before(contract.StartDate) {
			return ContractResponse{}, endBeforeStartError()
		}
		contract.EndDate = &parsed
	}

	if err := qtx.Update(ctx, contract); err != nil {
		return ContractResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		return ContractResponse{}, err
	}

	return s.mapToResponse(contract), nil
}

func (s *service) Terminate(ctx context.Context, p authz.Principal, id string) (ContractResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ContractResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	contract, err := qtx.FindByIDAndCompany(ctx, p.CompanyID, id)
	if err != nil {
		return ContractResponse{}, mapRepositoryError(err)
	}

	decision := authz.Authorize(p, authz.ActionUpdate, authz.Resource{
		Kind:      "contract",
		CompanyID: contract.CompanyID.String(),
	})
	if err := decision.Err(); err != nil {
		return ContractResponse{}, err
	}

	if contract.EffectiveStatus(s.now()).Terminal() {
		return ContractResponse{}, contracterrors.ErrContractTerminal
	}

	now := s.now()
	contract.Status = StatusTerminated
	contract.TerminatedAt = &now

	if err := qtx.Update(ctx, contract); err != nil {
		return ContractResponse{}, mapRepositoryError(err)
	}

	if s.outbox != nil {
		event := events.ContractTerminatedEvent{
			EventType:  "contract_terminated",
			ContractID: contract.ID.String(),
			EmployeeID: contract.EmployeeID.String(),
			CompanyID:  contract.CompanyID.String(),
			OccurredAt: now.UTC(),
		}
		payload, err := json.Marshal(event)
		if err != nil {
			return ContractResponse{}, err
		}

		if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
			ID:            uuid.NewString(),
			RequestID:     rid,
			AggregateType: "contract",
			AggregateID:   contract.ID.String(),
			EventType:     event.EventType,
			Topic:         events.ContractTerminatedTopic,
			Payload:       payload,
			Status:        kafka.OutboxStatusPending,
		}); err != nil {
			s.logger.Error("terminate contract outbox persist failed",
				zap.String("contract_id", contract.ID.String()),
				zap.Error(err),
			)
			return ContractResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return ContractResponse{}, err
	}

	s.logger.Info("contract terminated",
		zap.String("request_id", rid),
		zap.String("contract_id", contract.ID.String()),
	)

	return s.mapToResponse(contract), nil
}

func (s *service) Delete(ctx context.Context, p authz.Principal, id string) error {
	contract, err := s.repo.FindByIDAndCompany(ctx, p.CompanyID, id)
	if err != nil {
		return mapRepositoryError(err)
	}

	decision := authz.Authorize(p, authz.ActionDelete, authz.Resource{
		Kind:      "contract",
		CompanyID: contract.CompanyID.String(),
	})
	if err := decision.Err(); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, p.CompanyID, id); err != nil {
		return mapRepositoryError(err)
	}

	s.logger.Info("contract deleted", zap.String("contract_id", id))
	return nil
}

func (s *service) SweepExpired(ctx context.Context) (int64, error) {
	count, err := s.repo.MarkExpired(ctx, s.now())
	if err != nil {
		s.logger.Error("contract expiry sweep failed", zap.Error(err))
		return 0, err
	}
	if count > 0 {
		s.logger.Info("contract expiry sweep", zap.Int64("expired", count))
	}
	return count, nil
}

func (s *service) mapToResponse(contract *Contract) ContractResponse {
	resp := ContractResponse{
		ID:          contract.ID.String(),
		CompanyID:   contract.CompanyID.String(),
		EmployeeID:  contract.EmployeeID.String(),
		Type:        string(contract.Type),
		Status:      string(contract.EffectiveStatus(s.now())),
		JobTitle:    contract.JobTitle,
		StartDate:   contract.StartDate.Format(dateLayout),
		GrossSalary: contract.GrossSalary,
		CreatedAt:   contract.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   contract.UpdatedAt.Format(time.RFC3339),
	}
	if contract.EndDate != nil {
		resp.EndDate = contract.EndDate.Format(dateLayout)
	}
	if contract.FilePath != nil {
		resp.FilePath = *contract.FilePath
	}
	if contract.TerminatedAt != nil {
		resp.TerminatedAt = contract.TerminatedAt.Format(time.RFC3339)
	}
	return resp
}

func (s *service) mapToListResponse(contracts []Contract) []ContractResponse {
	res := make([]ContractResponse, len(contracts))
	for i := range contracts {
		res[i] = s.mapToResponse(&contracts[i])
	}
	return res
}
