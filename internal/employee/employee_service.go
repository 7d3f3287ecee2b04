package employee

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/Laktab-Noureddine-code/NessRH/internal/authz"
	"github.com/Laktab-Noureddine-code/NessRH/internal/events"
	"github.com/Laktab-Noureddine-code/NessRH/internal/messaging/kafka"
	"github.com/Laktab-Noureddine-code/NessRH/internal/organization"
	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/apperror"
	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/contextutil"
	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/counter"
)

const (
	OptionsKeyPrefix = "employees:options:"
	optionsCacheTTL  = 1 * time.Hour

	hireDateLayout = "2006-01-02"
)

func GetOptionsKey(companyID string) string {
	return OptionsKeyPrefix + companyID
}

// DepartmentDirectory resolves a department into its organization-graph
// view, by ID only. Tenant match stays with the graph check.
type DepartmentDirectory interface {
	FindUnit(ctx context.Context, departmentID string) (organization.Unit, error)
}

type Service interface {
	Create(ctx context.Context, p authz.Principal, req CreateEmployeeRequest) (EmployeeResponse, error)
	GetAll(ctx context.Context, p authz.Principal, departmentID string) ([]EmployeeResponse, error)
	GetOptions(ctx context.Context, p authz.Principal) ([]EmployeeOptionResponse, error)
	GetByID(ctx context.Context, p authz.Principal, id string) (EmployeeResponse, error)
	Update(ctx context.Context, p authz.Principal, id string, req UpdateEmployeeRequest) (EmployeeResponse, error)
	MoveDepartment(ctx context.Context, p authz.Principal, id string, req MoveDepartmentRequest) (EmployeeResponse, error)
	Delete(ctx context.Context, p authz.Principal, id string) error
}

type service struct {
	db          *sql.DB
	repo        Repository
	departments DepartmentDirectory
	counter     counter.Repository
	outbox      kafka.OutboxRepository
	rdb         *redis.Client
	sf          *singleflight.Group
	logger      *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	departments DepartmentDirectory,
	counterRepo counter.Repository,
	rdb *redis.Client,
	logger ...*zap.Logger,
) Service {
	return NewServiceWithOutbox(db, repo, departments, counterRepo, nil, rdb, logger...)
}

func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	departments DepartmentDirectory,
	counterRepo counter.Repository,
	outboxRepo kafka.OutboxRepository,
	rdb *redis.Client,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{
		db:          db,
		repo:        repo,
		departments: departments,
		counter:     counterRepo,
		outbox:      outboxRepo,
		rdb:         rdb,
		sf:          &singleflight.Group{},
		logger:      l,
	}
}

func invalidHireDateError() error {
	return apperror.FieldError("hire_date", "Hire date must use the YYYY-MM-DD format")
}

func departmentNotFoundError() error {
	return apperror.FieldError("department_id", "Selected department does not exist")
}

func crossTenantDepartmentError() error {
	return &apperror.AppError{
		Code:       "CROSS_TENANT_REFERENCE",
		Message:    "The given data was invalid",
		HTTPStatus: http.StatusUnprocessableEntity,
		Fields:     apperror.FieldErrors{"department_id": {"Department must belong to the same company"}},
	}
}

// resolveUnit loads the target department and rejects units from
// another company.
func (s *service) resolveUnit(ctx context.Context, p authz.Principal, departmentID string) (organization.Unit, error) {
	unit, err := s.departments.FindUnit(ctx, departmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return organization.Unit{}, departmentNotFoundError()
		}
		return organization.Unit{}, err
	}
	if unit.CompanyID.String() != p.CompanyID {
		return organization.Unit{}, crossTenantDepartmentError()
	}
	return unit, nil
}

func (s *service) Create(ctx context.Context, p authz.Principal, req CreateEmployeeRequest) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create employee requested",
		zap.String("request_id", rid),
		zap.String("company_id", p.CompanyID),
		zap.String("email", req.Email),
	)

	res := authz.Resource{Kind: "employee", CompanyID: p.CompanyID}

	var deptID *uuid.UUID
	if req.DepartmentID != "" {
		unit, err := s.resolveUnit(ctx, p, req.DepartmentID)
		if err != nil {
			return EmployeeResponse{}, err
		}
		deptID = &unit.ID
		if unit.ManagerID != nil {
			res.ManagerEmployeeID = unit.ManagerID.String()
		}
	}

	if err := authz.Authorize(p, authz.ActionCreate, res).Err(); err != nil {
		return EmployeeResponse{}, err
	}

	hireDate, err := time.Parse(hireDateLayout, req.HireDate)
	if err != nil {
		return EmployeeResponse{}, invalidHireDateError()
	}

	companyID, err := uuid.Parse(p.CompanyID)
	if err != nil {
		return EmployeeResponse{}, apperror.ErrUnauthenticated
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create employee begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if req.EmployeeNumber == "" {
		nextVal, err := s.counter.GetNextValue(ctx, p.CompanyID, "employee_number")
		if err != nil {
			s.logger.Error("create employee generate number failed", zap.Error(err))
			return EmployeeResponse{}, err
		}
		req.EmployeeNumber = fmt.Sprintf("EMP-%06d", nextVal)
	}

	empl := &Employee{
		ID:             uuid.New(),
		CompanyID:      companyID,
		DepartmentID:   deptID,
		FullName:       req.FullName,
		Email:          req.Email,
		EmployeeNumber: req.EmployeeNumber,
		Phone:          req.Phone,
		HireDate:       hireDate,
		IsActive:       true,
	}

	if err := qtx.Create(ctx, empl); err != nil {
		s.logger.Error("create employee persist failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if s.outbox != nil {
		event := events.EmployeeCreatedEvent{
			EventType:      "employee_created",
			EmployeeID:     empl.ID.String(),
			CompanyID:      p.CompanyID,
			EmployeeNumber: empl.EmployeeNumber,
			OccurredAt:     time.Now().UTC(),
		}
		if empl.DepartmentID != nil {
			event.DepartmentID = empl.DepartmentID.String()
		}
		payload, err := json.Marshal(event)
		if err != nil {
			return EmployeeResponse{}, err
		}

		if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
			ID:            uuid.NewString(),
			RequestID:     rid,
			AggregateType: "employee",
			AggregateID:   empl.ID.String(),
			EventType:     event.EventType,
			Topic:         events.EmployeeCreatedTopic,
			Payload:       payload,
			Status:        kafka.OutboxStatusPending,
		}); err != nil {
			s.logger.Error("create employee outbox persist failed",
				zap.String("employee_id", empl.ID.String()),
				zap.Error(err),
			)
			return EmployeeResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create employee commit failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.invalidateOptionsCache(ctx, p.CompanyID)
	s.logger.Info("create employee success",
		zap.String("request_id", rid),
		zap.String("employee_id", empl.ID.String()),
	)

	return mapToResponse(empl), nil
}

func (s *service) GetAll(ctx context.Context, p authz.Principal, departmentID string) ([]EmployeeResponse, error) {
	decision := authz.Authorize(p, authz.ActionRead, authz.Resource{
		Kind:      "employee",
		CompanyID: p.CompanyID,
	})
	if err := decision.Err(); err != nil {
		return nil, err
	}

	empls, err := s.repo.FindAllByCompany(ctx, p.CompanyID, departmentID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	return mapToListResponse(empls), nil
}

func (s *service) GetOptions(ctx context.Context, p authz.Principal) ([]EmployeeOptionResponse, error) {
	decision := authz.Authorize(p, authz.ActionRead, authz.Resource{
		Kind:      "employee",
		CompanyID: p.CompanyID,
	})
	if err := decision.Err(); err != nil {
		return nil, err
	}

	cacheKey := GetOptionsKey(p.CompanyID)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var resp []EmployeeOptionResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		empls, err := s.repo.FindOptionsByCompany(ctx, p.CompanyID)
		if err != nil {
			return nil, mapRepositoryError(err)
		}

		resp := make([]EmployeeOptionResponse, len(empls))
		for i := range empls {
			resp[i] = EmployeeOptionResponse{
				ID:       empls[i].ID.String(),
				FullName: empls[i].FullName,
			}
		}

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, cacheKey, jsonData, optionsCacheTTL)
			}
		}

		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]EmployeeOptionResponse), nil
}

func (s *service) GetByID(ctx context.Context, p authz.Principal, id string) (EmployeeResponse, error) {
	empl, err := s.repo.FindByIDAndCompany(ctx, p.CompanyID, id)
	if err != nil {
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	decision := authz.Authorize(p, authz.ActionRead, authz.Resource{
		Kind:            "employee",
		CompanyID:       empl.CompanyID.String(),
		OwnerEmployeeID: empl.ID.String(),
	})
	if err := decision.Err(); err != nil {
		return EmployeeResponse{}, err
	}

	return mapToResponse(empl), nil
}

// writeResource builds the authorization view for a write on an
// existing employee: the manager of the current department owns it.
func (s *service) writeResource(ctx context.Context, empl *Employee) (authz.Resource, error) {
	res := authz.Resource{
		Kind:            "employee",
		CompanyID:       empl.CompanyID.String(),
		OwnerEmployeeID: empl.ID.String(),
	}
	if empl.DepartmentID == nil {
		return res, nil
	}

	unit, err := s.departments.FindUnit(ctx, empl.DepartmentID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return res, nil
		}
		return authz.Resource{}, err
	}
	if unit.ManagerID != nil {
		res.ManagerEmployeeID = unit.ManagerID.String()
	}
	return res, nil
}

func (s *service) Update(ctx context.Context, p authz.Principal, id string, req UpdateEmployeeRequest) (EmployeeResponse, error) {
	hireDate, err := time.Parse(hireDateLayout, req.HireDate)
	if err != nil {
		return EmployeeResponse{}, invalidHireDateError()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	empl, err := qtx.FindByIDAndCompany(ctx, p.CompanyID, id)
	if err != nil {
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	res, err := s.writeResource(ctx, empl)
	if err != nil {
		return EmployeeResponse{}, err
	}
	if err := authz.Authorize(p, authz.ActionUpdate, res).Err(); err != nil {
		return EmployeeResponse{}, err
	}

	empl.FullName = req.FullName
	empl.Email = req.Email
	empl.Phone = req.Phone
	empl.HireDate = hireDate
	if req.IsActive != nil {
		empl.IsActive = *req.IsActive
	}

	if err := qtx.Update(ctx, empl); err != nil {
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		return EmployeeResponse{}, err
	}

	s.invalidateOptionsCache(ctx, p.CompanyID)
	s.logger.Info("update employee success", zap.String("employee_id", id))

	return mapToResponse(empl), nil
}

func (s *service) MoveDepartment(ctx context.Context, p authz.Principal, id string, req MoveDepartmentRequest) (EmployeeResponse, error) {
	empl, err := s.repo.FindByIDAndCompany(ctx, p.CompanyID, id)
	if err != nil {
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	res, err := s.writeResource(ctx, empl)
	if err != nil {
		return EmployeeResponse{}, err
	}
	if err := authz.Authorize(p, authz.ActionUpdate, res).Err(); err != nil {
		return EmployeeResponse{}, err
	}

	unit, err := s.departments.FindUnit(ctx, req.DepartmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EmployeeResponse{}, departmentNotFoundError()
		}
		return EmployeeResponse{}, err
	}

	if err := organization.CheckEmployeeMove(empl.Member(), unit); err != nil {
		if errors.Is(err, organization.ErrCrossTenantReference) {
			return EmployeeResponse{}, crossTenantDepartmentError()
		}
		return EmployeeResponse{}, err
	}

	empl.DepartmentID = &unit.ID

	if err := s.repo.Update(ctx, empl); err != nil {
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	s.invalidateOptionsCache(ctx, p.CompanyID)
	s.logger.Info("employee moved",
		zap.String("employee_id", empl.ID.String()),
		zap.String("department_id", unit.ID.String()),
	)

	return mapToResponse(empl), nil
}

func (s *service) Delete(ctx context.Context, p authz.Principal, id string) error {
	empl, err := s.repo.FindByIDAndCompany(ctx, p.CompanyID, id)
	if err != nil {
		return mapRepositoryError(err)
	}

	res, err := s.writeResource(ctx, empl)
	if err != nil {
		return err
	}
	if err := authz.Authorize(p, authz.ActionDelete, res).Err(); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, p.CompanyID, id); err != nil {
		return mapRepositoryError(err)
	}

	s.invalidateOptionsCache(ctx, p.CompanyID)
	s.logger.Info("delete employee success", zap.String("employee_id", id))
	return nil
}

func (s *service) invalidateOptionsCache(ctx context.Context, companyID string) {
	if s.rdb == nil {
		return
	}
	key := GetOptionsKey(companyID)
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.logger.Error("invalidate employee options cache failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

func mapToResponse(empl *Employee) EmployeeResponse {
	resp := EmployeeResponse{
		ID:             empl.ID.String(),
		CompanyID:      empl.CompanyID.String(),
		FullName:       empl.FullName,
		Email:          empl.Email,
		EmployeeNumber: empl.EmployeeNumber,
		Phone:          empl.Phone,
		HireDate:       empl.HireDate.Format(hireDateLayout),
		IsActive:       empl.IsActive,
		CreatedAt:      empl.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      empl.UpdatedAt.Format(time.RFC3339),
	}
	if empl.DepartmentID != nil {
		resp.DepartmentID = empl.DepartmentID.String()
	}
	return resp
}

func mapToListResponse(empls []Employee) []EmployeeResponse {
	res := make([]EmployeeResponse, len(empls))
	for i := range empls {
		res[i] = mapToResponse(&empls[i])
	}
	return res
}
