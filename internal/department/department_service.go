package department

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/Laktab-Noureddine-code/NessRH/internal/authz"
	"github.com/Laktab-Noureddine-code/NessRH/internal/organization"
	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/apperror"
	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/contextutil"
)

const (
	listCacheKeyPrefix = "departments:all:"
	listCacheTTL       = 30 * time.Minute
)

func listCacheKey(companyID string) string {
	return listCacheKeyPrefix + companyID
}

// EmployeeDirectory resolves an employee into its organization-graph
// view. Lookup is by ID only, deliberately unscoped: the tenant-match
// invariant is then enforced by the graph check, not hidden by a
// scoped query returning nothing.
type EmployeeDirectory interface {
	FindMember(ctx context.Context, employeeID string) (organization.Member, error)
}

type Service interface {
	Create(ctx context.Context, p authz.Principal, req CreateDepartmentRequest) (DepartmentResponse, error)
	GetAll(ctx context.Context, p authz.Principal, activeOnly bool) ([]DepartmentResponse, error)
	GetByID(ctx context.Context, p authz.Principal, id string) (DepartmentResponse, error)
	Update(ctx context.Context, p authz.Principal, id string, req UpdateDepartmentRequest) (DepartmentResponse, error)
	AssignManager(ctx context.Context, p authz.Principal, id string, req AssignManagerRequest) (DepartmentResponse, error)
	Delete(ctx context.Context, p authz.Principal, id string) error
}

type service struct {
	db        *sql.DB
	repo      Repository
	employees EmployeeDirectory
	rdb       *redis.Client
	sf        *singleflight.Group
	logger    *zap.Logger
}

func NewService(db *sql.DB, repo Repository, employees EmployeeDirectory, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("department.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("department.service")
	}
	return &service{
		db:        db,
		repo:      repo,
		employees: employees,
		rdb:       rdb,
		sf:        &singleflight.Group{},
		logger:    l,
	}
}

func crossTenantManagerError() error {
	return &apperror.AppError{
		Code:       "CROSS_TENANT_REFERENCE",
		Message:    "The given data was invalid",
		HTTPStatus: http.StatusUnprocessableEntity,
		Fields:     apperror.FieldErrors{"manager_id": {"Manager must be an employee of the same company"}},
	}
}

func managerNotFoundError() error {
	return apperror.FieldError("manager_id", "Selected manager does not exist")
}

// resolveManager validates a candidate manager against the graph
// invariant and returns its parsed id.
func (s *service) resolveManager(ctx context.Context, dept organization.Unit, managerID string) (*uuid.UUID, error) {
	member, err := s.employees.FindMember(ctx, managerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, managerNotFoundError()
		}
		return nil, err
	}

	if err := organization.CheckManagerAssignment(dept, member); err != nil {
		return nil, crossTenantManagerError()
	}

	return &member.ID, nil
}

func (s *service) Create(ctx context.Context, p authz.Principal, req CreateDepartmentRequest) (DepartmentResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	decision := authz.Authorize(p, authz.ActionCreate, authz.Resource{
		Kind:      "department",
		CompanyID: p.CompanyID,
	})
	if err := decision.Err(); err != nil {
		return DepartmentResponse{}, err
	}

	companyID, err := uuid.Parse(p.CompanyID)
	if err != nil {
		return DepartmentResponse{}, apperror.ErrUnauthenticated
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create department begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return DepartmentResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	taken, err := qtx.CodeExists(ctx, p.CompanyID, req.Code, "")
	if err != nil {
		return DepartmentResponse{}, err
	}
	if taken {
		return DepartmentResponse{}, codeTakenError()
	}

	dept := &Department{
		ID:        uuid.New(),
		CompanyID: companyID,
		Name:      req.Name,
		Code:      req.Code,
		IsActive:  true,
	}
	if req.IsActive != nil {
		dept.IsActive = *req.IsActive
	}

	if req.ManagerID != "" {
		managerID, err := s.resolveManager(ctx, dept.Unit(), req.ManagerID)
		if err != nil {
			return DepartmentResponse{}, err
		}
		dept.ManagerID = managerID
	}

	if err := qtx.Create(ctx, dept); err != nil {
		s.logger.Error("create department persist failed", zap.String("request_id", rid), zap.Error(err))
		return DepartmentResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		return DepartmentResponse{}, err
	}

	s.invalidateListCache(ctx, p.CompanyID)
	s.logger.Info("department created",
		zap.String("department_id", dept.ID.String()),
		zap.String("company_id", p.CompanyID),
	)

	return mapToResponse(dept), nil
}

func (s *service) GetAll(ctx context.Context, p authz.Principal, activeOnly bool) ([]DepartmentResponse, error) {
	decision := authz.Authorize(p, authz.ActionRead, authz.Resource{
		Kind:      "department",
		CompanyID: p.CompanyID,
	})
	if err := decision.Err(); err != nil {
		return nil, err
	}

	// The active-only view skips the cache; the full list is the hot
	// path for the SPA's org chart.
	if activeOnly {
		depts, err := s.repo.FindAllByCompany(ctx, p.CompanyID, true)
		if err != nil {
			return nil, mapRepositoryError(err)
		}
		return mapToListResponse(depts), nil
	}

	cacheKey := listCacheKey(p.CompanyID)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var resp []DepartmentResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		depts, err := s.repo.FindAllByCompany(ctx, p.CompanyID, false)
		if err != nil {
			return nil, mapRepositoryError(err)
		}

		resp := mapToListResponse(depts)

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, cacheKey, jsonData, listCacheTTL)
			}
		}

		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]DepartmentResponse), nil
}

func (s *service) GetByID(ctx context.Context, p authz.Principal, id string) (DepartmentResponse, error) {
	dept, err := s.repo.FindByIDAndCompany(ctx, p.CompanyID, id)
	if err != nil {
		return DepartmentResponse{}, mapRepositoryError(err)
	}

	decision := authz.Authorize(p, authz.ActionRead, resourceOf(dept))
	if err := decision.Err(); err != nil {
		return DepartmentResponse{}, err
	}

	return mapToResponse(dept), nil
}

func (s *service) Update(ctx context.Context, p authz.Principal, id string, req UpdateDepartmentRequest) (DepartmentResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return DepartmentResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	dept, err := qtx.FindByIDAndCompany(ctx, p.CompanyID, id)
	if err != nil {
		return DepartmentResponse{}, mapRepositoryError(err)
	}

	decision := authz.Authorize(p, authz.ActionUpdate, resourceOf(dept))
	if err := decision.Err(); err != nil {
		return DepartmentResponse{}, err
	}

	if req.Code != dept.Code {
		taken, err := qtx.CodeExists(ctx, p.CompanyID, req.Code, id)
		if err != nil {
			return DepartmentResponse{}, err
		}
		if taken {
			return DepartmentResponse{}, codeTakenError()
		}
	}

	dept.Name = req.Name
	dept.Code = req.Code
	if req.IsActive != nil {
		dept.IsActive = *req.IsActive
	}

	if err := qtx.Update(ctx, dept); err != nil {
		return DepartmentResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		return DepartmentResponse{}, err
	}

	s.invalidateListCache(ctx, p.CompanyID)

	return mapToResponse(dept), nil
}

func (s *service) AssignManager(ctx context.Context, p authz.Principal, id string, req AssignManagerRequest) (DepartmentResponse, error) {
	dept, err := s.repo.FindByIDAndCompany(ctx, p.CompanyID, id)
	if err != nil {
		return DepartmentResponse{}, mapRepositoryError(err)
	}

	decision := authz.Authorize(p, authz.ActionUpdate, resourceOf(dept))
	if err := decision.Err(); err != nil {
		return DepartmentResponse{}, err
	}

	member, err := s.employees.FindMember(ctx, req.ManagerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DepartmentResponse{}, managerNotFoundError()
		}
		return DepartmentResponse{}, err
	}

	if err := organization.CheckManagerAssignment(dept.Unit(), member); err != nil {
		if errors.Is(err, organization.ErrCrossTenantReference) {
			return DepartmentResponse{}, crossTenantManagerError()
		}
		return DepartmentResponse{}, err
	}

	dept.ManagerID = &member.ID

	if err := s.repo.Update(ctx, dept); err != nil {
		return DepartmentResponse{}, mapRepositoryError(err)
	}

	s.invalidateListCache(ctx, p.CompanyID)
	s.logger.Info("department manager assigned",
		zap.String("department_id", dept.ID.String()),
		zap.String("manager_id", member.ID.String()),
	)

	return mapToResponse(dept), nil
}

func (s *service) Delete(ctx context.Context, p authz.Principal, id string) error {
	dept, err := s.repo.FindByIDAndCompany(ctx, p.CompanyID, id)
	if err != nil {
		return mapRepositoryError(err)
	}

	decision := authz.Authorize(p, authz.ActionDelete, resourceOf(dept))
	if err := decision.Err(); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, p.CompanyID, id); err != nil {
		return mapRepositoryError(err)
	}

	s.invalidateListCache(ctx, p.CompanyID)
	return nil
}

func (s *service) invalidateListCache(ctx context.Context, companyID string) {
	if s.rdb == nil {
		return
	}
	key := listCacheKey(companyID)
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.logger.Error("invalidate department list cache failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

func resourceOf(dept *Department) authz.Resource {
	res := authz.Resource{
		Kind:      "department",
		CompanyID: dept.CompanyID.String(),
	}
	if dept.ManagerID != nil {
		res.ManagerEmployeeID = dept.ManagerID.String()
	}
	return res
}

func mapToResponse(dept *Department) DepartmentResponse {
	resp := DepartmentResponse{
		ID:        dept.ID.String(),
		CompanyID: dept.CompanyID.String(),
		Name:      dept.Name,
		Code:      dept.Code,
		IsActive:  dept.IsActive,
		CreatedAt: dept.CreatedAt.Format(time.RFC3339),
		UpdatedAt: dept.UpdatedAt.Format(time.RFC3339),
	}
	if dept.ManagerID != nil {
		resp.ManagerID = dept.ManagerID.String()
	}
	return resp
}

func mapToListResponse(depts []Department) []DepartmentResponse {
	res := make([]DepartmentResponse, len(depts))
	for i := range depts {
		res[i] = mapToResponse(&depts[i])
	}
	return res
}
