package department_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/Laktab-Noureddine-code/NessRH/internal/authz"
	"github.com/Laktab-Noureddine-code/NessRH/internal/department"
	"github.com/Laktab-Noureddine-code/NessRH/internal/organization"
	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/apperror"
)

type fakeRepo struct {
	departments []department.Department
	byID        *department.Department
	findErr     error
	codeTaken   bool
	createErr   error
	updateErr   error
	deleteErr   error

	created            *department.Department
	updated            *department.Department
	deleted            bool
	codeCheckedCompany string
}

func (f *fakeRepo) WithTx(tx *sql.Tx) department.Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, dept *department.Department) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = dept
	return nil
}

func (f *fakeRepo) FindAllByCompany(ctx context.Context, companyID string, activeOnly bool) ([]department.Department, error) {
	return f.departments, f.findErr
}

func (f *fakeRepo) FindByIDAndCompany(ctx context.Context, companyID, id string) (*department.Department, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.byID, nil
}

func (f *fakeRepo) CodeExists(ctx context.Context, companyID, code, excludeID string) (bool, error) {
	f.codeCheckedCompany = companyID
	return f.codeTaken, nil
}

func (f *fakeRepo) Update(ctx context.Context, dept *department.Department) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = dept
	return nil
}

func (f *fakeRepo) FindUnit(ctx context.Context, id string) (organization.Unit, error) {
	if f.byID == nil {
		return organization.Unit{}, gorm.ErrRecordNotFound
	}
	return f.byID.Unit(), nil
}

func (f *fakeRepo) Delete(ctx context.Context, companyID, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = true
	return nil
}

type fakeDirectory struct {
	member organization.Member
	err    error
}

func (f *fakeDirectory) FindMember(ctx context.Context, employeeID string) (organization.Member, error) {
	return f.member, f.err
}

type serviceDeps struct {
	db        *sql.DB
	sqlMock   sqlmock.Sqlmock
	service   department.Service
	repo      *fakeRepo
	directory *fakeDirectory
	redismock redismock.ClientMock
}

func setupServiceTest(t *testing.T) *serviceDeps {
	t.Helper()

	db, sqlMock, _ := sqlmock.New()
	dbRedis, redisMock := redismock.NewClientMock()
	repo := &fakeRepo{}
	directory := &fakeDirectory{}

	svc := department.NewService(db, repo, directory, dbRedis)

	return &serviceDeps{
		db:        db,
		sqlMock:   sqlMock,
		service:   svc,
		repo:      repo,
		directory: directory,
		redismock: redisMock,
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func adminPrincipal(companyID string) authz.Principal {
	return authz.Principal{
		UserID:    uuid.New().String(),
		CompanyID: companyID,
		Role:      authz.RoleAdmin,
	}
}

func TestDepartmentService_Create(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	cacheKey := fmt.Sprintf("departments:all:%s", companyID)

	t.Run("success", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		req := department.CreateDepartmentRequest{Name: "Ressources Humaines", Code: "RH"}

		expectTx(t, deps.sqlMock, true)
		deps.redismock.ExpectDel(cacheKey).SetVal(1)

		resp, err := deps.service.Create(ctx, adminPrincipal(companyID), req)

		assert.NoError(t, err)
		assert.Equal(t, req.Name, resp.Name)
		assert.Equal(t, req.Code, resp.Code)
		assert.True(t, resp.IsActive)
		assert.NotNil(t, deps.repo.created)
		assert.Equal(t, companyID, deps.repo.created.CompanyID.String())
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("code check is scoped to the caller's company", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		otherCompanyID := uuid.New().String()
		otherCacheKey := fmt.Sprintf("departments:all:%s", otherCompanyID)

		expectTx(t, deps.sqlMock, true)
		deps.redismock.ExpectDel(otherCacheKey).SetVal(1)

		// Same code as other tenants may already use; only this
		// company's departments are consulted.
		_, err := deps.service.Create(ctx, adminPrincipal(otherCompanyID), department.CreateDepartmentRequest{Name: "RH", Code: "RH"})

		assert.NoError(t, err)
		assert.Equal(t, otherCompanyID, deps.repo.codeCheckedCompany)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("duplicate code -> field error and rollback", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.repo.codeTaken = true
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.Create(ctx, adminPrincipal(companyID), department.CreateDepartmentRequest{Name: "IT", Code: "IT"})

		var appErr *apperror.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Equal(t, 422, appErr.HTTPStatus)
		assert.Contains(t, appErr.Fields, "code")
		assert.Nil(t, deps.repo.created)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("employee role denied before any query", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		p := authz.Principal{
			UserID:     uuid.New().String(),
			CompanyID:  companyID,
			EmployeeID: uuid.New().String(),
			Role:       authz.RoleEmployee,
		}

		_, err := deps.service.Create(ctx, p, department.CreateDepartmentRequest{Name: "IT", Code: "IT"})

		var appErr *apperror.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Equal(t, 403, appErr.HTTPStatus)
		assert.Equal(t, string(authz.ReasonInsufficientRole), appErr.Code)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("manager role cannot create departments", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		p := authz.Principal{
			UserID:     uuid.New().String(),
			CompanyID:  companyID,
			EmployeeID: uuid.New().String(),
			Role:       authz.RoleManager,
		}

		_, err := deps.service.Create(ctx, p, department.CreateDepartmentRequest{Name: "IT", Code: "IT"})

		var appErr *apperror.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Equal(t, string(authz.ReasonNotOwner), appErr.Code)
	})

	t.Run("manager from another company -> cross tenant reference", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.directory.member = organization.Member{
			ID:        uuid.New(),
			CompanyID: uuid.New(), // not the caller's company
			FullName:  "Intrus Dehors",
		}
		expectTx(t, deps.sqlMock, false)

		req := department.CreateDepartmentRequest{
			Name:      "IT",
			Code:      "IT",
			ManagerID: deps.directory.member.ID.String(),
		}
		_, err := deps.service.Create(ctx, adminPrincipal(companyID), req)

		var appErr *apperror.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Equal(t, "CROSS_TENANT_REFERENCE", appErr.Code)
		assert.Equal(t, 422, appErr.HTTPStatus)
		assert.Contains(t, appErr.Fields, "manager_id")
		assert.Nil(t, deps.repo.created)
	})

	t.Run("manager from same company is accepted", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		managerID := uuid.New()
		deps.directory.member = organization.Member{
			ID:        managerID,
			CompanyID: uuid.MustParse(companyID),
			FullName:  "Sami Alaoui",
		}
		expectTx(t, deps.sqlMock, true)
		deps.redismock.ExpectDel(cacheKey).SetVal(1)

		req := department.CreateDepartmentRequest{
			Name:      "IT",
			Code:      "IT",
			ManagerID: managerID.String(),
		}
		resp, err := deps.service.Create(ctx, adminPrincipal(companyID), req)

		assert.NoError(t, err)
		assert.Equal(t, managerID.String(), resp.ManagerID)
	})
}

func TestDepartmentService_GetAll(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	cacheKey := fmt.Sprintf("departments:all:%s", companyID)

	t.Run("cache hit skips repository", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		cached := []department.DepartmentResponse{
			{ID: uuid.New().String(), Name: "RH", Code: "RH"},
			{ID: uuid.New().String(), Name: "IT", Code: "IT"},
		}
		jsonResp, _ := json.Marshal(cached)
		deps.redismock.ExpectGet(cacheKey).SetVal(string(jsonResp))

		deps.repo.findErr = errors.New("repo must not be called on cache hit")

		resp, err := deps.service.GetAll(ctx, adminPrincipal(companyID), false)

		assert.NoError(t, err)
		assert.Len(t, resp, 2)
		assert.Equal(t, "RH", resp[0].Name)
	})

	t.Run("cache miss loads from db and fills cache", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		dept := department.Department{
			ID:        uuid.New(),
			CompanyID: uuid.MustParse(companyID),
			Name:      "Finance",
			Code:      "FIN",
			IsActive:  true,
		}
		deps.repo.departments = []department.Department{dept}

		expected, _ := json.Marshal([]department.DepartmentResponse{
			{
				ID:        dept.ID.String(),
				CompanyID: companyID,
				Name:      "Finance",
				Code:      "FIN",
				IsActive:  true,
				CreatedAt: dept.CreatedAt.Format(time.RFC3339),
				UpdatedAt: dept.UpdatedAt.Format(time.RFC3339),
			},
		})

		deps.redismock.ExpectGet(cacheKey).RedisNil()
		deps.redismock.ExpectSet(cacheKey, expected, 30*time.Minute).SetVal("OK")

		resp, err := deps.service.GetAll(ctx, adminPrincipal(companyID), false)

		assert.NoError(t, err)
		assert.Len(t, resp, 1)
		assert.Equal(t, "Finance", resp[0].Name)
	})

	t.Run("employee role cannot list departments", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		p := authz.Principal{
			UserID:     uuid.New().String(),
			CompanyID:  companyID,
			EmployeeID: uuid.New().String(),
			Role:       authz.RoleEmployee,
		}

		_, err := deps.service.GetAll(ctx, p, false)

		var appErr *apperror.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Equal(t, 403, appErr.HTTPStatus)
	})

	t.Run("database error bubbles up", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.redismock.ExpectGet(cacheKey).RedisNil()
		deps.repo.findErr = errors.New("db connection error")

		resp, err := deps.service.GetAll(ctx, adminPrincipal(companyID), false)

		assert.Error(t, err)
		assert.Nil(t, resp)
	})
}

func TestDepartmentService_GetByID(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	targetID := uuid.New()

	t.Run("success", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.repo.byID = &department.Department{
			ID:        targetID,
			CompanyID: uuid.MustParse(companyID),
			Name:      "RH",
			Code:      "RH",
		}

		resp, err := deps.service.GetByID(ctx, adminPrincipal(companyID), targetID.String())

		assert.NoError(t, err)
		assert.Equal(t, targetID.String(), resp.ID)
	})

	t.Run("not found -> 404", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.repo.findErr = gorm.ErrRecordNotFound

		_, err := deps.service.GetByID(ctx, adminPrincipal(companyID), targetID.String())

		var appErr *apperror.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Equal(t, 404, appErr.HTTPStatus)
	})

	t.Run("employee owner of nothing -> denied", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.repo.byID = &department.Department{
			ID:        targetID,
			CompanyID: uuid.MustParse(companyID),
			Name:      "RH",
		}
		p := authz.Principal{
			UserID:     uuid.New().String(),
			CompanyID:  companyID,
			EmployeeID: uuid.New().String(),
			Role:       authz.RoleEmployee,
		}

		_, err := deps.service.GetByID(ctx, p, targetID.String())

		var appErr *apperror.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Equal(t, string(authz.ReasonNotOwner), appErr.Code)
	})
}

func TestDepartmentService_Update(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	targetID := uuid.New()
	cacheKey := fmt.Sprintf("departments:all:%s", companyID)

	existing := func() *department.Department {
		return &department.Department{
			ID:        targetID,
			CompanyID: uuid.MustParse(companyID),
			Name:      "Old RH",
			Code:      "RH",
			IsActive:  true,
		}
	}

	t.Run("success", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.repo.byID = existing()
		expectTx(t, deps.sqlMock, true)
		deps.redismock.ExpectDel(cacheKey).SetVal(1)

		req := department.UpdateDepartmentRequest{Name: "RH Groupe", Code: "RH"}
		resp, err := deps.service.Update(ctx, adminPrincipal(companyID), targetID.String(), req)

		assert.NoError(t, err)
		assert.Equal(t, "RH Groupe", resp.Name)
		assert.NotNil(t, deps.repo.updated)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("manager of this department may update it", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		managerEmployeeID := uuid.New()
		dept := existing()
		dept.ManagerID = &managerEmployeeID
		deps.repo.byID = dept

		expectTx(t, deps.sqlMock, true)
		deps.redismock.ExpectDel(cacheKey).SetVal(1)

		p := authz.Principal{
			UserID:     uuid.New().String(),
			CompanyID:  companyID,
			EmployeeID: managerEmployeeID.String(),
			Role:       authz.RoleManager,
		}

		_, err := deps.service.Update(ctx, p, targetID.String(), department.UpdateDepartmentRequest{Name: "RH", Code: "RH"})

		assert.NoError(t, err)
	})

	t.Run("manager of another department may not", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		otherManager := uuid.New()
		dept := existing()
		dept.ManagerID = &otherManager
		deps.repo.byID = dept

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()

		p := authz.Principal{
			UserID:     uuid.New().String(),
			CompanyID:  companyID,
			EmployeeID: uuid.New().String(),
			Role:       authz.RoleManager,
		}

		_, err := deps.service.Update(ctx, p, targetID.String(), department.UpdateDepartmentRequest{Name: "RH", Code: "RH"})

		var appErr *apperror.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Equal(t, string(authz.ReasonNotOwner), appErr.Code)
		assert.Nil(t, deps.repo.updated)
	})

	t.Run("changing to a taken code -> field error", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.repo.byID = existing()
		deps.repo.codeTaken = true
		expectTx(t, deps.sqlMock, false)

		req := department.UpdateDepartmentRequest{Name: "RH", Code: "FIN"}
		_, err := deps.service.Update(ctx, adminPrincipal(companyID), targetID.String(), req)

		var appErr *apperror.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Contains(t, appErr.Fields, "code")
	})
}

func TestDepartmentService_AssignManager(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	targetID := uuid.New()
	cacheKey := fmt.Sprintf("departments:all:%s", companyID)

	t.Run("same company manager is assigned and visible on read", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.repo.byID = &department.Department{
			ID:        targetID,
			CompanyID: uuid.MustParse(companyID),
			Name:      "IT",
			Code:      "IT",
		}
		managerID := uuid.New()
		deps.directory.member = organization.Member{
			ID:        managerID,
			CompanyID: uuid.MustParse(companyID),
			FullName:  "Yassine Berrada",
		}
		deps.redismock.ExpectDel(cacheKey).SetVal(1)

		resp, err := deps.service.AssignManager(ctx, adminPrincipal(companyID), targetID.String(), department.AssignManagerRequest{ManagerID: managerID.String()})

		assert.NoError(t, err)
		assert.Equal(t, managerID.String(), resp.ManagerID)
		assert.NotNil(t, deps.repo.updated)

		read, err := deps.service.GetByID(ctx, adminPrincipal(companyID), targetID.String())
		assert.NoError(t, err)
		assert.Equal(t, managerID.String(), read.ManagerID)
	})

	t.Run("cross company manager -> CROSS_TENANT_REFERENCE", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.repo.byID = &department.Department{
			ID:        targetID,
			CompanyID: uuid.MustParse(companyID),
			Name:      "IT",
		}
		deps.directory.member = organization.Member{
			ID:        uuid.New(),
			CompanyID: uuid.New(),
		}

		_, err := deps.service.AssignManager(ctx, adminPrincipal(companyID), targetID.String(), department.AssignManagerRequest{ManagerID: deps.directory.member.ID.String()})

		var appErr *apperror.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Equal(t, "CROSS_TENANT_REFERENCE", appErr.Code)
		assert.Equal(t, 422, appErr.HTTPStatus)
		assert.Contains(t, appErr.Fields, "manager_id")
		assert.Nil(t, deps.repo.updated)
	})

	t.Run("unknown manager -> field error", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.repo.byID = &department.Department{
			ID:        targetID,
			CompanyID: uuid.MustParse(companyID),
		}
		deps.directory.err = gorm.ErrRecordNotFound

		_, err := deps.service.AssignManager(ctx, adminPrincipal(companyID), targetID.String(), department.AssignManagerRequest{ManagerID: uuid.New().String()})

		var appErr *apperror.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Contains(t, appErr.Fields, "manager_id")
	})
}

func TestDepartmentService_Delete(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	targetID := uuid.New()
	cacheKey := fmt.Sprintf("departments:all:%s", companyID)

	t.Run("success", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.repo.byID = &department.Department{
			ID:        targetID,
			CompanyID: uuid.MustParse(companyID),
		}
		deps.redismock.ExpectDel(cacheKey).SetVal(1)

		err := deps.service.Delete(ctx, adminPrincipal(companyID), targetID.String())

		assert.NoError(t, err)
		assert.True(t, deps.repo.deleted)
	})

	t.Run("wrong tenant principal never reaches the row", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.repo.byID = &department.Department{
			ID:        targetID,
			CompanyID: uuid.New(), // row from another tenant
		}

		err := deps.service.Delete(ctx, adminPrincipal(companyID), targetID.String())

		var appErr *apperror.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Equal(t, string(authz.ReasonWrongTenant), appErr.Code)
		assert.False(t, deps.repo.deleted)
	})

	t.Run("db error", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.repo.byID = &department.Department{
			ID:        targetID,
			CompanyID: uuid.MustParse(companyID),
		}
		deps.repo.deleteErr = errors.New("db error")

		err := deps.service.Delete(ctx, adminPrincipal(companyID), targetID.String())

		assert.Error(t, err)
	})
}
