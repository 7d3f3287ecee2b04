package contract

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/Laktab-Noureddine-code/NessRH/internal/authz"
	contracterrors "github.com/Laktab-Noureddine-code/NessRH/internal/contract/errors"
	"github.com/Laktab-Noureddine-code/NessRH/internal/messaging/kafka"
	"github.com/Laktab-Noureddine-code/NessRH/internal/organization"
	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/apperror"
)

type fakeRepo struct {
	contracts    []Contract
	byID         *Contract
	findErr      error
	expiredCount int64

	created          *Contract
	updated          *Contract
	deleted          bool
	listedEmployeeID string
}

func (f *fakeRepo) WithTx(tx *sql.Tx) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, contract *Contract) error {
	f.created = contract
	return nil
}

func (f *fakeRepo) FindAllByCompany(ctx context.Context, companyID, employeeID string) ([]Contract, error) {
	f.listedEmployeeID = employeeID
	return f.contracts, f.findErr
}

func (f *fakeRepo) FindByIDAndCompany(ctx context.Context, companyID, id string) (*Contract, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.byID, nil
}

func (f *fakeRepo) Update(ctx context.Context, contract *Contract) error {
	f.updated = contract
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, companyID, id string) error {
	f.deleted = true
	return nil
}

func (f *fakeRepo) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	return f.expiredCount, nil
}

type fakeDirectory struct {
	member organization.Member
	err    error
}

func (f *fakeDirectory) FindMember(ctx context.Context, employeeID string) (organization.Member, error) {
	return f.member, f.err
}

type fakeOutbox struct {
	events []kafka.OutboxEvent
}

func (f *fakeOutbox) WithTx(tx *sql.Tx) kafka.OutboxRepository { return f }

func (f *fakeOutbox) Create(ctx context.Context, event kafka.OutboxEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutbox) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeOutbox) MarkSent(ctx context.Context, id string) error           { return nil }
func (f *fakeOutbox) MarkFailed(ctx context.Context, id, reason string) error { return nil }

type serviceDeps struct {
	db        *sql.DB
	sqlMock   sqlmock.Sqlmock
	service   *service
	repo      *fakeRepo
	directory *fakeDirectory
	outbox    *fakeOutbox
}

var fixedNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func setupServiceTest(t *testing.T) *serviceDeps {
	t.Helper()

	db, sqlMock, _ := sqlmock.New()
	repo := &fakeRepo{}
	directory := &fakeDirectory{}
	outbox := &fakeOutbox{}

	svc := NewService(db, repo, directory, outbox).(*service)
	svc.now = func() time.Time { return fixedNow }

	return &serviceDeps{
		db:        db,
		sqlMock:   sqlMock,
		service:   svc,
		repo:      repo,
		directory: directory,
		outbox:    outbox,
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

func datePtr(t time.Time) *time.Time { return &t }

func TestContractService_Create(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	employeeID := uuid.New()

	t.Run("success defaults to CDI", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.directory.member = organization.Member{ID: employeeID, CompanyID: companyID}
		expectTx(t, deps.sqlMock, true)

		req := CreateContractRequest{
			EmployeeID:  employeeID.String(),
			StartDate:   "2026-01-01",
			GrossSalary: 12000,
		}
		resp, err := deps.service.Create(ctx, adminPrincipal(companyID.String()), req)

		assert.NoError(t, err)
		assert.Equal(t, string(TypeCDI), resp.Type)
		assert.Equal(t, string(StatusActive), resp.Status)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("end date before start date -> field error", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		req := CreateContractRequest{
			EmployeeID:  employeeID.String(),
			StartDate:   "2026-06-01",
			EndDate:     "2026-01-01",
			GrossSalary: 12000,
		}
		_, err := deps.service.Create(ctx, adminPrincipal(companyID.String()), req)

		var appErr *apperror.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Contains(t, appErr.Fields, "end_date")
		assert.Nil(t, deps.repo.created)
	})

	t.Run("employee from another company -> cross tenant reference", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.directory.member = organization.Member{ID: employeeID, CompanyID: uuid.New()}

		req := CreateContractRequest{
			EmployeeID:  employeeID.String(),
			StartDate:   "2026-01-01",
			GrossSalary: 12000,
		}
		_, err := deps.service.Create(ctx, adminPrincipal(companyID.String()), req)

		var appErr *apperror.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Equal(t, "CROSS_TENANT_REFERENCE", appErr.Code)
		assert.Contains(t, appErr.Fields, "employee_id")
	})

	t.Run("manager role cannot create contracts", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		p := authz.Principal{
			UserID:     uuid.New().String(),
			CompanyID:  companyID.String(),
			EmployeeID: uuid.New().String(),
			Role:       authz.RoleManager,
		}
		req := CreateContractRequest{
			EmployeeID:  employeeID.String(),
			StartDate:   "2026-01-01",
			GrossSalary: 12000,
		}
		_, err := deps.service.Create(ctx, p, req)

		var appErr *apperror.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Equal(t, string(authz.ReasonNotOwner), appErr.Code)
	})

	t.Run("unknown employee -> field error", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.directory.err = gorm.ErrRecordNotFound

		req := CreateContractRequest{
			EmployeeID:  employeeID.String(),
			StartDate:   "2026-01-01",
			GrossSalary: 12000,
		}
		_, err := deps.service.Create(ctx, adminPrincipal(companyID.String()), req)

		var appErr *apperror.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Contains(t, appErr.Fields, "employee_id")
	})
}

func TestContractService_StatusDerivation(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	t.Run("stored active past end date reads as expired", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.repo.byID = &Contract{
			ID:         uuid.New(),
			CompanyID:  companyID,
			EmployeeID: uuid.New(),
			Type:       TypeCDD,
			Status:     StatusActive,
			StartDate:  fixedNow.AddDate(-1, 0, 0),
			EndDate:    datePtr(fixedNow.AddDate(0, 0, -1)),
		}

		resp, err := deps.service.GetByID(ctx, adminPrincipal(companyID.String()), deps.repo.byID.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, string(StatusExpired), resp.Status)
		// Derivation is read-time only; the row is untouched.
		assert.Nil(t, deps.repo.updated)
	})

	t.Run("active with future end date stays active", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.repo.byID = &Contract{
			ID:         uuid.New(),
			CompanyID:  companyID,
			EmployeeID: uuid.New(),
			Status:     StatusActive,
			EndDate:    datePtr(fixedNow.AddDate(0, 1, 0)),
		}

		resp, err := deps.service.GetByID(ctx, adminPrincipal(companyID.String()), deps.repo.byID.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, string(StatusActive), resp.Status)
	})

	t.Run("open ended contract never expires", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.repo.byID = &Contract{
			ID:         uuid.New(),
			CompanyID:  companyID,
			EmployeeID: uuid.New(),
			Status:     StatusActive,
		}

		resp, err := deps.service.GetByID(ctx, adminPrincipal(companyID.String()), deps.repo.byID.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, string(StatusActive), resp.Status)
	})
}

func TestContractService_Terminate(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	t.Run("active contract is terminated and event queued", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.repo.byID = &Contract{
			ID:         uuid.New(),
			CompanyID:  companyID,
			EmployeeID: uuid.New(),
			Status:     StatusActive,
		}
		expectTx(t, deps.sqlMock, true)

		resp, err := deps.service.Terminate(ctx, adminPrincipal(companyID.String()), deps.repo.byID.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, string(StatusTerminated), resp.Status)
		assert.NotEmpty(t, resp.TerminatedAt)
		assert.Len(t, deps.outbox.events, 1)
		assert.Equal(t, "contract_terminated", deps.outbox.events[0].EventType)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("already terminated -> invalid state", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.repo.byID = &Contract{
			ID:         uuid.New(),
			CompanyID:  companyID,
			EmployeeID: uuid.New(),
			Status:     StatusTerminated,
		}
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.Terminate(ctx, adminPrincipal(companyID.String()), deps.repo.byID.ID.String())

		assert.ErrorIs(t, err, contracterrors.ErrContractTerminal)
		assert.Nil(t, deps.repo.updated)
		assert.Empty(t, deps.outbox.events)
	})

	t.Run("expired by derivation -> invalid state", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.repo.byID = &Contract{
			ID:         uuid.New(),
			CompanyID:  companyID,
			EmployeeID: uuid.New(),
			Status:     StatusActive,
			EndDate:    datePtr(fixedNow.AddDate(0, 0, -3)),
		}
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.Terminate(ctx, adminPrincipal(companyID.String()), deps.repo.byID.ID.String())

		assert.ErrorIs(t, err, contracterrors.ErrContractTerminal)
	})

	t.Run("manager role cannot terminate", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.repo.byID = &Contract{
			ID:         uuid.New(),
			CompanyID:  companyID,
			EmployeeID: uuid.New(),
			Status:     StatusActive,
		}
		expectTx(t, deps.sqlMock, false)

		p := authz.Principal{
			UserID:     uuid.New().String(),
			CompanyID:  companyID.String(),
			EmployeeID: uuid.New().String(),
			Role:       authz.RoleManager,
		}
		_, err := deps.service.Terminate(ctx, p, deps.repo.byID.ID.String())

		var appErr *apperror.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Equal(t, string(authz.ReasonNotOwner), appErr.Code)
	})
}

func TestContractService_GetAll(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()

	t.Run("employee is pinned to their own contracts", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		own := uuid.New().String()
		p := authz.Principal{
			UserID:     uuid.New().String(),
			CompanyID:  companyID,
			EmployeeID: own,
			Role:       authz.RoleEmployee,
		}

		_, err := deps.service.GetAll(ctx, p, uuid.New().String())

		assert.NoError(t, err)
		assert.Equal(t, own, deps.repo.listedEmployeeID)
	})

	t.Run("employee without linked record is denied", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		p := authz.Principal{
			UserID:    uuid.New().String(),
			CompanyID: companyID,
			Role:      authz.RoleEmployee,
		}

		_, err := deps.service.GetAll(ctx, p, "")

		var appErr *apperror.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Equal(t, 403, appErr.HTTPStatus)
	})

	t.Run("manager reads the whole company", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		p := authz.Principal{
			UserID:     uuid.New().String(),
			CompanyID:  companyID,
			EmployeeID: uuid.New().String(),
			Role:       authz.RoleManager,
		}

		_, err := deps.service.GetAll(ctx, p, "")

		assert.NoError(t, err)
		assert.Equal(t, "", deps.repo.listedEmployeeID)
	})
}

func TestContractService_Update(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	t.Run("terminal contract rejects updates", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.repo.byID = &Contract{
			ID:         uuid.New(),
			CompanyID:  companyID,
			EmployeeID: uuid.New(),
			Status:     StatusExpired,
		}
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.Update(ctx, adminPrincipal(companyID.String()), deps.repo.byID.ID.String(), UpdateContractRequest{GrossSalary: 15000})

		assert.ErrorIs(t, err, contracterrors.ErrContractTerminal)
	})

	t.Run("active contract updates salary", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.repo.byID = &Contract{
			ID:          uuid.New(),
			CompanyID:   companyID,
			EmployeeID:  uuid.New(),
			Status:      StatusActive,
			Type:        TypeCDI,
			GrossSalary: 12000,
		}
		expectTx(t, deps.sqlMock, true)

		resp, err := deps.service.Update(ctx, adminPrincipal(companyID.String()), deps.repo.byID.ID.String(), UpdateContractRequest{GrossSalary: 15000})

		assert.NoError(t, err)
		assert.Equal(t, float64(15000), resp.GrossSalary)
	})
}

func TestContractService_SweepExpired(t *testing.T) {
	deps := setupServiceTest(t)
	defer deps.db.Close()

	deps.repo.expiredCount = 4

	count, err := deps.service.SweepExpired(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, int64(4), count)
}
