package company

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Laktab-Noureddine-code/NessRH/internal/auth"
	"github.com/Laktab-Noureddine-code/NessRH/internal/authz"
	companyerrors "github.com/Laktab-Noureddine-code/NessRH/internal/company/errors"
)

type Service interface {
	// Onboard creates the caller's company. Only an admin without a
	// company yet may onboard; the caller must rotate the session
	// afterwards since the principal's company binding changed.
	Onboard(ctx context.Context, p authz.Principal, req OnboardCompanyRequest) (CompanyResponse, error)
	GetCurrent(ctx context.Context, p authz.Principal) (CompanyResponse, error)
	Update(ctx context.Context, p authz.Principal, req UpdateCompanyRequest) (CompanyResponse, error)
	// DeleteCurrent soft-deletes the company and cascades to all owned
	// departments, employees and contracts atomically.
	DeleteCurrent(ctx context.Context, p authz.Principal) error

	// FindView serves the company block on /auth/me.
	FindView(ctx context.Context, companyID string) (*auth.CompanyView, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("company.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("company.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) Onboard(ctx context.Context, p authz.Principal, req OnboardCompanyRequest) (CompanyResponse, error) {
	if p.Role != authz.RoleAdmin {
		return CompanyResponse{}, authz.Decision{Reason: authz.ReasonInsufficientRole}.Err()
	}
	if p.CompanyID != "" {
		return CompanyResponse{}, companyerrors.ErrAlreadyOnboarded
	}

	ownerID, err := uuid.Parse(p.UserID)
	if err != nil {
		return CompanyResponse{}, companyerrors.ErrInvalidCompanyID
	}

	comp := &Company{
		ID:          uuid.New(),
		Name:        req.Name,
		OwnerUserID: ownerID,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.CreateWithOwner(ctx, comp); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The owner bind guard hit, the account is already bound
			// to a company. The transaction rolled the insert back.
			return CompanyResponse{}, companyerrors.ErrAlreadyOnboarded
		}
		s.logger.Error("onboard company persist failed", zap.Error(err))
		return CompanyResponse{}, err
	}

	s.logger.Info("company onboarded",
		zap.String("company_id", comp.ID.String()),
		zap.String("owner_user_id", p.UserID),
	)

	return mapToResponse(comp), nil
}

func (s *service) GetCurrent(ctx context.Context, p authz.Principal) (CompanyResponse, error) {
	comp, err := s.currentCompany(ctx, p)
	if err != nil {
		return CompanyResponse{}, err
	}

	decision := authz.Authorize(p, authz.ActionRead, authz.Resource{
		Kind:      "company",
		CompanyID: comp.ID.String(),
	})
	if err := decision.Err(); err != nil {
		return CompanyResponse{}, err
	}

	return mapToResponse(comp), nil
}

func (s *service) Update(ctx context.Context, p authz.Principal, req UpdateCompanyRequest) (CompanyResponse, error) {
	comp, err := s.currentCompany(ctx, p)
	if err != nil {
		return CompanyResponse{}, err
	}

	decision := authz.Authorize(p, authz.ActionUpdate, authz.Resource{
		Kind:      "company",
		CompanyID: comp.ID.String(),
	})
	if err := decision.Err(); err != nil {
		return CompanyResponse{}, err
	}

	comp.Name = req.Name
	if req.IsActive != nil {
		comp.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, comp); err != nil {
		s.logger.Error("update company persist failed", zap.Error(err))
		return CompanyResponse{}, err
	}

	return mapToResponse(comp), nil
}

func (s *service) DeleteCurrent(ctx context.Context, p authz.Principal) error {
	comp, err := s.currentCompany(ctx, p)
	if err != nil {
		return err
	}

	decision := authz.Authorize(p, authz.ActionDelete, authz.Resource{
		Kind:      "company",
		CompanyID: comp.ID.String(),
	})
	if err := decision.Err(); err != nil {
		return err
	}

	if err := s.repo.SoftDeleteCascade(ctx, comp.ID); err != nil {
		s.logger.Error("cascade delete company failed",
			zap.String("company_id", comp.ID.String()),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("company deleted", zap.String("company_id", comp.ID.String()))
	return nil
}

func (s *service) FindView(ctx context.Context, companyID string) (*auth.CompanyView, error) {
	id, err := uuid.Parse(companyID)
	if err != nil {
		return nil, companyerrors.ErrInvalidCompanyID
	}

	comp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, companyerrors.ErrCompanyNotFound
		}
		return nil, err
	}

	return &auth.CompanyView{ID: comp.ID.String(), Name: comp.Name}, nil
}

func (s *service) currentCompany(ctx context.Context, p authz.Principal) (*Company, error) {
	if p.CompanyID == "" {
		return nil, companyerrors.ErrCompanyNotFound
	}

	id, err := uuid.Parse(p.CompanyID)
	if err != nil {
		return nil, companyerrors.ErrInvalidCompanyID
	}

	comp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, companyerrors.ErrCompanyNotFound
		}
		return nil, err
	}
	return comp, nil
}

func mapToResponse(comp *Company) CompanyResponse {
	return CompanyResponse{
		ID:          comp.ID.String(),
		Name:        comp.Name,
		OwnerUserID: comp.OwnerUserID.String(),
		IsActive:    comp.IsActive,
		CreatedAt:   comp.CreatedAt.Format(time.RFC3339),
	}
}
