package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	autherrors "github.com/Laktab-Noureddine-code/NessRH/internal/auth/errors"
	"github.com/Laktab-Noureddine-code/NessRH/internal/authz"
	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/apperror"
)

// CompanyDirectory resolves the company view shown on /auth/me. The
// company package provides the implementation; the interface lives here
// so auth does not import it.
type CompanyDirectory interface {
	FindView(ctx context.Context, companyID string) (*CompanyView, error)
}

type Service interface {
	// Register creates an admin account. The caller starts a session
	// with the returned principal; registering is a privilege-changing
	// event, so any existing session for the user rotates.
	Register(ctx context.Context, req RegisterRequest) (authz.Principal, UserResponse, error)

	Login(ctx context.Context, email, password string) (authz.Principal, UserResponse, error)

	GetMe(ctx context.Context, p authz.Principal) (*MeResponse, error)
}

type service struct {
	repo      Repository
	companies CompanyDirectory
	logger    *zap.Logger
}

func NewService(repo Repository, companies CompanyDirectory, logger ...*zap.Logger) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	return &service{repo: repo, companies: companies, logger: l}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (authz.Principal, UserResponse, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return authz.Principal{}, UserResponse{}, err
	}

	user := &User{
		ID:       uuid.New(),
		Name:     req.Name,
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: string(hashed),
		Role:     string(authz.RoleAdmin),
		IsActive: true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		s.logger.Warn("register persist failed", zap.Error(err))
		return authz.Principal{}, UserResponse{}, mapUserError(err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.String()))

	return user.Principal(), mapToUserResponse(user), nil
}

func (s *service) Login(ctx context.Context, email, password string) (authz.Principal, UserResponse, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		// Same error for unknown email and bad password.
		return authz.Principal{}, UserResponse{}, autherrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return authz.Principal{}, UserResponse{}, autherrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return authz.Principal{}, UserResponse{}, autherrors.ErrInvalidCredentials
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID.String()))

	return user.Principal(), mapToUserResponse(user), nil
}

func (s *service) GetMe(ctx context.Context, p authz.Principal) (*MeResponse, error) {
	id, err := uuid.Parse(p.UserID)
	if err != nil {
		return nil, autherrors.ErrInvalidUserID
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, autherrors.ErrUserNotFound
	}

	resp := &MeResponse{User: mapToUserResponse(user)}

	if user.CompanyID != nil && s.companies != nil {
		view, err := s.companies.FindView(ctx, user.CompanyID.String())
		if err != nil {
			s.logger.Warn("load company view failed",
				zap.String("company_id", user.CompanyID.String()),
				zap.Error(err),
			)
		} else {
			resp.Company = view
		}
	}

	return resp, nil
}

func mapToUserResponse(u *User) UserResponse {
	resp := UserResponse{
		ID:    u.ID.String(),
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
	if u.CompanyID != nil {
		resp.CompanyID = u.CompanyID.String()
	}
	return resp
}

func mapUserError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return autherrors.ErrUserNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperror.FieldError("email", "Email is already registered")
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "duplicate key value") && strings.Contains(msg, "uq_users_email") {
		return apperror.FieldError("email", "Email is already registered")
	}

	return err
}
