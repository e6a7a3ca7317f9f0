package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/velamart/velamart-backend/internal/users"
	"github.com/velamart/velamart-backend/internal/vendors"
	"github.com/velamart/velamart-backend/pkg/config"
	"github.com/velamart/velamart-backend/pkg/db"
	"github.com/velamart/velamart-backend/pkg/db/models"
	"github.com/velamart/velamart-backend/pkg/enums"
	pkgerrors "github.com/velamart/velamart-backend/pkg/errors"
	"github.com/velamart/velamart-backend/pkg/security"
)

// RegisterService handles the onboarding transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             *db.Client
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	db          *db.Client
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &registerService{
		db:          params.DB,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	role, err := enums.ParseUserRole(req.Role)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	// Admins are provisioned operationally, never through the public API.
	if role == enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	storeName := strings.TrimSpace(req.StoreName)
	if role == enums.UserRoleVendor && storeName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store_name is required for vendors")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var resp RegisterResponse
	txErr := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)
		vendorRepo := vendors.NewRepository(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Role:         role,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "idx_users_email") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		resp.User = users.FromModel(user)

		if role != enums.UserRoleVendor {
			return nil
		}

		vendor, err := vendorRepo.Create(ctx, &models.Vendor{
			UserID:      user.ID,
			StoreName:   storeName,
			Description: strings.TrimSpace(req.Description),
			IsActive:    true,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "idx_vendors_store_name") {
				return pkgerrors.New(pkgerrors.CodeConflict, "store name already taken")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create vendor profile")
		}
		resp.Vendor = vendors.FromModel(vendor)
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return &resp, nil
}
