package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/agilaxstudios/agilax-backend/internal/users"
	"github.com/agilaxstudios/agilax-backend/pkg/config"
	"github.com/agilaxstudios/agilax-backend/pkg/db/models"
	"github.com/agilaxstudios/agilax-backend/pkg/enums"
	pkgerrors "github.com/agilaxstudios/agilax-backend/pkg/errors"
	"github.com/agilaxstudios/agilax-backend/pkg/security"
)

const referralCodeDigits = 4

// RegisterService handles the account-creation transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
}

// TxRunner is the transaction boundary registration runs inside.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type registerUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
// UserRepoFactory defaults to the gorm-backed repository.
type RegisterServiceParams struct {
	DB              TxRunner
	UserRepoFactory func(tx *gorm.DB) registerUserRepository
	PasswordConfig  config.PasswordConfig
	AuthConfig      config.AuthConfig
}

type registerService struct {
	db          TxRunner
	userRepo    func(tx *gorm.DB) registerUserRepository
	passwordCfg config.PasswordConfig
	authCfg     config.AuthConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	userRepo := params.UserRepoFactory
	if userRepo == nil {
		userRepo = func(tx *gorm.DB) registerUserRepository {
			return users.NewRepository(tx)
		}
	}
	return &registerService{
		db:          params.DB,
		userRepo:    userRepo,
		passwordCfg: params.PasswordConfig,
		authCfg:     params.AuthConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	role := s.resolveRole(email, req.IsAffiliate)

	upi := strings.TrimSpace(req.UPIID)
	if role == enums.UserRoleAffiliate && upi == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "upi_id is required for affiliate accounts")
	}
	if role != enums.UserRoleAffiliate {
		upi = ""
	}

	var referralCode *string
	if role == enums.UserRoleAffiliate {
		code, err := s.generateReferralCode()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate referral code")
		}
		referralCode = &code
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *users.UserDTO
	txErr := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.userRepo(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Name:         name,
			Email:        email,
			PasswordHash: passwordHash,
			Role:         role,
			UPIID:        upi,
			ReferralCode: referralCode,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		created = users.FromModel(user)
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return created, nil
}

// resolveRole fixes the role at creation time. The configured admin email
// always registers as admin, whatever the affiliate flag says.
func (s *registerService) resolveRole(email string, isAffiliate bool) enums.UserRole {
	if strings.EqualFold(email, s.authCfg.AdminEmail) {
		return enums.UserRoleAdmin
	}
	if isAffiliate {
		return enums.UserRoleAffiliate
	}
	return enums.UserRoleUser
}

// generateReferralCode yields prefix + 4 random digits. Codes are not
// checked for collisions; the unique index rejects the rare duplicate.
func (s *registerService) generateReferralCode() (string, error) {
	digits, err := security.RandomDigits(referralCodeDigits)
	if err != nil {
		return "", err
	}
	prefix := s.authCfg.ReferralCodePrefix
	if prefix == "" {
		prefix = "AGX"
	}
	return prefix + digits, nil
}
