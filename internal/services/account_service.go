package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/teamhub/internal/auth"
	"github.com/charlesng35/teamhub/internal/database"
	"github.com/charlesng35/teamhub/internal/models"
	apperrors "github.com/charlesng35/teamhub/pkg/errors"
	"github.com/charlesng35/teamhub/pkg/logger"
	"github.com/charlesng35/teamhub/pkg/metrics"
	"github.com/charlesng35/teamhub/pkg/saga"
	"github.com/charlesng35/teamhub/pkg/validator"
)

// RegisterInput captures a self-service signup.
type RegisterInput struct {
	Email          string
	Password       string
	FirstName      string
	LastName       string
	Role           string
	OrganizationID string
}

// Account is the public view of a newly registered identity.
type Account struct {
	ProfileID      string      `json:"id"`
	Email          string      `json:"email"`
	FullName       string      `json:"full_name"`
	Role           models.Role `json:"role"`
	OrganizationID string      `json:"organization_id,omitempty"`
}

// AccountService handles signup, login and logout on top of the credential issuer.
type AccountService struct {
	db     *gorm.DB
	issuer CredentialIssuer
	log    *zap.Logger
}

// NewAccountService constructs an AccountService instance.
func NewAccountService(db *gorm.DB, issuer CredentialIssuer) (*AccountService, error) {
	if db == nil {
		return nil, errors.New("account service: db is required")
	}
	if issuer == nil {
		return nil, errors.New("account service: credential issuer is required")
	}
	return &AccountService{db: db, issuer: issuer, log: logger.WithModule("accounts")}, nil
}

// Register creates an identity and, when an organization is named, its
// membership. The identity is removed again if the membership cannot be written.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*Account, error) {
	ctx = ensureContext(ctx)

	email := models.NormalizeEmail(input.Email)
	first := strings.TrimSpace(input.FirstName)
	last := strings.TrimSpace(input.LastName)
	if email == "" || input.Password == "" || first == "" || last == "" || strings.TrimSpace(input.Role) == "" {
		return nil, apperrors.NewBadRequest("Missing required fields")
	}
	if !validator.IsEmail(email) {
		return nil, apperrors.NewBadRequest("Invalid email address")
	}

	role, ok := models.ParseRole(input.Role)
	if !ok {
		return nil, apperrors.NewBadRequest("Invalid role. Must be owner, admin, or member")
	}

	orgID := strings.TrimSpace(input.OrganizationID)
	if role != models.RoleOwner && orgID == "" {
		return nil, apperrors.NewBadRequest("organization_id is required for admin and member roles")
	}
	if role == models.RoleOwner && orgID != "" {
		return nil, apperrors.NewBadRequest("Owners cannot join an existing organization")
	}

	if orgID != "" {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Organization{}).Where("id = ?", orgID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("account service: check organization: %w", err)
		}
		if count == 0 {
			return nil, apperrors.NewNotFound("Organization not found")
		}
	}

	fullName := first + " " + last
	tx := saga.New("account.register",
		saga.WithLogger(s.log),
		saga.WithCompensationHook(compensationRecorder("account.register")),
	)

	var profile *models.Profile
	err := tx.Step(ctx, "identity",
		func(ctx context.Context) error {
			var err error
			profile, err = s.issuer.SignUp(ctx, auth.SignUpInput{Email: email, Password: input.Password, FullName: fullName})
			return err
		},
		func(ctx context.Context) error {
			return s.issuer.DeleteIdentity(ctx, profile.ID)
		},
	)
	if err != nil {
		if errors.Is(err, auth.ErrIdentityExists) {
			return nil, errUserExists
		}
		return nil, apperrors.NewDependency("Failed to create user", err)
	}

	if orgID != "" {
		err = tx.Step(ctx, "organization_membership", func(ctx context.Context) error {
			return s.db.WithContext(ctx).Create(&models.OrganizationMember{
				OrganizationID: orgID,
				UserID:         profile.ID,
				Role:           role,
			}).Error
		}, nil)
		if err != nil {
			return nil, apperrors.NewDependency("Failed to add user to organization", err)
		}
	}
	tx.Commit()

	return &Account{
		ProfileID:      profile.ID,
		Email:          email,
		FullName:       fullName,
		Role:           role,
		OrganizationID: orgID,
	}, nil
}

// Login verifies the credentials and builds the session descriptor. The role
// comes from the oldest organization membership; an identity without any
// membership is an owner that has not created an organization yet.
func (s *AccountService) Login(ctx context.Context, email, password string, client auth.ClientInfo) (*auth.SessionDescriptor, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperrors.NewBadRequest("Email and password are required")
	}

	creds, err := s.issuer.SignIn(ctx, email, password, client)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("login", "failure").Inc()
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return nil, apperrors.NewUnauthenticated("Invalid email or password")
		}
		return nil, apperrors.NewDependency("Failed to authenticate", err)
	}

	var profile models.Profile
	err = s.db.WithContext(ctx).Take(&profile, "id = ?", creds.IdentityID).Error
	if database.IsNotFound(err) {
		s.revoke(ctx, creds.RefreshToken)
		return nil, apperrors.NewNotFound("Profile not found")
	}
	if err != nil {
		s.revoke(ctx, creds.RefreshToken)
		return nil, fmt.Errorf("account service: load profile: %w", err)
	}

	desc := &auth.SessionDescriptor{
		ProfileID:    profile.ID,
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		FullName:     profile.FullName,
		Role:         models.RoleOwner,
	}

	var membership models.OrganizationMember
	err = s.db.WithContext(ctx).
		Where("user_id = ?", profile.ID).
		Order("created_at ASC").
		Take(&membership).Error
	switch {
	case err == nil:
		desc.Role = membership.Role
		desc.OrganizationID = membership.OrganizationID
	case database.IsNotFound(err):
	default:
		s.revoke(ctx, creds.RefreshToken)
		return nil, fmt.Errorf("account service: load membership: %w", err)
	}

	metrics.AuthAttempts.WithLabelValues("login", "success").Inc()
	return desc, nil
}

// Logout revokes the refresh session held by the descriptor.
func (s *AccountService) Logout(ctx context.Context, desc *auth.SessionDescriptor) error {
	ctx = ensureContext(ctx)
	if desc == nil || desc.RefreshToken == "" {
		return nil
	}

	err := s.issuer.SignOut(ctx, desc.RefreshToken)
	if err != nil && !errors.Is(err, auth.ErrSessionNotFound) {
		return fmt.Errorf("account service: sign out: %w", err)
	}
	return nil
}

func (s *AccountService) revoke(ctx context.Context, refreshToken string) {
	if err := s.issuer.SignOut(context.WithoutCancel(ctx), refreshToken); err != nil {
		s.log.Warn("failed to revoke session", zap.Error(err))
	}
}
