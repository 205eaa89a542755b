package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/teamhub/internal/database"
	"github.com/charlesng35/teamhub/internal/models"
	"github.com/charlesng35/teamhub/pkg/crypto"
)

// DefaultRefreshTokenTTL is the fallback refresh token lifetime.
const DefaultRefreshTokenTTL = 7 * 24 * time.Hour

var (
	// ErrInvalidCredentials is returned when the email/password pair does not match.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrIdentityExists is returned when signing up an email that is already registered.
	ErrIdentityExists = errors.New("auth: identity already exists")
	// ErrIdentityNotFound is returned when an identity id is unknown.
	ErrIdentityNotFound = errors.New("auth: identity not found")
	// ErrSessionNotFound indicates no active refresh session matches the token.
	ErrSessionNotFound = errors.New("auth: session not found")
)

// IssuerConfig tunes the CredentialIssuer.
type IssuerConfig struct {
	RefreshTokenTTL time.Duration
	Clock           func() time.Time
}

// SignUpInput describes a new identity.
type SignUpInput struct {
	Email    string
	Password string
	FullName string
}

// ClientInfo is recorded on refresh sessions.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// Credentials is the result of a successful sign in.
type Credentials struct {
	IdentityID   string
	Email        string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// CredentialIssuer authenticates email/password pairs, issues access and
// refresh tokens, and owns the identity and profile rows.
type CredentialIssuer struct {
	db         *gorm.DB
	jwt        *JWTService
	refreshTTL time.Duration
	now        func() time.Time
}

// NewCredentialIssuer constructs an issuer backed by the database and JWT service.
func NewCredentialIssuer(db *gorm.DB, jwtService *JWTService, cfg IssuerConfig) (*CredentialIssuer, error) {
	if db == nil {
		return nil, errors.New("credential issuer: db is required")
	}
	if jwtService == nil {
		return nil, errors.New("credential issuer: jwt service is required")
	}

	ttl := cfg.RefreshTokenTTL
	if ttl <= 0 {
		ttl = DefaultRefreshTokenTTL
	}
	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &CredentialIssuer{db: db, jwt: jwtService, refreshTTL: ttl, now: clock}, nil
}

// SignUp creates an identity and its profile in one transaction.
func (i *CredentialIssuer) SignUp(ctx context.Context, in SignUpInput) (*models.Profile, error) {
	email := models.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, errors.New("credential issuer: email and password are required")
	}

	hash, err := crypto.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("credential issuer: hash password: %w", err)
	}

	identity := &models.Identity{Email: email, PasswordHash: hash}
	profile := &models.Profile{FullName: strings.TrimSpace(in.FullName), Email: email}

	err = i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(identity).Error; err != nil {
			return err
		}
		profile.ID = identity.ID
		return tx.Create(profile).Error
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrIdentityExists
		}
		return nil, fmt.Errorf("credential issuer: create identity: %w", err)
	}
	return profile, nil
}

// SignIn verifies the password and opens a refresh session.
func (i *CredentialIssuer) SignIn(ctx context.Context, email, password string, client ClientInfo) (*Credentials, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var identity models.Identity
	err := i.db.WithContext(ctx).Where("email = ?", email).Take(&identity).Error
	if database.IsNotFound(err) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("credential issuer: load identity: %w", err)
	}

	if !crypto.VerifyPassword(identity.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	now := i.now()
	if err := i.db.WithContext(ctx).Model(&identity).Update("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("credential issuer: record login: %w", err)
	}

	return i.openSession(ctx, &identity, client)
}

// Refresh rotates a refresh token and issues a new access token.
func (i *CredentialIssuer) Refresh(ctx context.Context, refreshToken string) (*Credentials, error) {
	session, err := i.activeSession(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	var identity models.Identity
	if err := i.db.WithContext(ctx).Take(&identity, "id = ?", session.IdentityID).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("credential issuer: load identity: %w", err)
	}

	if err := i.revoke(ctx, session.ID); err != nil {
		return nil, err
	}
	return i.openSession(ctx, &identity, ClientInfo{IPAddress: session.IPAddress, UserAgent: session.UserAgent})
}

// SignOut revokes the refresh session bound to refreshToken.
func (i *CredentialIssuer) SignOut(ctx context.Context, refreshToken string) error {
	session, err := i.activeSession(ctx, refreshToken)
	if err != nil {
		return err
	}
	return i.revoke(ctx, session.ID)
}

// VerifyAccessToken validates an access token and returns its claims.
func (i *CredentialIssuer) VerifyAccessToken(token string) (*Claims, error) {
	return i.jwt.ValidateAccessToken(token)
}

// DeleteIdentity removes the identity, its profile and its sessions.
func (i *CredentialIssuer) DeleteIdentity(ctx context.Context, identityID string) error {
	if strings.TrimSpace(identityID) == "" {
		return ErrIdentityNotFound
	}

	return i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("identity_id = ?", identityID).Delete(&models.Session{}).Error; err != nil {
			return fmt.Errorf("credential issuer: delete sessions: %w", err)
		}
		if err := tx.Where("id = ?", identityID).Delete(&models.Profile{}).Error; err != nil {
			return fmt.Errorf("credential issuer: delete profile: %w", err)
		}
		res := tx.Where("id = ?", identityID).Delete(&models.Identity{})
		if res.Error != nil {
			return fmt.Errorf("credential issuer: delete identity: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrIdentityNotFound
		}
		return nil
	})
}

// CleanupExpiredSessions deletes refresh sessions that expired or were revoked.
func (i *CredentialIssuer) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	res := i.db.WithContext(ctx).
		Where("expires_at < ?", i.now()).
		Or("revoked_at IS NOT NULL").
		Delete(&models.Session{})
	if res.Error != nil {
		return 0, fmt.Errorf("credential issuer: cleanup sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (i *CredentialIssuer) openSession(ctx context.Context, identity *models.Identity, client ClientInfo) (*Credentials, error) {
	refresh, err := crypto.GenerateToken(48)
	if err != nil {
		return nil, fmt.Errorf("credential issuer: generate refresh token: %w", err)
	}

	session := &models.Session{
		IdentityID:       identity.ID,
		RefreshTokenHash: hashToken(refresh),
		IPAddress:        strings.TrimSpace(client.IPAddress),
		UserAgent:        strings.TrimSpace(client.UserAgent),
		ExpiresAt:        i.now().Add(i.refreshTTL),
	}
	if err := i.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, fmt.Errorf("credential issuer: create session: %w", err)
	}

	access, expiresAt, err := i.jwt.GenerateAccessToken(identity.ID, session.ID, identity.Email)
	if err != nil {
		return nil, fmt.Errorf("credential issuer: %w", err)
	}

	return &Credentials{
		IdentityID:   identity.ID,
		Email:        identity.Email,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}, nil
}

func (i *CredentialIssuer) activeSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, ErrSessionNotFound
	}

	var session models.Session
	err := i.db.WithContext(ctx).Where("refresh_token_hash = ?", hashToken(refreshToken)).Take(&session).Error
	if database.IsNotFound(err) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("credential issuer: find session: %w", err)
	}
	if !session.Active(i.now()) {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

func (i *CredentialIssuer) revoke(ctx context.Context, sessionID string) error {
	res := i.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND revoked_at IS NULL", sessionID).
		Update("revoked_at", i.now())
	if res.Error != nil {
		return fmt.Errorf("credential issuer: revoke session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
