package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/teamhub/internal/auth"
	"github.com/charlesng35/teamhub/internal/database"
	"github.com/charlesng35/teamhub/internal/models"
	"github.com/charlesng35/teamhub/internal/permissions"
	"github.com/charlesng35/teamhub/pkg/crypto"
	apperrors "github.com/charlesng35/teamhub/pkg/errors"
	"github.com/charlesng35/teamhub/pkg/logger"
	"github.com/charlesng35/teamhub/pkg/mail"
	"github.com/charlesng35/teamhub/pkg/metrics"
	"github.com/charlesng35/teamhub/pkg/saga"
	"github.com/charlesng35/teamhub/pkg/validator"
)

const (
	// DefaultInviteTTL is how long an invitation stays acceptable.
	DefaultInviteTTL = 24 * time.Hour

	inviteTokenBytes     = 32
	invitePasswordLength = 16
)

var (
	// ErrPendingInviteExists reports a second pending invite for the same organization and email.
	ErrPendingInviteExists = apperrors.NewConflict("Pending invite already exists for this email")
	// ErrInviteNotFound indicates the invite is absent from the actor's organization.
	ErrInviteNotFound = apperrors.NewNotFound("Invitation not found")

	errUserExists = apperrors.NewConflict("User with this email already exists")
)

// CreateInviteInput captures an invitation request.
type CreateInviteInput struct {
	OrganizationID string
	Email          string
	Name           string
	Role           string
	TeamID         string
}

// InviteResult is returned by Create. EmailSent is false when the invitation
// was stored but the notification could not be delivered.
type InviteResult struct {
	Invite    *models.OrganizationInvite
	EmailSent bool
}

// AcceptInviteInput carries the parameters of an acceptance link.
type AcceptInviteInput struct {
	Token    string
	Email    string
	Password string
	Client   auth.ClientInfo
}

// InviteOption customises InviteService behaviour.
type InviteOption func(*InviteService)

// WithInviteTTL overrides the invitation lifetime.
func WithInviteTTL(d time.Duration) InviteOption {
	return func(s *InviteService) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithInviteClock injects a custom clock primarily for testing.
func WithInviteClock(clock func() time.Time) InviteOption {
	return func(s *InviteService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// InviteService drives the invitation lifecycle: provisioning the invitee,
// notifying them, and settling the invite as accepted, revoked or expired.
type InviteService struct {
	db       *gorm.DB
	issuer   CredentialIssuer
	sender   *mail.InviteSender
	activity *ActivityService
	ttl      time.Duration
	now      func() time.Time
	log      *zap.Logger
}

// NewInviteService constructs an InviteService with the provided dependencies.
func NewInviteService(db *gorm.DB, issuer CredentialIssuer, sender *mail.InviteSender, activity *ActivityService, opts ...InviteOption) (*InviteService, error) {
	if db == nil {
		return nil, errors.New("invite service: db is required")
	}
	if issuer == nil {
		return nil, errors.New("invite service: credential issuer is required")
	}
	if sender == nil {
		sender = mail.NewInviteSender(mail.Disabled(), "", "")
	}

	service := &InviteService{
		db:       db,
		issuer:   issuer,
		sender:   sender,
		activity: activity,
		ttl:      DefaultInviteTTL,
		now:      time.Now,
		log:      logger.WithModule("invites"),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Create provisions the invitee (identity, organization membership, optional
// team membership), stores a pending invite and emails the credentials. Any
// failed provisioning step undoes the previous ones.
func (s *InviteService) Create(ctx context.Context, actor Actor, input CreateInviteInput) (*InviteResult, error) {
	ctx = ensureContext(ctx)

	actor, err := scopeActor(ctx, s.db, actor, input.OrganizationID)
	if err != nil {
		return nil, err
	}
	orgID := actor.OrganizationID

	email := models.NormalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)
	if email == "" || name == "" || strings.TrimSpace(input.Role) == "" {
		return nil, apperrors.NewBadRequest("Email, name, and role are required")
	}
	if !validator.IsEmail(email) {
		return nil, apperrors.NewBadRequest("Invalid email address")
	}

	role, _ := models.ParseRole(input.Role)
	if !role.Invitable() {
		return nil, apperrors.NewBadRequest("Invalid role. Must be admin or member")
	}

	if err := authorize(permissions.Request{Actor: actor.Role, Action: permissions.ActionInvite, TargetRole: role}); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	teamID := strings.TrimSpace(input.TeamID)
	if teamID != "" {
		var count int64
		if err := db.Model(&models.Team{}).Where("id = ? AND organization_id = ?", teamID, orgID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("invite service: check team: %w", err)
		}
		if count == 0 {
			return nil, apperrors.NewNotFound("Team not found in organization")
		}
	}

	var profiles int64
	if err := db.Model(&models.Profile{}).Where("email = ?", email).Count(&profiles).Error; err != nil {
		return nil, fmt.Errorf("invite service: check profile: %w", err)
	}
	if profiles > 0 {
		return nil, errUserExists
	}

	var pending int64
	if err := db.Model(&models.OrganizationInvite{}).
		Where("organization_id = ? AND email = ? AND status = ?", orgID, email, models.InviteStatusPending).
		Count(&pending).Error; err != nil {
		return nil, fmt.Errorf("invite service: check pending invites: %w", err)
	}
	if pending > 0 {
		return nil, ErrPendingInviteExists
	}

	password, err := crypto.GeneratePassword(invitePasswordLength)
	if err != nil {
		return nil, fmt.Errorf("invite service: generate password: %w", err)
	}
	token, err := crypto.GenerateToken(inviteTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("invite service: generate token: %w", err)
	}

	invite, err := s.provision(ctx, actor, provisionRequest{
		email:    email,
		name:     name,
		role:     role,
		teamID:   teamID,
		password: password,
		token:    token,
	})
	if err != nil {
		return nil, err
	}
	metrics.InviteTransitions.WithLabelValues(string(models.InviteStatusPending)).Inc()

	result := &InviteResult{Invite: invite}
	sendErr := s.sender.SendInvitation(ctx, mail.Invitation{
		Email:    email,
		Name:     name,
		Role:     string(role),
		Password: password,
		Token:    token,
		TTL:      s.ttl,
	})
	if sendErr != nil {
		metrics.NotificationFailures.Inc()
		s.log.Warn("invitation email failed",
			zap.String("invite_id", invite.ID),
			zap.String("organization_id", orgID),
			zap.Error(sendErr),
		)
		return result, nil
	}
	result.EmailSent = true

	recordActivity(s.activity, ctx, ActivityEntry{
		OrganizationID: orgID,
		ActorID:        actor.ProfileID,
		Action:         fmt.Sprintf("Invited %s as %s", name, role),
		ActionType:     models.ActivityUserInvited,
		Metadata:       map[string]any{"name": name, "role": string(role)},
	})

	return result, nil
}

type provisionRequest struct {
	email    string
	name     string
	role     models.Role
	teamID   string
	password string
	token    string
}

func (s *InviteService) provision(ctx context.Context, actor Actor, req provisionRequest) (*models.OrganizationInvite, error) {
	orgID := actor.OrganizationID
	tx := saga.New("invite.create",
		saga.WithLogger(s.log),
		saga.WithCompensationHook(compensationRecorder("invite.create")),
	)

	var profile *models.Profile
	err := tx.Step(ctx, "identity",
		func(ctx context.Context) error {
			var err error
			profile, err = s.issuer.SignUp(ctx, auth.SignUpInput{Email: req.email, Password: req.password, FullName: req.name})
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

	membership := &models.OrganizationMember{OrganizationID: orgID, UserID: profile.ID, Role: req.role}
	err = tx.Step(ctx, "organization_membership",
		func(ctx context.Context) error {
			return s.db.WithContext(ctx).Create(membership).Error
		},
		func(ctx context.Context) error {
			return s.db.WithContext(ctx).Delete(&models.OrganizationMember{}, "id = ?", membership.ID).Error
		},
	)
	if err != nil {
		return nil, apperrors.NewDependency("Failed to add user to organization", err)
	}

	if req.teamID != "" {
		teamMember := &models.TeamMember{TeamID: req.teamID, UserID: profile.ID, Role: string(models.RoleMember), AddedBy: actor.ProfileID}
		err = tx.Step(ctx, "team_membership",
			func(ctx context.Context) error {
				return s.db.WithContext(ctx).Create(teamMember).Error
			},
			func(ctx context.Context) error {
				return s.db.WithContext(ctx).Delete(&models.TeamMember{}, "id = ?", teamMember.ID).Error
			},
		)
		if err != nil {
			return nil, apperrors.NewDependency("Failed to add user to team", err)
		}
	}

	pendingKey := models.PendingInviteKey(orgID, req.email)
	invite := &models.OrganizationInvite{
		OrganizationID: orgID,
		InviterID:      actor.ProfileID,
		Email:          req.email,
		Role:           req.role,
		Token:          req.token,
		Status:         models.InviteStatusPending,
		ExpiresAt:      s.now().Add(s.ttl),
		PendingKey:     &pendingKey,
	}
	err = tx.Step(ctx, "invite", func(ctx context.Context) error {
		return s.db.WithContext(ctx).Create(invite).Error
	}, nil)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrPendingInviteExists
		}
		return nil, apperrors.NewDependency("Failed to create invitation", err)
	}

	tx.Commit()
	return invite, nil
}

// Accept verifies the acceptance link, signs the invitee in and settles the
// invite as accepted. Expiry is detected here and persisted before failing.
func (s *InviteService) Accept(ctx context.Context, input AcceptInviteInput) (*auth.SessionDescriptor, error) {
	ctx = ensureContext(ctx)

	token := strings.TrimSpace(input.Token)
	email := models.NormalizeEmail(input.Email)
	if token == "" || email == "" || input.Password == "" {
		return nil, apperrors.NewBadRequest("Missing required parameters")
	}

	var invite models.OrganizationInvite
	err := s.db.WithContext(ctx).Where("token = ? AND email = ?", token, email).Take(&invite).Error
	if database.IsNotFound(err) {
		return nil, apperrors.NewNotFound("Invalid or expired invitation")
	}
	if err != nil {
		return nil, fmt.Errorf("invite service: load invite: %w", err)
	}

	if invite.Status != models.InviteStatusPending {
		return nil, apperrors.NewStateConflict(fmt.Sprintf("Invitation is %s", invite.Status))
	}

	if invite.Expired(s.now()) {
		if _, err := s.transition(ctx, invite.ID, models.InviteStatusExpired, nil); err != nil {
			return nil, err
		}
		return nil, apperrors.NewStateConflict("Invitation has expired")
	}

	creds, err := s.issuer.SignIn(ctx, email, input.Password, input.Client)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("invite", "failure").Inc()
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return nil, apperrors.NewUnauthenticated("Failed to authenticate. Invalid credentials")
		}
		return nil, apperrors.NewDependency("Failed to authenticate. Invalid credentials", err)
	}
	metrics.AuthAttempts.WithLabelValues("invite", "success").Inc()

	desc, err := s.sessionFor(ctx, creds, invite.OrganizationID)
	if err != nil {
		s.signOut(ctx, creds.RefreshToken)
		return nil, err
	}

	now := s.now()
	ok, err := s.transition(ctx, invite.ID, models.InviteStatusAccepted, map[string]any{"accepted_at": now})
	if err != nil {
		s.signOut(ctx, creds.RefreshToken)
		return nil, err
	}
	if !ok {
		s.signOut(ctx, creds.RefreshToken)
		return nil, s.currentStatusError(ctx, invite.ID, "Invitation is %s")
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		OrganizationID: invite.OrganizationID,
		ActorID:        desc.ProfileID,
		Action:         fmt.Sprintf("%s accepted the invitation", desc.FullName),
		ActionType:     models.ActivityInviteAccepted,
		Metadata:       map[string]any{"name": desc.FullName, "role": string(desc.Role)},
	})

	return desc, nil
}

func (s *InviteService) sessionFor(ctx context.Context, creds *auth.Credentials, organizationID string) (*auth.SessionDescriptor, error) {
	var profile models.Profile
	err := s.db.WithContext(ctx).Take(&profile, "id = ?", creds.IdentityID).Error
	if database.IsNotFound(err) {
		return nil, apperrors.NewNotFound("Profile not found")
	}
	if err != nil {
		return nil, fmt.Errorf("invite service: load profile: %w", err)
	}

	var membership models.OrganizationMember
	err = s.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", organizationID, profile.ID).
		Take(&membership).Error
	if database.IsNotFound(err) {
		return nil, apperrors.NewNotFound("Organization membership not found")
	}
	if err != nil {
		return nil, fmt.Errorf("invite service: load membership: %w", err)
	}

	return &auth.SessionDescriptor{
		ProfileID:      profile.ID,
		AccessToken:    creds.AccessToken,
		RefreshToken:   creds.RefreshToken,
		FullName:       profile.FullName,
		Role:           membership.Role,
		OrganizationID: membership.OrganizationID,
	}, nil
}

// Revoke settles a pending invite of the resolved organization as revoked.
func (s *InviteService) Revoke(ctx context.Context, actor Actor, organizationID, inviteID string) (*models.OrganizationInvite, error) {
	ctx = ensureContext(ctx)

	actor, err := scopeActor(ctx, s.db, actor, organizationID)
	if err != nil {
		return nil, err
	}
	if err := authorize(permissions.Request{Actor: actor.Role, Action: permissions.ActionRevokeInvite}); err != nil {
		return nil, err
	}

	var invite models.OrganizationInvite
	err = s.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", strings.TrimSpace(inviteID), actor.OrganizationID).
		Take(&invite).Error
	if database.IsNotFound(err) {
		return nil, ErrInviteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("invite service: load invite: %w", err)
	}

	if invite.Status != models.InviteStatusPending {
		return nil, apperrors.NewStateConflict(fmt.Sprintf("Cannot revoke %s invitation", invite.Status))
	}

	ok, err := s.transition(ctx, invite.ID, models.InviteStatusRevoked, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.currentStatusError(ctx, invite.ID, "Cannot revoke %s invitation")
	}
	invite.Status = models.InviteStatusRevoked
	invite.PendingKey = nil

	recordActivity(s.activity, ctx, ActivityEntry{
		OrganizationID: actor.OrganizationID,
		ActorID:        actor.ProfileID,
		Action:         "Revoked invitation for " + invite.Email,
		ActionType:     models.ActivityInviteRevoked,
		Metadata:       map[string]any{"email": invite.Email},
	})

	return &invite, nil
}

// ListPending returns the pending invites of the resolved organization newest first.
func (s *InviteService) ListPending(ctx context.Context, actor Actor, organizationID string) ([]models.OrganizationInvite, error) {
	ctx = ensureContext(ctx)

	actor, err := scopeActor(ctx, s.db, actor, organizationID)
	if err != nil {
		return nil, err
	}
	if err := authorize(permissions.Request{Actor: actor.Role, Action: permissions.ActionViewInvites}); err != nil {
		return nil, err
	}

	var invites []models.OrganizationInvite
	if err := s.db.WithContext(ctx).
		Where("organization_id = ? AND status = ?", actor.OrganizationID, models.InviteStatusPending).
		Order("created_at DESC").
		Find(&invites).Error; err != nil {
		return nil, fmt.Errorf("invite service: list invites: %w", err)
	}
	return invites, nil
}

// ExpireStale marks every pending invite past its expiry as expired.
func (s *InviteService) ExpireStale(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)

	res := s.db.WithContext(ctx).Model(&models.OrganizationInvite{}).
		Where("status = ? AND expires_at < ?", models.InviteStatusPending, s.now()).
		Updates(map[string]any{"status": models.InviteStatusExpired, "pending_key": nil})
	if res.Error != nil {
		return 0, fmt.Errorf("invite service: expire stale invites: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		metrics.InviteTransitions.WithLabelValues(string(models.InviteStatusExpired)).Add(float64(res.RowsAffected))
	}
	return res.RowsAffected, nil
}

// transition moves a pending invite to status. It reports false when the
// invite was no longer pending.
func (s *InviteService) transition(ctx context.Context, inviteID string, status models.InviteStatus, extra map[string]any) (bool, error) {
	updates := map[string]any{"status": status, "pending_key": nil}
	for k, v := range extra {
		updates[k] = v
	}

	res := s.db.WithContext(ctx).Model(&models.OrganizationInvite{}).
		Where("id = ? AND status = ?", inviteID, models.InviteStatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, apperrors.NewDependency("Failed to update invitation", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	metrics.InviteTransitions.WithLabelValues(string(status)).Inc()
	return true, nil
}

func (s *InviteService) currentStatusError(ctx context.Context, inviteID, format string) error {
	var invite models.OrganizationInvite
	if err := s.db.WithContext(ctx).Select("status").Take(&invite, "id = ?", inviteID).Error; err != nil {
		return fmt.Errorf("invite service: reload invite: %w", err)
	}
	return apperrors.NewStateConflict(fmt.Sprintf(format, invite.Status))
}

func (s *InviteService) signOut(ctx context.Context, refreshToken string) {
	if err := s.issuer.SignOut(context.WithoutCancel(ctx), refreshToken); err != nil {
		s.log.Warn("failed to revoke session after rejected acceptance", zap.Error(err))
	}
}
