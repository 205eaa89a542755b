package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/teamhub/internal/database"
	"github.com/charlesng35/teamhub/internal/models"
	"github.com/charlesng35/teamhub/internal/permissions"
	apperrors "github.com/charlesng35/teamhub/pkg/errors"
	"github.com/charlesng35/teamhub/pkg/metrics"
)

// Actor is the authenticated caller as seen by the services. It is built from
// the session descriptor at the HTTP boundary.
type Actor struct {
	ProfileID      string
	FullName       string
	Role           models.Role
	OrganizationID string
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

// Slugify lowercases name and collapses every run of characters outside
// [a-z0-9] into a single hyphen.
func Slugify(name string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// ErrOrganizationAccess is returned when the actor may not act inside the
// requested organization.
var ErrOrganizationAccess = apperrors.NewForbidden("You do not have access to this organization")

// scopeActor binds actor to the organization a request targets. An empty
// request means the session organization. Admins and members are confined to
// their session organization; owners may switch only to organizations they
// also own. The returned role is the one stored on the membership row, not the
// one sealed in the cookie.
func scopeActor(ctx context.Context, db *gorm.DB, actor Actor, requested string) (Actor, error) {
	orgID := strings.TrimSpace(requested)
	if orgID == "" {
		orgID = actor.OrganizationID
	}
	if orgID == "" {
		return actor, apperrors.ErrNoOrganization
	}

	switching := orgID != actor.OrganizationID
	if switching && actor.Role != models.RoleOwner {
		return actor, ErrOrganizationAccess
	}

	var membership models.OrganizationMember
	err := db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", orgID, actor.ProfileID).
		Take(&membership).Error
	if database.IsNotFound(err) {
		return actor, ErrOrganizationAccess
	}
	if err != nil {
		return actor, fmt.Errorf("load membership: %w", err)
	}
	if switching && membership.Role != models.RoleOwner {
		return actor, ErrOrganizationAccess
	}

	actor.OrganizationID = orgID
	actor.Role = membership.Role
	return actor, nil
}

// authorize consults the decision table and converts a denial into a 403.
func authorize(req permissions.Request) error {
	decision := permissions.Decide(req)
	result := "allow"
	if !decision.Allowed {
		result = "deny"
	}
	metrics.AuthorizationDecisions.WithLabelValues(string(req.Action), result).Inc()

	if !decision.Allowed {
		return apperrors.NewForbidden(decision.Reason)
	}
	return nil
}
