package services

import (
	"context"

	"github.com/charlesng35/teamhub/internal/auth"
	"github.com/charlesng35/teamhub/internal/models"
)

// CredentialIssuer is the identity provider used by the orchestrators.
// *auth.CredentialIssuer satisfies it.
type CredentialIssuer interface {
	SignUp(ctx context.Context, in auth.SignUpInput) (*models.Profile, error)
	SignIn(ctx context.Context, email, password string, client auth.ClientInfo) (*auth.Credentials, error)
	SignOut(ctx context.Context, refreshToken string) error
	DeleteIdentity(ctx context.Context, identityID string) error
}

var _ CredentialIssuer = (*auth.CredentialIssuer)(nil)
