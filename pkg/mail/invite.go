package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"
)

// InviteSubject is the subject line of every invitation email.
const InviteSubject = "You're Invited!"

var inviteTemplate = template.Must(template.New("invite").Parse(`<p>Hello {{.Name}},</p>
<p>You've been invited as <b>{{.Role}}</b>.</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Password:</strong> {{.Password}}</p>
<a href="{{.AcceptURL}}">Click here to login</a> (Valid {{.ValidFor}})
`))

// Invitation holds everything the invitee needs to sign in for the first time.
type Invitation struct {
	Email    string
	Name     string
	Role     string
	Password string
	Token    string
	TTL      time.Duration
}

// InviteSender renders invitations and hands them to a Mailer.
type InviteSender struct {
	mailer  Mailer
	baseURL string
	from    string
}

// NewInviteSender wires a Mailer with the public application URL used to build
// acceptance links.
func NewInviteSender(mailer Mailer, baseURL, from string) *InviteSender {
	if mailer == nil {
		mailer = Disabled()
	}
	return &InviteSender{
		mailer:  mailer,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		from:    from,
	}
}

// AcceptURL builds the link embedded in the invitation email.
func (s *InviteSender) AcceptURL(inv Invitation) string {
	query := url.Values{}
	query.Set("token", inv.Token)
	query.Set("email", inv.Email)
	query.Set("password", inv.Password)
	return s.baseURL + "/api/invite/accept?" + query.Encode()
}

// SendInvitation renders and delivers the invitation email.
func (s *InviteSender) SendInvitation(ctx context.Context, inv Invitation) error {
	msg, err := s.Render(inv)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, msg)
}

// Render builds the invitation message without sending it.
func (s *InviteSender) Render(inv Invitation) (Message, error) {
	var body bytes.Buffer
	err := inviteTemplate.Execute(&body, struct {
		Name      string
		Role      string
		Email     string
		Password  string
		AcceptURL string
		ValidFor  string
	}{
		Name:      inv.Name,
		Role:      inv.Role,
		Email:     inv.Email,
		Password:  inv.Password,
		AcceptURL: s.AcceptURL(inv),
		ValidFor:  formatValidity(inv.TTL),
	})
	if err != nil {
		return Message{}, fmt.Errorf("mail: render invitation: %w", err)
	}

	return Message{
		From:    s.from,
		To:      []string{inv.Email},
		Subject: InviteSubject,
		Body:    body.String(),
		HTML:    true,
	}, nil
}

func formatValidity(ttl time.Duration) string {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if ttl%time.Hour == 0 {
		return fmt.Sprintf("%d hrs", int(ttl/time.Hour))
	}
	return ttl.String()
}
