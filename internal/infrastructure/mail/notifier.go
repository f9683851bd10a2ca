package mail

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	appidentity "github.com/marketplace/backend/internal/application/identity"
)

// Notifier renders account emails and hands them to a Mailer
type Notifier struct {
	mailer          Mailer
	frontendURL     string
	verificationTTL time.Duration
}

// NewNotifier builds links against frontendURL
func NewNotifier(mailer Mailer, frontendURL string, verificationTTL time.Duration) *Notifier {
	return &Notifier{
		mailer:          mailer,
		frontendURL:     strings.TrimRight(frontendURL, "/"),
		verificationTTL: verificationTTL,
	}
}

// SendVerificationEmail mails the email confirmation link
func (n *Notifier) SendVerificationEmail(ctx context.Context, email, token string) error {
	html, text, err := render(verificationHTMLTmpl, verificationTextTmpl, struct {
		Link     string
		ValidFor string
	}{
		Link:     n.link("/verify-email", token),
		ValidFor: humanDuration(n.verificationTTL),
	})
	if err != nil {
		return err
	}
	return n.mailer.Send(ctx, Message{
		To:      email,
		Subject: "Confirm your email address",
		HTML:    html,
		Text:    text,
	})
}

// SendBrandInvitation mails the brand onboarding link
func (n *Notifier) SendBrandInvitation(ctx context.Context, email, brandName, token string, expiresAt time.Time) error {
	html, text, err := render(invitationHTMLTmpl, invitationTextTmpl, struct {
		BrandName string
		Link      string
		ExpiresAt string
	}{
		BrandName: brandName,
		Link:      n.link("/brand/register", token),
		ExpiresAt: expiresAt.UTC().Format("January 2, 2006 15:04 MST"),
	})
	if err != nil {
		return err
	}
	return n.mailer.Send(ctx, Message{
		To:      email,
		Subject: "Your brand invitation to the marketplace",
		HTML:    html,
		Text:    text,
	})
}

func (n *Notifier) link(path, token string) string {
	return n.frontendURL + path + "?token=" + url.QueryEscape(token)
}

func humanDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "24 hours"
	case d%(24*time.Hour) == 0 && d >= 48*time.Hour:
		return strconv.Itoa(int(d/(24*time.Hour))) + " days"
	case d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return strconv.Itoa(int(d/time.Hour)) + " hours"
	default:
		return d.String()
	}
}

var _ appidentity.Notifier = (*Notifier)(nil)
