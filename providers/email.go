package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrymomot/authkit/pkg/mailer"
	"github.com/dmitrymomot/authkit/pkg/provider"
)

// EmailOptions configures the magic-link provider.
type EmailOptions struct {
	// From is the sender address shown in the verification mail.
	From string

	// Sender delivers the mail. Required unless SendVerificationRequest
	// is set.
	Sender mailer.Sender

	// TokenMaxAge bounds verification link validity. Zero keeps the
	// 24 hour default.
	TokenMaxAge time.Duration

	// SendVerificationRequest replaces the default mail template and
	// delivery path entirely. Optional.
	SendVerificationRequest func(ctx context.Context, params provider.VerificationParams) error
}

// Email returns a magic-link provider. The default delivery path renders
// a minimal sign-in mail and hands it to the configured Sender.
func Email(opts EmailOptions) *provider.Email {
	send := opts.SendVerificationRequest
	if send == nil {
		send = func(ctx context.Context, params provider.VerificationParams) error {
			return opts.Sender.Send(ctx, mailer.Message{
				To:      params.Identifier,
				Subject: "Sign in link",
				BodyHTML: fmt.Sprintf(
					`<p>Click the link below to sign in.</p><p><a href=%q>Sign in</a></p><p>If you did not request this email you can safely ignore it.</p>`,
					params.URL,
				),
				BodyText: fmt.Sprintf("Sign in:\n%s\n\nIf you did not request this email you can safely ignore it.\n", params.URL),
				Tag:      "magic-link",
			})
		}
	}

	return &provider.Email{
		ID:                      "email",
		Name:                    "Email",
		From:                    opts.From,
		TokenMaxAge:             opts.TokenMaxAge,
		SendVerificationRequest: send,
	}
}
