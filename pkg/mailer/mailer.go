// Package mailer delivers magic-link verification mail. The Postmark sender
// is the production path; the log sender covers development environments
// where outbound mail is disabled.
package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

var (
	ErrInvalidConfig = errors.New("mailer: invalid configuration")
	ErrSendFailed    = errors.New("mailer: failed to send email")
)

// Message is one outbound verification email.
type Message struct {
	To       string
	Subject  string
	BodyHTML string
	BodyText string
	Tag      string
}

// Sender delivers messages. Implementations must be safe for concurrent
// use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Config holds mailer configuration.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"AUTH_SENDER_EMAIL"`
}

type postmarkSender struct {
	client *postmark.Client
	from   string
}

var _ Sender = (*postmarkSender)(nil)

// NewPostmarkSender creates a Postmark-backed sender. All config fields are
// required; failing here beats silently dropping verification mail later.
func NewPostmarkSender(cfg Config) (Sender, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: PostmarkAccountToken is required", ErrInvalidConfig)
	}
	if cfg.SenderEmail == "" {
		return nil, fmt.Errorf("%w: SenderEmail is required", ErrInvalidConfig)
	}

	return &postmarkSender{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		from:   cfg.SenderEmail,
	}, nil
}

func (s *postmarkSender) Send(ctx context.Context, msg Message) error {
	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.from,
		To:       msg.To,
		Subject:  msg.Subject,
		HTMLBody: msg.BodyHTML,
		TextBody: msg.BodyText,
		Tag:      msg.Tag,
	})
	if err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrSendFailed, fmt.Errorf("postmark error %d: %s", resp.ErrorCode, resp.Message))
	}
	return nil
}
