package authkit

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"time"

	"github.com/dmitrymomot/authkit/pkg/adapter"
	"github.com/dmitrymomot/authkit/pkg/provider"
)

// startEmailSignIn creates a single-use verification token and mails the
// magic link. Only a salted hash of the token is persisted; the plaintext
// exists in the mail alone.
func (a *Auth) startEmailSignIn(ctx context.Context, reg *provider.Registered, cfg *provider.Email, email string) error {
	if email == "" {
		return newError(KindVerification, cfg.ID, fmt.Errorf("missing email address"))
	}

	token, err := a.generateEmailToken(cfg)
	if err != nil {
		return newError(KindConfiguration, cfg.ID, err)
	}

	expires := time.Now().Add(cfg.TokenMaxAge)
	if _, err := a.store.CreateVerificationToken(ctx, &adapter.VerificationToken{
		Identifier: email,
		Token:      hashToken(token, a.cfg.Secrets[0]),
		Expires:    expires,
	}); err != nil {
		return newError(KindAdapter, cfg.ID, err)
	}

	callback := reg.CallbackURL + "?" + url.Values{
		"token": {token},
		"email": {email},
	}.Encode()

	if err := cfg.SendVerificationRequest(ctx, provider.VerificationParams{
		Identifier: email,
		URL:        callback,
		Token:      token,
		Expires:    expires,
	}); err != nil {
		return newError(KindVerification, cfg.ID, fmt.Errorf("send verification mail: %w", err))
	}
	return nil
}

// redeemEmailToken consumes a magic-link token and resolves (or creates)
// the user behind the email address. Redemption is atomic on the adapter:
// concurrent attempts with the same token leave exactly one winner.
func (a *Auth) redeemEmailToken(ctx context.Context, providerID, email, token string) (*adapter.User, error) {
	if email == "" || token == "" {
		return nil, newError(KindVerification, providerID, fmt.Errorf("missing token or email"))
	}

	// Hashes differ per secret, so redemption tries each configured
	// secret the same way token verification does.
	var redeemed *adapter.VerificationToken
	for _, secret := range a.cfg.Secrets {
		vt, err := a.store.UseVerificationToken(ctx, email, hashToken(token, secret))
		if err != nil {
			return nil, newError(KindAdapter, providerID, err)
		}
		if vt != nil {
			redeemed = vt
			break
		}
	}
	if redeemed == nil {
		return nil, newError(KindVerification, providerID, fmt.Errorf("invalid or already used token"))
	}
	if time.Now().After(redeemed.Expires) {
		return nil, newError(KindVerification, providerID, fmt.Errorf("token expired"))
	}

	verified := time.Now()
	user, err := a.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, newError(KindAdapter, providerID, err)
	}
	if user == nil {
		user, err = a.store.CreateUser(ctx, &adapter.User{
			Email:         email,
			EmailVerified: &verified,
		})
		if err != nil {
			return nil, newError(KindAdapter, providerID, err)
		}
		a.events.createUser(ctx, user)
		return user, nil
	}

	if user.EmailVerified == nil {
		user.EmailVerified = &verified
		if user, err = a.store.UpdateUser(ctx, user); err != nil {
			return nil, newError(KindAdapter, providerID, err)
		}
	}
	return user, nil
}

func (a *Auth) generateEmailToken(cfg *provider.Email) (string, error) {
	if cfg.GenerateToken != nil {
		return cfg.GenerateToken()
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("entropy source failed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// hashToken salts the plaintext with the signing secret so a leaked
// verification-token table cannot be replayed.
func hashToken(token, secret string) string {
	sum := sha256.Sum256([]byte(token + secret))
	return hex.EncodeToString(sum[:])
}
