package authkit

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/authkit/pkg/adapter"
	"github.com/dmitrymomot/authkit/pkg/oauthflow"
	"github.com/dmitrymomot/authkit/pkg/provider"
)

// link resolves a verified external identity to a local user, creating the
// user and the account link on first sign-in. Repeat sign-ins with the same
// (provider, providerAccountID) always resolve to the existing user.
func (a *Auth) link(ctx context.Context, cfg *provider.OAuth2, providerType provider.Type, outcome *oauthflow.Outcome) (*adapter.User, error) {
	providerID := cfg.ID

	existing, err := a.store.GetUserByAccount(ctx, providerID, outcome.Profile.ID)
	if err != nil {
		return nil, newError(KindAdapter, providerID, err)
	}
	if existing != nil {
		return existing, nil
	}

	// New external identity. An existing local user sharing the email is
	// only linked when the provider explicitly allows it; silently merging
	// identities that merely share an address hands over accounts to
	// anyone who controls the email at the provider.
	if outcome.Profile.Email != "" {
		byEmail, err := a.store.GetUserByEmail(ctx, outcome.Profile.Email)
		if err != nil {
			return nil, newError(KindAdapter, providerID, err)
		}
		if byEmail != nil {
			if !cfg.AllowEmailLinking {
				return nil, newError(KindAccountNotLinked, providerID,
					fmt.Errorf("email %s already belongs to another account", outcome.Profile.Email))
			}
			account := accountFromOutcome(byEmail, cfg, providerType, outcome)
			if err := a.store.LinkAccount(ctx, account); err != nil {
				return nil, newError(KindAdapter, providerID, err)
			}
			a.events.linkAccount(ctx, account, byEmail)
			return byEmail, nil
		}
	}

	user, err := a.store.CreateUser(ctx, &adapter.User{
		Name:  outcome.Profile.Name,
		Email: outcome.Profile.Email,
		Image: outcome.Profile.Image,
	})
	if err != nil {
		return nil, newError(KindAdapter, providerID, err)
	}
	a.events.createUser(ctx, user)

	account := accountFromOutcome(user, cfg, providerType, outcome)
	if err := a.store.LinkAccount(ctx, account); err != nil {
		return nil, newError(KindAdapter, providerID, err)
	}
	a.events.linkAccount(ctx, account, user)

	return user, nil
}

func accountFromOutcome(user *adapter.User, cfg *provider.OAuth2, providerType provider.Type, outcome *oauthflow.Outcome) *adapter.Account {
	account := &adapter.Account{
		UserID:            user.ID,
		Type:              string(providerType),
		Provider:          cfg.ID,
		ProviderAccountID: outcome.Profile.ID,
		AccessToken:       outcome.Tokens.AccessToken,
		RefreshToken:      outcome.Tokens.RefreshToken,
		IDToken:           outcome.Tokens.IDToken,
		TokenType:         outcome.Tokens.TokenType,
		Scope:             outcome.Tokens.Scope,
	}
	if !outcome.Tokens.Expiry.IsZero() {
		expiry := outcome.Tokens.Expiry
		account.ExpiresAt = &expiry
	}
	return account
}

