package authkit

import (
	"context"

	"github.com/dmitrymomot/authkit/pkg/adapter"
)

// Events are audit hooks fired after the corresponding state change has
// been committed. They are fire-and-forget: handlers cannot veto the flow
// and their panics are not recovered, so keep them cheap and non-failing
// (enqueue, log, count).
type Events struct {
	SignIn        func(ctx context.Context, user *adapter.User, providerID string)
	SignOut       func(ctx context.Context, sessionToken string)
	CreateUser    func(ctx context.Context, user *adapter.User)
	LinkAccount   func(ctx context.Context, account *adapter.Account, user *adapter.User)
	CreateSession func(ctx context.Context, sessionToken string, user *adapter.User)
}

func (e Events) signIn(ctx context.Context, user *adapter.User, providerID string) {
	if e.SignIn != nil {
		e.SignIn(ctx, user, providerID)
	}
}

func (e Events) signOut(ctx context.Context, token string) {
	if e.SignOut != nil {
		e.SignOut(ctx, token)
	}
}

func (e Events) createUser(ctx context.Context, user *adapter.User) {
	if e.CreateUser != nil {
		e.CreateUser(ctx, user)
	}
}

func (e Events) linkAccount(ctx context.Context, account *adapter.Account, user *adapter.User) {
	if e.LinkAccount != nil {
		e.LinkAccount(ctx, account, user)
	}
}

func (e Events) createSession(ctx context.Context, token string, user *adapter.User) {
	if e.CreateSession != nil {
		e.CreateSession(ctx, token, user)
	}
}
