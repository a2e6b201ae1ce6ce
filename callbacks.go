package authkit

import (
	"context"
	"net/url"
	"strings"

	"github.com/dmitrymomot/authkit/pkg/provider"
)

// Callbacks let the application participate in flow decisions. All fields
// are optional; zero values keep the documented defaults.
type Callbacks struct {
	// SignIn gates every sign-in after the identity has been verified but
	// before any record is created or session issued. Returning false
	// rejects the attempt with AccessDenied.
	SignIn func(ctx context.Context, profile provider.Profile, providerID string) (bool, error)

	// Redirect sanitizes the post-sign-in destination. The default allows
	// relative paths and absolute URLs on the base origin, and falls back
	// to the base origin for everything else.
	Redirect func(ctx context.Context, destination string, base *url.URL) (string, error)
}

func (c Callbacks) allowSignIn(ctx context.Context, profile provider.Profile, providerID string) (bool, error) {
	if c.SignIn == nil {
		return true, nil
	}
	return c.SignIn(ctx, profile, providerID)
}

func (c Callbacks) redirect(ctx context.Context, destination string, base *url.URL) (string, error) {
	if c.Redirect != nil {
		return c.Redirect(ctx, destination, base)
	}
	return defaultRedirect(destination, base), nil
}

// defaultRedirect keeps sign-in redirects on the application's own origin.
// Open redirects through the callbackUrl parameter are a standing phishing
// vector, so anything off-origin collapses to the origin root.
func defaultRedirect(destination string, base *url.URL) string {
	origin := base.Scheme + "://" + base.Host

	if destination == "" {
		return origin
	}
	if strings.HasPrefix(destination, "/") && !strings.HasPrefix(destination, "//") {
		return origin + destination
	}

	u, err := url.Parse(destination)
	if err == nil && u.Scheme == base.Scheme && u.Host == base.Host {
		return destination
	}
	return origin
}
