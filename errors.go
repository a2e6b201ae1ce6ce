package authkit

import (
	"errors"
	"fmt"
)

// Kind names an authentication failure class. Kinds are stable strings:
// interactive failures surface them as the error query parameter on the
// error page redirect, so applications key their error copy off them.
type Kind string

const (
	KindOAuthSignIn       Kind = "OAuthSignInError"
	KindOAuthCallback     Kind = "OAuthCallbackError"
	KindOAuthProfileParse Kind = "OAuthProfileParseError"
	KindInvalidCheck      Kind = "InvalidCheck"
	KindAccountNotLinked  Kind = "AccountNotLinked"
	KindAdapter           Kind = "AdapterError"
	KindMissingSecret     Kind = "MissingSecret"
	KindMissingAdapter    Kind = "MissingAdapter"
	KindVerification      Kind = "Verification"
	KindUnknownAction     Kind = "UnknownAction"
	KindUntrustedHost     Kind = "UntrustedHost"
	KindAccessDenied      Kind = "AccessDenied"
	KindMissingCSRF       Kind = "MissingCSRF"
	KindConfiguration     Kind = "Configuration"
)

// Error is the root of the authentication error hierarchy. Provider is set
// when the failure occurred inside a provider-specific step.
type Error struct {
	Kind     Kind
	Provider string
	Err      error
}

func (e *Error) Error() string {
	switch {
	case e.Provider != "" && e.Err != nil:
		return fmt.Sprintf("authkit: %s (provider %s): %v", e.Kind, e.Provider, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("authkit: %s: %v", e.Kind, e.Err)
	case e.Provider != "":
		return fmt.Sprintf("authkit: %s (provider %s)", e.Kind, e.Provider)
	default:
		return fmt.Sprintf("authkit: %s", e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two errors of the same kind, so callers can compare against
// sentinel values like &Error{Kind: KindAccountNotLinked}.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf extracts the failure kind, defaulting to Configuration for errors
// raised outside the hierarchy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindConfiguration
}

func newError(kind Kind, providerID string, err error) *Error {
	return &Error{Kind: kind, Provider: providerID, Err: err}
}
