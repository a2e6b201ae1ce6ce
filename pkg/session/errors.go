package session

import "errors"

var (
	ErrNoSession      = errors.New("session: no valid session")
	ErrCodecRequired  = errors.New("session: jwt strategy requires a token codec")
	ErrStoreRequired  = errors.New("session: database strategy requires an adapter")
	ErrBackendFailure = errors.New("session: adapter call failed")
)
