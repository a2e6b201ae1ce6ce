package provider

import "errors"

var (
	ErrUnknownProvider   = errors.New("provider: unknown provider id")
	ErrDuplicateProvider = errors.New("provider: duplicate provider id")
	ErrMissingID         = errors.New("provider: missing provider id")
	ErrInvalidEndpoint   = errors.New("provider: invalid endpoint URL")
	ErrMissingBaseURL    = errors.New("provider: missing base URL")
)
