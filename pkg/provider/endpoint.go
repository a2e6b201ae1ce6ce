package provider

import (
	"fmt"
	"net/url"
)

// Endpoint is a provider endpoint with its query parameters made explicit.
// Parameters embedded in a shorthand URL string are preserved here instead
// of being silently dropped when the final request URL is built.
type Endpoint struct {
	URL    string
	Params map[string]string
}

// ParseEndpoint splits a shorthand endpoint string into base URL and
// parameter map. An empty input yields a zero Endpoint.
func ParseEndpoint(shorthand string) (Endpoint, error) {
	if shorthand == "" {
		return Endpoint{}, nil
	}

	u, err := url.Parse(shorthand)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrInvalidEndpoint, shorthand)
	}

	params := make(map[string]string)
	for k, vs := range u.Query() {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}

	u.RawQuery = ""
	u.Fragment = ""
	return Endpoint{URL: u.String(), Params: params}, nil
}

// IsZero reports whether the endpoint is unset.
func (e Endpoint) IsZero() bool {
	return e.URL == "" && len(e.Params) == 0
}
