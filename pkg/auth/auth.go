// Package auth applies repository credentials to outgoing fetch requests.
package auth

import (
	"fmt"
	"net/http"
	"os"

	"github.com/glorpus-work/yapm/pkg/errutils"
)

// Authenticator decorates a repository request with credentials.
type Authenticator interface {
	Apply(req *http.Request) error
	Type() Type
}

// Type represents the type of authentication.
type Type string

// Authentication types.
const (
	BasicAuthType  Type = "basic"
	HeaderAuthType Type = "header"
	BearerAuthType Type = "bearer"
)

// BasicAuth represents HTTP Basic Authentication credentials.
type BasicAuth struct {
	Username string
	Password string
}

// Apply adds Basic Authentication headers to the HTTP request.
func (b BasicAuth) Apply(req *http.Request) error {
	req.SetBasicAuth(b.Username, b.Password)
	return nil
}

// Type returns BasicAuthType.
func (b BasicAuth) Type() Type { return BasicAuthType }

// HeaderAuth sets arbitrary headers, e.g. an API key expected by a repository proxy.
type HeaderAuth struct {
	Headers map[string]string
}

// Apply adds the configured headers to the HTTP request.
func (h HeaderAuth) Apply(req *http.Request) error {
	for k, v := range h.Headers {
		req.Header.Set(k, v)
	}
	return nil
}

// Type returns HeaderAuthType.
func (h HeaderAuth) Type() Type { return HeaderAuthType }

// BearerAuth sends a bearer token. When TokenEnv is set the token is read from that
// environment variable on every request and Token is ignored.
type BearerAuth struct {
	Token    string
	TokenEnv string
}

// Apply adds a Bearer token to the Authorization header of the HTTP request.
func (b BearerAuth) Apply(req *http.Request) error {
	token := b.Token
	if b.TokenEnv != "" {
		var ok bool
		token, ok = os.LookupEnv(b.TokenEnv)
		if !ok || token == "" {
			return fmt.Errorf("%w: environment variable %s is not set", errutils.ErrCredentialsMissing, b.TokenEnv)
		}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// Type returns BearerAuthType.
func (b BearerAuth) Type() Type { return BearerAuthType }
