package config

import (
	"fmt"

	"github.com/glorpus-work/yapm/pkg/auth"
	"github.com/glorpus-work/yapm/pkg/errutils"
)

// AuthConfig holds the credentials sent to the package repository. At most one
// method may be set.
type AuthConfig struct {
	BasicAuth  *BasicAuth  `yaml:"basic,omitempty"`
	HeaderAuth *HeaderAuth `yaml:"header,omitempty"`
	BearerAuth *BearerAuth `yaml:"bearer,omitempty"`
}

// BasicAuth holds configuration for HTTP Basic Authentication.
type BasicAuth struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// HeaderAuth holds configuration for custom header-based authentication.
type HeaderAuth struct {
	Headers map[string]string `yaml:"headers"`
}

// BearerAuth holds configuration for Bearer token authentication.
// token_env names an environment variable that holds the token.
type BearerAuth struct {
	Token    string `yaml:"token,omitempty"`
	TokenEnv string `yaml:"token_env,omitempty"`
}

func (a *AuthConfig) validate() error {
	set := 0
	if a.BasicAuth != nil {
		set++
	}
	if a.HeaderAuth != nil {
		set++
	}
	if a.BearerAuth != nil {
		set++
		if a.BearerAuth.Token == "" && a.BearerAuth.TokenEnv == "" {
			return fmt.Errorf("%w: bearer auth needs token or token_env", errutils.ErrValidation)
		}
	}
	if set > 1 {
		return fmt.Errorf("%w: repository_auth must configure exactly one method", errutils.ErrValidation)
	}
	return nil
}

// Authenticator returns the authenticator for repository requests, or nil when no
// credentials are configured.
func (c *Config) Authenticator() auth.Authenticator {
	a := c.Settings.RepositoryAuth
	if a == nil {
		return nil
	}
	switch {
	case a.BasicAuth != nil:
		return auth.BasicAuth{Username: a.BasicAuth.Username, Password: a.BasicAuth.Password}
	case a.HeaderAuth != nil:
		return auth.HeaderAuth{Headers: a.HeaderAuth.Headers}
	case a.BearerAuth != nil:
		return auth.BearerAuth{Token: a.BearerAuth.Token, TokenEnv: a.BearerAuth.TokenEnv}
	default:
		return nil
	}
}
