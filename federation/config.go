package federation

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/endpoints"
)

const (
	DefaultCallbackPath    = "/api/auth/google/callback"
	DefaultUserInfoURL     = "https://www.googleapis.com/oauth2/v2/userinfo"
	DefaultExchangeTimeout = 10 * time.Second
	DefaultStateTTL        = 15 * time.Minute
	DefaultProfileAttempts = 3
	DefaultRetryInterval   = 200 * time.Millisecond

	placeholderClientID     = "your_google_oauth_client_id_here"
	placeholderClientSecret = "your_google_oauth_client_secret_here"
)

// DefaultScopes are requested when Config.Scopes is empty.
var DefaultScopes = []string{"openid", "email", "profile"}

// Config describes the provider and the timing of a completion. Endpoint URLs
// default to Google's; tests point them at an httptest server.
type Config struct {
	ClientID     string
	ClientSecret string

	// BaseURL is the externally reachable origin of this service. The
	// redirect URL handed to the provider is BaseURL + CallbackPath.
	BaseURL      string
	CallbackPath string

	AuthURL     string
	TokenURL    string
	UserInfoURL string
	Scopes      []string

	StateTTL        time.Duration
	ExchangeTimeout time.Duration
	ProfileAttempts int
	RetryInterval   time.Duration
}

// Status reports provider configuration without touching the network.
type Status struct {
	Configured      bool `json:"configured"`
	ClientIDSet     bool `json:"client_id_set"`
	ClientSecretSet bool `json:"client_secret_set"`
}

func (c Config) status() Status {
	idSet := credentialSet(c.ClientID, placeholderClientID)
	secretSet := credentialSet(c.ClientSecret, placeholderClientSecret)
	return Status{
		Configured:      idSet && secretSet,
		ClientIDSet:     idSet,
		ClientSecretSet: secretSet,
	}
}

func credentialSet(value, placeholder string) bool {
	v := strings.TrimSpace(value)
	return v != "" && v != placeholder
}

// RedirectURL is the callback URL registered with the provider.
func (c Config) RedirectURL() string {
	return strings.TrimRight(c.BaseURL, "/") + c.CallbackPath
}

func (c Config) withDefaults() Config {
	if c.CallbackPath == "" {
		c.CallbackPath = DefaultCallbackPath
	}
	if c.AuthURL == "" {
		c.AuthURL = endpoints.Google.AuthURL
	}
	if c.TokenURL == "" {
		c.TokenURL = endpoints.Google.TokenURL
	}
	if c.UserInfoURL == "" {
		c.UserInfoURL = DefaultUserInfoURL
	}
	if len(c.Scopes) == 0 {
		c.Scopes = append([]string(nil), DefaultScopes...)
	}
	if c.StateTTL <= 0 {
		c.StateTTL = DefaultStateTTL
	}
	if c.ExchangeTimeout <= 0 {
		c.ExchangeTimeout = DefaultExchangeTimeout
	}
	if c.ProfileAttempts <= 0 {
		c.ProfileAttempts = DefaultProfileAttempts
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = DefaultRetryInterval
	}
	return c
}

func (c Config) validate() error {
	if !absoluteURL(c.RedirectURL()) {
		return errors.New("federation: BaseURL must be an absolute URL")
	}
	for _, u := range []string{c.AuthURL, c.TokenURL, c.UserInfoURL} {
		if !absoluteURL(u) {
			return errors.New("federation: invalid provider endpoint " + u)
		}
	}
	return nil
}

func absoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}
