package federation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/oauth2"

	"github.com/MrEthical07/goAccount/intent"
	"github.com/MrEthical07/goAccount/internal"
	"github.com/MrEthical07/goAccount/jwt"
)

const maxProfileBytes = 1 << 20

// CallbackParams are the query values the provider appends to the callback.
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// Profile is the provider identity handed to account resolution.
type Profile struct {
	Email string
	Name  string
}

type userInfo struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	VerifiedEmail *bool  `json:"verified_email"`
}

// Client drives federated logins against one provider. It is safe for
// concurrent use.
type Client struct {
	cfg        Config
	oauth      *oauth2.Config
	intents    intent.Store
	states     *jwt.Manager
	httpClient *http.Client
}

// NewClient builds a Client. Missing credentials are not an error here:
// Status reports them and BeginLogin refuses to start.
func NewClient(cfg Config, intents intent.Store, states *jwt.Manager, httpClient *http.Client) (*Client, error) {
	if intents == nil {
		return nil, errors.New("federation: nil intent store")
	}
	if states == nil {
		return nil, errors.New("federation: nil state signer")
	}

	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.ExchangeTimeout}
	}

	return &Client{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     strings.TrimSpace(cfg.ClientID),
			ClientSecret: strings.TrimSpace(cfg.ClientSecret),
			RedirectURL:  cfg.RedirectURL(),
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		intents:    intents,
		states:     states,
		httpClient: httpClient,
	}, nil
}

// Status never performs network I/O.
func (c *Client) Status() Status {
	return c.cfg.status()
}

// RedirectURL returns the callback URL the provider redirects back to.
func (c *Client) RedirectURL() string {
	return c.cfg.RedirectURL()
}

// BeginLogin records whether sessionID may create an account and returns the
// provider authorization URL. The intent is written before the URL is built,
// so a caller that receives a URL always has an intent on record.
func (c *Client) BeginLogin(ctx context.Context, sessionID string, permitSignup bool) (string, error) {
	if !c.Status().Configured {
		return "", ErrNotConfigured
	}
	if sessionID == "" {
		return "", ErrEmptySession
	}

	if err := c.intents.SetIntent(ctx, sessionID, permitSignup); err != nil {
		return "", err
	}

	nonce, err := internal.NewNonce()
	if err != nil {
		return "", err
	}
	state, err := c.states.Sign(sessionID, jwt.AudienceState, nonce, c.cfg.StateTTL)
	if err != nil {
		return "", err
	}

	return c.oauth.AuthCodeURL(state), nil
}

// CompleteLogin validates the callback for sessionID, exchanges the code and
// fetches the profile. The whole call is bounded by Config.ExchangeTimeout.
func (c *Client) CompleteLogin(ctx context.Context, sessionID string, params CallbackParams) (Profile, error) {
	if !c.Status().Configured {
		return Profile{}, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.ExchangeTimeout)
	defer cancel()

	if params.Error != "" {
		return Profile{}, exchangeErr(StageProviderError, fmt.Errorf("%w: %s", ErrProviderDenied, params.Error))
	}
	if params.Code == "" {
		return Profile{}, exchangeErr(StageRedirected, ErrMissingCode)
	}
	claims, err := c.states.Parse(params.State, jwt.AudienceState)
	if err != nil {
		return Profile{}, exchangeErr(StageRedirected, fmt.Errorf("%w: %v", ErrInvalidState, err))
	}
	if sessionID == "" || claims.SID != sessionID {
		return Profile{}, exchangeErr(StageRedirected, ErrStateMismatch)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := c.oauth.Exchange(ctx, params.Code)
	if err != nil {
		return Profile{}, exchangeErr(StageCallbackReceived, err)
	}

	profile, err := c.fetchProfile(ctx, token.AccessToken)
	if err != nil {
		return Profile{}, exchangeErr(StageTokenExchanged, err)
	}
	return profile, nil
}

func (c *Client) fetchProfile(ctx context.Context, accessToken string) (Profile, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.RetryInterval

	info, err := backoff.Retry(ctx, func() (userInfo, error) {
		return c.fetchUserInfo(ctx, accessToken)
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(c.cfg.ProfileAttempts)),
	)
	if err != nil {
		return Profile{}, err
	}

	email := strings.TrimSpace(info.Email)
	if email == "" {
		return Profile{}, ErrMissingEmail
	}
	if info.VerifiedEmail != nil && !*info.VerifiedEmail {
		return Profile{}, ErrUnverifiedEmail
	}
	return Profile{Email: email, Name: strings.TrimSpace(info.Name)}, nil
}

// fetchUserInfo performs one profile request. Network errors, 5xx and 429 are
// returned as retryable; everything else is permanent.
func (c *Client) fetchUserInfo(ctx context.Context, accessToken string) (userInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.UserInfoURL, nil)
	if err != nil {
		return userInfo{}, backoff.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return userInfo{}, backoff.Permanent(ctx.Err())
		}
		return userInfo{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBytes))
	if err != nil {
		return userInfo{}, err
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return userInfo{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return userInfo{}, backoff.Permanent(fmt.Errorf("userinfo status %d", resp.StatusCode))
	}

	var info userInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return userInfo{}, backoff.Permanent(fmt.Errorf("%w: %v", ErrMalformedProfile, err))
	}
	return info, nil
}

// Timeout returns the effective completion bound.
func (c *Client) Timeout() time.Duration {
	return c.cfg.ExchangeTimeout
}
