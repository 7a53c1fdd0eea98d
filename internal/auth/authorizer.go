package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"

	"github.com/vijay-prabhu/mailphone/internal/config"
)

// Scopes defines the OAuth scopes required
var Scopes = []string{
	gmail.GmailReadonlyScope,
}

// OAuthConfig builds the OAuth client config. Explicit client id/secret
// win over a credentials.json file.
func OAuthConfig(cfg config.AuthConfig, redirectURL string) (*oauth2.Config, error) {
	var oc *oauth2.Config

	if cfg.ClientID == "" && cfg.CredentialsPath != "" {
		data, err := os.ReadFile(cfg.CredentialsPath)
		if err != nil {
			return nil, &Error{Op: "credentials", Err: fmt.Errorf("failed to read credentials file: %w", err)}
		}
		oc, err = google.ConfigFromJSON(data, Scopes...)
		if err != nil {
			return nil, &Error{Op: "credentials", Err: fmt.Errorf("failed to parse credentials: %w", err)}
		}
	} else {
		oc = &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       Scopes,
		}
	}

	if oc.ClientID == "" || oc.ClientSecret == "" {
		return nil, &Error{Op: "credentials", Err: ErrMissingCredentials}
	}

	oc.RedirectURL = redirectURL
	return oc, nil
}

// NewAcquirer returns the code acquisition strategy selected by cfg
func NewAcquirer(cfg *config.Config, in io.Reader, out io.Writer, log zerolog.Logger) (CodeAcquirer, error) {
	switch cfg.Auth.Method {
	case config.MethodManual:
		return &ManualAcquirer{In: in, Out: out}, nil
	case config.MethodCallback:
		a := &CallbackAcquirer{
			Addr:    fmt.Sprintf("localhost:%d", cfg.Auth.CallbackPort),
			Path:    cfg.Auth.CallbackPath,
			Timeout: cfg.Auth.CallbackTimeout(),
			Out:     out,
			Log:     log,
		}
		if cfg.Auth.OpenBrowser {
			a.OpenBrowser = OpenBrowser
		}
		return a, nil
	default:
		return nil, &Error{Op: "config", Err: fmt.Errorf("unknown auth method %q", cfg.Auth.Method)}
	}
}

// RedirectURL returns the redirect target for the configured method
func RedirectURL(cfg *config.Config) string {
	if cfg.Auth.Method == config.MethodManual && cfg.Auth.RedirectURI != "" {
		return cfg.Auth.RedirectURI
	}
	return cfg.CallbackRedirectURL()
}

// Authorizer drives the authorization-code flow and caches the token
type Authorizer struct {
	Config   *oauth2.Config
	Store    TokenStore
	Acquirer CodeAcquirer
	Log      zerolog.Logger
}

// FromConfig wires an Authorizer from application config
func FromConfig(cfg *config.Config, store TokenStore, in io.Reader, out io.Writer, log zerolog.Logger) (*Authorizer, error) {
	oc, err := OAuthConfig(cfg.Auth, RedirectURL(cfg))
	if err != nil {
		return nil, err
	}

	acq, err := NewAcquirer(cfg, in, out, log)
	if err != nil {
		return nil, err
	}

	return &Authorizer{Config: oc, Store: store, Acquirer: acq, Log: log}, nil
}

// Authenticate returns an HTTP client carrying the cached token, running
// one authorization cycle first when no token is cached. The cached token
// is used as-is; the oauth2 transport refreshes it when it expires.
func (a *Authorizer) Authenticate(ctx context.Context) (*http.Client, error) {
	token, err := a.Store.Load()
	if err != nil {
		return nil, wrap("load token", err)
	}

	if token == nil {
		a.Log.Info().Msg("no cached token, starting authorization")
		token, err = a.Authorize(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		a.Log.Debug().Time("expiry", token.Expiry).Msg("using cached token")
	}

	ts := &persistingTokenSource{
		base:  a.Config.TokenSource(ctx, token),
		store: a.Store,
		last:  token.AccessToken,
		log:   a.Log,
	}
	return oauth2.NewClient(ctx, ts), nil
}

// Authorize runs a single authorization-code cycle and saves the token,
// overwriting any cached one.
func (a *Authorizer) Authorize(ctx context.Context) (*oauth2.Token, error) {
	state, err := randomState()
	if err != nil {
		return nil, wrap("state", err)
	}

	authURL := a.Config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	code, err := a.Acquirer.ObtainCode(ctx, authURL)
	if err != nil {
		return nil, wrap("obtain code", err)
	}

	token, err := a.Config.Exchange(ctx, code)
	if err != nil {
		return nil, &Error{Op: "exchange", Err: fmt.Errorf("failed to exchange code: %w", err)}
	}

	if err := a.Store.Save(token); err != nil {
		return nil, &Error{Op: "save token", Err: fmt.Errorf("failed to save token: %w", err)}
	}

	a.Log.Info().Msg("authorization complete, token cached")
	return token, nil
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// persistingTokenSource writes refreshed tokens back to the store
type persistingTokenSource struct {
	base  oauth2.TokenSource
	store TokenStore
	log   zerolog.Logger

	mu   sync.Mutex
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token.AccessToken != s.last {
		s.last = token.AccessToken
		if err := s.store.Save(token); err != nil {
			s.log.Warn().Err(err).Msg("failed to save refreshed token")
		}
	}
	return token, nil
}
