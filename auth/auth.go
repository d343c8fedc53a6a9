// Package auth obtains OAuth2 client-credentials tokens for outbound calls to
// third-party providers.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Conf holds the client-credentials grant settings for one provider.
type Conf struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	TokenURL     string `json:"token_url"`
}

func (c Conf) toOauth2Config() clientcredentials.Config {
	return clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.TokenURL,
	}
}

// ClientCred fetches and caches a client-credentials token. The cached token
// is reused until it expires. Safe for concurrent use.
type ClientCred struct {
	conf clientcredentials.Config

	mu    sync.Mutex
	token *oauth2.Token
}

// NewClientCred creates a token source for the given provider settings.
func NewClientCred(conf Conf) *ClientCred {
	return &ClientCred{conf: conf.toOauth2Config()}
}

// Token returns a valid access token, requesting a new one when the cached
// token is missing or expired.
func (c *ClientCred) Token(ctx context.Context) (string, error) {
	tok, err := c.current(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// SetAuthHeader sets the Authorization header of r to the current token.
func (c *ClientCred) SetAuthHeader(r *http.Request) error {
	tok, err := c.current(r.Context())
	if err != nil {
		return err
	}
	tok.SetAuthHeader(r)
	return nil
}

// ForceRefresh discards the cached token and requests a fresh one.
func (c *ClientCred) ForceRefresh(ctx context.Context) (string, error) {
	c.mu.Lock()
	c.token = nil
	c.mu.Unlock()
	return c.Token(ctx)
}

func (c *ClientCred) current(ctx context.Context) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token.Valid() {
		return c.token, nil
	}
	tok, err := c.conf.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch token: %w", err)
	}
	c.token = tok
	return tok, nil
}
