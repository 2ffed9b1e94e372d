/*
 * Copyright 2026 Chromatix Labs.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package cfm pkg/cfm/token.go provides the OAuth token exchange with the
// CFM identity provider.
package cfm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/chromatix/printscope/pkg/logger"
	"github.com/chromatix/printscope/pkg/models"
)

// Tokens are refreshed this long before their declared expiry.
const expirySkew = 60 * time.Second

// Lifetime assumed when the token response carries no expiry hint.
const defaultTokenLifetime = 3500 * time.Second

// AccessToken is a bearer credential with its expiry.
type AccessToken struct {
	Value     string
	ExpiresAt time.Time
}

// Expired reports whether the token is unusable, including the refresh skew.
func (t AccessToken) Expired(now time.Time) bool {
	return t.Value == "" || !now.Before(t.ExpiresAt.Add(-expirySkew))
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// OAuthTokenSource performs the client-credentials exchange against the
// region's identity provider. It does no caching; wrap it in a
// CachedTokenSource for that.
type OAuthTokenSource struct {
	Config     *Config
	Credential models.Credential
	HTTPClient HTTPClient
	Logger     logger.Logger
}

// NewOAuthTokenSource creates a token source for one credential.
func NewOAuthTokenSource(cfg *Config, cred models.Credential, client HTTPClient, log logger.Logger) *OAuthTokenSource {
	if client == nil {
		client = &http.Client{Timeout: cfg.tokenTimeout()}
	}

	return &OAuthTokenSource{Config: cfg, Credential: cred, HTTPClient: client, Logger: log}
}

// Token exchanges the client credential for a bearer token. Any failure is
// reported as ErrAuthFailed; the run cannot proceed without a token.
func (s *OAuthTokenSource) Token(ctx context.Context) (AccessToken, error) {
	payload := map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     s.Credential.ClientID,
		"client_secret": s.Credential.ClientSecret,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return AccessToken{}, fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.Config.tokenTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Config.tokenURL(), bytes.NewReader(body))
	if err != nil {
		return AccessToken{}, fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return AccessToken{}, fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(resp.Body)

		return AccessToken{}, fmt.Errorf("%w: %w: %d, response: %s",
			ErrAuthFailed, errUnexpectedStatusCode, resp.StatusCode, string(respBody))
	}

	var tokenResp tokenResponse

	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return AccessToken{}, fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}

	if tokenResp.AccessToken == "" {
		return AccessToken{}, fmt.Errorf("%w: %w", ErrAuthFailed, ErrMissingAccessToken)
	}

	lifetime := defaultTokenLifetime
	if tokenResp.ExpiresIn > 0 {
		lifetime = time.Duration(tokenResp.ExpiresIn) * time.Second
	}

	token := AccessToken{
		Value:     tokenResp.AccessToken,
		ExpiresAt: time.Now().Add(lifetime),
	}

	if s.Logger != nil {
		s.Logger.Debug().
			Time("expires_at", token.ExpiresAt).
			Msg("Obtained CFM access token")
	}

	return token, nil
}

// CachedTokenSource wraps a TokenSource and caches the access token until it
// comes within the refresh skew of expiry. One instance serves one run.
type CachedTokenSource struct {
	source TokenSource
	now    func() time.Time

	mu    sync.RWMutex
	token AccessToken
}

// NewCachedTokenSource creates a new cached token source.
func NewCachedTokenSource(source TokenSource) *CachedTokenSource {
	return &CachedTokenSource{source: source, now: time.Now}
}

// Token returns the cached token if valid, otherwise fetches a new one. A
// token within 60 seconds of expiry is never handed out.
func (c *CachedTokenSource) Token(ctx context.Context) (AccessToken, error) {
	c.mu.RLock()
	if !c.token.Expired(c.now()) {
		token := c.token
		c.mu.RUnlock()

		return token, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check in case another goroutine already fetched a token.
	if !c.token.Expired(c.now()) {
		return c.token, nil
	}

	token, err := c.source.Token(ctx)
	if err != nil {
		return AccessToken{}, err
	}

	c.token = token

	return token, nil
}

// Invalidate clears the cached token.
func (c *CachedTokenSource) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = AccessToken{}
}
