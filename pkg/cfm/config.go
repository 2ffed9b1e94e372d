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

// Package cfm pkg/cfm/config.go provides the configuration for the CFM client.
package cfm

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	defaultRegion       = "us"
	defaultTokenTimeout = 10 * time.Second
	defaultFetchTimeout = 15 * time.Second
)

var errUnknownRegion = errors.New("unknown region")

// Regions accepted by the hosted CFM endpoints.
var knownRegions = map[string]bool{"us": true, "eu": true}

// Config holds the CFM endpoint configuration. TokenURL and APIBaseURL
// override the region-derived defaults; tests and on-prem gateways use them.
type Config struct {
	Region              string `json:"region"`
	TokenURL            string `json:"token_url,omitempty"`
	APIBaseURL          string `json:"api_base_url,omitempty"`
	TokenTimeoutSeconds int    `json:"token_timeout_seconds,omitempty"`
	FetchTimeoutSeconds int    `json:"fetch_timeout_seconds,omitempty"`
}

// Validate normalizes the region and rejects unknown ones when no explicit
// URL overrides are set.
func (c *Config) Validate() error {
	c.Region = strings.ToLower(strings.TrimSpace(c.Region))
	if c.Region == "" {
		c.Region = defaultRegion
	}

	if c.TokenURL == "" || c.APIBaseURL == "" {
		if !knownRegions[c.Region] {
			return fmt.Errorf("%w: %q", errUnknownRegion, c.Region)
		}
	}

	return nil
}

func (c *Config) tokenURL() string {
	if c.TokenURL != "" {
		return c.TokenURL
	}

	return fmt.Sprintf("https://idp.%s.iss.lexmark.com/oauth/token", c.Region)
}

func (c *Config) assetsURL() string {
	base := c.APIBaseURL
	if base == "" {
		base = fmt.Sprintf("https://apis.%s.iss.lexmark.com/cfm/fleetmgmt-integration-service", c.Region)
	}

	return strings.TrimRight(base, "/") + "/v1.0/assets"
}

func (c *Config) tokenTimeout() time.Duration {
	if c.TokenTimeoutSeconds > 0 {
		return time.Duration(c.TokenTimeoutSeconds) * time.Second
	}

	return defaultTokenTimeout
}

func (c *Config) fetchTimeout() time.Duration {
	if c.FetchTimeoutSeconds > 0 {
		return time.Duration(c.FetchTimeoutSeconds) * time.Second
	}

	return defaultFetchTimeout
}
