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

// Package cfm pkg/cfm/assets.go fetches pages of asset records from the
// fleet management API.
package cfm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/chromatix/printscope/pkg/logger"
	"github.com/chromatix/printscope/pkg/models"
)

// paramVariant is one accepted pagination parameter naming. The zero value
// is the bare, unparameterized request.
type paramVariant struct {
	pageKey string
	sizeKey string
}

func (v paramVariant) bare() bool { return v.pageKey == "" }

// Parameter namings accepted across CFM API versions, in preference order.
// The first variant that succeeds is locked in for the rest of the run; the
// alternates are compatibility fallbacks, not per-request probes.
var paramVariants = []paramVariant{
	{pageKey: "page", sizeKey: "size"},
	{pageKey: "page", sizeKey: "pageSize"},
	{pageKey: "pageNumber", sizeKey: "pageSize"},
	{},
}

// AssetClient fetches pages of asset records using a bearer token from its
// TokenSource. It implements PageFetcher.
type AssetClient struct {
	Config     *Config
	Tokens     TokenSource
	HTTPClient HTTPClient
	Logger     logger.Logger

	mu      sync.Mutex
	variant int // index into paramVariants once a working form is known
}

// NewAssetClient creates an asset page client. A nil httpClient gets a
// default client with the configured fetch deadline.
func NewAssetClient(cfg *Config, tokens TokenSource, httpClient HTTPClient, log logger.Logger) *AssetClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.fetchTimeout()}
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	return &AssetClient{
		Config:     cfg,
		Tokens:     tokens,
		HTTPClient: httpClient,
		Logger:     log,
		variant:    -1,
	}
}

// FetchPage retrieves one page of asset records. On the first page every
// parameter variant is tried in order until one succeeds; later pages reuse
// the variant that worked. When all attempts fail the error wraps
// ErrPageFetchFailed and the pipeline ends the run as failed.
func (c *AssetClient) FetchPage(ctx context.Context, pageIndex, pageSize int) ([]models.AssetRecord, models.PageMeta, error) {
	noMeta := models.PageMeta{TotalPages: -1, TotalCount: -1}

	token, err := c.Tokens.Token(ctx)
	if err != nil {
		return nil, noMeta, err
	}

	c.mu.Lock()
	locked := c.variant
	c.mu.Unlock()

	candidates := make([]int, 0, len(paramVariants))
	if locked >= 0 {
		candidates = append(candidates, locked)
	} else {
		for i := range paramVariants {
			candidates = append(candidates, i)
		}
	}

	var lastErr error

	for _, idx := range candidates {
		variant := paramVariants[idx]

		body, err := c.requestPage(ctx, token.Value, variant, pageIndex, pageSize)
		if err != nil {
			lastErr = err

			c.Logger.Debug().
				Err(err).
				Int("page", pageIndex).
				Str("page_key", variant.pageKey).
				Msg("Page request attempt failed")

			continue
		}

		rawRecords, meta, err := parseEnvelope(body)
		if err != nil {
			lastErr = err
			continue
		}

		if locked < 0 {
			c.mu.Lock()
			c.variant = idx
			c.mu.Unlock()
		}

		return c.decodeRecords(rawRecords, pageIndex), meta, nil
	}

	return nil, noMeta, fmt.Errorf("%w: %w", ErrPageFetchFailed, lastErr)
}

func (c *AssetClient) requestPage(ctx context.Context, token string, variant paramVariant, pageIndex, pageSize int) ([]byte, error) {
	reqURL := c.Config.assetsURL()

	if !variant.bare() {
		params := url.Values{}
		params.Set(variant.pageKey, strconv.Itoa(pageIndex))
		params.Set(variant.sizeKey, strconv.Itoa(pageSize))
		reqURL += "?" + params.Encode()
	}

	ctx, cancel := context.WithTimeout(ctx, c.Config.fetchTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %d, response: %s", errUnexpectedStatusCode, resp.StatusCode, string(body))
	}

	return body, nil
}

// decodeRecords converts raw records, dropping any that cannot be decoded
// at all. Field-level problems inside a record degrade per rule instead.
func (c *AssetClient) decodeRecords(rawRecords []json.RawMessage, pageIndex int) []models.AssetRecord {
	records := make([]models.AssetRecord, 0, len(rawRecords))

	for i, raw := range rawRecords {
		rec, err := decodeRecord(raw)
		if err != nil {
			c.Logger.Warn().
				Err(err).
				Int("page", pageIndex).
				Int("index", i).
				Msg("Dropping undecodable asset record")

			continue
		}

		records = append(records, rec)
	}

	return records
}
