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

// Package cfm pkg/cfm/errors.go
package cfm

import "errors"

var (
	errUnexpectedStatusCode = errors.New("unexpected status code")
	errUnexpectedEnvelope   = errors.New("unexpected envelope shape")
	// ErrAuthFailed is returned when the token exchange fails. Fatal to the run.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrMissingAccessToken is returned when the token response carries no access_token.
	ErrMissingAccessToken = errors.New("token response missing access_token")
	// ErrPageFetchFailed is returned when every request parameter variant and
	// the bare request all failed for a page. Fatal to the run.
	ErrPageFetchFailed = errors.New("page fetch failed")
)
