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

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errValidationBoom = errors.New("validation boom")

type testConfig struct {
	Name    string `json:"name"`
	Retries int    `json:"retries"`

	failValidation bool
}

func (c *testConfig) Validate() error {
	if c.failValidation || c.Name == "invalid" {
		return errValidationBoom
	}

	return nil
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadAndValidate(t *testing.T) {
	cfg := NewConfig(nil)

	path := writeTempFile(t, `{"name": "fleet", "retries": 3}`)

	var out testConfig

	require.NoError(t, cfg.LoadAndValidate(context.Background(), path, &out))
	assert.Equal(t, "fleet", out.Name)
	assert.Equal(t, 3, out.Retries)
}

func TestLoadAndValidate_Errors(t *testing.T) {
	testCases := []struct {
		name        string
		path        func(t *testing.T) string
		dst         interface{}
		expectedErr error
	}{
		{
			name:        "nil destination",
			path:        func(t *testing.T) string { t.Helper(); return "unused.json" },
			dst:         nil,
			expectedErr: errInvalidConfigPtr,
		},
		{
			name:        "missing file",
			path:        func(t *testing.T) string { t.Helper(); return filepath.Join(t.TempDir(), "absent.json") },
			dst:         &testConfig{},
			expectedErr: errLoadConfigFailed,
		},
		{
			name:        "malformed JSON",
			path:        func(t *testing.T) string { t.Helper(); return writeTempFile(t, `{"name": `) },
			dst:         &testConfig{},
			expectedErr: errLoadConfigFailed,
		},
		{
			name:        "validation failure",
			path:        func(t *testing.T) string { t.Helper(); return writeTempFile(t, `{"name": "invalid"}`) },
			dst:         &testConfig{},
			expectedErr: errValidationBoom,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewConfig(nil)

			err := cfg.LoadAndValidate(context.Background(), tc.path(t), tc.dst)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func TestCredentialFromEnv(t *testing.T) {
	t.Setenv(EnvClientID, "client-id")
	t.Setenv(EnvClientSecret, "client-secret")
	t.Setenv(EnvRegion, "eu")

	cred := CredentialFromEnv("us")
	assert.Equal(t, "client-id", cred.ClientID)
	assert.Equal(t, "client-secret", cred.ClientSecret)
	assert.Equal(t, "eu", cred.Region)
	assert.True(t, cred.Valid())
}

func TestCredentialFromEnv_DefaultRegion(t *testing.T) {
	t.Setenv(EnvClientID, "client-id")
	t.Setenv(EnvClientSecret, "client-secret")
	t.Setenv(EnvRegion, "")

	cred := CredentialFromEnv("us")
	assert.Equal(t, "us", cred.Region)
}

func TestCredentialFromEnv_Incomplete(t *testing.T) {
	t.Setenv(EnvClientID, "client-id")
	t.Setenv(EnvClientSecret, "")
	t.Setenv(EnvRegion, "")

	cred := CredentialFromEnv("us")
	assert.False(t, cred.Valid())
}
