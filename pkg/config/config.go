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

// Package config loads and validates JSON configuration files.
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/chromatix/printscope/pkg/logger"
	"github.com/chromatix/printscope/pkg/models"
)

var (
	errLoadConfigFailed = errors.New("failed to load configuration")
	errInvalidConfigPtr = errors.New("config must be a non-nil pointer")
)

// Validator is implemented by config structs that can check themselves.
type Validator interface {
	Validate() error
}

// ConfigLoader loads configuration data from a source into dst.
type ConfigLoader interface {
	Load(ctx context.Context, path string, dst interface{}) error
}

// Config holds the configuration loading dependencies.
type Config struct {
	loader ConfigLoader
	logger logger.Logger
}

// NewConfig initializes a new Config instance with a file loader. A nil
// logger falls back to a no-op logger.
func NewConfig(log logger.Logger) *Config {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Config{
		loader: &FileConfigLoader{},
		logger: log,
	}
}

// LoadAndValidate loads a configuration file into cfg and validates it when
// cfg implements Validator.
func (c *Config) LoadAndValidate(ctx context.Context, path string, cfg interface{}) error {
	if cfg == nil {
		return errInvalidConfigPtr
	}

	if err := c.loader.Load(ctx, path, cfg); err != nil {
		return fmt.Errorf("%w: %w", errLoadConfigFailed, err)
	}

	if v, ok := cfg.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %w", errLoadConfigFailed, err)
		}
	}

	c.logger.Debug().Str("path", path).Msg("Loaded configuration")

	return nil
}

// FileConfigLoader loads configuration from a local JSON file.
type FileConfigLoader struct{}

// Load implements ConfigLoader by reading and unmarshaling a JSON file.
func (*FileConfigLoader) Load(_ context.Context, path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file '%s': %w", path, err)
	}

	err = json.Unmarshal(data, dst)
	if err != nil {
		return fmt.Errorf("failed to unmarshal JSON from '%s': %w", path, err)
	}

	return nil
}

// Environment variable names for the CFM credential. Credentials are never
// read from the config file on disk.
const (
	EnvClientID     = "CFM_CLIENT_ID"
	EnvClientSecret = "CFM_CLIENT_SECRET"
	EnvRegion       = "CFM_REGION"
)

// CredentialFromEnv assembles a credential from the environment. The region
// falls back to the supplied default when CFM_REGION is unset.
func CredentialFromEnv(defaultRegion string) models.Credential {
	region := os.Getenv(EnvRegion)
	if region == "" {
		region = defaultRegion
	}

	return models.Credential{
		ClientID:     os.Getenv(EnvClientID),
		ClientSecret: os.Getenv(EnvClientSecret),
		Region:       region,
	}
}
