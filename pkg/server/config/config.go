/* Copyright 2025 StoryLab Authors
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
	"os"
	"path/filepath"

	"github.com/dahtruth/storylab/pkg/dirs"
	"github.com/pkg/errors"
)

const (
	// AppEnvProduction represents an app environment for production.
	AppEnvProduction string = "PRODUCTION"
	// DefaultDataDirName is the default directory name for mirror data
	DefaultDataDirName = "storylab-server"
)

// DefaultDataDir is the default path to the object storage directory
var DefaultDataDir = filepath.Join(dirs.DataHome, DefaultDataDirName)

var (
	// ErrDataDirMissing is an error for an incomplete configuration missing the data directory
	ErrDataDirMissing = errors.New("data directory is empty")
	// ErrPortInvalid is an error for an incomplete configuration with invalid port
	ErrPortInvalid = errors.New("invalid port")
)

// getOrEnv returns value if non-empty, otherwise env var, otherwise default
func getOrEnv(value, envKey, defaultVal string) string {
	if value != "" {
		return value
	}
	if env := os.Getenv(envKey); env != "" {
		return env
	}
	return defaultVal
}

// Config is the mirror server configuration
type Config struct {
	AppEnv            string
	Port              string
	DataDir           string
	DatabaseURL       string
	APIToken          string
	LogLevel          string
	ReconcileSchedule string
}

// Params are the configuration parameters for creating a new Config
type Params struct {
	AppEnv            string
	Port              string
	DataDir           string
	DatabaseURL       string
	APIToken          string
	LogLevel          string
	ReconcileSchedule string
}

// New constructs and returns a new validated config.
// Empty string params fall back to environment variables and defaults.
func New(p Params) (Config, error) {
	c := Config{
		AppEnv:            getOrEnv(p.AppEnv, "APP_ENV", AppEnvProduction),
		Port:              getOrEnv(p.Port, "PORT", "3001"),
		DataDir:           getOrEnv(p.DataDir, "DATA_DIR", DefaultDataDir),
		DatabaseURL:       getOrEnv(p.DatabaseURL, "DATABASE_URL", ""),
		APIToken:          getOrEnv(p.APIToken, "API_TOKEN", ""),
		LogLevel:          getOrEnv(p.LogLevel, "LOG_LEVEL", "info"),
		ReconcileSchedule: getOrEnv(p.ReconcileSchedule, "RECONCILE_SCHEDULE", "@every 5m"),
	}

	if err := validate(c); err != nil {
		return Config{}, err
	}

	return c, nil
}

// IsProd checks if the app environment is configured to be production.
func (c Config) IsProd() bool {
	return c.AppEnv == AppEnvProduction
}

// UsePostgres reports whether the postgres backend is configured
func (c Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

func validate(c Config) error {
	if c.Port == "" {
		return ErrPortInvalid
	}
	if c.DataDir == "" && c.DatabaseURL == "" {
		return ErrDataDirMissing
	}

	return nil
}
