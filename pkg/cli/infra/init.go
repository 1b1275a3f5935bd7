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

// Package infra provides operations and definitions for the
// local infrastructure for StoryLab
package infra

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dahtruth/storylab/pkg/cli/author"
	"github.com/dahtruth/storylab/pkg/cli/cache"
	"github.com/dahtruth/storylab/pkg/cli/config"
	"github.com/dahtruth/storylab/pkg/cli/consts"
	"github.com/dahtruth/storylab/pkg/cli/context"
	"github.com/dahtruth/storylab/pkg/cli/log"
	"github.com/dahtruth/storylab/pkg/cli/migrate"
	"github.com/dahtruth/storylab/pkg/cli/mirror"
	"github.com/dahtruth/storylab/pkg/cli/utils"
	"github.com/dahtruth/storylab/pkg/clock"
	"github.com/dahtruth/storylab/pkg/dirs"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	// DefaultAPIEndpoint is the default mirror endpoint used when none is configured
	DefaultAPIEndpoint = "http://localhost:3001"
)

// RunEFunc is a function type of storylab commands
type RunEFunc func(*cobra.Command, []string) error

func getCachePath(paths context.Paths, customPath string) string {
	if customPath != "" {
		return customPath
	}

	return fmt.Sprintf("%s/%s/%s", paths.Data, consts.StoryLabDirName, consts.CacheDBFileName)
}

// newBaseCtx creates a minimal context with paths and the cache connection.
// This base context is used for file and cache initialization before
// being enriched with config values by setupCtx.
func newBaseCtx(versionTag, customCachePath string) (context.StoryLabCtx, error) {
	paths := context.Paths{
		Home:   dirs.Home,
		Config: dirs.ConfigHome,
		Data:   dirs.DataHome,
		Cache:  dirs.CacheHome,
	}

	if err := context.InitStoryLabDirs(paths); err != nil {
		return context.StoryLabCtx{}, errors.Wrap(err, "creating the storylab dirs")
	}

	db, err := cache.Open(getCachePath(paths, customCachePath))
	if err != nil {
		return context.StoryLabCtx{}, errors.Wrap(err, "connecting to the cache")
	}

	ctx := context.StoryLabCtx{
		Paths:   paths,
		Version: versionTag,
		Cache:   db,
	}

	return ctx, nil
}

// Init initializes the StoryLab environment and returns a new runtime context.
// apiEndpoint is used when creating a new config file (e.g., from ldflags during tests)
func Init(versionTag, apiEndpoint, cachePath string) (*context.StoryLabCtx, error) {
	ctx, err := newBaseCtx(versionTag, cachePath)
	if err != nil {
		return nil, errors.Wrap(err, "initializing a context")
	}

	if err := initConfigFile(ctx, apiEndpoint); err != nil {
		return nil, errors.Wrap(err, "generating the config file")
	}

	if err := cache.InitSchema(ctx.Cache); err != nil {
		return nil, errors.Wrap(err, "initializing the cache schema")
	}
	if err := InitSystem(ctx); err != nil {
		return nil, errors.Wrap(err, "initializing system data")
	}

	ctx, err = setupCtx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "setting up the context")
	}

	if err := author.MigrateLegacyProfile(ctx); err != nil {
		return nil, errors.Wrap(err, "migrating the legacy profile")
	}

	// the profile migration may have just established the author id
	ctx.AuthorID, err = readAuthorID(ctx.Cache)
	if err != nil {
		return nil, errors.Wrap(err, "reading the author id")
	}

	if err := migrate.Run(ctx); err != nil {
		return nil, errors.Wrap(err, "running the legacy project migration")
	}

	log.Debug("context: %+v\n", context.Redact(ctx))

	return &ctx, nil
}

func readAuthorID(db *cache.DB) (string, error) {
	id, _, err := cache.Get(db, consts.CacheKeyAuthorID)
	if err != nil {
		return "", errors.Wrap(err, "reading the author id key")
	}

	return id, nil
}

// setupCtx enriches the base context with values from the config file and the
// cache. This is called after files and the cache have been initialized.
func setupCtx(ctx context.StoryLabCtx) (context.StoryLabCtx, error) {
	var apiToken string
	err := cache.GetSystem(ctx.Cache, consts.SystemAPIToken, &apiToken)
	if err != nil && !cache.IsNoRows(err) {
		return ctx, errors.Wrap(err, "finding the api token")
	}

	authorID, err := readAuthorID(ctx.Cache)
	if err != nil {
		return ctx, err
	}

	cf, err := config.Read(ctx)
	if err != nil {
		return ctx, errors.Wrap(err, "reading config")
	}

	ret := context.StoryLabCtx{
		Paths:              ctx.Paths,
		Version:            ctx.Version,
		Cache:              ctx.Cache,
		APIEndpoint:        cf.APIEndpoint,
		APIToken:           apiToken,
		AuthorID:           authorID,
		Clock:              clock.New(),
		AutosaveInterval:   time.Duration(cf.AutosaveIntervalSeconds) * time.Second,
		EnableUpgradeCheck: cf.EnableUpgradeCheck,
		HTTPClient:         mirror.NewRateLimitedHTTPClient(),
	}

	return ret, nil
}

func initSystemKV(db *cache.DB, key string, val string) error {
	var count int
	if err := db.QueryRow("SELECT count(*) FROM system WHERE key = ?", key).Scan(&count); err != nil {
		return errors.Wrapf(err, "counting %s", key)
	}

	if count > 0 {
		return nil
	}

	if _, err := db.Exec("INSERT INTO system (key, value) VALUES (?, ?)", key, val); err != nil {
		return errors.Wrapf(err, "inserting %s %s", key, val)
	}

	return nil
}

// InitSystem inserts system data if missing
func InitSystem(ctx context.StoryLabCtx) error {
	log.Debug("initializing the system\n")

	tx, err := ctx.Cache.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	nowStr := strconv.FormatInt(time.Now().Unix(), 10)
	if err := initSystemKV(tx, consts.SystemSchema, "1"); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "initializing system config for %s", consts.SystemSchema)
	}
	if err := initSystemKV(tx, consts.SystemLastUpgrade, nowStr); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "initializing system config for %s", consts.SystemLastUpgrade)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}

	return nil
}

// initConfigFile populates a new config file if it does not exist yet
func initConfigFile(ctx context.StoryLabCtx, apiEndpoint string) error {
	path := config.GetPath(ctx)
	ok, err := utils.FileExists(path)
	if err != nil {
		return errors.Wrap(err, "checking if config exists")
	}
	if ok {
		return nil
	}

	endpoint := apiEndpoint
	if endpoint == "" {
		endpoint = DefaultAPIEndpoint
	}

	cf := config.Config{
		APIEndpoint:             endpoint,
		AutosaveIntervalSeconds: config.DefaultAutosaveIntervalSeconds,
		EnableUpgradeCheck:      true,
	}

	if err := config.Write(ctx, cf); err != nil {
		return errors.Wrap(err, "writing config")
	}

	return nil
}
