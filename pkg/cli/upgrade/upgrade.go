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

// Package upgrade provides a way to check for the latest released version
package upgrade

import (
	gocontext "context"
	"strconv"
	"strings"

	"github.com/dahtruth/storylab/pkg/cli/cache"
	"github.com/dahtruth/storylab/pkg/cli/consts"
	"github.com/dahtruth/storylab/pkg/cli/context"
	"github.com/dahtruth/storylab/pkg/cli/log"
	"github.com/google/go-github/github"
	"github.com/pkg/errors"
)

// upgradeInterval is the minimum number of seconds between two checks
var upgradeInterval int64 = 86400 * 7

const releaseTagPrefix = "cli-v"

func shouldCheck(ctx context.StoryLabCtx) (bool, error) {
	var lastUpgrade string
	err := cache.GetSystem(ctx.Cache, consts.SystemLastUpgrade, &lastUpgrade)
	if err != nil {
		if cache.IsNoRows(err) {
			return true, nil
		}

		return false, errors.Wrap(err, "getting the last upgrade timestamp")
	}

	lastUpgradeAt, err := strconv.ParseInt(lastUpgrade, 10, 64)
	if err != nil {
		return false, errors.Wrap(err, "parsing the last upgrade timestamp")
	}

	now := ctx.Clock.Now().Unix()

	return now-lastUpgradeAt > upgradeInterval, nil
}

func touchLastUpgrade(ctx context.StoryLabCtx) error {
	now := strconv.FormatInt(ctx.Clock.Now().Unix(), 10)
	if err := cache.UpsertSystem(ctx.Cache, consts.SystemLastUpgrade, now); err != nil {
		return errors.Wrap(err, "updating the last upgrade timestamp")
	}

	return nil
}

func fetchLatestVersion() (string, error) {
	gh := github.NewClient(nil)

	release, _, err := gh.Repositories.GetLatestRelease(gocontext.Background(), "dahtruth", "storylab")
	if err != nil {
		return "", errors.Wrap(err, "fetching the latest release")
	}
	if release.TagName == nil {
		return "", errors.New("release has no tag name")
	}

	return strings.TrimPrefix(*release.TagName, releaseTagPrefix), nil
}

func checkVersion(ctx context.StoryLabCtx) error {
	log.Infof("current version is %s\n", ctx.Version)

	latest, err := fetchLatestVersion()
	if err != nil {
		return errors.Wrap(err, "fetching the latest version")
	}

	log.Infof("latest version is %s\n", latest)

	if latest == ctx.Version {
		log.Success("you are up-to-date\n\n")
	} else {
		log.Infof("to upgrade, see https://github.com/dahtruth/storylab/blob/master/README.md\n")
	}

	return nil
}

// Check checks for the latest version of storylab if it has not
// recently checked for it, and reports the result.
func Check(ctx context.StoryLabCtx) error {
	if !ctx.EnableUpgradeCheck {
		return nil
	}

	ok, err := shouldCheck(ctx)
	if err != nil {
		return errors.Wrap(err, "deciding whether to check for an upgrade")
	}
	if !ok {
		return nil
	}

	if err := touchLastUpgrade(ctx); err != nil {
		return errors.Wrap(err, "touching the last upgrade timestamp")
	}
	if err := checkVersion(ctx); err != nil {
		return errors.Wrap(err, "checking the version")
	}

	return nil
}
