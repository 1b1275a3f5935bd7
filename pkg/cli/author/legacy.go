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

package author

import (
	"github.com/dahtruth/storylab/pkg/cli/cache"
	"github.com/dahtruth/storylab/pkg/cli/consts"
	"github.com/dahtruth/storylab/pkg/cli/context"
	"github.com/dahtruth/storylab/pkg/clock"
	"github.com/pkg/errors"
)

// legacyProfile is the old-shape profile stored before profiles carried a
// stable id or preferences
type legacyProfile struct {
	Name    string   `json:"name"`
	PenName string   `json:"penName,omitempty"`
	Email   string   `json:"email,omitempty"`
	Bio     string   `json:"bio,omitempty"`
	Genres  []string `json:"genres,omitempty"`
	Theme   string   `json:"theme,omitempty"`
}

// MigrateLegacyProfile converts an old-shape profile into the current shape.
// It runs at most once: a current-shape profile short-circuits it, and the
// legacy data is left in place as an implicit backup.
func MigrateLegacyProfile(ctx context.StoryLabCtx) error {
	_, ok, err := Get(ctx)
	if err != nil {
		return errors.Wrap(err, "checking for a current profile")
	}
	if ok {
		return nil
	}

	var legacy legacyProfile
	ok, err = cache.GetJSON(ctx.Cache, consts.LegacyKeyProfile, &legacy)
	if err != nil {
		return errors.Wrap(err, "reading the legacy profile")
	}
	if !ok {
		return nil
	}

	name := legacy.Name
	if name == "" {
		name = legacy.PenName
	}

	p := CreateProfile(ctx.Clock, name, legacy.Email)
	p.Bio = legacy.Bio
	if legacy.Genres != nil {
		p.Genres = legacy.Genres
	}
	if legacy.Theme != "" {
		p.Preferences.Theme = legacy.Theme
	}
	p.UpdatedAt = clock.NowTimestamp(ctx.Clock)

	if err := saveLocal(ctx, p); err != nil {
		return errors.Wrap(err, "persisting the migrated profile")
	}

	return nil
}
