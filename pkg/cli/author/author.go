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

// Package author implements the author identity service: stable id
// derivation, profile persistence, and login-by-email against the remote
// mirror. Mirror writes here are best-effort; local success never depends on
// the network.
package author

import (
	"github.com/dahtruth/storylab/pkg/cli/cache"
	"github.com/dahtruth/storylab/pkg/cli/consts"
	"github.com/dahtruth/storylab/pkg/cli/context"
	"github.com/dahtruth/storylab/pkg/cli/mirror"
	"github.com/dahtruth/storylab/pkg/clock"
	"github.com/pkg/errors"
)

// ErrNotFound is an error for an author profile that does not exist
var ErrNotFound = errors.New("author profile not found")

// Get reads the locally cached profile, if any
func Get(ctx context.StoryLabCtx) (Profile, bool, error) {
	var p Profile
	ok, err := cache.GetJSON(ctx.Cache, consts.CacheKeyAuthorProfile, &p)
	if err != nil {
		return Profile{}, false, errors.Wrap(err, "reading the cached profile")
	}

	return p, ok, nil
}

// saveLocal persists the profile and the author id pointer to the cache
func saveLocal(ctx context.StoryLabCtx, p Profile) error {
	if err := cache.PutJSON(ctx.Cache, consts.CacheKeyAuthorProfile, p); err != nil {
		return errors.Wrap(err, "caching the profile")
	}
	if err := cache.Put(ctx.Cache, consts.CacheKeyAuthorID, p.ID); err != nil {
		return errors.Wrap(err, "caching the author id")
	}

	return nil
}

// Setup initializes the author identity. With an email, it first looks for an
// existing mirrored profile for that email and adopts it wholesale instead of
// creating a duplicate. Otherwise it creates a fresh profile, persists it
// locally, and mirrors it best-effort.
func Setup(ctx context.StoryLabCtx, name, email string, prefs *PreferencesPatch) (Profile, error) {
	if email != "" {
		id := DeriveID(email)

		var remote Profile
		ok, err := mirror.GetJSON(ctx, mirror.ProfileKey(id), &remote)
		if err == nil && ok {
			if err := saveLocal(ctx, remote); err != nil {
				return Profile{}, errors.Wrap(err, "adopting the mirrored profile")
			}

			return remote, nil
		}
		// a mirror failure here must not block local setup
	}

	p := CreateProfile(ctx.Clock, name, email)
	if prefs != nil {
		prefs.apply(&p.Preferences)
	}

	if err := saveLocal(ctx, p); err != nil {
		return Profile{}, errors.Wrap(err, "persisting the profile")
	}

	mirror.BestEffort("uploading the profile", func() error {
		return mirror.PutJSON(ctx, mirror.ProfileKey(p.ID), p)
	})

	return p, nil
}

// Update shallow-merges the patch into the current profile, deep-merges
// preferences, refreshes updatedAt, and persists locally and best-effort
// remotely.
func Update(ctx context.StoryLabCtx, patch Patch) (Profile, error) {
	p, ok, err := Get(ctx)
	if err != nil {
		return Profile{}, errors.Wrap(err, "reading the profile")
	}
	if !ok {
		return Profile{}, ErrNotFound
	}

	patch.apply(&p)
	p.UpdatedAt = clock.NowTimestamp(ctx.Clock)

	if err := saveLocal(ctx, p); err != nil {
		return Profile{}, errors.Wrap(err, "persisting the profile")
	}

	mirror.BestEffort("uploading the profile", func() error {
		return mirror.PutJSON(ctx, mirror.ProfileKey(p.ID), p)
	})

	return p, nil
}

// LoginWithEmail derives the id for the given email, fetches the mirrored
// profile, and adopts it locally. Authors created without an email cannot be
// found this way.
func LoginWithEmail(ctx context.StoryLabCtx, email string) (Profile, error) {
	id := DeriveID(email)

	var remote Profile
	ok, err := mirror.GetJSON(ctx, mirror.ProfileKey(id), &remote)
	if err != nil {
		return Profile{}, errors.Wrap(err, "fetching the mirrored profile")
	}
	if !ok {
		return Profile{}, ErrNotFound
	}

	if err := saveLocal(ctx, remote); err != nil {
		return Profile{}, errors.Wrap(err, "adopting the mirrored profile")
	}

	return remote, nil
}

// Logout clears local references to the author. The mirrored copy stays.
func Logout(ctx context.StoryLabCtx) error {
	for _, key := range []string{
		consts.CacheKeyAuthorProfile,
		consts.CacheKeyAuthorID,
		consts.CacheKeyCurrentProject,
		consts.CacheKeyCurrentProjectID,
	} {
		if err := cache.Delete(ctx.Cache, key); err != nil {
			return errors.Wrapf(err, "clearing %s", key)
		}
	}

	return nil
}

// SyncToCloud uploads the local profile to the mirror. Unlike the background
// mirroring in Setup and Update, failure here surfaces to the caller.
func SyncToCloud(ctx context.StoryLabCtx) error {
	p, ok, err := Get(ctx)
	if err != nil {
		return errors.Wrap(err, "reading the profile")
	}
	if !ok {
		return ErrNotFound
	}

	return mirror.Required("uploading the profile", func() error {
		return mirror.PutJSON(ctx, mirror.ProfileKey(p.ID), p)
	})
}
