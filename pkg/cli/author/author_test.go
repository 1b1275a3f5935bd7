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
	"testing"
	"time"

	"github.com/dahtruth/storylab/pkg/assert"
	"github.com/dahtruth/storylab/pkg/cli/cache"
	"github.com/dahtruth/storylab/pkg/cli/consts"
	"github.com/dahtruth/storylab/pkg/cli/mirror"
	"github.com/dahtruth/storylab/pkg/cli/testutils"
	"github.com/dahtruth/storylab/pkg/clock"
	"github.com/pkg/errors"
)

func TestDeriveID(t *testing.T) {
	id1 := DeriveID("ada@example.com")
	id2 := DeriveID("  Ada@Example.COM ")
	assert.Equal(t, id1, id2, "ids for the same normalized email mismatch")

	other := DeriveID("grace@example.com")
	assert.NotEqual(t, id1, other, "ids for different emails collided")

	anon1 := DeriveID("")
	anon2 := DeriveID("")
	assert.NotEqual(t, anon1, anon2, "anonymous ids collided")
	assert.Equal(t, len(anon1), len("author_")+16, "anonymous id length mismatch")
}

func TestSetup(t *testing.T) {
	f := testutils.NewFakeMirror(t)
	ctx := testutils.NewCtx(t, f)

	p, err := Setup(ctx, "Ada", "ada@example.com", nil)
	if err != nil {
		t.Fatal(errors.Wrap(err, "setting up"))
	}

	assert.Equal(t, p.ID, DeriveID("ada@example.com"), "id mismatch")
	assert.Equal(t, p.Preferences.Theme, "light", "default theme mismatch")

	got, ok, err := Get(ctx)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading the profile back"))
	}
	assert.Equal(t, ok, true, "profile not cached")
	assert.DeepEqual(t, got, p, "cached profile mismatch")

	id, ok, err := cache.Get(ctx.Cache, consts.CacheKeyAuthorID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading the author id"))
	}
	assert.Equal(t, ok, true, "author id not cached")
	assert.Equal(t, id, p.ID, "cached author id mismatch")

	var mirrored Profile
	assert.Equal(t, f.GetJSON(t, mirror.ProfileKey(p.ID), &mirrored), true, "profile not mirrored")
	assert.DeepEqual(t, mirrored, p, "mirrored profile mismatch")
}

func TestSetupAdoptsMirroredProfile(t *testing.T) {
	f := testutils.NewFakeMirror(t)
	ctx := testutils.NewCtx(t, f)

	existing := CreateProfile(ctx.Clock, "Ada Lovelace", "ada@example.com")
	existing.Bio = "from another device"
	f.PutJSON(t, mirror.ProfileKey(existing.ID), existing)

	p, err := Setup(ctx, "Ada", "ada@example.com", nil)
	if err != nil {
		t.Fatal(errors.Wrap(err, "setting up"))
	}

	assert.DeepEqual(t, p, existing, "mirrored profile not adopted")

	got, ok, err := Get(ctx)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading the profile back"))
	}
	assert.Equal(t, ok, true, "profile not cached")
	assert.DeepEqual(t, got, existing, "cached profile mismatch")
}

func TestSetupOffline(t *testing.T) {
	ctx := testutils.NewCtx(t, nil)
	ctx.APIEndpoint = "http://127.0.0.1:1"

	p, err := Setup(ctx, "Ada", "ada@example.com", nil)
	if err != nil {
		t.Fatal(errors.Wrap(err, "setting up"))
	}

	got, ok, err := Get(ctx)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading the profile back"))
	}
	assert.Equal(t, ok, true, "profile not cached despite the mirror being down")
	assert.DeepEqual(t, got, p, "cached profile mismatch")
}

func TestUpdate(t *testing.T) {
	f := testutils.NewFakeMirror(t)
	ctx := testutils.NewCtx(t, f)

	p, err := Setup(ctx, "Ada", "ada@example.com", nil)
	if err != nil {
		t.Fatal(errors.Wrap(err, "setting up"))
	}

	ctx.Clock.(*clock.Mock).Advance(time.Minute)

	bio := "analyst and metaphysician"
	theme := "dark"
	got, err := Update(ctx, Patch{
		Bio:   &bio,
		Prefs: &PreferencesPatch{Theme: &theme},
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "updating"))
	}

	assert.Equal(t, got.ID, p.ID, "id must not change on update")
	assert.Equal(t, got.Bio, bio, "bio mismatch")
	assert.Equal(t, got.Name, "Ada", "untouched field changed")
	assert.Equal(t, got.Preferences.Theme, theme, "theme mismatch")
	assert.Equal(t, got.Preferences.TargetWordCount, 50000, "untouched preference changed")
	assert.Equal(t, got.UpdatedAt > p.UpdatedAt, true, "updatedAt not refreshed")
}

func TestUpdateWithoutProfile(t *testing.T) {
	ctx := testutils.NewCtx(t, nil)

	name := "Ada"
	_, err := Update(ctx, Patch{Name: &name})
	assert.Equal(t, errors.Cause(err), ErrNotFound, "error mismatch")
}

func TestLoginWithEmail(t *testing.T) {
	f := testutils.NewFakeMirror(t)
	ctx := testutils.NewCtx(t, f)

	existing := CreateProfile(ctx.Clock, "Ada", "ada@example.com")
	f.PutJSON(t, mirror.ProfileKey(existing.ID), existing)

	p, err := LoginWithEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatal(errors.Wrap(err, "logging in"))
	}
	assert.DeepEqual(t, p, existing, "profile mismatch")

	_, err = LoginWithEmail(ctx, "nobody@example.com")
	assert.Equal(t, errors.Cause(err), ErrNotFound, "error mismatch")
}

func TestLogout(t *testing.T) {
	f := testutils.NewFakeMirror(t)
	ctx := testutils.NewCtx(t, f)

	p, err := Setup(ctx, "Ada", "ada@example.com", nil)
	if err != nil {
		t.Fatal(errors.Wrap(err, "setting up"))
	}
	cache.MustPut(t, ctx.Cache, consts.CacheKeyCurrentProjectID, "proj_1")

	if err := Logout(ctx); err != nil {
		t.Fatal(errors.Wrap(err, "logging out"))
	}

	_, ok, err := Get(ctx)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading the profile"))
	}
	assert.Equal(t, ok, false, "profile not cleared")

	_, ok, err = cache.Get(ctx.Cache, consts.CacheKeyCurrentProjectID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading the current project id"))
	}
	assert.Equal(t, ok, false, "current project pointer not cleared")

	assert.Equal(t, f.Has(mirror.ProfileKey(p.ID)), true, "mirrored copy must survive logout")
}

func TestSyncToCloud(t *testing.T) {
	f := testutils.NewFakeMirror(t)
	ctx := testutils.NewCtx(t, f)

	p, err := Setup(ctx, "Ada", "ada@example.com", nil)
	if err != nil {
		t.Fatal(errors.Wrap(err, "setting up"))
	}

	if err := SyncToCloud(ctx); err != nil {
		t.Fatal(errors.Wrap(err, "syncing"))
	}

	f.FailPuts(true)
	if err := SyncToCloud(ctx); err == nil {
		t.Fatal("an explicit sync must surface upload failures")
	}

	var mirrored Profile
	assert.Equal(t, f.GetJSON(t, mirror.ProfileKey(p.ID), &mirrored), true, "profile not mirrored")
}

func TestMigrateLegacyProfile(t *testing.T) {
	ctx := testutils.NewCtx(t, nil)

	cache.MustPutJSON(t, ctx.Cache, consts.LegacyKeyProfile, legacyProfile{
		Name:   "Ada",
		Email:  "ada@example.com",
		Bio:    "legacy bio",
		Genres: []string{"sci-fi"},
		Theme:  "dark",
	})

	if err := MigrateLegacyProfile(ctx); err != nil {
		t.Fatal(errors.Wrap(err, "migrating"))
	}

	p, ok, err := Get(ctx)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading the profile"))
	}
	assert.Equal(t, ok, true, "profile not migrated")
	assert.Equal(t, p.ID, DeriveID("ada@example.com"), "id mismatch")
	assert.Equal(t, p.Bio, "legacy bio", "bio mismatch")
	assert.Equal(t, p.Preferences.Theme, "dark", "theme mismatch")

	// legacy data stays in place
	_, ok, err = cache.Get(ctx.Cache, consts.LegacyKeyProfile)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading the legacy key"))
	}
	assert.Equal(t, ok, true, "legacy data must be left in place")

	// a second run must not clobber the migrated profile
	name := "Countess of Lovelace"
	if _, err := Update(ctx, Patch{Name: &name}); err != nil {
		t.Fatal(errors.Wrap(err, "updating"))
	}
	if err := MigrateLegacyProfile(ctx); err != nil {
		t.Fatal(errors.Wrap(err, "migrating again"))
	}

	p, _, err = Get(ctx)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading the profile"))
	}
	assert.Equal(t, p.Name, name, "rerun clobbered the profile")
}

func TestMigrateLegacyProfileNoLegacyData(t *testing.T) {
	ctx := testutils.NewCtx(t, nil)

	if err := MigrateLegacyProfile(ctx); err != nil {
		t.Fatal(errors.Wrap(err, "migrating"))
	}

	_, ok, err := Get(ctx)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading the profile"))
	}
	assert.Equal(t, ok, false, "no profile should be created without legacy data")
}
