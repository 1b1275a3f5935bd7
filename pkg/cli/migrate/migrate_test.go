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

package migrate

import (
	"testing"

	"github.com/dahtruth/storylab/pkg/assert"
	"github.com/dahtruth/storylab/pkg/cli/cache"
	"github.com/dahtruth/storylab/pkg/cli/consts"
	"github.com/dahtruth/storylab/pkg/cli/context"
	"github.com/dahtruth/storylab/pkg/cli/project"
	"github.com/dahtruth/storylab/pkg/clock"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

func newTestCtx(t *testing.T) context.StoryLabCtx {
	t.Helper()

	return context.StoryLabCtx{
		Cache:    cache.InitTestDB(t),
		Clock:    clock.NewMock(),
		AuthorID: "author_test",
	}
}

func seedLegacyData(t *testing.T, ctx context.StoryLabCtx) {
	t.Helper()

	cache.MustPutJSON(t, ctx.Cache, consts.LegacyKeyChapters, []legacyChapter{
		{Title: "Chapter One", Content: "It was a dark and stormy night."},
		{Title: "Chapter Two", Content: "The rain fell in torrents."},
	})
	cache.MustPutJSON(t, ctx.Cache, consts.LegacyKeyMetadata, legacyMetadata{
		Title:  "Paul Clifford",
		Author: "Edward Bulwer-Lytton",
		Status: "in-progress",
	})
	cache.MustPutJSON(t, ctx.Cache, consts.LegacyKeyCover, legacyCover{
		Title:      "Paul Clifford",
		AuthorName: "Edward Bulwer-Lytton",
	})
}

func readIndex(t *testing.T, ctx context.StoryLabCtx) []project.IndexEntry {
	t.Helper()

	var entries []project.IndexEntry
	if _, err := cache.GetJSON(ctx.Cache, consts.CacheKeyProjectsIndex, &entries); err != nil {
		t.Fatal(errors.Wrap(err, "reading the index"))
	}

	return entries
}

func TestNeedsMigration(t *testing.T) {
	t.Run("no legacy data", func(t *testing.T) {
		ctx := newTestCtx(t)

		needed, err := NeedsMigration(ctx)
		if err != nil {
			t.Fatal(errors.Wrap(err, "checking"))
		}
		assert.Equal(t, needed, false, "no data should mean no migration")
	})

	t.Run("legacy data present", func(t *testing.T) {
		ctx := newTestCtx(t)
		seedLegacyData(t, ctx)

		needed, err := NeedsMigration(ctx)
		if err != nil {
			t.Fatal(errors.Wrap(err, "checking"))
		}
		assert.Equal(t, needed, true, "legacy data should trigger migration")
	})

	t.Run("legacy data but index exists", func(t *testing.T) {
		ctx := newTestCtx(t)
		seedLegacyData(t, ctx)

		p := project.New(ctx.Clock, "Existing", ctx.AuthorID, "")
		cache.MustPutJSON(t, ctx.Cache, consts.CacheKeyProjectsIndex, []project.IndexEntry{p.IndexEntry()})

		needed, err := NeedsMigration(ctx)
		if err != nil {
			t.Fatal(errors.Wrap(err, "checking"))
		}
		assert.Equal(t, needed, false, "a populated index should suppress migration")
	})
}

func TestRun(t *testing.T) {
	ctx := newTestCtx(t)
	seedLegacyData(t, ctx)

	if err := Run(ctx); err != nil {
		t.Fatal(errors.Wrap(err, "migrating"))
	}

	entries := readIndex(t, ctx)
	assert.Equal(t, len(entries), 1, "entry count mismatch")
	assert.Equal(t, entries[0].Title, "Paul Clifford", "title mismatch")
	assert.Equal(t, entries[0].ChapterCount, 2, "chapter count mismatch")

	var p project.Project
	ok, err := cache.GetJSON(ctx.Cache, entries[0].ID, &p)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading the project"))
	}
	assert.Equal(t, ok, true, "project body not written")
	assert.Equal(t, p.AuthorID, ctx.AuthorID, "author id mismatch")
	assert.Equal(t, p.Status, "in-progress", "status mismatch")
	assert.Equal(t, len(p.Compose.Chapters), 2, "chapter count mismatch")
	assert.Equal(t, p.Compose.Chapters[0].Text, "It was a dark and stormy night.", "chapter text mismatch")
	assert.Equal(t, p.Compose.Chapters[0].Order, 0, "chapter order mismatch")
	assert.Equal(t, p.Compose.Chapters[1].Order, 1, "chapter order mismatch")
	assert.Equal(t, p.Cover.AuthorName, "Edward Bulwer-Lytton", "cover author mismatch")

	currentID, _, err := cache.Get(ctx.Cache, consts.CacheKeyCurrentProjectID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading the current project pointer"))
	}
	assert.Equal(t, currentID, p.ID, "migrated project not adopted as current")

	// legacy keys survive as a backup
	for _, key := range []string{consts.LegacyKeyChapters, consts.LegacyKeyMetadata, consts.LegacyKeyCover} {
		_, ok, err := cache.Get(ctx.Cache, key)
		if err != nil {
			t.Fatal(errors.Wrapf(err, "reading %s", key))
		}
		assert.Equal(t, ok, true, "legacy key must survive migration")
	}
}

func TestRunIdempotence(t *testing.T) {
	ctx := newTestCtx(t)
	seedLegacyData(t, ctx)

	if err := Run(ctx); err != nil {
		t.Fatal(errors.Wrap(err, "migrating"))
	}
	first := readIndex(t, ctx)

	if err := Run(ctx); err != nil {
		t.Fatal(errors.Wrap(err, "migrating again"))
	}
	second := readIndex(t, ctx)

	assert.DeepEqual(t, second, first, "rerun must not change the index")
	assert.Equal(t, len(second), 1, "rerun must not duplicate the project")
}

func TestRunWithoutLegacyData(t *testing.T) {
	ctx := newTestCtx(t)

	if err := Run(ctx); err != nil {
		t.Fatal(errors.Wrap(err, "migrating"))
	}

	entries := readIndex(t, ctx)
	assert.Equal(t, len(entries), 0, "nothing should be created")
}
