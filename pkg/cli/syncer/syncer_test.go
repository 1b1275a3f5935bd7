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

package syncer

import (
	"testing"
	"time"

	"github.com/dahtruth/storylab/pkg/assert"
	"github.com/dahtruth/storylab/pkg/cli/cache"
	"github.com/dahtruth/storylab/pkg/cli/mirror"
	"github.com/dahtruth/storylab/pkg/cli/project"
	"github.com/dahtruth/storylab/pkg/cli/testutils"
	"github.com/pkg/errors"
)

func waitForStatus(t *testing.T, ch <-chan StatusUpdate, want Status) StatusUpdate {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case u := <-ch:
			if u.Status == want {
				return u
			}
		case <-deadline:
			t.Fatalf("timed out waiting for status %s", want)
		}
	}
}

func TestDebounceCollapsing(t *testing.T) {
	f := testutils.NewFakeMirror(t)
	ctx := testutils.NewCtx(t, f)
	ctx.AutosaveInterval = 50 * time.Millisecond
	c := New(ctx)
	ch := c.Subscribe()

	p, err := project.Create(ctx, "Draft", project.CreateOptions{})
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating the project"))
	}
	key := mirror.ProjectKey(ctx.AuthorID, p.ID)

	for _, title := range []string{"Draft v1", "Draft v2", "Draft v3"} {
		p.Title = title
		if err := c.QueueAutoSave(p); err != nil {
			t.Fatal(errors.Wrap(err, "queueing"))
		}
	}

	// the latest payload is in the local cache before the timer fires
	var local project.Project
	ok, err := cache.GetJSON(ctx.Cache, p.ID, &local)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading the cached project"))
	}
	assert.Equal(t, ok, true, "project not cached")
	assert.Equal(t, local.Title, "Draft v3", "local copy stale")

	waitForStatus(t, ch, StatusSaved)

	assert.Equal(t, f.Puts(key), 1, "rapid queues must collapse into one upload")

	var mirrored project.Project
	assert.Equal(t, f.GetJSON(t, key, &mirrored), true, "project not mirrored")
	assert.Equal(t, mirrored.Title, "Draft v3", "mirrored payload is not the latest")
}

func TestFlush(t *testing.T) {
	f := testutils.NewFakeMirror(t)
	ctx := testutils.NewCtx(t, f)
	ctx.AutosaveInterval = time.Hour
	c := New(ctx)

	p, err := project.Create(ctx, "Draft", project.CreateOptions{})
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating the project"))
	}
	key := mirror.ProjectKey(ctx.AuthorID, p.ID)

	p.Title = "Flushed"
	if err := c.QueueAutoSave(p); err != nil {
		t.Fatal(errors.Wrap(err, "queueing"))
	}

	if err := c.FlushAutoSave(); err != nil {
		t.Fatal(errors.Wrap(err, "flushing"))
	}

	assert.Equal(t, c.Status().Status, StatusSaved, "status mismatch")
	assert.Equal(t, f.Puts(key), 1, "upload count mismatch")

	var mirrored project.Project
	assert.Equal(t, f.GetJSON(t, key, &mirrored), true, "project not mirrored")
	assert.Equal(t, mirrored.Title, "Flushed", "mirrored payload mismatch")

	// flushing with nothing pending is a no-op
	if err := c.FlushAutoSave(); err != nil {
		t.Fatal(errors.Wrap(err, "flushing again"))
	}
	assert.Equal(t, f.Puts(key), 1, "empty flush must not upload")
}

func TestFlushError(t *testing.T) {
	f := testutils.NewFakeMirror(t)
	ctx := testutils.NewCtx(t, f)
	ctx.AutosaveInterval = time.Hour
	c := New(ctx)

	p, err := project.Create(ctx, "Draft", project.CreateOptions{})
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating the project"))
	}

	f.FailPuts(true)

	p.Title = "Doomed"
	if err := c.QueueAutoSave(p); err != nil {
		t.Fatal(errors.Wrap(err, "queueing"))
	}

	if err := c.FlushAutoSave(); err == nil {
		t.Fatal("flush should surface the upload failure")
	}
	assert.Equal(t, c.Status().Status, StatusError, "status mismatch")

	// the local copy survived the failed upload
	var local project.Project
	ok, err := cache.GetJSON(ctx.Cache, p.ID, &local)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading the cached project"))
	}
	assert.Equal(t, ok, true, "project not cached")
	assert.Equal(t, local.Title, "Doomed", "local copy lost")
}

func TestCancel(t *testing.T) {
	f := testutils.NewFakeMirror(t)
	ctx := testutils.NewCtx(t, f)
	ctx.AutosaveInterval = 30 * time.Millisecond
	c := New(ctx)

	p, err := project.Create(ctx, "Draft", project.CreateOptions{})
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating the project"))
	}
	key := mirror.ProjectKey(ctx.AuthorID, p.ID)

	p.Title = "Cancelled"
	if err := c.QueueAutoSave(p); err != nil {
		t.Fatal(errors.Wrap(err, "queueing"))
	}
	c.CancelAutoSave()

	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, f.Puts(key), 0, "cancelled save must not upload")
	assert.Equal(t, c.Status().Status, StatusIdle, "status mismatch")

	// the immediate local write is not undone by cancel
	var local project.Project
	ok, err := cache.GetJSON(ctx.Cache, p.ID, &local)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading the cached project"))
	}
	assert.Equal(t, ok, true, "project not cached")
	assert.Equal(t, local.Title, "Cancelled", "local copy mismatch")
}
