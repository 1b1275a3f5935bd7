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

// Package project implements the project store: CRUD and listing for
// manuscript projects, kept consistent between the local cache and the remote
// mirror. Reads prefer the cache; writes land in the cache immediately and fan
// out to the mirror.
package project

import (
	"github.com/dahtruth/storylab/pkg/cli/cache"
	"github.com/dahtruth/storylab/pkg/cli/consts"
	"github.com/dahtruth/storylab/pkg/cli/context"
	"github.com/dahtruth/storylab/pkg/cli/mirror"
	"github.com/dahtruth/storylab/pkg/clock"
	"github.com/pkg/errors"
)

// ErrNotFound is an error for a project that exists neither locally nor remotely
var ErrNotFound = errors.New("project not found")

// CreateOptions are options for Create
type CreateOptions struct {
	AuthorName  string
	SaveToCloud bool
}

// Create builds an empty project scaffold, adopts it as the current project,
// prepends its index entry, and mirrors both artifacts best-effort.
func Create(ctx context.StoryLabCtx, title string, opts CreateOptions) (Project, error) {
	p := New(ctx.Clock, title, ctx.AuthorID, opts.AuthorName)

	if err := cache.PutJSON(ctx.Cache, p.ID, p); err != nil {
		return Project{}, errors.Wrap(err, "caching the project")
	}
	if err := SetCurrent(ctx, p); err != nil {
		return Project{}, errors.Wrap(err, "setting the current project")
	}

	entries, err := getLocalIndex(ctx)
	if err != nil {
		return Project{}, errors.Wrap(err, "reading the index")
	}
	entries = upsertEntry(entries, p.IndexEntry())
	if err := putLocalIndex(ctx, entries); err != nil {
		return Project{}, errors.Wrap(err, "writing the index")
	}

	if opts.SaveToCloud {
		mirror.BestEffort("uploading the project", func() error {
			return mirror.PutJSON(ctx, mirror.ProjectKey(ctx.AuthorID, p.ID), p)
		})
		mirror.BestEffort("uploading the index", func() error {
			return mirror.PutJSON(ctx, mirror.IndexKey(ctx.AuthorID), entries)
		})
	}

	return p, nil
}

// SaveOptions are options for Save
type SaveOptions struct {
	UpdateIndex bool
	CloudSync   bool
}

// Save refreshes updatedAt, writes the body to the cache, regenerates the
// index entry, and uploads both artifacts. Unlike background mirroring, an
// explicit save propagates cloud failures to the caller.
func Save(ctx context.StoryLabCtx, p *Project, opts SaveOptions) error {
	p.UpdatedAt = clock.NowTimestamp(ctx.Clock)

	if err := cache.PutJSON(ctx.Cache, p.ID, *p); err != nil {
		return errors.Wrap(err, "caching the project")
	}

	currentID, err := CurrentID(ctx)
	if err != nil {
		return errors.Wrap(err, "reading the current project pointer")
	}
	if currentID == p.ID {
		if err := cache.PutJSON(ctx.Cache, consts.CacheKeyCurrentProject, *p); err != nil {
			return errors.Wrap(err, "caching the current project")
		}
	}

	var entries []IndexEntry
	if opts.UpdateIndex {
		entries, err = getLocalIndex(ctx)
		if err != nil {
			return errors.Wrap(err, "reading the index")
		}
		entries = upsertEntry(entries, p.IndexEntry())
		if err := putLocalIndex(ctx, entries); err != nil {
			return errors.Wrap(err, "writing the index")
		}
	}

	if opts.CloudSync {
		if err := mirror.Required("uploading the project", func() error {
			return mirror.PutJSON(ctx, mirror.ProjectKey(ctx.AuthorID, p.ID), *p)
		}); err != nil {
			return err
		}

		if opts.UpdateIndex {
			if err := mirror.Required("uploading the index", func() error {
				return mirror.PutJSON(ctx, mirror.IndexKey(ctx.AuthorID), entries)
			}); err != nil {
				return err
			}
		}
	}

	return nil
}

// LoadOptions are options for Load
type LoadOptions struct {
	PreferCloud bool
}

// Load reads the project with the given id. The default path returns the
// cached copy immediately, adopts it as current, and refreshes from the
// mirror in the background, replacing the cached copy wholesale if the remote
// one is strictly fresher. With PreferCloud, or when no cached copy exists,
// the mirror is consulted directly.
func Load(ctx context.StoryLabCtx, id string, opts LoadOptions) (Project, error) {
	if !opts.PreferCloud {
		var p Project
		ok, err := cache.GetJSON(ctx.Cache, id, &p)
		if err != nil {
			return Project{}, errors.Wrap(err, "reading the cached project")
		}
		if ok {
			if err := SetCurrent(ctx, p); err != nil {
				return Project{}, errors.Wrap(err, "setting the current project")
			}

			go func() {
				mirror.BestEffort("refreshing the project from the mirror", func() error {
					_, err := RefreshFromMirror(ctx, id)
					return err
				})
			}()

			return p, nil
		}
	}

	var remote Project
	ok, err := mirror.GetJSON(ctx, mirror.ProjectKey(ctx.AuthorID, id), &remote)
	if err != nil {
		return Project{}, errors.Wrap(err, "fetching the project from the mirror")
	}
	if !ok {
		return Project{}, ErrNotFound
	}

	if err := cache.PutJSON(ctx.Cache, remote.ID, remote); err != nil {
		return Project{}, errors.Wrap(err, "caching the fetched project")
	}
	if err := SetCurrent(ctx, remote); err != nil {
		return Project{}, errors.Wrap(err, "setting the current project")
	}

	return remote, nil
}

// RefreshFromMirror fetches the mirror copy of the given project and replaces
// the cached copy and the current pointer if the remote one is strictly
// fresher. There is no field-level merge: the remote body wins wholesale.
// Returns true if the local copy was replaced.
func RefreshFromMirror(ctx context.StoryLabCtx, id string) (bool, error) {
	var remote Project
	ok, err := mirror.GetJSON(ctx, mirror.ProjectKey(ctx.AuthorID, id), &remote)
	if err != nil {
		return false, errors.Wrap(err, "fetching the project from the mirror")
	}
	if !ok {
		return false, nil
	}

	var local Project
	hasLocal, err := cache.GetJSON(ctx.Cache, id, &local)
	if err != nil {
		return false, errors.Wrap(err, "reading the cached project")
	}
	if hasLocal && !NewerTimestamp(remote.UpdatedAt, local.UpdatedAt) {
		return false, nil
	}

	if err := cache.PutJSON(ctx.Cache, id, remote); err != nil {
		return false, errors.Wrap(err, "replacing the cached project")
	}

	currentID, err := CurrentID(ctx)
	if err != nil {
		return false, errors.Wrap(err, "reading the current project pointer")
	}
	if currentID == id {
		if err := cache.PutJSON(ctx.Cache, consts.CacheKeyCurrentProject, remote); err != nil {
			return false, errors.Wrap(err, "replacing the current project")
		}
	}

	return true, nil
}

// Delete removes the project locally, drops its index entry, clears the
// current pointer if it pointed at the project, and best-effort removes the
// mirror body while re-uploading the index.
func Delete(ctx context.StoryLabCtx, id string) error {
	if err := cache.Delete(ctx.Cache, id); err != nil {
		return errors.Wrap(err, "removing the cached project")
	}

	entries, err := getLocalIndex(ctx)
	if err != nil {
		return errors.Wrap(err, "reading the index")
	}
	entries = removeEntry(entries, id)
	if err := putLocalIndex(ctx, entries); err != nil {
		return errors.Wrap(err, "writing the index")
	}

	currentID, err := CurrentID(ctx)
	if err != nil {
		return errors.Wrap(err, "reading the current project pointer")
	}
	if currentID == id {
		if err := ClearCurrent(ctx); err != nil {
			return errors.Wrap(err, "clearing the current project")
		}
	}

	mirror.BestEffort("deleting the mirrored project", func() error {
		return mirror.DeleteObject(ctx, mirror.ProjectKey(ctx.AuthorID, id))
	})
	mirror.BestEffort("uploading the index", func() error {
		return mirror.PutJSON(ctx, mirror.IndexKey(ctx.AuthorID), entries)
	})

	return nil
}

// ListOptions are options for List
type ListOptions struct {
	RefreshFromCloud bool
}

// List returns the project index. With RefreshFromCloud, the mirror index is
// fetched and merged entry by entry, keeping whichever side is fresher, and
// the merged result is written back to the cache.
func List(ctx context.StoryLabCtx, opts ListOptions) ([]IndexEntry, error) {
	entries, err := getLocalIndex(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "reading the index")
	}

	if !opts.RefreshFromCloud {
		return entries, nil
	}

	var remote []IndexEntry
	ok, err := mirror.GetJSON(ctx, mirror.IndexKey(ctx.AuthorID), &remote)
	if err != nil {
		return nil, errors.Wrap(err, "fetching the mirror index")
	}
	if !ok {
		return entries, nil
	}

	merged := MergeIndexes(entries, remote)
	if err := putLocalIndex(ctx, merged); err != nil {
		return nil, errors.Wrap(err, "writing the merged index")
	}

	return merged, nil
}

// Duplicate deep-clones the project with the given id under a fresh id and
// current timestamps, and persists it through the same path as Create.
func Duplicate(ctx context.StoryLabCtx, id, newTitle string) (Project, error) {
	src, err := Load(ctx, id, LoadOptions{})
	if err != nil {
		return Project{}, errors.Wrap(err, "loading the source project")
	}

	dup, err := src.Clone()
	if err != nil {
		return Project{}, errors.Wrap(err, "cloning the project")
	}

	now := clock.NowTimestamp(ctx.Clock)
	dup.ID = NewID()
	dup.CreatedAt = now
	dup.UpdatedAt = now
	if newTitle == "" {
		newTitle = src.Title + " (copy)"
	}
	dup.Title = newTitle
	// denormalized title snapshot inside the cover
	dup.Cover.Title = newTitle

	if err := cache.PutJSON(ctx.Cache, dup.ID, dup); err != nil {
		return Project{}, errors.Wrap(err, "caching the duplicate")
	}
	if err := SetCurrent(ctx, dup); err != nil {
		return Project{}, errors.Wrap(err, "setting the current project")
	}

	entries, err := getLocalIndex(ctx)
	if err != nil {
		return Project{}, errors.Wrap(err, "reading the index")
	}
	entries = upsertEntry(entries, dup.IndexEntry())
	if err := putLocalIndex(ctx, entries); err != nil {
		return Project{}, errors.Wrap(err, "writing the index")
	}

	mirror.BestEffort("uploading the duplicate", func() error {
		return mirror.PutJSON(ctx, mirror.ProjectKey(ctx.AuthorID, dup.ID), dup)
	})
	mirror.BestEffort("uploading the index", func() error {
		return mirror.PutJSON(ctx, mirror.IndexKey(ctx.AuthorID), entries)
	})

	return dup, nil
}

// CurrentID returns the id of the current project, or an empty string
func CurrentID(ctx context.StoryLabCtx) (string, error) {
	id, _, err := cache.Get(ctx.Cache, consts.CacheKeyCurrentProjectID)
	if err != nil {
		return "", errors.Wrap(err, "reading the current project pointer")
	}

	return id, nil
}

// SetCurrent adopts the given project as the current working copy
func SetCurrent(ctx context.StoryLabCtx, p Project) error {
	if err := cache.Put(ctx.Cache, consts.CacheKeyCurrentProjectID, p.ID); err != nil {
		return errors.Wrap(err, "writing the current project pointer")
	}
	if err := cache.PutJSON(ctx.Cache, consts.CacheKeyCurrentProject, p); err != nil {
		return errors.Wrap(err, "writing the current project")
	}

	return nil
}

// GetCurrent reads the current working copy, if any
func GetCurrent(ctx context.StoryLabCtx) (Project, bool, error) {
	var p Project
	ok, err := cache.GetJSON(ctx.Cache, consts.CacheKeyCurrentProject, &p)
	if err != nil {
		return Project{}, false, errors.Wrap(err, "reading the current project")
	}

	return p, ok, nil
}

// ClearCurrent drops the current project pointer and working copy
func ClearCurrent(ctx context.StoryLabCtx) error {
	if err := cache.Delete(ctx.Cache, consts.CacheKeyCurrentProjectID); err != nil {
		return errors.Wrap(err, "clearing the current project pointer")
	}
	if err := cache.Delete(ctx.Cache, consts.CacheKeyCurrentProject); err != nil {
		return errors.Wrap(err, "clearing the current project")
	}

	return nil
}
