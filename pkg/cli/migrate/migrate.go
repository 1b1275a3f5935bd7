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

// Package migrate implements the one-time upgrade of legacy-shaped local data
// into the current project shape. Legacy keys predate projects being
// first-class entities: a single flat chapter list, a metadata blob, and a
// cover design, with no index. Migration folds them into one project and one
// index entry, and never deletes the legacy keys.
package migrate

import (
	"github.com/dahtruth/storylab/pkg/cli/cache"
	"github.com/dahtruth/storylab/pkg/cli/consts"
	"github.com/dahtruth/storylab/pkg/cli/context"
	"github.com/dahtruth/storylab/pkg/cli/log"
	"github.com/dahtruth/storylab/pkg/cli/project"
	"github.com/pkg/errors"
)

type legacyChapter struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
	Text    string `json:"text,omitempty"`
	Order   int    `json:"order,omitempty"`
}

type legacyMetadata struct {
	Title      string `json:"title,omitempty"`
	StoryTitle string `json:"storyTitle,omitempty"`
	Author     string `json:"author,omitempty"`
	Genre      string `json:"genre,omitempty"`
	Status     string `json:"status,omitempty"`
	CreatedAt  string `json:"createdAt,omitempty"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

type legacyCover struct {
	Title           string `json:"title,omitempty"`
	Subtitle        string `json:"subtitle,omitempty"`
	AuthorName      string `json:"authorName,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	FontColor       string `json:"fontColor,omitempty"`
	ImageURL        string `json:"imageUrl,omitempty"`
}

// NeedsMigration reports whether legacy-shaped data exists without a
// current-shaped index. It is a pure predicate: it never writes.
func NeedsMigration(ctx context.StoryLabCtx) (bool, error) {
	var done string
	err := cache.GetSystem(ctx.Cache, consts.SystemProjectMigration, &done)
	if err != nil && !cache.IsNoRows(err) {
		return false, errors.Wrap(err, "reading the migration marker")
	}
	if done == "1" {
		return false, nil
	}

	var entries []project.IndexEntry
	ok, err := cache.GetJSON(ctx.Cache, consts.CacheKeyProjectsIndex, &entries)
	if err != nil {
		return false, errors.Wrap(err, "reading the index")
	}
	if ok && len(entries) > 0 {
		return false, nil
	}

	for _, key := range []string{consts.LegacyKeyChapters, consts.LegacyKeyMetadata, consts.LegacyKeyCover} {
		_, ok, err := cache.Get(ctx.Cache, key)
		if err != nil {
			return false, errors.Wrapf(err, "reading %s", key)
		}
		if ok {
			return true, nil
		}
	}

	return false, nil
}

// Run performs the migration if needed. It builds one project from the legacy
// chapter, metadata and cover keys, writes the body and a single index entry
// under current-shape keys, adopts it as the current project, and marks the
// migration done. Legacy keys are left in place as an implicit backup.
func Run(ctx context.StoryLabCtx) error {
	needed, err := NeedsMigration(ctx)
	if err != nil {
		return errors.Wrap(err, "checking whether migration is needed")
	}
	if !needed {
		return nil
	}

	log.Debug("migrating legacy project data\n")

	var chapters []legacyChapter
	if _, err := cache.GetJSON(ctx.Cache, consts.LegacyKeyChapters, &chapters); err != nil {
		return errors.Wrap(err, "reading the legacy chapters")
	}

	var meta legacyMetadata
	if _, err := cache.GetJSON(ctx.Cache, consts.LegacyKeyMetadata, &meta); err != nil {
		return errors.Wrap(err, "reading the legacy metadata")
	}

	var cover legacyCover
	hasCover, err := cache.GetJSON(ctx.Cache, consts.LegacyKeyCover, &cover)
	if err != nil {
		return errors.Wrap(err, "reading the legacy cover")
	}

	title := meta.Title
	if title == "" {
		title = meta.StoryTitle
	}
	if title == "" {
		title = "Untitled Story"
	}

	p := project.New(ctx.Clock, title, ctx.AuthorID, meta.Author)
	if meta.Status != "" {
		p.Status = meta.Status
	}
	if meta.CreatedAt != "" {
		p.CreatedAt = meta.CreatedAt
	}
	if meta.UpdatedAt != "" {
		p.UpdatedAt = meta.UpdatedAt
	}

	for _, ch := range chapters {
		text := ch.Text
		if text == "" {
			text = ch.Content
		}

		id := ch.ID
		if id == "" {
			id = project.NewChapterID()
		}

		p.Compose.AddChapter(project.Chapter{
			ID:       id,
			Title:    ch.Title,
			Text:     text,
			Included: true,
			Status:   project.StatusDraft,
		})
	}

	if hasCover {
		p.Cover = project.Cover{
			Title:           cover.Title,
			Subtitle:        cover.Subtitle,
			AuthorName:      cover.AuthorName,
			BackgroundColor: cover.BackgroundColor,
			FontColor:       cover.FontColor,
			ImageURL:        cover.ImageURL,
		}
		if p.Cover.Title == "" {
			p.Cover.Title = title
		}
	}

	tx, err := ctx.Cache.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	if err := cache.PutJSON(tx, p.ID, p); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "writing the migrated project")
	}
	if err := cache.PutJSON(tx, consts.CacheKeyProjectsIndex, []project.IndexEntry{p.IndexEntry()}); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "writing the index")
	}
	if err := cache.Put(tx, consts.CacheKeyCurrentProjectID, p.ID); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "writing the current project pointer")
	}
	if err := cache.PutJSON(tx, consts.CacheKeyCurrentProject, p); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "writing the current project")
	}
	if err := cache.UpsertSystem(tx, consts.SystemProjectMigration, "1"); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "marking the migration done")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing the migration")
	}

	return nil
}
