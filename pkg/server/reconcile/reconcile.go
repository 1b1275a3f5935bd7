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

// Package reconcile periodically rederives each author's project index from
// the project bodies in storage. Clients write the index themselves on every
// save, but a crash between the body write and the index write can leave the
// two out of step. Bodies are the source of truth.
package reconcile

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/dahtruth/storylab/pkg/server/log"
	"github.com/dahtruth/storylab/pkg/server/store"
	"github.com/pkg/errors"
	"github.com/robfig/cron"
)

const (
	authorsPrefix = "authors/"
	indexFileName = "index.json"
)

// projectBody is the subset of a stored project needed to derive its index
// entry
type projectBody struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
	Compose   struct {
		Chapters []struct {
			Text string `json:"text"`
		} `json:"chapters"`
	} `json:"compose"`
}

type indexEntry struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	Status       string `json:"status"`
	WordCount    int    `json:"wordCount"`
	ChapterCount int    `json:"chapterCount"`
	UpdatedAt    string `json:"updatedAt"`
	CreatedAt    string `json:"createdAt"`
}

func newEntry(p projectBody) indexEntry {
	var wordCount int
	for _, ch := range p.Compose.Chapters {
		wordCount += len(strings.Fields(ch.Text))
	}

	return indexEntry{
		ID:           p.ID,
		Title:        p.Title,
		Author:       p.Author,
		Status:       p.Status,
		WordCount:    wordCount,
		ChapterCount: len(p.Compose.Chapters),
		UpdatedAt:    p.UpdatedAt,
		CreatedAt:    p.CreatedAt,
	}
}

// projectAuthor extracts the author id from a project body key of the form
// authors/{authorID}/projects/{projectID}.json. It returns false for index
// files and keys of any other shape.
func projectAuthor(key string) (string, bool) {
	parts := strings.Split(key, "/")
	if len(parts) != 4 || parts[0] != "authors" || parts[2] != "projects" {
		return "", false
	}
	if parts[3] == indexFileName {
		return "", false
	}

	return parts[1], true
}

// Run rebuilds the project index for every author found in the store
func Run(s store.Store) error {
	objects, err := s.List(authorsPrefix)
	if err != nil {
		return errors.Wrap(err, "listing author objects")
	}

	byAuthor := map[string][]indexEntry{}
	for _, obj := range objects {
		authorID, ok := projectAuthor(obj.Key)
		if !ok {
			continue
		}

		var body projectBody
		if err := json.Unmarshal(obj.Body, &body); err != nil {
			log.WithFields(log.Fields{
				"key": obj.Key,
			}).ErrorWrap(err, "skipping unparsable project body")
			continue
		}
		if body.ID == "" {
			continue
		}

		byAuthor[authorID] = append(byAuthor[authorID], newEntry(body))
	}

	for authorID, entries := range byAuthor {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].UpdatedAt > entries[j].UpdatedAt
		})

		serialized, err := json.Marshal(entries)
		if err != nil {
			return errors.Wrapf(err, "serializing the index for %s", authorID)
		}

		key := authorsPrefix + authorID + "/projects/" + indexFileName
		if err := s.Put(key, serialized); err != nil {
			return errors.Wrapf(err, "writing the index for %s", authorID)
		}
	}

	log.WithFields(log.Fields{
		"authors": len(byAuthor),
	}).Debug("reconciled project indexes")

	return nil
}

// Schedule starts a cron that runs the reconciliation on the given schedule.
// The returned cron should be stopped by the caller on shutdown.
func Schedule(s store.Store, spec string) (*cron.Cron, error) {
	c := cron.New()

	err := c.AddFunc(spec, func() {
		if err := Run(s); err != nil {
			log.ErrorWrap(err, "reconciling project indexes")
		}
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scheduling reconciliation at %s", spec)
	}

	c.Start()
	return c, nil
}
