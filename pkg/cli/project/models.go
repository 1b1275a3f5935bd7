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

package project

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dahtruth/storylab/pkg/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Project statuses
const (
	StatusDraft      = "draft"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// Chapter is one unit of manuscript text. Order defines the document sequence
// and stays a dense 0..n-1 run after any reorder or delete.
type Chapter struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Order     int    `json:"order"`
	Text      string `json:"text,omitempty"`
	TextHTML  string `json:"textHTML,omitempty"`
	Included  bool   `json:"included"`
	Status    string `json:"status,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Character is a cast member tracked alongside chapters
type Character struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role,omitempty"`
	Description string `json:"description,omitempty"`
}

// Compose holds the writing workspace state
type Compose struct {
	Chapters        []Chapter   `json:"chapters"`
	Characters      []Character `json:"characters"`
	ActiveChapterID string      `json:"activeChapterId,omitempty"`
}

// MatterSection is a front or back matter section for publishing
type MatterSection struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content,omitempty"`
	Included bool   `json:"included"`
}

// Formatting holds export formatting settings
type Formatting struct {
	TrimSize    string `json:"trimSize,omitempty"`
	FontFamily  string `json:"fontFamily,omitempty"`
	FontSize    int    `json:"fontSize,omitempty"`
	LineSpacing string `json:"lineSpacing,omitempty"`
}

// Platform holds per-platform publishing settings
type Platform struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	ISBN    string `json:"isbn,omitempty"`
}

// Publishing holds the export-oriented view of the manuscript
type Publishing struct {
	Chapters    []Chapter       `json:"chapters"`
	FrontMatter []MatterSection `json:"frontMatter"`
	BackMatter  []MatterSection `json:"backMatter"`
	Formatting  Formatting      `json:"formatting"`
	Platforms   []Platform      `json:"platforms"`
}

// Cover holds the cover design state
type Cover struct {
	TemplateID      string `json:"templateId,omitempty"`
	Title           string `json:"title,omitempty"`
	Subtitle        string `json:"subtitle,omitempty"`
	AuthorName      string `json:"authorName,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	FontColor       string `json:"fontColor,omitempty"`
	ImageURL        string `json:"imageUrl,omitempty"`
}

// Project is one manuscript workspace. UpdatedAt is refreshed on every
// persisted mutation and is the sole freshness signal during sync.
type Project struct {
	ID         string     `json:"id"`
	AuthorID   string     `json:"authorId"`
	Title      string     `json:"title"`
	Author     string     `json:"author"`
	Status     string     `json:"status"`
	CreatedAt  string     `json:"createdAt"`
	UpdatedAt  string     `json:"updatedAt"`
	Compose    Compose    `json:"compose"`
	Publishing Publishing `json:"publishing"`
	Cover      Cover      `json:"cover"`
}

// IndexEntry is a summary projection of a project, used for listing without
// loading full bodies. Entries are regenerated from the project on save and
// never hand-edited.
type IndexEntry struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	Status       string `json:"status"`
	WordCount    int    `json:"wordCount"`
	ChapterCount int    `json:"chapterCount"`
	UpdatedAt    string `json:"updatedAt"`
	CreatedAt    string `json:"createdAt"`
}

// NewID generates a project id
func NewID() string {
	return fmt.Sprintf("proj_%s", uuid.NewString())
}

// NewChapterID generates a chapter id
func NewChapterID() string {
	return fmt.Sprintf("ch_%s", uuid.NewString())
}

// New builds an empty project scaffold owned by the given author
func New(c clock.Clock, title, authorID, authorName string) Project {
	now := clock.NowTimestamp(c)

	return Project{
		ID:        NewID(),
		AuthorID:  authorID,
		Title:     title,
		Author:    authorName,
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
		Compose: Compose{
			Chapters:   []Chapter{},
			Characters: []Character{},
		},
		Publishing: Publishing{
			Chapters:    []Chapter{},
			FrontMatter: []MatterSection{},
			BackMatter:  []MatterSection{},
			Platforms:   []Platform{},
		},
		Cover: Cover{
			Title:      title,
			AuthorName: authorName,
		},
	}
}

// WordCount returns the total number of words across compose chapters
func (p Project) WordCount() int {
	var total int
	for _, ch := range p.Compose.Chapters {
		total += len(strings.Fields(ch.Text))
	}

	return total
}

// IndexEntry derives the summary projection for this project
func (p Project) IndexEntry() IndexEntry {
	return IndexEntry{
		ID:           p.ID,
		Title:        p.Title,
		Author:       p.Author,
		Status:       p.Status,
		WordCount:    p.WordCount(),
		ChapterCount: len(p.Compose.Chapters),
		UpdatedAt:    p.UpdatedAt,
		CreatedAt:    p.CreatedAt,
	}
}

// Clone deep-copies the project
func (p Project) Clone() (Project, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return Project{}, errors.Wrap(err, "marshalling the project")
	}

	var ret Project
	if err := json.Unmarshal(b, &ret); err != nil {
		return Project{}, errors.Wrap(err, "unmarshalling the project")
	}

	return ret, nil
}

// NewerTimestamp reports whether a is strictly newer than b. Timestamps are
// RFC3339 UTC strings, so lexicographic order matches chronological order.
// Ties favor the existing value, which callers express by passing the
// candidate as a. This is the single comparator behind all freshness
// decisions; swap it out to change the conflict resolution strategy.
func NewerTimestamp(a, b string) bool {
	return a > b
}

// normalizeOrder rewrites chapter orders into a dense 0..n-1 sequence,
// preserving the current relative order.
func normalizeOrder(chapters []Chapter) {
	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].Order < chapters[j].Order
	})
	for i := range chapters {
		chapters[i].Order = i
	}
}

// AddChapter appends a chapter at the end of the sequence
func (c *Compose) AddChapter(ch Chapter) {
	ch.Order = len(c.Chapters)
	c.Chapters = append(c.Chapters, ch)
}

// RemoveChapter deletes the chapter with the given id and closes the gap in
// the order sequence. Removing an absent chapter is a no-op.
func (c *Compose) RemoveChapter(id string) {
	ret := c.Chapters[:0]
	for _, ch := range c.Chapters {
		if ch.ID != id {
			ret = append(ret, ch)
		}
	}
	c.Chapters = ret

	normalizeOrder(c.Chapters)

	if c.ActiveChapterID == id {
		c.ActiveChapterID = ""
	}
}

// MoveChapter moves the chapter with the given id to the given position and
// renumbers the rest densely.
func (c *Compose) MoveChapter(id string, pos int) {
	idx := -1
	for i, ch := range c.Chapters {
		if ch.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}

	if pos < 0 {
		pos = 0
	}
	if pos >= len(c.Chapters) {
		pos = len(c.Chapters) - 1
	}

	ch := c.Chapters[idx]
	rest := append(c.Chapters[:idx:idx], c.Chapters[idx+1:]...)
	chapters := make([]Chapter, 0, len(rest)+1)
	chapters = append(chapters, rest[:pos]...)
	chapters = append(chapters, ch)
	chapters = append(chapters, rest[pos:]...)

	for i := range chapters {
		chapters[i].Order = i
	}
	c.Chapters = chapters
}
