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

package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/dahtruth/storylab/pkg/assert"
	"github.com/dahtruth/storylab/pkg/server/store"
	"github.com/pkg/errors"
)

func mustPut(t *testing.T, s store.Store, key, body string) {
	if err := s.Put(key, []byte(body)); err != nil {
		t.Fatal(errors.Wrapf(err, "putting %s", key))
	}
}

func readIndex(t *testing.T, s store.Store, authorID string) []indexEntry {
	body, ok, err := s.Get("authors/" + authorID + "/projects/index.json")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting index"))
	}
	if !ok {
		t.Fatalf("index for %s is missing", authorID)
	}

	var entries []indexEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		t.Fatal(errors.Wrap(err, "parsing index"))
	}

	return entries
}

func TestProjectAuthor(t *testing.T) {
	testCases := []struct {
		key      string
		expected string
		ok       bool
	}{
		{"authors/author_a/projects/proj_1.json", "author_a", true},
		{"authors/author_a/projects/index.json", "", false},
		{"authors/author_a/profile.json", "", false},
		{"other/author_a/projects/proj_1.json", "", false},
		{"authors/author_a/projects/nested/proj_1.json", "", false},
	}

	for _, tc := range testCases {
		got, ok := projectAuthor(tc.key)
		assert.Equal(t, ok, tc.ok, "ok mismatch for "+tc.key)
		assert.Equal(t, got, tc.expected, "author mismatch for "+tc.key)
	}
}

func TestRun(t *testing.T) {
	s, err := store.NewDisk(t.TempDir())
	if err != nil {
		t.Fatal(errors.Wrap(err, "preparing store"))
	}

	mustPut(t, s, "authors/author_a/profile.json", `{"id":"author_a","name":"Maya"}`)
	mustPut(t, s, "authors/author_a/projects/proj_1.json", `{
		"id": "proj_1",
		"title": "First Draft",
		"author": "Maya",
		"status": "draft",
		"createdAt": "2024-01-01T12:00:00Z",
		"updatedAt": "2024-01-02T12:00:00Z",
		"compose": {"chapters": [{"text": "one two three"}, {"text": "four five"}]}
	}`)
	mustPut(t, s, "authors/author_a/projects/proj_2.json", `{
		"id": "proj_2",
		"title": "Second Draft",
		"author": "Maya",
		"status": "in-progress",
		"createdAt": "2024-01-03T12:00:00Z",
		"updatedAt": "2024-01-04T12:00:00Z",
		"compose": {"chapters": []}
	}`)
	mustPut(t, s, "authors/author_b/projects/proj_3.json", `{
		"id": "proj_3",
		"title": "Other Story",
		"author": "Sam",
		"status": "draft",
		"createdAt": "2024-02-01T12:00:00Z",
		"updatedAt": "2024-02-01T12:00:00Z",
		"compose": {"chapters": [{"text": "hello"}]}
	}`)
	// a stale index that disagrees with the bodies
	mustPut(t, s, "authors/author_a/projects/index.json", `[{"id":"proj_gone"}]`)

	if err := Run(s); err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}

	entriesA := readIndex(t, s, "author_a")
	assert.Equal(t, len(entriesA), 2, "author_a entry count mismatch")
	assert.Equal(t, entriesA[0].ID, "proj_2", "newest first mismatch")
	assert.Equal(t, entriesA[1].ID, "proj_1", "oldest last mismatch")
	assert.Equal(t, entriesA[1].WordCount, 5, "word count mismatch")
	assert.Equal(t, entriesA[1].ChapterCount, 2, "chapter count mismatch")
	assert.Equal(t, entriesA[1].Title, "First Draft", "title mismatch")

	entriesB := readIndex(t, s, "author_b")
	assert.Equal(t, len(entriesB), 1, "author_b entry count mismatch")
	assert.Equal(t, entriesB[0].ID, "proj_3", "author_b id mismatch")
}

func TestRunSkipsUnparsableBodies(t *testing.T) {
	s, err := store.NewDisk(t.TempDir())
	if err != nil {
		t.Fatal(errors.Wrap(err, "preparing store"))
	}

	mustPut(t, s, "authors/author_a/projects/proj_1.json", `{
		"id": "proj_1",
		"title": "First Draft",
		"updatedAt": "2024-01-02T12:00:00Z",
		"compose": {"chapters": []}
	}`)
	mustPut(t, s, "authors/author_a/projects/proj_bad.json", `not json`)

	if err := Run(s); err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}

	entries := readIndex(t, s, "author_a")
	assert.Equal(t, len(entries), 1, "entry count mismatch")
	assert.Equal(t, entries[0].ID, "proj_1", "id mismatch")
}

func TestRunEmptyStore(t *testing.T) {
	s, err := store.NewDisk(t.TempDir())
	if err != nil {
		t.Fatal(errors.Wrap(err, "preparing store"))
	}

	if err := Run(s); err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}

	_, ok, err := s.Get("authors/author_a/projects/index.json")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting index"))
	}
	assert.Equal(t, ok, false, "presence mismatch")
}
