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

package store

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/dahtruth/storylab/pkg/assert"
	"github.com/pkg/errors"
)

func TestValidateKey(t *testing.T) {
	testCases := []struct {
		key   string
		valid bool
	}{
		{"authors/author_abc/profile.json", true},
		{"authors/author_abc/projects/index.json", true},
		{"a", true},
		{"a-b_c.d/e", true},
		{"", false},
		{"/authors", false},
		{"authors/", false},
		{"authors//profile.json", false},
		{"../etc/passwd", false},
		{"authors/../secret", false},
		{"authors/./profile.json", false},
		{"authors/pro file.json", false},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("key %q", tc.key), func(t *testing.T) {
			err := ValidateKey(tc.key)

			if tc.valid {
				assert.Equal(t, err, nil, "err mismatch")
			} else {
				assert.Equal(t, errors.Cause(err), ErrInvalidKey, "err mismatch")
			}
		})
	}
}

func TestValidateKeyLength(t *testing.T) {
	long := ""
	for i := 0; i < 600; i++ {
		long += "a"
	}

	assert.Equal(t, errors.Cause(ValidateKey(long)), ErrInvalidKey, "err mismatch")
}

func TestDiskRoundTrip(t *testing.T) {
	s, err := NewDisk(t.TempDir())
	if err != nil {
		t.Fatal(errors.Wrap(err, "preparing store"))
	}

	key := "authors/author_abc/projects/proj_1.json"
	if err := s.Put(key, []byte(`{"title":"First Draft"}`)); err != nil {
		t.Fatal(errors.Wrap(err, "putting object"))
	}

	body, ok, err := s.Get(key)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting object"))
	}
	assert.Equal(t, ok, true, "presence mismatch")
	assert.Equal(t, string(body), `{"title":"First Draft"}`, "body mismatch")
}

func TestDiskPutReplaces(t *testing.T) {
	s, err := NewDisk(t.TempDir())
	if err != nil {
		t.Fatal(errors.Wrap(err, "preparing store"))
	}

	key := "authors/author_abc/profile.json"
	if err := s.Put(key, []byte("v1")); err != nil {
		t.Fatal(errors.Wrap(err, "putting first body"))
	}
	if err := s.Put(key, []byte("v2")); err != nil {
		t.Fatal(errors.Wrap(err, "putting second body"))
	}

	body, ok, err := s.Get(key)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting object"))
	}
	assert.Equal(t, ok, true, "presence mismatch")
	assert.Equal(t, string(body), "v2", "body mismatch")
}

func TestDiskGetAbsent(t *testing.T) {
	s, err := NewDisk(t.TempDir())
	if err != nil {
		t.Fatal(errors.Wrap(err, "preparing store"))
	}

	body, ok, err := s.Get("authors/author_abc/profile.json")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting object"))
	}
	assert.Equal(t, ok, false, "presence mismatch")
	assert.Equal(t, len(body), 0, "body mismatch")
}

func TestDiskDelete(t *testing.T) {
	s, err := NewDisk(t.TempDir())
	if err != nil {
		t.Fatal(errors.Wrap(err, "preparing store"))
	}

	key := "authors/author_abc/profile.json"
	if err := s.Put(key, []byte("body")); err != nil {
		t.Fatal(errors.Wrap(err, "putting object"))
	}

	existed, err := s.Delete(key)
	if err != nil {
		t.Fatal(errors.Wrap(err, "deleting object"))
	}
	assert.Equal(t, existed, true, "existed mismatch")

	_, ok, err := s.Get(key)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting object"))
	}
	assert.Equal(t, ok, false, "presence mismatch")

	existed, err = s.Delete(key)
	if err != nil {
		t.Fatal(errors.Wrap(err, "deleting absent object"))
	}
	assert.Equal(t, existed, false, "existed mismatch")
}

func TestDiskList(t *testing.T) {
	root := t.TempDir()
	s, err := NewDisk(root)
	if err != nil {
		t.Fatal(errors.Wrap(err, "preparing store"))
	}

	seed := map[string]string{
		"authors/author_a/profile.json":             "profile a",
		"authors/author_a/projects/proj_1.json":     "project 1",
		"authors/author_a/projects/proj_2.json":     "project 2",
		"authors/author_b/projects/proj_other.json": "other",
	}
	for key, body := range seed {
		if err := s.Put(key, []byte(body)); err != nil {
			t.Fatal(errors.Wrapf(err, "putting %s", key))
		}
	}

	// leftover temp files from interrupted writes must not surface
	if err := os.WriteFile(filepath.Join(root, "authors", "author_a", ".tmp-123"), []byte("junk"), 0644); err != nil {
		t.Fatal(errors.Wrap(err, "seeding temp file"))
	}

	objects, err := s.List("authors/author_a/projects/")
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing objects"))
	}

	assert.Equal(t, len(objects), 2, "object count mismatch")

	got := map[string]string{}
	for _, obj := range objects {
		got[obj.Key] = string(obj.Body)
		if obj.UpdatedAt.IsZero() {
			t.Errorf("object %s has zero UpdatedAt", obj.Key)
		}
	}
	assert.Equal(t, got["authors/author_a/projects/proj_1.json"], "project 1", "body mismatch")
	assert.Equal(t, got["authors/author_a/projects/proj_2.json"], "project 2", "body mismatch")
}

func TestDiskRejectsInvalidKeys(t *testing.T) {
	s, err := NewDisk(t.TempDir())
	if err != nil {
		t.Fatal(errors.Wrap(err, "preparing store"))
	}

	if err := s.Put("../escape", []byte("body")); errors.Cause(err) != ErrInvalidKey {
		t.Errorf("put err mismatch. got %v", err)
	}
	if _, _, err := s.Get("../escape"); errors.Cause(err) != ErrInvalidKey {
		t.Errorf("get err mismatch. got %v", err)
	}
	if _, err := s.Delete("../escape"); errors.Cause(err) != ErrInvalidKey {
		t.Errorf("delete err mismatch. got %v", err)
	}
}
