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
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Disk is a Store backed by the local filesystem. Object keys map directly
// onto file paths under the root directory.
type Disk struct {
	root string
}

// NewDisk returns a disk store rooted at the given directory, creating it if
// necessary
func NewDisk(root string) (*Disk, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errors.Wrapf(err, "creating the data directory at %s", root)
	}

	return &Disk{root: root}, nil
}

func (d *Disk) path(key string) string {
	return filepath.Join(d.root, filepath.FromSlash(key))
}

// Get returns the body stored under the key
func (d *Disk) Get(key string) ([]byte, bool, error) {
	if err := ValidateKey(key); err != nil {
		return nil, false, err
	}

	body, err := os.ReadFile(d.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "reading %s", key)
	}

	return body, true, nil
}

// Put stores the body under the key, replacing any existing object
func (d *Disk) Put(key string, body []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	path := d.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "creating the directory for %s", key)
	}

	// write to a temp file and rename so that readers never observe a
	// partial body
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "creating a temp file for %s", key)
	}

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "writing %s", key)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "closing the temp file for %s", key)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "renaming the temp file for %s", key)
	}

	return nil
}

// Delete removes the object under the key, reporting whether it existed
func (d *Disk) Delete(key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}

	err := os.Remove(d.path(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "removing %s", key)
	}

	return true, nil
}

// List returns all objects whose key starts with the given prefix
func (d *Disk) List(prefix string) ([]Object, error) {
	ret := []Object{}

	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".tmp-") {
			return nil
		}

		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return errors.Wrapf(err, "relativizing %s", path)
		}

		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		body, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "reading %s", key)
		}

		info, err := entry.Info()
		if err != nil {
			return errors.Wrapf(err, "statting %s", key)
		}

		ret = append(ret, Object{
			Key:       key,
			Body:      body,
			UpdatedAt: info.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walking the data directory for %s", prefix)
	}

	return ret, nil
}

// Close is a no-op for the disk store
func (d *Disk) Close() error {
	return nil
}
