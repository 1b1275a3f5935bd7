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

package cache

import (
	"database/sql"
	"encoding/json"

	"github.com/dahtruth/storylab/pkg/cli/log"
	"github.com/pkg/errors"
)

// Get reads the raw value stored under the given key. The second return value
// reports whether the key was present.
func Get(db *DB, key string) (string, bool, error) {
	var val string

	err := db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&val)
	if err == sql.ErrNoRows {
		return "", false, nil
	} else if err != nil {
		return "", false, errors.Wrapf(err, "querying the value for %s", key)
	}

	return val, true, nil
}

// Put writes the value under the given key, replacing any existing value
func Put(db *DB, key, value string) error {
	_, err := db.Exec("INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value", key, value)
	if err != nil {
		return errors.Wrapf(err, "upserting the value for %s", key)
	}

	return nil
}

// Delete removes the given key. Deleting an absent key is not an error.
func Delete(db *DB, key string) error {
	_, err := db.Exec("DELETE FROM kv WHERE key = ?", key)
	if err != nil {
		return errors.Wrapf(err, "deleting the value for %s", key)
	}

	return nil
}

// GetJSON reads the value under the given key and unmarshals it into dest.
// A value that fails to parse is treated the same as an absent key, so that a
// corrupt cache entry triggers re-fetch or migration instead of a crash.
func GetJSON(db *DB, key string, dest interface{}) (bool, error) {
	val, ok, err := Get(db, key)
	if err != nil {
		return false, errors.Wrap(err, "reading the cached value")
	}
	if !ok {
		return false, nil
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		log.Debug("discarding malformed cache entry %s: %v\n", key, err)
		return false, nil
	}

	return true, nil
}

// PutJSON marshals the given value and stores it under the given key
func PutJSON(db *DB, key string, value interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "marshalling the value for %s", key)
	}

	return Put(db, key, string(b))
}
