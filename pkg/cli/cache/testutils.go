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
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// InitTestDB initializes an in-memory cache database with the current schema
func InitTestDB(t *testing.T) *DB {
	t.Helper()

	name := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	db, err := Open(name)
	if err != nil {
		t.Fatal(errors.Wrap(err, "opening in-memory database"))
	}

	if err := InitSchema(db); err != nil {
		t.Fatal(errors.Wrap(err, "initializing schema"))
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// MustPut writes a key-value pair and fails the test on error
func MustPut(t *testing.T, db *DB, key, value string) {
	t.Helper()

	if err := Put(db, key, value); err != nil {
		t.Fatal(errors.Wrapf(err, "putting %s", key))
	}
}

// MustPutJSON marshals and writes a value and fails the test on error
func MustPutJSON(t *testing.T, db *DB, key string, value interface{}) {
	t.Helper()

	if err := PutJSON(db, key, value); err != nil {
		t.Fatal(errors.Wrapf(err, "putting %s", key))
	}
}
