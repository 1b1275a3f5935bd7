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
	"testing"

	"github.com/dahtruth/storylab/pkg/assert"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

func TestGetPut(t *testing.T) {
	db := InitTestDB(t)

	_, ok, err := Get(db, "missing")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting a missing key"))
	}
	assert.Equal(t, ok, false, "missing key should not be found")

	MustPut(t, db, "greeting", "hello")

	val, ok, err := Get(db, "greeting")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting the key"))
	}
	assert.Equal(t, ok, true, "key should be found")
	assert.Equal(t, val, "hello", "value mismatch")

	// overwrite
	MustPut(t, db, "greeting", "goodbye")

	val, _, err = Get(db, "greeting")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting the key after overwrite"))
	}
	assert.Equal(t, val, "goodbye", "value mismatch after overwrite")
}

func TestDelete(t *testing.T) {
	db := InitTestDB(t)

	MustPut(t, db, "k1", "v1")

	if err := Delete(db, "k1"); err != nil {
		t.Fatal(errors.Wrap(err, "deleting the key"))
	}

	_, ok, err := Get(db, "k1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting the deleted key"))
	}
	assert.Equal(t, ok, false, "deleted key should not be found")

	// deleting an absent key is not an error
	if err := Delete(db, "k1"); err != nil {
		t.Fatal(errors.Wrap(err, "deleting an absent key"))
	}
}

type testEntity struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJSONRoundTrip(t *testing.T) {
	db := InitTestDB(t)

	if err := PutJSON(db, "entity", testEntity{Name: "draft", Count: 3}); err != nil {
		t.Fatal(errors.Wrap(err, "putting json"))
	}

	var got testEntity
	ok, err := GetJSON(db, "entity", &got)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting json"))
	}
	assert.Equal(t, ok, true, "entity should be found")
	assert.DeepEqual(t, got, testEntity{Name: "draft", Count: 3}, "entity mismatch")
}

func TestGetJSONMalformed(t *testing.T) {
	db := InitTestDB(t)

	// a corrupt entry reads as absent rather than failing
	MustPut(t, db, "entity", "{not-json")

	var got testEntity
	ok, err := GetJSON(db, "entity", &got)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting malformed json"))
	}
	assert.Equal(t, ok, false, "malformed entry should read as absent")
}

func TestSystem(t *testing.T) {
	db := InitTestDB(t)

	if err := UpsertSystem(db, "schema", 1); err != nil {
		t.Fatal(errors.Wrap(err, "inserting system config"))
	}

	var schema int
	if err := GetSystem(db, "schema", &schema); err != nil {
		t.Fatal(errors.Wrap(err, "getting system config"))
	}
	assert.Equal(t, schema, 1, "schema mismatch")

	if err := UpsertSystem(db, "schema", 2); err != nil {
		t.Fatal(errors.Wrap(err, "updating system config"))
	}
	if err := GetSystem(db, "schema", &schema); err != nil {
		t.Fatal(errors.Wrap(err, "getting system config after update"))
	}
	assert.Equal(t, schema, 2, "schema mismatch after update")

	if err := DeleteSystem(db, "schema"); err != nil {
		t.Fatal(errors.Wrap(err, "deleting system config"))
	}
	err := GetSystem(db, "schema", &schema)
	assert.Equal(t, IsNoRows(err), true, "deleted system config should be absent")
}

func TestTransaction(t *testing.T) {
	db := InitTestDB(t)

	tx, err := db.Begin()
	if err != nil {
		t.Fatal(errors.Wrap(err, "beginning a transaction"))
	}

	MustPut(t, tx, "k1", "v1")

	if err := tx.Rollback(); err != nil {
		t.Fatal(errors.Wrap(err, "rolling back"))
	}

	_, ok, err := Get(db, "k1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting the key"))
	}
	assert.Equal(t, ok, false, "rolled back write should not be visible")
}
