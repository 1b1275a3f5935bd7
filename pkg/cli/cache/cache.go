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

// Package cache provides the on-device persistent key-value store. Serialized
// entities survive process restarts here and are mirrored to the remote
// asynchronously by the callers.
package cache

import (
	"database/sql"

	"github.com/pkg/errors"
)

// DB is a handle to the local cache database. It wraps either a connection or
// an open transaction so that callers can run the same statements in both.
type DB struct {
	conn *sql.DB
	tx   *sql.Tx
}

// Open opens a cache database at the given path
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening the database")
	}

	return &DB{conn: conn}, nil
}

// Close closes the underlying connection. It is a no-op on a transaction handle.
func (d *DB) Close() error {
	if d.conn == nil {
		return nil
	}

	return d.conn.Close()
}

// Begin starts a transaction and returns a handle scoped to it
func (d *DB) Begin() (*DB, error) {
	if d.tx != nil {
		return nil, errors.New("transaction already in progress")
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "beginning a transaction")
	}

	return &DB{conn: d.conn, tx: tx}, nil
}

// Commit commits the transaction
func (d *DB) Commit() error {
	if d.tx == nil {
		return errors.New("not in a transaction")
	}

	return d.tx.Commit()
}

// Rollback aborts the transaction
func (d *DB) Rollback() error {
	if d.tx == nil {
		return errors.New("not in a transaction")
	}

	return d.tx.Rollback()
}

// Exec executes the given statement
func (d *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	if d.tx != nil {
		return d.tx.Exec(query, args...)
	}

	return d.conn.Exec(query, args...)
}

// Query runs the given query
func (d *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	if d.tx != nil {
		return d.tx.Query(query, args...)
	}

	return d.conn.Query(query, args...)
}

// QueryRow runs the given query returning at most one row
func (d *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	if d.tx != nil {
		return d.tx.QueryRow(query, args...)
	}

	return d.conn.QueryRow(query, args...)
}

// InitSchema creates the cache tables if they do not exist
func InitSchema(db *DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv
		(
			key text PRIMARY KEY,
			value text NOT NULL
		)`)
	if err != nil {
		return errors.Wrap(err, "creating kv table")
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS system
		(
			key string NOT NULL,
			value text NOT NULL
		)`)
	if err != nil {
		return errors.Wrap(err, "creating system table")
	}

	_, err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_system_key ON system(key);`)
	if err != nil {
		return errors.Wrap(err, "creating indices")
	}

	return nil
}
