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

// Package store provides backends for the mirror's object storage. Objects
// are opaque JSON bodies addressed by path-like keys.
package store

import (
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Object is one stored object
type Object struct {
	Key       string
	Body      []byte
	UpdatedAt time.Time
}

// Store is the interface for an object storage backend
type Store interface {
	// Get returns the body stored under the key. Presence is reported by
	// the boolean, not an error.
	Get(key string) ([]byte, bool, error)
	// Put stores the body under the key, replacing any existing object
	Put(key string, body []byte) error
	// Delete removes the object under the key, reporting whether it existed
	Delete(key string) (bool, error)
	// List returns all objects whose key starts with the given prefix
	List(prefix string) ([]Object, error)
	// Close releases the backend's resources
	Close() error
}

// ErrInvalidKey is an error for a key that is not a well-formed object path
var ErrInvalidKey = errors.New("invalid object key")

// keys are slash-separated path segments of a restricted character set, which
// keeps them safe to map onto a filesystem
var validKeyRegexp = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+(/[a-zA-Z0-9_\-.]+)*$`)

// ValidateKey checks that the given key is a well-formed object path with no
// empty or relative segments
func ValidateKey(key string) error {
	if key == "" || len(key) > 512 {
		return ErrInvalidKey
	}
	if !validKeyRegexp.MatchString(key) {
		return ErrInvalidKey
	}

	for _, segment := range strings.Split(key, "/") {
		if segment == "." || segment == ".." {
			return ErrInvalidKey
		}
	}

	return nil
}
