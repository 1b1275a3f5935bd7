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

// Package testutils provides shared test helpers for the client packages
package testutils

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dahtruth/storylab/pkg/cli/cache"
	"github.com/dahtruth/storylab/pkg/cli/context"
	"github.com/dahtruth/storylab/pkg/clock"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// FakeMirror is an in-memory object store behind an httptest server,
// speaking the same object protocol as the real remote mirror.
type FakeMirror struct {
	mu       sync.Mutex
	objects  map[string][]byte
	putCount map[string]int
	failPuts bool

	Server *httptest.Server
}

// NewFakeMirror starts a fake mirror that is torn down with the test
func NewFakeMirror(t *testing.T) *FakeMirror {
	t.Helper()

	f := &FakeMirror{
		objects:  map[string][]byte{},
		putCount: map[string]int{},
	}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path[len("/v1/objects/"):]

		f.mu.Lock()
		defer f.mu.Unlock()

		switch r.Method {
		case "GET":
			body, ok := f.objects[key]
			if !ok {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			w.Write(body)
		case "PUT":
			if f.failPuts {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			body, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "reading body", http.StatusInternalServerError)
				return
			}
			f.objects[key] = body
			f.putCount[key]++
			w.WriteHeader(http.StatusOK)
		case "DELETE":
			if _, ok := f.objects[key]; !ok {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			delete(f.objects, key)
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	t.Cleanup(f.Server.Close)
	return f
}

// FailPuts makes subsequent PUT requests respond with a server error
func (f *FakeMirror) FailPuts(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPuts = fail
}

// Puts returns the number of PUT requests served for the given key
func (f *FakeMirror) Puts(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.putCount[key]
}

// Has reports whether an object exists under the given key
func (f *FakeMirror) Has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

// PutJSON stores a fixture object under the given key
func (f *FakeMirror) PutJSON(t *testing.T, key string, value interface{}) {
	t.Helper()

	b, err := json.Marshal(value)
	if err != nil {
		t.Fatal(errors.Wrap(err, "marshalling the fixture"))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = b
}

// GetJSON reads the object under the given key into dest, reporting presence
func (f *FakeMirror) GetJSON(t *testing.T, key string, dest interface{}) bool {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.objects[key]
	if !ok {
		return false
	}
	if err := json.Unmarshal(b, dest); err != nil {
		t.Fatal(errors.Wrap(err, "unmarshalling the fixture"))
	}

	return true
}

// NewCtx builds a runtime context backed by an in-memory cache and, if a fake
// mirror is given, pointed at it.
func NewCtx(t *testing.T, f *FakeMirror) context.StoryLabCtx {
	t.Helper()

	ctx := context.StoryLabCtx{
		Cache:    cache.InitTestDB(t),
		Clock:    clock.NewMock(),
		AuthorID: "author_test",
	}
	if f != nil {
		ctx.APIEndpoint = f.Server.URL
		ctx.HTTPClient = f.Server.Client()
	}

	return ctx
}
