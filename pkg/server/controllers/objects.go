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

package controllers

import (
	"io"
	"net/http"

	mw "github.com/dahtruth/storylab/pkg/server/middleware"
	"github.com/dahtruth/storylab/pkg/server/store"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

// maxBodyBytes caps the size of an uploaded object body
const maxBodyBytes = 10 << 20

// NewObjects creates a new Objects controller
func NewObjects(s store.Store) *Objects {
	return &Objects{store: s}
}

// Objects is a controller for the object storage endpoints
type Objects struct {
	store store.Store
}

// Get handles GET /v1/objects/{key}
func (c *Objects) Get(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	body, ok, err := c.store.Get(key)
	if errors.Cause(err) == store.ErrInvalidKey {
		http.Error(w, "invalid key", http.StatusBadRequest)
		return
	}
	if err != nil {
		mw.DoError(w, "getting object", err, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// Put handles PUT /v1/objects/{key}
func (c *Objects) Put(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "reading body", http.StatusBadRequest)
		return
	}

	err = c.store.Put(key, body)
	if errors.Cause(err) == store.ErrInvalidKey {
		http.Error(w, "invalid key", http.StatusBadRequest)
		return
	}
	if err != nil {
		mw.DoError(w, "putting object", err, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /v1/objects/{key}
func (c *Objects) Delete(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	existed, err := c.store.Delete(key)
	if errors.Cause(err) == store.ErrInvalidKey {
		http.Error(w, "invalid key", http.StatusBadRequest)
		return
	}
	if err != nil {
		mw.DoError(w, "deleting object", err, http.StatusInternalServerError)
		return
	}
	if !existed {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
