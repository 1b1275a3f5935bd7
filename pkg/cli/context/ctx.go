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

// Package context defines the storylab runtime context
package context

import (
	"net/http"
	"time"

	"github.com/dahtruth/storylab/pkg/cli/cache"
	"github.com/dahtruth/storylab/pkg/clock"
)

// Paths contain directory definitions
type Paths struct {
	Home   string
	Config string
	Data   string
	Cache  string
}

// StoryLabCtx is a context holding the information of the current runtime
type StoryLabCtx struct {
	Paths              Paths
	APIEndpoint        string
	APIToken           string
	Version            string
	Cache              *cache.DB
	AuthorID           string
	Clock              clock.Clock
	AutosaveInterval   time.Duration
	EnableUpgradeCheck bool
	HTTPClient         *http.Client
}

// Redact replaces private information from the context with a set of
// placeholder values.
func Redact(ctx StoryLabCtx) StoryLabCtx {
	var token string
	if ctx.APIToken != "" {
		token = "1"
	} else {
		token = "0"
	}
	ctx.APIToken = token

	return ctx
}
