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
	"net/http"

	mw "github.com/dahtruth/storylab/pkg/server/middleware"
	"github.com/gorilla/mux"
)

// Route represents a single route
type Route struct {
	Method    string
	Pattern   string
	Handler   http.HandlerFunc
	Auth      bool
	RateLimit bool
}

// RouteConfig is the configuration for routes
type RouteConfig struct {
	APIToken string
}

// NewAPIRoutes returns the api routes
func NewAPIRoutes(c *Controllers) []Route {
	return []Route{
		{"GET", "/health", c.Health.Index, false, true},

		{"GET", "/v1/objects/{key:.+}", c.Objects.Get, true, true},
		{"PUT", "/v1/objects/{key:.+}", c.Objects.Put, true, true},
		{"DELETE", "/v1/objects/{key:.+}", c.Objects.Delete, true, true},
	}
}

// NewRouter creates and returns a new router
func NewRouter(c *Controllers, rc RouteConfig) http.Handler {
	router := mux.NewRouter().StrictSlash(true)

	for _, route := range NewAPIRoutes(c) {
		var handler http.Handler = route.Handler
		if route.Auth {
			handler = mw.Auth(rc.APIToken, handler)
		}
		handler = mw.ApplyLimit(handler, route.RateLimit)

		router.
			Handle(route.Pattern, handler).
			Methods(route.Method)
	}

	return mw.Logging(router)
}
