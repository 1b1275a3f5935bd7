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

package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// getBearerToken extracts the bearer token from the Authorization header. It
// returns an empty string if the header is absent or not a bearer scheme.
func getBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return parts[1]
}

// Auth guards the handler with a static API token. When the configured token
// is empty, authentication is disabled and all requests pass through.
func Auth(apiToken string, next http.Handler) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if apiToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		given := getBearerToken(r)
		if subtle.ConstantTimeCompare([]byte(given), []byte(apiToken)) != 1 {
			RespondUnauthorized(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}
