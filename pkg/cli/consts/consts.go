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

// Package consts provides definitions of constants
package consts

var (
	// StoryLabDirName is the name of the directory containing storylab files
	StoryLabDirName = "storylab"
	// CacheDBFileName is a filename for the local cache SQLite database
	CacheDBFileName = "storylab.db"
	// ConfigFilename is the name of the config file
	ConfigFilename = "storylabrc"
)

// Local cache keys for current-shape data
var (
	// CacheKeyAuthorProfile is the cache key for the author profile
	CacheKeyAuthorProfile = "author_profile"
	// CacheKeyAuthorID is the cache key for the stable author id
	CacheKeyAuthorID = "author_id"
	// CacheKeyProjectsIndex is the cache key for the project index
	CacheKeyProjectsIndex = "projects_index"
	// CacheKeyCurrentProject is the cache key for the current project body
	CacheKeyCurrentProject = "current_project"
	// CacheKeyCurrentProjectID is the cache key for the current project pointer
	CacheKeyCurrentProjectID = "current_project_id"
)

// Local cache keys for legacy-shape data. They predate projects being
// first-class entities and are read by the one-time migration. Never written.
var (
	// LegacyKeyChapters is the legacy cache key holding the chapter list
	LegacyKeyChapters = "story_chapters"
	// LegacyKeyMetadata is the legacy cache key holding story metadata
	LegacyKeyMetadata = "story_metadata"
	// LegacyKeyCover is the legacy cache key holding the cover design
	LegacyKeyCover = "cover_design"
	// LegacyKeyProfile is the legacy cache key holding the old profile shape
	LegacyKeyProfile = "user_profile"
)

// System table keys
var (
	// SystemSchema is the key for schema in the system table
	SystemSchema = "schema"
	// SystemProjectMigration marks the one-time legacy project migration as done
	SystemProjectMigration = "legacy_project_migration"
	// SystemLastUpgrade is the timestamp at which the system most recently checked for an upgrade
	SystemLastUpgrade = "last_upgrade"
	// SystemAPIToken is an opaque bearer token for the remote mirror, if any
	SystemAPIToken = "api_token"
)
