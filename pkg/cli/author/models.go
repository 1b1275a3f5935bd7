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

package author

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/dahtruth/storylab/pkg/clock"
	"github.com/google/uuid"
)

// SocialLinks holds the author's public links
type SocialLinks struct {
	Website   string `json:"website,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Instagram string `json:"instagram,omitempty"`
}

// Preferences holds author-editable defaults
type Preferences struct {
	DefaultGenre            string `json:"defaultGenre,omitempty"`
	TargetWordCount         int    `json:"targetWordCount"`
	Theme                   string `json:"theme"`
	AIProvider              string `json:"aiProvider,omitempty"`
	AutosaveEnabled         bool   `json:"autosaveEnabled"`
	AutosaveIntervalSeconds int    `json:"autosaveIntervalSeconds"`
}

// Profile is the identity and preferences for one author. The id is immutable
// once created; logout clears local references but never deletes the remote copy.
type Profile struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email,omitempty"`
	CreatedAt   string      `json:"createdAt"`
	UpdatedAt   string      `json:"updatedAt"`
	Tagline     string      `json:"tagline,omitempty"`
	Bio         string      `json:"bio,omitempty"`
	AvatarURL   string      `json:"avatarUrl,omitempty"`
	Genres      []string    `json:"genres,omitempty"`
	Links       SocialLinks `json:"links"`
	Preferences Preferences `json:"preferences"`
}

// DefaultPreferences returns the preferences a fresh profile starts with
func DefaultPreferences() Preferences {
	return Preferences{
		TargetWordCount:         50000,
		Theme:                   "light",
		AutosaveEnabled:         true,
		AutosaveIntervalSeconds: 3,
	}
}

// DeriveID produces a stable author id. With an email it is a deterministic
// hash of the normalized form, so the same email yields the same id on every
// device. Without an email the id is random and the author cannot later be
// found by email from another device.
func DeriveID(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return fmt.Sprintf("author_%s", strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
	}

	sum := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("author_%x", sum[:8])
}

// CreateProfile builds a profile with a derived id and default preferences.
// It does not persist anything.
func CreateProfile(c clock.Clock, name, email string) Profile {
	now := clock.NowTimestamp(c)

	return Profile{
		ID:          DeriveID(email),
		Name:        name,
		Email:       strings.TrimSpace(email),
		CreatedAt:   now,
		UpdatedAt:   now,
		Genres:      []string{},
		Preferences: DefaultPreferences(),
	}
}

// Patch describes a shallow merge into a profile. Nil fields are left
// untouched; Preferences is deep-merged field by field.
type Patch struct {
	Name      *string           `json:"name,omitempty"`
	Email     *string           `json:"email,omitempty"`
	Tagline   *string           `json:"tagline,omitempty"`
	Bio       *string           `json:"bio,omitempty"`
	AvatarURL *string           `json:"avatarUrl,omitempty"`
	Genres    *[]string         `json:"genres,omitempty"`
	Links     *SocialLinks      `json:"links,omitempty"`
	Prefs     *PreferencesPatch `json:"preferences,omitempty"`
}

// PreferencesPatch describes a partial update to preferences
type PreferencesPatch struct {
	DefaultGenre            *string `json:"defaultGenre,omitempty"`
	TargetWordCount         *int    `json:"targetWordCount,omitempty"`
	Theme                   *string `json:"theme,omitempty"`
	AIProvider              *string `json:"aiProvider,omitempty"`
	AutosaveEnabled         *bool   `json:"autosaveEnabled,omitempty"`
	AutosaveIntervalSeconds *int    `json:"autosaveIntervalSeconds,omitempty"`
}

// apply merges the patch into the profile. The id is never touched.
func (p Patch) apply(profile *Profile) {
	if p.Name != nil {
		profile.Name = *p.Name
	}
	if p.Email != nil {
		profile.Email = *p.Email
	}
	if p.Tagline != nil {
		profile.Tagline = *p.Tagline
	}
	if p.Bio != nil {
		profile.Bio = *p.Bio
	}
	if p.AvatarURL != nil {
		profile.AvatarURL = *p.AvatarURL
	}
	if p.Genres != nil {
		profile.Genres = *p.Genres
	}
	if p.Links != nil {
		profile.Links = *p.Links
	}
	if p.Prefs != nil {
		p.Prefs.apply(&profile.Preferences)
	}
}

func (p PreferencesPatch) apply(prefs *Preferences) {
	if p.DefaultGenre != nil {
		prefs.DefaultGenre = *p.DefaultGenre
	}
	if p.TargetWordCount != nil {
		prefs.TargetWordCount = *p.TargetWordCount
	}
	if p.Theme != nil {
		prefs.Theme = *p.Theme
	}
	if p.AIProvider != nil {
		prefs.AIProvider = *p.AIProvider
	}
	if p.AutosaveEnabled != nil {
		prefs.AutosaveEnabled = *p.AutosaveEnabled
	}
	if p.AutosaveIntervalSeconds != nil {
		prefs.AutosaveIntervalSeconds = *p.AutosaveIntervalSeconds
	}
}
