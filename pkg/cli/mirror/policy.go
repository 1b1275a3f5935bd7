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

package mirror

import (
	"github.com/dahtruth/storylab/pkg/cli/log"
	"github.com/pkg/errors"
)

// BestEffort runs a mirror operation whose failure must not fail the local
// operation. Errors are logged and dropped. Used for background mirroring
// where the local cache has already been written.
func BestEffort(op string, fn func() error) {
	if err := fn(); err != nil {
		log.Debug("best-effort %s failed: %v\n", op, err)
	}
}

// Required runs a mirror operation whose failure must surface to the caller.
// Used for explicit saves where the user needs confirmation of durability.
func Required(op string, fn func() error) error {
	if err := fn(); err != nil {
		return errors.Wrap(err, op)
	}

	return nil
}
