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

package logout

import (
	"github.com/dahtruth/storylab/pkg/cli/author"
	"github.com/dahtruth/storylab/pkg/cli/context"
	"github.com/dahtruth/storylab/pkg/cli/infra"
	"github.com/dahtruth/storylab/pkg/cli/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// NewCmd returns a new logout command
func NewCmd(ctx context.StoryLabCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Clear the local author identity",
		Long:  "Clear local references to the author. The mirrored copy is not deleted.",
		RunE:  newRun(ctx),
	}

	return cmd
}

func newRun(ctx context.StoryLabCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if _, ok, err := author.Get(ctx); err != nil {
			return errors.Wrap(err, "reading the profile")
		} else if !ok {
			log.Info("not logged in\n")
			return nil
		}

		if err := author.Logout(ctx); err != nil {
			return errors.Wrap(err, "logging out")
		}

		log.Success("logged out\n")

		return nil
	}
}
