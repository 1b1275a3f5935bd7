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

package open

import (
	"github.com/dahtruth/storylab/pkg/cli/context"
	"github.com/dahtruth/storylab/pkg/cli/infra"
	"github.com/dahtruth/storylab/pkg/cli/log"
	"github.com/dahtruth/storylab/pkg/cli/project"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  * Open a project, preferring the local copy
  storylab open proj_8a9f

  * Open a project, fetching the mirror copy first
  storylab open proj_8a9f --cloud`

var preferCloud bool

// NewCmd returns a new open command
func NewCmd(ctx context.StoryLabCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "open <project id>",
		Short:   "Open a project as the current working copy",
		Example: example,
		Args:    cobra.ExactArgs(1),
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVar(&preferCloud, "cloud", false, "fetch the mirror copy instead of the local one")

	return cmd
}

func newRun(ctx context.StoryLabCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		p, err := project.Load(ctx, args[0], project.LoadOptions{PreferCloud: preferCloud})
		if err != nil {
			if errors.Cause(err) == project.ErrNotFound {
				log.Error("project not found\n")
				return nil
			}

			return errors.Wrap(err, "loading the project")
		}

		log.Successf("opened %s\n", p.Title)
		log.Plainf("%d chapter(s), %d words, last updated %s\n", len(p.Compose.Chapters), p.WordCount(), p.UpdatedAt)

		return nil
	}
}
