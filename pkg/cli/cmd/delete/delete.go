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

package delete

import (
	"os"

	"github.com/dahtruth/storylab/pkg/cli/context"
	"github.com/dahtruth/storylab/pkg/cli/infra"
	"github.com/dahtruth/storylab/pkg/cli/log"
	"github.com/dahtruth/storylab/pkg/cli/project"
	"github.com/dahtruth/storylab/pkg/prompt"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  storylab delete proj_8a9f`

var yesFlag bool

// NewCmd returns a new delete command
func NewCmd(ctx context.StoryLabCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <project id>",
		Aliases: []string{"rm"},
		Short:   "Delete a project",
		Example: example,
		Args:    cobra.ExactArgs(1),
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&yesFlag, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func newRun(ctx context.StoryLabCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		id := args[0]

		if !yesFlag {
			log.Plainf("%s\n", prompt.FormatQuestion("delete the project and its mirrored copy?", false))

			confirmed, err := prompt.ReadYesNo(os.Stdin, false)
			if err != nil {
				return errors.Wrap(err, "reading the confirmation")
			}
			if !confirmed {
				log.Info("aborted\n")
				return nil
			}
		}

		if err := project.Delete(ctx, id); err != nil {
			return errors.Wrap(err, "deleting the project")
		}

		log.Successf("deleted %s\n", id)

		return nil
	}
}
