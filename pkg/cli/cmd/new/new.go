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

package new

import (
	"github.com/dahtruth/storylab/pkg/cli/author"
	"github.com/dahtruth/storylab/pkg/cli/context"
	"github.com/dahtruth/storylab/pkg/cli/infra"
	"github.com/dahtruth/storylab/pkg/cli/log"
	"github.com/dahtruth/storylab/pkg/cli/project"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  storylab new "The Great Novel"`

var localOnly bool

// NewCmd returns a new new command
func NewCmd(ctx context.StoryLabCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "new <title>",
		Short:   "Create a project",
		Example: example,
		Args:    cobra.ExactArgs(1),
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVar(&localOnly, "local", false, "skip uploading the new project to the mirror")

	return cmd
}

func newRun(ctx context.StoryLabCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		title := args[0]

		var authorName string
		if prof, ok, err := author.Get(ctx); err != nil {
			return errors.Wrap(err, "reading the profile")
		} else if ok {
			authorName = prof.Name
		}

		p, err := project.Create(ctx, title, project.CreateOptions{
			AuthorName:  authorName,
			SaveToCloud: !localOnly,
		})
		if err != nil {
			return errors.Wrap(err, "creating the project")
		}

		log.Successf("created %s (%s)\n", p.Title, p.ID)

		return nil
	}
}
