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

package list

import (
	"github.com/dahtruth/storylab/pkg/cli/context"
	"github.com/dahtruth/storylab/pkg/cli/infra"
	"github.com/dahtruth/storylab/pkg/cli/log"
	"github.com/dahtruth/storylab/pkg/cli/project"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  * List all projects
  storylab list

  * List projects after merging in the mirror index
  storylab list --refresh`

var refreshFlag bool

// NewCmd returns a new list command
func NewCmd(ctx context.StoryLabCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVar(&refreshFlag, "refresh", false, "merge the mirror index before listing")

	return cmd
}

func newRun(ctx context.StoryLabCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		entries, err := project.List(ctx, project.ListOptions{RefreshFromCloud: refreshFlag})
		if err != nil {
			return errors.Wrap(err, "listing projects")
		}

		if len(entries) == 0 {
			log.Info("no projects. use `storylab new` to create one.\n")
			return nil
		}

		currentID, err := project.CurrentID(ctx)
		if err != nil {
			return errors.Wrap(err, "reading the current project")
		}

		log.Infof("%d project(s)\n", len(entries))
		for _, e := range entries {
			marker := " "
			if e.ID == currentID {
				marker = "*"
			}

			log.Plainf("%s %s  %s  %d words  %d chapter(s)  %s\n", marker, e.ID, e.Title, e.WordCount, e.ChapterCount, e.UpdatedAt)
		}

		return nil
	}
}
