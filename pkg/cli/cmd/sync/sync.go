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

package sync

import (
	"github.com/dahtruth/storylab/pkg/cli/author"
	"github.com/dahtruth/storylab/pkg/cli/context"
	"github.com/dahtruth/storylab/pkg/cli/infra"
	"github.com/dahtruth/storylab/pkg/cli/log"
	"github.com/dahtruth/storylab/pkg/cli/project"
	"github.com/dahtruth/storylab/pkg/cli/upgrade"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  storylab sync`

var apiEndpointFlag string

// NewCmd returns a new sync command
func NewCmd(ctx context.StoryLabCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sync",
		Aliases: []string{"s"},
		Short:   "Sync the profile and projects with the mirror",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVar(&apiEndpointFlag, "apiEndpoint", "", "mirror endpoint to connect to (defaults to value in config)")

	return cmd
}

func newRun(ctx context.StoryLabCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if apiEndpointFlag != "" {
			ctx.APIEndpoint = apiEndpointFlag
		}

		log.Infof("writing to %s\n", ctx.APIEndpoint)

		// push the profile
		if err := author.SyncToCloud(ctx); err != nil {
			if errors.Cause(err) == author.ErrNotFound {
				log.Error("no author identity. use `storylab setup` first.\n")
				return nil
			}

			return errors.Wrap(err, "uploading the profile")
		}

		// push the current project, if any
		if p, ok, err := project.GetCurrent(ctx); err != nil {
			return errors.Wrap(err, "reading the current project")
		} else if ok {
			if err := project.Save(ctx, &p, project.SaveOptions{UpdateIndex: true, CloudSync: true}); err != nil {
				return errors.Wrap(err, "uploading the current project")
			}
		}

		// pull the index, merging entry by entry
		entries, err := project.List(ctx, project.ListOptions{RefreshFromCloud: true})
		if err != nil {
			return errors.Wrap(err, "merging the project index")
		}

		log.Successf("done. %d project(s) in the index.\n", len(entries))

		if err := upgrade.Check(ctx); err != nil {
			log.Error(errors.Wrap(err, "checking for updates").Error())
		}

		return nil
	}
}
