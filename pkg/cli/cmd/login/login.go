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

package login

import (
	"bufio"
	"os"
	"strings"

	"github.com/dahtruth/storylab/pkg/cli/author"
	"github.com/dahtruth/storylab/pkg/cli/context"
	"github.com/dahtruth/storylab/pkg/cli/infra"
	"github.com/dahtruth/storylab/pkg/cli/log"
	"github.com/dahtruth/storylab/pkg/cli/project"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var emailFlag string

// NewCmd returns a new login command
func NewCmd(ctx context.StoryLabCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with an email to adopt a mirrored author identity",
		RunE:  newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVar(&emailFlag, "email", "", "the email the author identity was created with")

	return cmd
}

func newRun(ctx context.StoryLabCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		email := emailFlag
		if email == "" {
			log.Askf("email", false)

			input, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil {
				return errors.Wrap(err, "reading input")
			}
			email = strings.TrimSpace(input)
		}

		p, err := author.LoginWithEmail(ctx, email)
		if err != nil {
			if errors.Cause(err) == author.ErrNotFound {
				log.Error("no author found for that email. use `storylab setup` to create one.\n")
				return nil
			}

			return errors.Wrap(err, "logging in")
		}

		ctx.AuthorID = p.ID

		// pull the project index so listings work right away
		if _, err := project.List(ctx, project.ListOptions{RefreshFromCloud: true}); err != nil {
			log.Warnf("could not fetch the project index: %s\n", err)
		}

		log.Successf("logged in as %s\n", p.Name)

		return nil
	}
}
