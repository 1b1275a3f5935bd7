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

package setup

import (
	"bufio"
	"os"
	"strings"

	"github.com/dahtruth/storylab/pkg/cli/author"
	"github.com/dahtruth/storylab/pkg/cli/context"
	"github.com/dahtruth/storylab/pkg/cli/infra"
	"github.com/dahtruth/storylab/pkg/cli/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  * Set up an author identity with an email, enabling login from other devices
  storylab setup --name "Ava" --email a@example.com

  * Set up a local-only author identity
  storylab setup --name "Ava"`

var nameFlag string
var emailFlag string

// NewCmd returns a new setup command
func NewCmd(ctx context.StoryLabCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "setup",
		Short:   "Set up the author identity",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVar(&nameFlag, "name", "", "the author name")
	f.StringVar(&emailFlag, "email", "", "the author email, used to derive a stable id")

	return cmd
}

func readInput(msg string) (string, error) {
	log.Askf(msg, false)

	input, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", errors.Wrap(err, "reading input")
	}

	return strings.TrimSpace(input), nil
}

func newRun(ctx context.StoryLabCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if _, ok, err := author.Get(ctx); err != nil {
			return errors.Wrap(err, "checking for an existing profile")
		} else if ok {
			log.Info("an author profile already exists. use `storylab login` to switch authors.\n")
			return nil
		}

		name := nameFlag
		if name == "" {
			var err error
			name, err = readInput("name")
			if err != nil {
				return err
			}
		}

		email := emailFlag
		if email == "" {
			var err error
			email, err = readInput("email (optional, press enter to skip)")
			if err != nil {
				return err
			}
		}

		p, err := author.Setup(ctx, name, email, nil)
		if err != nil {
			return errors.Wrap(err, "setting up the author identity")
		}

		log.Successf("welcome, %s\n", p.Name)
		if p.Email == "" {
			log.Warnf("no email given. you will not be able to log in from another device.\n")
		}

		return nil
	}
}
