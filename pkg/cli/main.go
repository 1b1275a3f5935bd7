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

package main

import (
	"os"
	"strings"

	"github.com/dahtruth/storylab/pkg/cli/infra"
	"github.com/dahtruth/storylab/pkg/cli/log"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	// commands
	deletecmd "github.com/dahtruth/storylab/pkg/cli/cmd/delete"
	"github.com/dahtruth/storylab/pkg/cli/cmd/list"
	"github.com/dahtruth/storylab/pkg/cli/cmd/login"
	"github.com/dahtruth/storylab/pkg/cli/cmd/logout"
	newcmd "github.com/dahtruth/storylab/pkg/cli/cmd/new"
	"github.com/dahtruth/storylab/pkg/cli/cmd/open"
	"github.com/dahtruth/storylab/pkg/cli/cmd/root"
	"github.com/dahtruth/storylab/pkg/cli/cmd/setup"
	"github.com/dahtruth/storylab/pkg/cli/cmd/sync"
	"github.com/dahtruth/storylab/pkg/cli/cmd/version"
)

// apiEndpoint and versionTag are populated during link time
var apiEndpoint string
var versionTag = "master"

// parseCachePath extracts the --cachePath flag value from command line
// arguments regardless of where it appears (before or after the subcommand).
// Returns empty string if not found.
func parseCachePath(args []string) string {
	for i, arg := range args {
		if strings.HasPrefix(arg, "--cachePath=") {
			return strings.TrimPrefix(arg, "--cachePath=")
		}
		if arg == "--cachePath" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func main() {
	// The cache must be open before cobra parses flags, so --cachePath is
	// extracted by hand here.
	cachePath := parseCachePath(os.Args[1:])

	ctx, err := infra.Init(versionTag, apiEndpoint, cachePath)
	if err != nil {
		panic(errors.Wrap(err, "initializing context"))
	}
	defer ctx.Cache.Close()

	root.Register(setup.NewCmd(*ctx))
	root.Register(login.NewCmd(*ctx))
	root.Register(logout.NewCmd(*ctx))
	root.Register(newcmd.NewCmd(*ctx))
	root.Register(list.NewCmd(*ctx))
	root.Register(open.NewCmd(*ctx))
	root.Register(deletecmd.NewCmd(*ctx))
	root.Register(sync.NewCmd(*ctx))
	root.Register(version.NewCmd(*ctx))

	if err := root.Execute(); err != nil {
		log.Errorf("%s\n", err.Error())
		os.Exit(1)
	}
}
