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
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/dahtruth/storylab/pkg/server/buildinfo"
	"github.com/dahtruth/storylab/pkg/server/config"
	"github.com/dahtruth/storylab/pkg/server/controllers"
	"github.com/dahtruth/storylab/pkg/server/log"
	"github.com/dahtruth/storylab/pkg/server/reconcile"
	"github.com/dahtruth/storylab/pkg/server/store"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

func initStore(cfg config.Config) (store.Store, error) {
	if cfg.UsePostgres() {
		s, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "initializing the postgres store")
		}

		log.Info("Using the postgres storage backend")
		return s, nil
	}

	s, err := store.NewDisk(cfg.DataDir)
	if err != nil {
		return nil, errors.Wrap(err, "initializing the disk store")
	}

	log.WithFields(log.Fields{
		"dataDir": cfg.DataDir,
	}).Info("Using the disk storage backend")
	return s, nil
}

func startCmd(args []string) {
	startFlags := flag.NewFlagSet("start", flag.ExitOnError)
	startFlags.Usage = func() {
		fmt.Printf(`Usage:
  storylab-server start [flags]

Flags:
`)
		startFlags.PrintDefaults()
	}

	appEnv := startFlags.String("appEnv", "", "Application environment (env: APP_ENV, default: PRODUCTION)")
	port := startFlags.String("port", "", "Server port (env: PORT, default: 3001)")
	dataDir := startFlags.String("dataDir", "", "Path to the object storage directory (env: DATA_DIR, default: $XDG_DATA_HOME/storylab-server)")
	databaseURL := startFlags.String("databaseUrl", "", "Postgres connection string. When set, objects are stored in postgres instead of the data directory (env: DATABASE_URL)")
	apiToken := startFlags.String("apiToken", "", "Static bearer token required on object requests. Empty disables authentication (env: API_TOKEN)")
	logLevel := startFlags.String("logLevel", "", "Log level: debug, info, warn, or error (env: LOG_LEVEL, default: info)")
	reconcileSchedule := startFlags.String("reconcileSchedule", "", "Cron schedule for index reconciliation (env: RECONCILE_SCHEDULE, default: @every 5m)")

	startFlags.Parse(args)

	cfg, err := config.New(config.Params{
		AppEnv:            *appEnv,
		Port:              *port,
		DataDir:           *dataDir,
		DatabaseURL:       *databaseURL,
		APIToken:          *apiToken,
		LogLevel:          *logLevel,
		ReconcileSchedule: *reconcileSchedule,
	})
	if err != nil {
		fmt.Printf("Error: %s\n\n", err)
		startFlags.Usage()
		os.Exit(1)
	}

	log.SetLevel(cfg.LogLevel)

	s, err := initStore(cfg)
	if err != nil {
		log.ErrorWrap(err, "initializing storage")
		os.Exit(1)
	}
	defer s.Close()

	c, err := reconcile.Schedule(s, cfg.ReconcileSchedule)
	if err != nil {
		log.ErrorWrap(err, "starting reconciliation")
		os.Exit(1)
	}
	defer c.Stop()

	ctl := controllers.New(s)
	router := controllers.NewRouter(ctl, controllers.RouteConfig{
		APIToken: cfg.APIToken,
	})

	log.WithFields(log.Fields{
		"version": buildinfo.Version,
		"port":    cfg.Port,
	}).Info("StoryLab server starting")

	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), router); err != nil {
		log.ErrorWrap(err, "server failed")
		os.Exit(1)
	}
}

func versionCmd() {
	fmt.Printf("storylab-server-%s\n", buildinfo.Version)
}

func rootCmd() {
	fmt.Printf(`StoryLab server - the remote mirror for StoryLab manuscripts

Usage:
  storylab-server [command] [flags]

Available commands:
  start: Start the server (use 'storylab-server start --help' for flags)
  version: Print the version
`)
}

func main() {
	// load environment variables from a .env file if one is present
	godotenv.Load()

	if len(os.Args) < 2 {
		rootCmd()
		return
	}

	cmd := os.Args[1]

	switch cmd {
	case "start":
		startCmd(os.Args[2:])
	case "version":
		versionCmd()
	default:
		fmt.Printf("Unknown command %s\n", cmd)
		rootCmd()
		os.Exit(1)
	}
}
