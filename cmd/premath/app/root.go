/*
Copyright the Premath contributors 2026

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package app implements the premath CLI: thin cobra wrappers that read
// JSON artifacts, call the core, and print canonical JSON back.
package app

import (
	"github.com/spf13/cobra"

	"github.com/premath/premath/pkg/errlog"
)

// NewPremathCommand builds the root command with all subcommands attached.
func NewPremathCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "premath",
		Short: "Deterministic policy-and-witness compiler for the premath control plane",
		Long: "premath verifies KCIR stores, replays capability conformance vectors, " +
			"validates the governance contract, projects change-sets onto required checks, " +
			"and emits digest-bound witness decisions.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	cmd.PersistentFlags().BoolVarP(&errlog.DebugOutput, "debug", "d", false, "Enable debug output (includes stack traces)")
	cmd.PersistentFlags().Var(&errlog.LogLevel, "level", "Log level, one of {panic, fatal, error, warn, info, debug, trace}")

	cmd.AddCommand(NewCmdVersion())
	cmd.AddCommand(NewCmdKcir())
	cmd.AddCommand(NewCmdVectors())
	cmd.AddCommand(NewCmdContract())
	cmd.AddCommand(NewCmdDrift())
	cmd.AddCommand(NewCmdRequired())
	cmd.AddCommand(NewCmdAggregator())
	cmd.AddCommand(NewCmdWorker())
	return cmd
}
