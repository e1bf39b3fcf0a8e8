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

package app

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/premath/premath/pkg/vectors"
)

// NewCmdVectors groups the conformance-vector subcommands.
func NewCmdVectors() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vectors",
		Short: "Run executable capability conformance vectors",
	}
	cmd.AddCommand(newCmdVectorsRun())
	return cmd
}

func newCmdVectorsRun() *cobra.Command {
	var registryPath, fixturesRoot string
	var capabilities []string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Replay capability vectors against the fixed predicates",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(registryPath)
			if err != nil {
				return errors.Wrapf(err, "reading capability registry %s", registryPath)
			}
			executable, err := vectors.LoadExecutableCapabilities(raw)
			if err != nil {
				return err
			}
			info, err := os.Stat(fixturesRoot)
			if err != nil || !info.IsDir() {
				return errors.Errorf("fixtures path is not a directory: %s", fixturesRoot)
			}

			report, err := vectors.Run(vectors.DirLoader{Root: fixturesRoot}, executable, capabilities)
			if err != nil {
				return err
			}
			for _, runErr := range report.Errors {
				logrus.Error(runErr)
			}
			fmt.Printf("checked %d vectors, %d errors\n", report.Checked, len(report.Errors))
			if !report.Accepted() {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&registryPath, "registry", "", "Capability registry artifact path")
	cmd.Flags().StringVar(&fixturesRoot, "fixtures", "", "Capability fixture root")
	cmd.Flags().StringArrayVar(&capabilities, "capability", nil, "Capability ID to run (repeatable; default: all registry capabilities)")
	_ = cmd.MarkFlagRequired("registry")
	_ = cmd.MarkFlagRequired("fixtures")
	return cmd
}
