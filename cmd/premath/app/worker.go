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
	"github.com/spf13/cobra"

	"github.com/premath/premath/pkg/worker"
)

// NewCmdWorker groups the harness-worker subcommands.
func NewCmdWorker() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Harness worker operations",
	}
	cmd.AddCommand(newCmdWorkerUpload())
	return cmd
}

func newCmdWorkerUpload() *cobra.Command {
	var witnessPath string
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a required witness artifact to the aggregator",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := worker.LoadConfig()
			if err != nil {
				return err
			}
			return worker.UploadRequiredWitness(cfg, witnessPath)
		},
	}
	cmd.Flags().StringVar(&witnessPath, "witness", "", "Witness artifact JSON path")
	_ = cmd.MarkFlagRequired("witness")
	return cmd
}
