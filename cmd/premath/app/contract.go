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

	"github.com/spf13/cobra"

	"github.com/premath/premath/pkg/canonical"
	"github.com/premath/premath/pkg/contract"
)

// NewCmdContract groups the governance-contract subcommands.
func NewCmdContract() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contract",
		Short: "Validate the governance contract",
	}
	cmd.AddCommand(newCmdContractCheck())
	return cmd
}

func newCmdContractCheck() *cobra.Command {
	var contractPath string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Load and validate the control-plane contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := contract.LoadFile(contractPath)
			if err != nil {
				return err
			}
			summary := map[string]interface{}{
				"contractKind": c.ContractKind,
				"activeEpoch":  c.SchemaLifecycle.ActiveEpoch,
				"governance":   c.SchemaLifecycle.Governance.Mode,
				"rolloverEpoch": c.SchemaLifecycle.EpochDiscipline.RolloverEpoch,
				"checkOrder":   c.OrderedCheckIDs(),
			}
			enc, err := canonical.Marshal(summary)
			if err != nil {
				return err
			}
			fmt.Println(string(enc))
			return nil
		},
	}
	cmd.Flags().StringVar(&contractPath, "contract", "", "Control-plane contract JSON path")
	_ = cmd.MarkFlagRequired("contract")
	return cmd
}
