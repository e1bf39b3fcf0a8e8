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

	"github.com/spf13/cobra"

	"github.com/premath/premath/pkg/canonical"
	"github.com/premath/premath/pkg/projection"
	"github.com/premath/premath/pkg/witness"
)

// NewCmdRequired groups the required-gate subcommands.
func NewCmdRequired() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "required",
		Short: "Project change-sets and verify required witnesses",
	}
	cmd.AddCommand(newCmdRequiredProject())
	cmd.AddCommand(newCmdRequiredVerify())
	cmd.AddCommand(newCmdRequiredDecide())
	return cmd
}

func newCmdRequiredProject() *cobra.Command {
	var changedPaths []string
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Map changed paths to the canonical required-check set",
		RunE: func(cmd *cobra.Command, args []string) error {
			proj := projection.Project(changedPaths)
			view := proj.PublicView()
			view["projectionDigest"] = proj.ProjectionDigest
			enc, err := canonical.Marshal(view)
			if err != nil {
				return err
			}
			fmt.Println(string(enc))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&changedPaths, "path", nil, "Changed path (repeatable)")
	return cmd
}

func newCmdRequiredVerify() *cobra.Command {
	var witnessPath string
	var changedPaths []string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a ci.required witness against the projection",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := readJSONObject(witnessPath)
			if err != nil {
				return err
			}
			verifyErrors, derived := witness.VerifyRequired(w, changedPaths, witness.Options{})
			payload := map[string]interface{}{
				"errors":           verifyErrors,
				"projectionDigest": derived.ProjectionDigest,
				"requiredChecks":   derived.RequiredChecks,
				"expectedVerdict":  derived.ExpectedVerdict,
			}
			enc, err := canonical.Marshal(payload)
			if err != nil {
				return err
			}
			fmt.Println(string(enc))
			if len(verifyErrors) > 0 {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&witnessPath, "witness", "", "Witness artifact JSON path")
	cmd.Flags().StringArrayVar(&changedPaths, "path", nil, "Changed path (repeatable)")
	_ = cmd.MarkFlagRequired("witness")
	return cmd
}

func newCmdRequiredDecide() *cobra.Command {
	var witnessPath, deltaPath, normalizerID, policyDigest string
	var changedPaths []string
	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Emit the digest-bound required decision",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := readJSONObject(witnessPath)
			if err != nil {
				return err
			}
			delta, err := readJSONObject(deltaPath)
			if err != nil {
				return err
			}
			decision, err := witness.BuildDecision(w, delta, changedPaths, normalizerID, policyDigest)
			if err != nil {
				return err
			}
			enc, err := canonical.Marshal(decision)
			if err != nil {
				return err
			}
			fmt.Println(string(enc))
			if decision.Decision != "accept" {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&witnessPath, "witness", "", "Witness artifact JSON path")
	cmd.Flags().StringVar(&deltaPath, "delta", "", "Delta snapshot JSON path")
	cmd.Flags().StringArrayVar(&changedPaths, "path", nil, "Changed path (repeatable)")
	cmd.Flags().StringVar(&normalizerID, "normalizer-id", "nf.v1", "Normalizer id bound into the typed-core digest")
	cmd.Flags().StringVar(&policyDigest, "policy-digest", projection.Policy, "Policy digest bound into the typed-core digest")
	_ = cmd.MarkFlagRequired("witness")
	_ = cmd.MarkFlagRequired("delta")
	return cmd
}
