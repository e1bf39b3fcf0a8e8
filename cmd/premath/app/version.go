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

	version "github.com/hashicorp/go-version"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/premath/premath/pkg/buildinfo"
)

// NewCmdVersion reports the build version, optionally asserting a minimum.
func NewCmdVersion() *cobra.Command {
	var minVersion string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the premath version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(buildinfo.Version)
			if minVersion == "" {
				return nil
			}
			current, err := version.NewVersion(buildinfo.Version)
			if err != nil {
				return errors.Wrap(err, "parsing build version")
			}
			minimum, err := version.NewVersion(minVersion)
			if err != nil {
				return errors.Wrap(err, "parsing --min-version")
			}
			if current.LessThan(minimum) {
				return errors.Errorf("version %s is below the required minimum %s", current, minimum)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&minVersion, "min-version", "", "Fail unless the build version is at least this version")
	return cmd
}
