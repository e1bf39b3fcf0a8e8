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
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/premath/premath/pkg/aggregation"
)

// NewCmdAggregator serves the witness-aggregation endpoint.
func NewCmdAggregator() *cobra.Command {
	var listenAddr, runID string
	var changedPaths []string
	cmd := &cobra.Command{
		Use:   "aggregator",
		Short: "Serve the required-witness aggregation endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			agg := aggregation.NewAggregator([]aggregation.ExpectedResult{
				{RunID: runID, ChangedPaths: changedPaths},
			})
			server := &http.Server{
				Addr:              listenAddr,
				Handler:           agg.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				<-agg.Done()
				logrus.Info("all expected results received, shutting down")
				_ = server.Close()
			}()
			logrus.WithField("addr", listenAddr).Info("aggregator listening")
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			for id, result := range agg.Results() {
				logrus.WithFields(logrus.Fields{
					"runId":   id,
					"verdict": result.Verdict,
				}).Info("final result")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&listenAddr, "listen", ":8080", "Listen address")
	cmd.Flags().StringVar(&runID, "run-id", "", "Expected run id")
	cmd.Flags().StringArrayVar(&changedPaths, "path", nil, "Changed path for the expected run (repeatable)")
	_ = cmd.MarkFlagRequired("run-id")
	return cmd
}
