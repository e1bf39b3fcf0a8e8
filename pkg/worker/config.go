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

// Package worker is the harness-side collaborator: it loads the worker
// configuration from the contract's env-key surface and uploads witness
// artifacts to the aggregator with retries.
package worker

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the worker configuration resolved from file and environment.
type Config struct {
	// AggregatorURL is the base URL of the aggregation server.
	AggregatorURL string `mapstructure:"aggregatorurl"`

	// RunID names the required run this worker reports for.
	RunID string `mapstructure:"runid"`

	// ActiveIssueID is the issue the harness session is bound to.
	ActiveIssueID string `mapstructure:"activeissueid"`

	// IssuesPath points at the append-only issue log.
	IssuesPath string `mapstructure:"issuespath"`

	// SessionPath points at the harness session file.
	SessionPath string `mapstructure:"sessionpath"`
}

func setConfigDefaults(c *Config) {
	c.SessionPath = ".premath/harness_session.json"
}

// LoadConfig loads the worker configuration from /etc/premath/worker.json or
// the working directory, with the contract's env keys taking precedence.
// A PREMATH_CONFIG env var forces a specific config file.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")
	v.SetConfigName("worker")
	v.AddConfigPath("/etc/premath")
	v.AddConfigPath(".")

	if forceCfg := os.Getenv("PREMATH_CONFIG"); forceCfg != "" {
		v.SetConfigFile(forceCfg)
	}

	// Env keys mirror the contract's harnessRetry surface.
	_ = v.BindEnv("aggregatorurl", "PREMATH_AGGREGATOR_URL")
	_ = v.BindEnv("runid", "PREMATH_RUN_ID")
	_ = v.BindEnv("activeissueid", "PREMATH_ACTIVE_ISSUE_ID", "PREMATH_ISSUE_ID")
	_ = v.BindEnv("issuespath", "PREMATH_ISSUES_PATH")
	_ = v.BindEnv("sessionpath", "PREMATH_HARNESS_SESSION_PATH")

	config := &Config{}
	setConfigDefaults(config)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine when the env carries everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.WithStack(err)
		}
	}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.WithStack(err)
	}
	if config.AggregatorURL == "" {
		return nil, errors.New("aggregator URL must be set (PREMATH_AGGREGATOR_URL)")
	}
	if config.RunID == "" {
		return nil, errors.New("run id must be set (PREMATH_RUN_ID)")
	}
	return config, nil
}
