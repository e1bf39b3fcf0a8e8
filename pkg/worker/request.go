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

package worker

import (
	"bytes"
	"net/http"
	"os"

	"github.com/pkg/errors"
	"github.com/sethgrid/pester"
	"github.com/sirupsen/logrus"

	"github.com/premath/premath/pkg/canonical"
)

// DoRequest PUTs payload to url with retries. Transient transport failures
// are retried by the pester client; non-200 responses are errors.
func DoRequest(url string, payload []byte) error {
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrapf(err, "constructing aggregator request to %v", url)
	}
	req.Header.Set("Content-Type", "application/json")

	client := pester.New()
	client.MaxRetries = 5
	client.Backoff = pester.ExponentialBackoff
	client.KeepLog = true

	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "dialing aggregator at %v", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("got a %v response when dialing aggregator at %v", resp.StatusCode, url)
	}
	return nil
}

// UploadRequiredWitness reads a witness artifact from disk, re-encodes it
// canonically, and uploads it for the configured run.
func UploadRequiredWitness(cfg *Config, witnessPath string) error {
	raw, err := os.ReadFile(witnessPath)
	if err != nil {
		return errors.Wrapf(err, "reading witness artifact %v", witnessPath)
	}
	payload, err := canonical.DecodeBytes(raw)
	if err != nil {
		return errors.Wrapf(err, "witness artifact %v", witnessPath)
	}
	encoded, err := canonical.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "canonicalizing witness artifact %v", witnessPath)
	}

	url := cfg.AggregatorURL + "/api/v1/results/required/" + cfg.RunID
	logrus.WithFields(logrus.Fields{
		"url":     url,
		"witness": witnessPath,
	}).Info("uploading required witness")
	return DoRequest(url, encoded)
}
