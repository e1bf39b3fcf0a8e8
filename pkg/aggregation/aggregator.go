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

// Package aggregation hosts the HTTP server harness workers upload their
// ci.required witness artifacts to. Each upload is verified against the
// deterministic projection on receipt; the aggregator only tracks results,
// it never mutates core state.
package aggregation

import (
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/premath/premath/pkg/canonical"
	"github.com/premath/premath/pkg/witness"
)

const maxWitnessBytes = 8 << 20

// ExpectedResult names one required-witness upload the aggregator waits for.
type ExpectedResult struct {
	RunID        string
	ChangedPaths []string
}

// Result is a received upload and its verification outcome.
type Result struct {
	RunID        string   `json:"runId"`
	Verdict      string   `json:"verdict"`
	Errors       []string `json:"errors"`
	WitnessSha256 string  `json:"witnessSha256"`
}

// Aggregator tracks expected results, verifies uploads, and reports
// completion. All state is in-memory and guarded by a single mutex.
type Aggregator struct {
	mu sync.Mutex

	serverID string
	expected map[string]ExpectedResult
	results  map[string]*Result
	done     chan struct{}
}

// NewAggregator builds an aggregator expecting the given uploads.
func NewAggregator(expected []ExpectedResult) *Aggregator {
	byRun := map[string]ExpectedResult{}
	for _, e := range expected {
		byRun[e.RunID] = e
	}
	return &Aggregator{
		serverID: uuid.New().String(),
		expected: byRun,
		results:  map[string]*Result{},
		done:     make(chan struct{}),
	}
}

// Handler wires the aggregator's routes.
func (a *Aggregator) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/api/v1/results/required/{runID}", a.handleRequiredResult).Methods(http.MethodPut)
	router.HandleFunc("/api/v1/status", a.handleStatus).Methods(http.MethodGet)
	return router
}

// Done is closed once every expected result has been received.
func (a *Aggregator) Done() <-chan struct{} {
	return a.done
}

// Results snapshots the received results keyed by run id.
func (a *Aggregator) Results() map[string]Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := map[string]Result{}
	for runID, result := range a.results {
		out[runID] = *result
	}
	return out
}

func (a *Aggregator) handleRequiredResult(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["runID"]
	log := logrus.WithFields(logrus.Fields{"server": a.serverID, "runId": runID})

	a.mu.Lock()
	expected, ok := a.expected[runID]
	a.mu.Unlock()
	if !ok {
		log.Warn("unexpected result upload")
		http.Error(w, "unexpected run id", http.StatusForbidden)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWitnessBytes))
	if err != nil {
		log.WithError(err).Error("reading witness upload")
		http.Error(w, "could not read request body", http.StatusBadRequest)
		return
	}
	payload, err := canonical.DecodeObject(body)
	if err != nil {
		log.WithError(errors.Wrap(err, "decoding witness upload")).Error("bad witness payload")
		http.Error(w, "witness payload must be a JSON object", http.StatusBadRequest)
		return
	}

	verifyErrors, derived := witness.VerifyRequired(payload, expected.ChangedPaths, witness.Options{})
	sha, err := canonical.StableHash(payload)
	if err != nil {
		http.Error(w, "witness payload is not canonically encodable", http.StatusBadRequest)
		return
	}
	result := &Result{
		RunID:         runID,
		Errors:        verifyErrors,
		WitnessSha256: sha,
	}
	if len(verifyErrors) == 0 {
		result.Verdict = derived.ExpectedVerdict
	} else {
		result.Verdict = "rejected"
	}

	a.mu.Lock()
	_, duplicate := a.results[runID]
	a.results[runID] = result
	complete := len(a.results) == len(a.expected)
	a.mu.Unlock()

	if duplicate {
		log.Info("replacing previously uploaded result")
	}
	log.WithFields(logrus.Fields{"verdict": result.Verdict, "errors": len(verifyErrors)}).Info("recorded required result")
	if complete {
		a.closeDone()
	}
	w.WriteHeader(http.StatusOK)
}

func (a *Aggregator) closeDone() {
	a.mu.Lock()
	defer a.mu.Unlock()
	select {
	case <-a.done:
	default:
		close(a.done)
	}
}

func (a *Aggregator) handleStatus(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	received := len(a.results)
	expected := len(a.expected)
	verdicts := map[string]string{}
	for runID, result := range a.results {
		verdicts[runID] = result.Verdict
	}
	a.mu.Unlock()

	payload := map[string]interface{}{
		"serverId": a.serverID,
		"expected": expected,
		"received": received,
		"complete": received == expected,
		"verdicts": verdicts,
	}
	enc, err := canonical.Marshal(payload)
	if err != nil {
		http.Error(w, "status encoding failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(enc)
}
