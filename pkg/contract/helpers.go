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

package contract

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var epochRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Validation primitives. Every failure names the offending JSON path; the
// loader is fail-fast so the first error wins.

func reqObject(v interface{}, label string) (map[string]interface{}, error) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("%s must be an object", label)
	}
	return obj, nil
}

func reqString(v interface{}, label string) (string, error) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", errors.Errorf("%s must be a non-empty string", label)
	}
	return strings.TrimSpace(s), nil
}

func reqStringList(v interface{}, label string) ([]string, error) {
	raw, ok := v.([]interface{})
	if !ok || len(raw) == 0 {
		return nil, errors.Errorf("%s must be a non-empty list", label)
	}
	out := make([]string, 0, len(raw))
	seen := map[string]bool{}
	for idx, item := range raw {
		s, err := reqString(item, label+"["+strconv.Itoa(idx)+"]")
		if err != nil {
			return nil, err
		}
		out = append(out, s)
		seen[s] = true
	}
	if len(seen) != len(out) {
		return nil, errors.Errorf("%s must not contain duplicates", label)
	}
	return out, nil
}

func optStringList(v interface{}, label string) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	return reqStringList(v, label)
}

func reqCommandTokens(v interface{}, label string) ([]string, error) {
	raw, ok := v.([]interface{})
	if !ok || len(raw) == 0 {
		return nil, errors.Errorf("%s must be a non-empty list", label)
	}
	out := make([]string, 0, len(raw))
	for idx, item := range raw {
		s, err := reqString(item, label+"["+strconv.Itoa(idx)+"]")
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func reqCommandAliases(v interface{}, label string) ([][]string, error) {
	raw, ok := v.([]interface{})
	if !ok {
		return nil, errors.Errorf("%s must be a list", label)
	}
	out := make([][]string, 0, len(raw))
	seen := map[string]bool{}
	for idx, row := range raw {
		tokens, err := reqCommandTokens(row, label+"["+strconv.Itoa(idx)+"]")
		if err != nil {
			return nil, err
		}
		key := strings.Join(tokens, "\x00")
		if seen[key] {
			return nil, errors.Errorf("%s must not contain duplicate aliases", label)
		}
		seen[key] = true
		out = append(out, tokens)
	}
	return out, nil
}

func reqExactMembers(values, expected []string, label string) error {
	if !sameMembers(values, expected) {
		return errors.Errorf("%s must contain exactly: %s", label, strings.Join(expected, ", "))
	}
	return nil
}

func sameMembers(a, b []string) bool {
	if len(setOf(a)) != len(setOf(b)) {
		return false
	}
	bs := setOf(b)
	for _, v := range a {
		if !bs[v] {
			return false
		}
	}
	return true
}

func setOf(vs []string) map[string]bool {
	out := map[string]bool{}
	for _, v := range vs {
		out[v] = true
	}
	return out
}

func reqEpoch(v interface{}, label string) (string, error) {
	epoch, err := reqString(v, label)
	if err != nil {
		return "", err
	}
	if !epochRe.MatchString(epoch) {
		return "", errors.Errorf("%s must use YYYY-MM with zero-padded month", label)
	}
	return epoch, nil
}

func reqPositiveInt(v interface{}, label string) (int, error) {
	n, err := reqInt(v, label)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, errors.Errorf("%s must be >= 1", label)
	}
	return n, nil
}

func reqInt(v interface{}, label string) (int, error) {
	switch t := v.(type) {
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, errors.Errorf("%s must be an integer", label)
		}
		return int(n), nil
	case int:
		return t, nil
	case float64:
		if t != float64(int64(t)) {
			return 0, errors.Errorf("%s must be an integer", label)
		}
		return int(t), nil
	}
	return 0, errors.Errorf("%s must be an integer", label)
}

func reqBool(v interface{}, label string) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, errors.Errorf("%s must be a boolean", label)
	}
	return b, nil
}

func epochMonthIndex(epoch string) int {
	parts := strings.SplitN(epoch, "-", 2)
	year, _ := strconv.Atoi(parts[0])
	month, _ := strconv.Atoi(parts[1])
	return year*12 + month
}

func sortedKeys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
