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
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/premath/premath/pkg/canonical"
	"github.com/premath/premath/pkg/kcir"
	"github.com/premath/premath/pkg/kcir/worlds"
)

// NewCmdKcir groups the KCIR subcommands.
func NewCmdKcir() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kcir",
		Short: "Verify KCIR stores",
	}
	cmd.AddCommand(newCmdKcirVerify())
	return cmd
}

func newCmdKcirVerify() *cobra.Command {
	var storeDir, worldName string
	var collectAll bool
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify every node in a KCIR store against a world",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := loadStoreDir(storeDir)
			if err != nil {
				return err
			}
			world, err := worlds.Get(worldName)
			if err != nil {
				return err
			}
			result, err := kcir.Verify(store, world, kcir.Options{CollectAll: collectAll})
			verdict := kcir.Verdict{Verdict: "rejected", FailureClasses: []string{}}
			if err != nil {
				ve, ok := err.(*kcir.VerifyError)
				if !ok {
					return err
				}
				verdict.FailureClasses = []string{ve.Class}
			} else {
				verdict = result.Verdict()
			}
			enc, encErr := canonical.Marshal(map[string]interface{}{
				"verdict":        verdict.Verdict,
				"failureClasses": verdict.FailureClasses,
			})
			if encErr != nil {
				return encErr
			}
			fmt.Println(string(enc))
			if verdict.Verdict != "accepted" {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&storeDir, "store", "", "Store directory with certs/, obj/, prims/, covers/")
	cmd.Flags().StringVar(&worldName, "world", "sheaf_bits", "World to discharge obligations against")
	cmd.Flags().BoolVar(&collectAll, "collect-all", false, "Fixture mode: verify every node and collect all failure classes")
	_ = cmd.MarkFlagRequired("store")
	return cmd
}

// loadStoreDir reads the on-disk fixture layout: certs/<hex>.bin,
// obj/<hex>.bin, prims/<hex>.json, covers/<hex>.json.
func loadStoreDir(root string) (*kcir.Store, error) {
	store := kcir.NewStore()

	if err := eachFile(filepath.Join(root, "certs"), ".bin", func(ref canonical.Digest256, raw []byte) error {
		store.Certs[ref] = raw
		return nil
	}); err != nil {
		return nil, err
	}
	if err := eachFile(filepath.Join(root, "obj"), ".bin", func(ref canonical.Digest256, raw []byte) error {
		store.Obj[ref] = raw
		return nil
	}); err != nil {
		return nil, err
	}
	if err := eachFile(filepath.Join(root, "prims"), ".json", func(ref canonical.Digest256, raw []byte) error {
		obj, err := canonical.DecodeObject(raw)
		if err != nil {
			return err
		}
		mask, err := maskOf(obj["mask"])
		if err != nil {
			return errors.Wrapf(err, "prim %s", ref.Hex())
		}
		store.Prims[ref] = kcir.PrimEntry{Mask: mask, Value: obj["value"]}
		return nil
	}); err != nil {
		return nil, err
	}
	if err := eachFile(filepath.Join(root, "covers"), ".json", func(ref canonical.Digest256, raw []byte) error {
		obj, err := canonical.DecodeObject(raw)
		if err != nil {
			return err
		}
		base, err := maskOf(obj["baseMask"])
		if err != nil {
			return errors.Wrapf(err, "cover %s", ref.Hex())
		}
		legsRaw, ok := obj["legs"].([]interface{})
		if !ok {
			return errors.Errorf("cover %s legs must be a list", ref.Hex())
		}
		legs := make([]uint32, 0, len(legsRaw))
		for _, legRaw := range legsRaw {
			leg, err := maskOf(legRaw)
			if err != nil {
				return errors.Wrapf(err, "cover %s", ref.Hex())
			}
			legs = append(legs, leg)
		}
		store.Covers[ref] = kcir.CoverData{BaseMask: base, Legs: legs}
		return nil
	}); err != nil {
		return nil, err
	}
	return store, nil
}

func eachFile(dir, ext string, visit func(ref canonical.Digest256, raw []byte) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "reading store directory %s", dir)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		ref, err := canonical.ParseDigest256(strings.TrimSuffix(entry.Name(), ext))
		if err != nil {
			return errors.Wrapf(err, "store entry %s", entry.Name())
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return errors.Wrapf(err, "reading store entry %s", entry.Name())
		}
		if err := visit(ref, raw); err != nil {
			return err
		}
	}
	return nil
}

func maskOf(v interface{}) (uint32, error) {
	type inter interface{ Int64() (int64, error) }
	switch t := v.(type) {
	case inter:
		n, err := t.Int64()
		if err != nil || n < 0 || n > int64(^uint32(0)) {
			return 0, errors.New("mask must be a u32 integer")
		}
		return uint32(n), nil
	case float64:
		if t < 0 || t != float64(uint32(t)) {
			return 0, errors.New("mask must be a u32 integer")
		}
		return uint32(t), nil
	}
	return 0, errors.New("mask must be a u32 integer")
}
