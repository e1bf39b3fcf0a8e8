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

// Package buildinfo holds build-time information like the version.
package buildinfo

// Version is the current version of the premath control-plane tooling, set by
// the go linker's -X flag at build time.
var Version = "v0.9.0"

// MinimumContractVersion is the oldest control-plane contract revision this
// build accepts without a compatibility alias.
var MinimumContractVersion = "v0.8.0"
