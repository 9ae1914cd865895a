// Copyright 2022 Piprate Limited
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package resolver replays the entries of a DIDManagement chain and
// produces the DID's currently active management keys, DID keys and
// services.
package resolver

import "errors"

// ErrInvalidDIDChain is returned when the first entry on a chain is not
// a well-formed DIDManagement entry. It is the only fatal resolution
// error; every other per-entry problem is tolerated and counted in
// State.SkippedEntries instead.
var ErrInvalidDIDChain = errors.New("invalid DID chain")

// errMalformedManagementEntry is raised internally while parsing the
// first (Create) entry; applyFirstEntry turns it into ErrInvalidDIDChain.
var errMalformedManagementEntry = errors.New("malformed DIDManagement entry")
