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

// Package client builds, signs and serializes did:factom on-chain
// entries: DIDManagement (create), DIDUpdate, DIDMethodVersionUpgrade and
// DIDDeactivation.
package client

const (
	// EntrySchemaV100 is the only entry content schema version currently
	// defined.
	EntrySchemaV100 = "1.0.0"

	// DIDMethodName is the did:factom method string.
	DIDMethodName = "did:factom"

	// DIDMethodSpecV020 is the DID method specification version this
	// resolver implements replay rules for.
	DIDMethodSpecV020 = "0.2.0"

	// EntrySizeLimit is the maximum size, in bytes, of any entry recorded
	// on a DID chain, computed per CalculateEntrySize.
	EntrySizeLimit = 10275

	// entryHeaderSize is the fixed overhead Factom charges for every
	// entry, independent of its ExtIDs or content.
	entryHeaderSize = 35
)
