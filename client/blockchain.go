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

package client

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
)

var hexStringRe = regexp.MustCompile(`^[0-9a-f]+$`)

// CalculateEntrySize returns the size, in bytes, that an entry with the
// given ExtIDs and content would occupy once recorded, per the
// method's fixed per-entry overhead plus the byte length of each field.
// Fields are raw bytes and count at their full length; for hex-encoded
// strings, which count at half their character length, use
// CalculateEntrySizeHex.
func CalculateEntrySize(extIDs [][]byte, content []byte) int {
	total := entryHeaderSize + 2*len(extIDs)
	for _, extID := range extIDs {
		total += len(extID)
	}
	total += len(content)
	return total
}

// CalculateEntrySizeHex is the hex-string-input variant of
// CalculateEntrySize, used when ExtIDs/content are represented as
// hex-encoded strings rather than raw bytes.
func CalculateEntrySizeHex(extIDs []string, content string) int {
	total := entryHeaderSize + 2*len(extIDs)
	for _, extID := range extIDs {
		total += len(extID) / 2
	}
	total += len(content) / 2
	return total
}

// CalculateChainID hashes each ExtID with SHA-256, concatenates the
// digests and hashes the result, producing the chain id for a DID
// created with these ExtIDs.
func CalculateChainID(extIDs [][]byte) string {
	h := sha256.New()
	for _, extID := range extIDs {
		digest := sha256.Sum256(extID)
		h.Write(digest[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
