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

package resolver

import "github.com/piprate/factom-did/client"

// State is the outcome of replaying a DIDManagement chain: the keys and
// services currently in effect, the method version in force, and a
// count of entries that were encountered but could not be applied.
type State struct {
	ActiveManagementKeys map[string]*client.ManagementKey
	ActiveDIDKeys        map[string]*client.DIDKey
	ActiveServices       map[string]*client.Service
	MethodVersion        string
	SkippedEntries       int
}

func newState() *State {
	return &State{
		ActiveManagementKeys: make(map[string]*client.ManagementKey),
		ActiveDIDKeys:        make(map[string]*client.DIDKey),
		ActiveServices:       make(map[string]*client.Service),
	}
}

// allKeysKey identifies a management or DID key that has ever been
// active on the chain, for the purposes of forbidding its reuse once
// revoked.
type allKeysKey struct {
	alias        string
	publicKeyHex string
	keyType      client.KeyType
}

func managementKeyIdentity(k *client.ManagementKey) allKeysKey {
	return allKeysKey{alias: k.Alias(), publicKeyHex: hexPublicKey(k.Underlying().PublicKeyBytes()), keyType: k.KeyType()}
}

func didKeyIdentity(k *client.DIDKey) allKeysKey {
	return allKeysKey{alias: k.Alias(), publicKeyHex: hexPublicKey(k.Underlying().PublicKeyBytes()), keyType: k.KeyType()}
}

func hexPublicKey(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexDigits[c>>4]
		out[i*2+1] = hexDigits[c&0x0f]
	}
	return string(out)
}
