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

package client_test

import (
	"encoding/hex"
	"testing"

	"github.com/piprate/factom-did/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateEntrySize_MatchesHexVariant(t *testing.T) {
	extIDs := [][]byte{[]byte("DIDManagement"), []byte("1.0.0")}
	content := []byte(`{"didMethodVersion":"0.2.0"}`)

	size := client.CalculateEntrySize(extIDs, content)

	hexExtIDs := make([]string, len(extIDs))
	for i, e := range extIDs {
		hexExtIDs[i] = hex.EncodeToString(e)
	}
	hexSize := client.CalculateEntrySizeHex(hexExtIDs, hex.EncodeToString(content))

	assert.Equal(t, size, hexSize)
}

func TestCalculateEntrySize_GrowsWithContent(t *testing.T) {
	extIDs := [][]byte{[]byte("DIDManagement"), []byte("1.0.0")}
	small := client.CalculateEntrySize(extIDs, []byte("{}"))
	large := client.CalculateEntrySize(extIDs, make([]byte, 200))
	assert.Less(t, small, large)
}

// These two ExtIDs contribute a fixed 13+5=18 bytes of payload plus
// 2*2=4 bytes of per-ExtID overhead on top of the 35-byte entry header,
// for a fixed 57-byte base independent of content length. Content sizes
// below are chosen by hand against that base, not derived from
// CalculateEntrySize itself, so an off-by-one in entryHeaderSize would
// actually be caught here.
func TestCalculateEntrySize_ExactlyAtLimitIsAccepted(t *testing.T) {
	extIDs := [][]byte{[]byte("DIDManagement"), []byte("1.0.0")}
	content := make([]byte, 10218)

	size := client.CalculateEntrySize(extIDs, content)

	require.Equal(t, client.EntrySizeLimit, size)
	assert.LessOrEqual(t, size, client.EntrySizeLimit)
}

func TestCalculateEntrySize_OneByteOverLimitIsRejected(t *testing.T) {
	extIDs := [][]byte{[]byte("DIDManagement"), []byte("1.0.0")}
	content := make([]byte, 10219)

	size := client.CalculateEntrySize(extIDs, content)

	require.Equal(t, client.EntrySizeLimit+1, size)
	assert.Greater(t, size, client.EntrySizeLimit)
}

func TestCalculateChainID_DeterministicAndOrderSensitive(t *testing.T) {
	extIDs := [][]byte{[]byte("DIDManagement"), []byte("1.0.0"), []byte("random-nonce")}
	id1 := client.CalculateChainID(extIDs)
	id2 := client.CalculateChainID(extIDs)
	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 64)

	reordered := [][]byte{extIDs[2], extIDs[0], extIDs[1]}
	id3 := client.CalculateChainID(reordered)
	assert.NotEqual(t, id1, id3)
}
