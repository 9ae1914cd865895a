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
	"strings"
	"testing"

	"github.com/piprate/factom-did/client"
	"github.com/piprate/factom-did/client/keys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEdDSAKeyMaterial(t *testing.T) []byte {
	t.Helper()
	k, err := keys.GenerateEdDSA()
	require.NoError(t, err)
	return k.PrivateKeyBytes()
}

func TestGenerateDID_IsUnboundUntilNetworkChosen(t *testing.T) {
	did, err := client.GenerateDID(client.DIDMethodSpecV020)
	require.NoError(t, err)

	assert.Equal(t, client.Unspecified, did.Network())
	assert.True(t, strings.HasPrefix(did.ID(), "did:factom:"))
	assert.NotContains(t, did.ID(), "mainnet")
	assert.NotContains(t, did.ID(), "testnet")

	did.Testnet()
	assert.Equal(t, client.Testnet, did.Network())
	assert.Contains(t, did.ID(), "did:factom:testnet:")
	assert.Equal(t, did.ID(), "did:factom:testnet:"+did.Chain())
}

func TestDID_AddManagementKey_RejectsDuplicateAlias(t *testing.T) {
	did, err := client.GenerateDID(client.DIDMethodSpecV020)
	require.NoError(t, err)

	_, err = did.AddManagementKey("key-0", 0, client.EdDSA, "", nil, nil, newEdDSAKeyMaterial(t))
	require.NoError(t, err)

	_, err = did.AddManagementKey("key-0", 1, client.EdDSA, "", nil, nil, newEdDSAKeyMaterial(t))
	assert.ErrorIs(t, err, client.ErrDuplicateAlias)
}

func TestDID_AddService_UsesAliasNamespaceSeparateFromKeys(t *testing.T) {
	did, err := client.GenerateDID(client.DIDMethodSpecV020)
	require.NoError(t, err)

	_, err = did.AddManagementKey("key-0", 0, client.EdDSA, "", nil, nil, newEdDSAKeyMaterial(t))
	require.NoError(t, err)

	_, err = did.AddDIDKey("auth-1", []client.DIDKeyPurpose{client.AuthenticationKeyPurpose}, client.EdDSA, "", nil, nil, newEdDSAKeyMaterial(t))
	require.NoError(t, err)

	// Services use a separate alias namespace from keys, so a service
	// may reuse the same alias as the management key above.
	_, err = did.AddService("key-0", "PhotoStreamService", "https://example.com", nil, nil)
	require.NoError(t, err)

	assert.Len(t, did.ManagementKeys(), 1)
	assert.Len(t, did.DIDKeys(), 1)
	assert.Len(t, did.Services(), 1)
}

func TestDID_ExportEntryData_FailsWithoutManagementKeys(t *testing.T) {
	did, err := client.GenerateDID(client.DIDMethodSpecV020)
	require.NoError(t, err)

	_, err = did.ExportEntryData()
	assert.ErrorIs(t, err, client.ErrNoManagementKeys)
}

func TestDID_ExportEntryData_FailsWithoutPriorityZeroKey(t *testing.T) {
	did, err := client.GenerateDID(client.DIDMethodSpecV020)
	require.NoError(t, err)

	_, err = did.AddManagementKey("key-1", 1, client.EdDSA, "", nil, nil, newEdDSAKeyMaterial(t))
	require.NoError(t, err)

	_, err = did.ExportEntryData()
	assert.ErrorIs(t, err, client.ErrNoPriorityZeroKey)
}

func TestDID_ExportEntryData_Success(t *testing.T) {
	did, err := client.GenerateDID(client.DIDMethodSpecV020)
	require.NoError(t, err)
	did.Mainnet()

	_, err = did.AddManagementKey("key-0", 0, client.EdDSA, "", nil, nil, newEdDSAKeyMaterial(t))
	require.NoError(t, err)
	_, err = did.AddDIDKey("auth-1", []client.DIDKeyPurpose{client.AuthenticationKeyPurpose}, client.EdDSA, "", nil, nil, newEdDSAKeyMaterial(t))
	require.NoError(t, err)
	_, err = did.AddService("photo-hosting", "PhotoStreamService", "https://myphoto.example.com", nil, nil)
	require.NoError(t, err)

	data, err := did.ExportEntryData()
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, []byte(client.EntryTypeCreate), data.ExtIDs[0])
	assert.Equal(t, []byte(client.EntrySchemaV100), data.ExtIDs[1])
	assert.LessOrEqual(t, client.CalculateEntrySize(data.ExtIDs, data.Content), client.EntrySizeLimit)
}

func TestDID_Zero_PreventsFurtherSigning(t *testing.T) {
	did := newTestDID(t)
	did.Zero()

	_, err := did.ManagementKeys()[0].Underlying().Sign([]byte("deadbeef"))
	assert.Error(t, err)
}

func TestDID_Update_RequiresExistingManagementKey(t *testing.T) {
	did, err := client.GenerateDID(client.DIDMethodSpecV020)
	require.NoError(t, err)

	_, err = did.Update()
	assert.Error(t, err)
}
