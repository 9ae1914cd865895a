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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagementKey_RejectsNegativePriority(t *testing.T) {
	_, err := client.NewManagementKey("key-0", -1, client.EdDSA, "did:factom:"+strings.Repeat("a", 64), nil, nil, newEdDSAKeyMaterial(t))
	assert.ErrorIs(t, err, client.ErrValidation)
}

func TestManagementKey_ToEntryDictAndBack_RoundTrips(t *testing.T) {
	controller := "did:factom:" + strings.Repeat("a", 64)
	key, err := client.NewManagementKey("key-0", 0, client.EdDSA, controller, nil, nil, newEdDSAKeyMaterial(t))
	require.NoError(t, err)

	dict, err := key.ToEntryDict(controller, client.EntrySchemaV100)
	require.NoError(t, err)
	assert.Equal(t, controller+"#key-0", dict["id"])
	assert.Equal(t, 0, dict["priority"])

	rebuilt, err := client.ManagementKeyFromEntryDict(dict, client.EntrySchemaV100)
	require.NoError(t, err)
	assert.Equal(t, "key-0", rebuilt.Alias())
	assert.Equal(t, 0, rebuilt.Priority)
	assert.Equal(t, key.Underlying().PublicKeyBytes(), rebuilt.Underlying().PublicKeyBytes())
}

func TestNewDIDKey_RejectsEmptyOrDuplicatePurpose(t *testing.T) {
	controller := "did:factom:" + strings.Repeat("a", 64)
	_, err := client.NewDIDKey("auth-1", nil, client.EdDSA, controller, nil, nil, newEdDSAKeyMaterial(t))
	assert.ErrorIs(t, err, client.ErrValidation)

	_, err = client.NewDIDKey("auth-1",
		[]client.DIDKeyPurpose{client.PublicKeyPurpose, client.PublicKeyPurpose},
		client.EdDSA, controller, nil, nil, newEdDSAKeyMaterial(t))
	assert.ErrorIs(t, err, client.ErrValidation)
}

func TestDIDKey_HasPurpose(t *testing.T) {
	controller := "did:factom:" + strings.Repeat("a", 64)
	key, err := client.NewDIDKey("auth-1",
		[]client.DIDKeyPurpose{client.PublicKeyPurpose, client.AuthenticationKeyPurpose},
		client.EdDSA, controller, nil, nil, newEdDSAKeyMaterial(t))
	require.NoError(t, err)

	assert.True(t, key.HasPurpose(client.PublicKeyPurpose))
	assert.True(t, key.HasPurpose(client.AuthenticationKeyPurpose))
	assert.False(t, key.HasPurpose(client.DIDKeyPurpose("bogus")))
}

func TestNewService_RejectsReservedCustomField(t *testing.T) {
	_, err := client.NewService("svc-1", "PhotoStreamService", "https://example.com", nil,
		map[string]any{"serviceEndpoint": "https://evil.example.com"})
	assert.ErrorIs(t, err, client.ErrValidation)
}

func TestService_ToEntryDictAndBack_RoundTrips(t *testing.T) {
	controller := "did:factom:" + strings.Repeat("a", 64)
	svc, err := client.NewService("svc-1", "PhotoStreamService", "https://example.com", nil,
		map[string]any{"description": "family photos"})
	require.NoError(t, err)

	dict, err := svc.ToEntryDict(controller, client.EntrySchemaV100)
	require.NoError(t, err)
	assert.Equal(t, controller+"#svc-1", dict["id"])
	assert.Equal(t, "family photos", dict["description"])

	rebuilt, err := client.ServiceFromEntryDict(dict, client.EntrySchemaV100)
	require.NoError(t, err)
	assert.Equal(t, "svc-1", rebuilt.Alias)
	assert.Equal(t, "family photos", rebuilt.CustomFields["description"])
}
