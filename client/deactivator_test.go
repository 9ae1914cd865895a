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
	"testing"

	"github.com/piprate/factom-did/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDIDDeactivator_ExportEntryData_Success(t *testing.T) {
	did := newTestDID(t)

	d, err := did.Deactivate()
	require.NoError(t, err)

	data, err := d.ExportEntryData()
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, []byte(client.EntryTypeDeactivation), data.ExtIDs[0])
	assert.Empty(t, data.Content)
}

func TestDIDDeactivator_ExportEntryData_RequiresPriorityZeroSigner(t *testing.T) {
	did, err := client.GenerateDID(client.DIDMethodSpecV020)
	require.NoError(t, err)
	_, err = did.AddManagementKey("key-1", 1, client.EdDSA, "", nil, nil, newEdDSAKeyMaterial(t))
	require.NoError(t, err)

	d, err := did.Deactivate()
	require.NoError(t, err)

	data, err := d.ExportEntryData()
	assert.ErrorIs(t, err, client.ErrNoPriorityZeroKey)
	assert.Nil(t, data)
}
