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

package resolver_test

import (
	"context"
	"testing"

	"github.com/piprate/factom-did/chainio"
	"github.com/piprate/factom-did/client"
	"github.com/piprate/factom-did/client/keys"
	"github.com/piprate/factom-did/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEdDSAMaterial(t *testing.T) []byte {
	t.Helper()
	k, err := keys.GenerateEdDSA()
	require.NoError(t, err)
	return k.PrivateKeyBytes()
}

// chainFixture drives a DID through a sequence of entries against an
// in-memory chain store and returns everything a test needs to resolve
// it: the store's chain id, the DID's own chain id (the one embedded in
// key identifiers) and the recorded entries.
type chainFixture struct {
	t       *testing.T
	ctx     context.Context
	store   *chainio.MemoryChainStore
	storeID string
	did     *client.DID
}

func newChainFixture(t *testing.T) *chainFixture {
	t.Helper()
	did, err := client.GenerateDID(client.DIDMethodSpecV020)
	require.NoError(t, err)
	did.Testnet()
	return &chainFixture{t: t, ctx: context.Background(), store: chainio.NewMemoryChainStore(), did: did}
}

func (f *chainFixture) create() {
	data, err := f.did.ExportEntryData()
	require.NoError(f.t, err)
	chainID, err := f.store.CreateChain(f.ctx, data.ExtIDs, data.Content)
	require.NoError(f.t, err)
	f.storeID = chainID
}

func (f *chainFixture) write(data *client.EntryData) {
	_, err := f.store.WriteEntry(f.ctx, f.storeID, data.ExtIDs, data.Content)
	require.NoError(f.t, err)
}

func (f *chainFixture) resolve() *resolver.State {
	entries, err := f.store.GetAllEntries(f.ctx, f.storeID)
	require.NoError(f.t, err)
	st, err := resolver.ResolveDIDChain(entries, f.did.Chain(), client.Testnet)
	require.NoError(f.t, err)
	return st
}

func TestResolveDIDChain_FreshDID(t *testing.T) {
	f := newChainFixture(t)
	_, err := f.did.AddManagementKey("key-0", 0, client.EdDSA, "", nil, nil, newEdDSAMaterial(t))
	require.NoError(t, err)
	_, err = f.did.AddDIDKey("signing-key-1", []client.DIDKeyPurpose{client.AuthenticationKeyPurpose}, client.EdDSA, "", nil, nil, newEdDSAMaterial(t))
	require.NoError(t, err)
	_, err = f.did.AddService("photo-hosting", "PhotoStreamService", "https://myphoto.example.com", nil, nil)
	require.NoError(t, err)
	f.create()

	st := f.resolve()
	assert.Equal(t, 0, st.SkippedEntries)
	assert.Len(t, st.ActiveManagementKeys, 1)
	assert.Len(t, st.ActiveDIDKeys, 1)
	assert.Len(t, st.ActiveServices, 1)
	assert.Equal(t, client.DIDMethodSpecV020, st.MethodVersion)
}

func TestResolveDIDChain_UpdateAddsDIDKeySignedByLowestPriorityKey(t *testing.T) {
	f := newChainFixture(t)
	_, err := f.did.AddManagementKey("key-0", 0, client.EdDSA, "", nil, nil, newEdDSAMaterial(t))
	require.NoError(t, err)
	_, err = f.did.AddManagementKey("key-1", 1, client.EdDSA, "", nil, nil, newEdDSAMaterial(t))
	require.NoError(t, err)
	f.create()

	u, err := f.did.Update()
	require.NoError(t, err)
	_, err = u.AddDIDKey("auth-key-1", []client.DIDKeyPurpose{client.AuthenticationKeyPurpose}, client.EdDSA, "", nil, nil, newEdDSAMaterial(t))
	require.NoError(t, err)
	data, err := u.ExportEntryData()
	require.NoError(t, err)
	require.NotNil(t, data)
	f.write(data)

	st := f.resolve()
	assert.Equal(t, 0, st.SkippedEntries)
	assert.Len(t, st.ActiveManagementKeys, 2)
	assert.Len(t, st.ActiveDIDKeys, 1)
}

func TestResolveDIDChain_PurposeRevocationLeavesKeyActive(t *testing.T) {
	f := newChainFixture(t)
	_, err := f.did.AddManagementKey("key-0", 0, client.EdDSA, "", nil, nil, newEdDSAMaterial(t))
	require.NoError(t, err)
	_, err = f.did.AddDIDKey("signing-key-1",
		[]client.DIDKeyPurpose{client.PublicKeyPurpose, client.AuthenticationKeyPurpose},
		client.EdDSA, "", nil, nil, newEdDSAMaterial(t))
	require.NoError(t, err)
	f.create()

	u, err := f.did.Update()
	require.NoError(t, err)
	u.RevokeDIDKeyPurpose("signing-key-1", client.AuthenticationKeyPurpose)
	data, err := u.ExportEntryData()
	require.NoError(t, err)
	require.NotNil(t, data)
	f.write(data)

	st := f.resolve()
	assert.Equal(t, 0, st.SkippedEntries)
	require.Contains(t, st.ActiveDIDKeys, "signing-key-1")
	remaining := st.ActiveDIDKeys["signing-key-1"]
	assert.True(t, remaining.HasPurpose(client.PublicKeyPurpose))
	assert.False(t, remaining.HasPurpose(client.AuthenticationKeyPurpose))
}

// The builder refuses to export an update that would leave the DID with
// no priority-0 management key; the self-revocation rule itself is a
// resolver-side concern exercised directly in entry_processors_test.go,
// since this client never produces a non-priority-0 signing key.
func TestDIDUpdater_RefusesToDropLastPriorityZeroKey(t *testing.T) {
	f := newChainFixture(t)
	_, err := f.did.AddManagementKey("key-0", 0, client.EdDSA, "", nil, nil, newEdDSAMaterial(t))
	require.NoError(t, err)
	_, err = f.did.AddManagementKey("key-1", 1, client.EdDSA, "", nil, nil, newEdDSAMaterial(t))
	require.NoError(t, err)
	f.create()

	u, err := f.did.Update()
	require.NoError(t, err)
	u.RevokeManagementKey("key-0")
	data, err := u.ExportEntryData()
	require.ErrorIs(t, err, client.ErrNoPriorityZeroKey)
	assert.Nil(t, data)
}

func TestResolveDIDChain_VersionUpgradeSkipThenApply(t *testing.T) {
	f := newChainFixture(t)
	_, err := f.did.AddManagementKey("key-0", 0, client.EdDSA, "", nil, nil, newEdDSAMaterial(t))
	require.NoError(t, err)
	f.create()

	// An upgrade entry signed by a key alias that was never registered
	// on this chain is skipped rather than aborting resolution.
	bogusExtIDs := [][]byte{
		[]byte(client.EntryTypeVersionUpgrade),
		[]byte(client.EntrySchemaV100),
		[]byte(f.did.ID() + "#no-such-key"),
		[]byte("not-a-real-signature"),
	}
	_, err = f.store.WriteEntry(f.ctx, f.storeID, bogusExtIDs, []byte(`{"didMethodVersion":"0.3.0"}`))
	require.NoError(t, err)

	upgrader, err := f.did.MethodVersionUpgrade("0.3.0")
	require.NoError(t, err)
	data, err := upgrader.ExportEntryData()
	require.NoError(t, err)
	f.write(data)

	st := f.resolve()
	assert.Equal(t, 1, st.SkippedEntries)
	assert.Equal(t, "0.3.0", st.MethodVersion)
}

func TestResolveDIDChain_DeactivationIsTerminal(t *testing.T) {
	f := newChainFixture(t)
	_, err := f.did.AddManagementKey("key-0", 0, client.EdDSA, "", nil, nil, newEdDSAMaterial(t))
	require.NoError(t, err)
	f.create()

	deactivator, err := f.did.Deactivate()
	require.NoError(t, err)
	data, err := deactivator.ExportEntryData()
	require.NoError(t, err)
	f.write(data)

	// A well-formed, validly-signed update recorded after the
	// deactivation entry must still be skipped: deactivation is terminal
	// regardless of what comes after it on the chain.
	u, err := f.did.Update()
	require.NoError(t, err)
	_, err = u.AddDIDKey("late-key", []client.DIDKeyPurpose{client.PublicKeyPurpose}, client.EdDSA, "", nil, nil, newEdDSAMaterial(t))
	require.NoError(t, err)
	lateData, err := u.ExportEntryData()
	require.NoError(t, err)
	require.NotNil(t, lateData)
	f.write(lateData)

	st := f.resolve()
	assert.Equal(t, 1, st.SkippedEntries)
	assert.Empty(t, st.ActiveManagementKeys)
	assert.Empty(t, st.ActiveDIDKeys)
	assert.Empty(t, st.ActiveServices)
}

func TestResolveDIDChain_EmptyChainIsInvalid(t *testing.T) {
	_, err := resolver.ResolveDIDChain(nil, "deadbeef", client.Testnet)
	assert.ErrorIs(t, err, resolver.ErrInvalidDIDChain)
}

func TestResolveDIDChain_MalformedFirstEntryIsFatal(t *testing.T) {
	entries := []chainio.Entry{
		{ExtIDs: [][]byte{[]byte("not-a-valid-type")}, Content: []byte("{}")},
	}
	_, err := resolver.ResolveDIDChain(entries, "deadbeef", client.Testnet)
	assert.ErrorIs(t, err, resolver.ErrInvalidDIDChain)
}
