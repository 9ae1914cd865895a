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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/piprate/factom-did/chainio"
	"github.com/piprate/factom-did/internal/jsonw"
)

// chainFile is the on-disk representation of a chain file.Entries are
// stored in the order they were recorded; loadChainFile replays them
// into a fresh MemoryChainStore so the CLI never needs a live Factom
// node to create, extend or resolve a chain across separate
// invocations.
type chainFile struct {
	DIDChain string           `json:"didChain"`
	Network  string           `json:"network"`
	Entries  []chainFileEntry `json:"entries"`
}

type chainFileEntry struct {
	ExtIDs  [][]byte `json:"extIDs"`
	Content []byte   `json:"content"`
}

func newChainFile(didChain, network string) *chainFile {
	return &chainFile{DIDChain: didChain, Network: network}
}

func (f *chainFile) append(extIDs [][]byte, content []byte) {
	f.Entries = append(f.Entries, chainFileEntry{ExtIDs: extIDs, Content: content})
}

func (f *chainFile) save(path string) error {
	b, err := jsonw.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal chain file: %w", err)
	}
	return os.WriteFile(path, b, 0o600)
}

func loadChainFile(path string) (*chainFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chain file: %w", err)
	}
	var f chainFile
	if err := jsonw.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse chain file: %w", err)
	}
	return &f, nil
}

// openStore replays a chain file's entries into a fresh in-memory chain
// store and returns the store's own chain id alongside it, ready for
// WriteEntry/GetAllEntries calls.
func openStore(ctx context.Context, f *chainFile) (*chainio.MemoryChainStore, string, error) {
	store := chainio.NewMemoryChainStore()
	if len(f.Entries) == 0 {
		return nil, "", fmt.Errorf("chain file has no entries")
	}
	first := f.Entries[0]
	storeChainID, err := store.CreateChain(ctx, first.ExtIDs, first.Content)
	if err != nil {
		return nil, "", err
	}
	for _, e := range f.Entries[1:] {
		if _, err := store.WriteEntry(ctx, storeChainID, e.ExtIDs, e.Content); err != nil {
			return nil, "", err
		}
	}
	return store, storeChainID, nil
}
