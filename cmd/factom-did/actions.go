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
	"encoding/hex"
	"fmt"

	"github.com/piprate/factom-did/chainio"
	"github.com/piprate/factom-did/client"
	"github.com/piprate/factom-did/client/keys"
	"github.com/piprate/factom-did/resolver"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

var chainFlag = &cli.StringFlag{
	Name:     "chain-file",
	Usage:    "path to the local chain file",
	Required: true,
}

var networkFlag = &cli.StringFlag{
	Name:  "network",
	Usage: "mainnet or testnet",
	Value: "testnet",
}

var signingKeyFlags = []cli.Flag{
	&cli.StringFlag{
		Name:     "signing-key-alias",
		Usage:    "alias of the active management key to sign with",
		Required: true,
	},
	&cli.StringFlag{
		Name:     "signing-key-hex",
		Usage:    "hex-encoded private key material for signing-key-alias",
		Required: true,
	},
}

// attachSigner rebuilds the DID's signing-key-alias management key with
// its private material so the builder can sign, since a DID rebuilt
// from resolved chain state only ever carries public keys.
func attachSigner(c *cli.Context, did *client.DID) error {
	priv, err := hex.DecodeString(c.String("signing-key-hex"))
	if err != nil {
		return fmt.Errorf("decode signing-key-hex: %w", err)
	}
	return did.AttachSigningKey(c.String("signing-key-alias"), priv)
}

// CreateCommand generates a new DID with a single priority-0 management
// key, exports its DIDManagement entry and records it as the first
// entry of a new chain file.
var CreateCommand = &cli.Command{
	Name:  "create",
	Usage: "generate a new DID and write its creation entry to a chain file",
	Flags: []cli.Flag{
		chainFlag,
		networkFlag,
		&cli.StringFlag{
			Name:  "key-alias",
			Usage: "alias of the initial priority-0 management key",
			Value: "key-0",
		},
	},
	Action: func(c *cli.Context) error {
		did, err := client.GenerateDID(client.DIDMethodSpecV020)
		if err != nil {
			return fmt.Errorf("generate did: %w", err)
		}

		network, err := client.ParseNetwork(c.String("network"))
		if err != nil {
			return fmt.Errorf("parse network: %w", err)
		}
		if network == client.Mainnet {
			did.Mainnet()
		} else {
			did.Testnet()
		}

		key, err := keys.GenerateEdDSA()
		if err != nil {
			return fmt.Errorf("generate management key: %w", err)
		}
		if _, err := did.AddManagementKey(c.String("key-alias"), 0, client.EdDSA, "", nil, nil, key.PrivateKeyBytes()); err != nil {
			return fmt.Errorf("add management key: %w", err)
		}

		entry, err := did.ExportEntryData()
		if err != nil {
			return fmt.Errorf("export entry: %w", err)
		}

		f := newChainFile(did.Chain(), c.String("network"))
		f.append(entry.ExtIDs, entry.Content)
		if err := f.save(c.String("chain-file")); err != nil {
			return err
		}

		log.Info().Str("did", did.ID()).Str("signing-key-alias", c.String("key-alias")).Msg("created DID")
		fmt.Println(did.ID())
		fmt.Printf("signing-key-hex: %s\n", hex.EncodeToString(key.PrivateKeyBytes()))
		return nil
	},
}

// AddManagementKeyCommand loads a chain file, resolves it to find the
// current state, then signs and appends a DIDUpdate entry that adds a
// new management key.
var AddManagementKeyCommand = &cli.Command{
	Name:  "add-management-key",
	Usage: "append a DIDUpdate entry adding a management key",
	Flags: append([]cli.Flag{
		chainFlag,
		&cli.StringFlag{
			Name:     "alias",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "priority",
			Value: 1,
		},
	}, signingKeyFlags...),
	Action: func(c *cli.Context) error {
		ctx := context.Background()

		f, err := loadChainFile(c.String("chain-file"))
		if err != nil {
			return err
		}

		network, err := client.ParseNetwork(f.Network)
		if err != nil {
			return fmt.Errorf("parse network: %w", err)
		}

		store, storeChainID, err := openStore(ctx, f)
		if err != nil {
			return err
		}

		st, err := resolveChain(ctx, store, storeChainID, f.DIDChain, network)
		if err != nil {
			return err
		}

		did, err := stateToDID(f.DIDChain, network, st)
		if err != nil {
			return err
		}
		if err := attachSigner(c, did); err != nil {
			return err
		}

		newKey, err := keys.GenerateEdDSA()
		if err != nil {
			return fmt.Errorf("generate management key: %w", err)
		}

		updater, err := did.Update()
		if err != nil {
			return err
		}
		if _, err := updater.AddManagementKey(c.String("alias"), c.Int("priority"), client.EdDSA, "", nil, nil, newKey.PrivateKeyBytes()); err != nil {
			return fmt.Errorf("add management key: %w", err)
		}

		entry, err := updater.ExportEntryData()
		if err != nil {
			return fmt.Errorf("export entry: %w", err)
		}
		if entry == nil {
			return fmt.Errorf("update produced no changes")
		}

		if _, err := store.WriteEntry(ctx, storeChainID, entry.ExtIDs, entry.Content); err != nil {
			return err
		}
		f.append(entry.ExtIDs, entry.Content)
		if err := f.save(c.String("chain-file")); err != nil {
			return err
		}

		log.Info().Str("alias", c.String("alias")).Msg("added management key")
		fmt.Printf("signing-key-hex: %s\n", hex.EncodeToString(newKey.PrivateKeyBytes()))
		return nil
	},
}

// DeactivateCommand appends the terminal DIDDeactivation entry.
var DeactivateCommand = &cli.Command{
	Name:  "deactivate",
	Usage: "append the terminal DIDDeactivation entry",
	Flags: append([]cli.Flag{
		chainFlag,
	}, signingKeyFlags...),
	Action: func(c *cli.Context) error {
		ctx := context.Background()

		f, err := loadChainFile(c.String("chain-file"))
		if err != nil {
			return err
		}

		network, err := client.ParseNetwork(f.Network)
		if err != nil {
			return fmt.Errorf("parse network: %w", err)
		}

		store, storeChainID, err := openStore(ctx, f)
		if err != nil {
			return err
		}

		st, err := resolveChain(ctx, store, storeChainID, f.DIDChain, network)
		if err != nil {
			return err
		}

		did, err := stateToDID(f.DIDChain, network, st)
		if err != nil {
			return err
		}
		if err := attachSigner(c, did); err != nil {
			return err
		}

		deactivator, err := did.Deactivate()
		if err != nil {
			return err
		}
		entry, err := deactivator.ExportEntryData()
		if err != nil {
			return fmt.Errorf("export entry: %w", err)
		}

		if _, err := store.WriteEntry(ctx, storeChainID, entry.ExtIDs, entry.Content); err != nil {
			return err
		}
		f.append(entry.ExtIDs, entry.Content)
		if err := f.save(c.String("chain-file")); err != nil {
			return err
		}

		log.Info().Str("did", f.DIDChain).Msg("deactivated DID")
		return nil
	},
}

// ResolveCommand replays every entry in a chain file and prints the
// resulting state.
var ResolveCommand = &cli.Command{
	Name:  "resolve",
	Usage: "replay a chain file and print the resulting DID state",
	Flags: []cli.Flag{
		chainFlag,
	},
	Action: func(c *cli.Context) error {
		ctx := context.Background()

		f, err := loadChainFile(c.String("chain-file"))
		if err != nil {
			return err
		}

		network, err := client.ParseNetwork(f.Network)
		if err != nil {
			return fmt.Errorf("parse network: %w", err)
		}

		store, storeChainID, err := openStore(ctx, f)
		if err != nil {
			return err
		}

		st, err := resolveChain(ctx, store, storeChainID, f.DIDChain, network)
		if err != nil {
			return err
		}

		fmt.Printf("did:factom:%s:%s\n", f.Network, f.DIDChain)
		fmt.Printf("method version: %s\n", st.MethodVersion)
		fmt.Printf("management keys: %d\n", len(st.ActiveManagementKeys))
		fmt.Printf("did keys: %d\n", len(st.ActiveDIDKeys))
		fmt.Printf("services: %d\n", len(st.ActiveServices))
		fmt.Printf("skipped entries: %d\n", st.SkippedEntries)
		return nil
	},
}

func resolveChain(ctx context.Context, store *chainio.MemoryChainStore, storeChainID, didChain string, network client.Network) (*resolver.State, error) {
	entries, err := store.GetAllEntries(ctx, storeChainID)
	if err != nil {
		return nil, fmt.Errorf("read chain entries: %w", err)
	}
	return resolver.ResolveDIDChain(entries, didChain, network)
}

// stateToDID rebuilds an updatable DID builder from a resolved chain
// state, so CLI commands can drive the same Update/Deactivate builders
// the client package exposes instead of hand-assembling entries.
func stateToDID(didChain string, network client.Network, st *resolver.State) (*client.DID, error) {
	managementKeys := make([]*client.ManagementKey, 0, len(st.ActiveManagementKeys))
	for _, k := range st.ActiveManagementKeys {
		managementKeys = append(managementKeys, k)
	}
	didKeys := make([]*client.DIDKey, 0, len(st.ActiveDIDKeys))
	for _, k := range st.ActiveDIDKeys {
		didKeys = append(didKeys, k)
	}
	services := make([]*client.Service, 0, len(st.ActiveServices))
	for _, s := range st.ActiveServices {
		services = append(services, s)
	}

	did, err := client.FromState(didChain, network, st.MethodVersion, managementKeys, didKeys, services)
	if err != nil {
		return nil, fmt.Errorf("rebuild did from state: %w", err)
	}
	return did, nil
}
