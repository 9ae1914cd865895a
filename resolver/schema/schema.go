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

// Package schema validates the shape of parsed entry content against
// the JSON Schema documents for the "1.0.0" entry schema version, one
// per entry type.
package schema

import (
	_ "embed"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed v1.0.0/did_management_entry.json
var didManagementEntrySchema string

//go:embed v1.0.0/did_update_entry.json
var didUpdateEntrySchema string

//go:embed v1.0.0/did_method_version_upgrade_entry.json
var didMethodVersionUpgradeEntrySchema string

var (
	didManagementLoader           = gojsonschema.NewStringLoader(didManagementEntrySchema)
	didUpdateLoader               = gojsonschema.NewStringLoader(didUpdateEntrySchema)
	didMethodVersionUpgradeLoader = gojsonschema.NewStringLoader(didMethodVersionUpgradeEntrySchema)
)

// ValidateManagementEntry validates a parsed DIDManagement entry's
// content against the v1.0.0 schema.
func ValidateManagementEntry(content any) error {
	return validate(didManagementLoader, content)
}

// ValidateUpdateEntry validates a parsed DIDUpdate entry's content
// against the v1.0.0 schema.
func ValidateUpdateEntry(content any) error {
	return validate(didUpdateLoader, content)
}

// ValidateMethodVersionUpgradeEntry validates a parsed
// DIDMethodVersionUpgrade entry's content against the v1.0.0 schema.
func ValidateMethodVersionUpgradeEntry(content any) error {
	return validate(didMethodVersionUpgradeLoader, content)
}

// ValidateEmptyEntry validates that a DIDDeactivation entry's content
// is empty, per the v1.0.0 schema.
func ValidateEmptyEntry(content []byte) error {
	if len(content) != 0 {
		return fmt.Errorf("invalid entry content: must be empty")
	}
	return nil
}

func validate(schemaLoader gojsonschema.JSONLoader, content any) error {
	documentLoader := gojsonschema.NewGoLoader(content)
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validate entry content: %w", err)
	}
	if !result.Valid() {
		return fmt.Errorf("invalid entry content: %s", result.Errors()[0].String())
	}
	return nil
}
