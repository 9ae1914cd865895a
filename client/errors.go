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

import "errors"

// Sentinel errors returned by the builder and entity-model APIs. Callers
// should use errors.Is against these, not string matching.
var (
	// ErrValidation marks a value that failed field-level validation: a
	// malformed alias, DID, endpoint URL or priority requirement.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateAlias marks an attempt to add a key or service whose
	// alias is already in use on the DID.
	ErrDuplicateAlias = errors.New("duplicate alias")

	// ErrInvalidKeyMaterial is returned when key bytes supplied to a
	// builder cannot be parsed or do not match their claimed key type.
	ErrInvalidKeyMaterial = errors.New("invalid key material")

	// ErrEntrySizeExceeded is returned when a built entry would exceed
	// EntrySizeLimit.
	ErrEntrySizeExceeded = errors.New("entry exceeds maximum size")

	// ErrNoManagementKeys is returned when a Create entry is exported
	// with no management keys defined.
	ErrNoManagementKeys = errors.New("at least one management key is required")

	// ErrNoPriorityZeroKey is returned when a Create entry is exported
	// with no priority-0 management key.
	ErrNoPriorityZeroKey = errors.New("at least one priority-0 management key is required")

	// ErrInsufficientPriority is returned when the key chosen to sign an
	// update does not meet the priority requirement of the fields it
	// touches.
	ErrInsufficientPriority = errors.New("signing key priority is insufficient")

	// ErrNotAnUpgrade is returned when a version upgrade entry's target
	// version is not strictly greater than the current method version.
	ErrNotAnUpgrade = errors.New("target version is not greater than current version")
)
