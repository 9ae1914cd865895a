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

import "fmt"

// reservedServiceFields lists the entry-dict keys that belong to the
// Service type itself, as opposed to its custom fields.
var reservedServiceFields = map[string]bool{
	"id":                  true,
	"type":                true,
	"serviceEndpoint":     true,
	"priorityRequirement": true,
}

// Service is an endpoint associated with a DID, used to communicate
// with it or carry out tasks on its behalf (signatures, credential
// exchange, etc).
type Service struct {
	Alias               string
	ServiceType         string
	Endpoint            string
	PriorityRequirement *int
	CustomFields        map[string]any
}

// NewService validates its inputs and builds a Service.
func NewService(alias, serviceType, endpoint string, priorityRequirement *int, customFields map[string]any) (*Service, error) {
	if err := validateAlias(alias); err != nil {
		return nil, err
	}
	if serviceType == "" {
		return nil, fmt.Errorf("%w: service type is required", ErrValidation)
	}
	if err := validateServiceEndpoint(endpoint); err != nil {
		return nil, err
	}
	if err := validatePriorityRequirement(priorityRequirement); err != nil {
		return nil, err
	}
	for key := range customFields {
		if reservedServiceFields[key] {
			return nil, fmt.Errorf("%w: custom field %q collides with a reserved service field", ErrValidation, key)
		}
	}
	return &Service{
		Alias:               alias,
		ServiceType:         serviceType,
		Endpoint:            endpoint,
		PriorityRequirement: priorityRequirement,
		CustomFields:        customFields,
	}, nil
}

// FullID constructs the full id of the service: the owning DID plus the
// service's alias as a fragment.
func (s *Service) FullID(did string) string {
	return fmt.Sprintf("%s#%s", did, s.Alias)
}

// ToEntryDict renders the service as an on-chain entry-dict fragment.
func (s *Service) ToEntryDict(did, version string) (map[string]any, error) {
	if version != EntrySchemaV100 {
		return nil, fmt.Errorf("unknown schema version: %s", version)
	}
	d := map[string]any{
		"id":              s.FullID(did),
		"type":            s.ServiceType,
		"serviceEndpoint": s.Endpoint,
	}
	if s.PriorityRequirement != nil {
		d["priorityRequirement"] = *s.PriorityRequirement
	}
	for k, v := range s.CustomFields {
		d[k] = v
	}
	return d, nil
}

// ServiceFromEntryDict reconstructs a Service from its on-chain
// entry-dict representation.
func ServiceFromEntryDict(entryDict map[string]any, version string) (*Service, error) {
	if version != EntrySchemaV100 {
		return nil, fmt.Errorf("unknown schema version: %s", version)
	}
	custom := make(map[string]any)
	for k, v := range entryDict {
		if !reservedServiceFields[k] {
			custom[k] = v
		}
	}
	if len(custom) == 0 {
		custom = nil
	}
	return NewService(
		aliasFromFullID(stringField(entryDict, "id")),
		stringField(entryDict, "type"),
		stringField(entryDict, "serviceEndpoint"),
		priorityRequirementFromEntryDict(entryDict),
		custom,
	)
}
