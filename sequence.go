/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package netflowgen

import (
	"fmt"
	"sync"
)

// ExporterKey names the logical exporter a flow entry belongs to. Packets within
// one key are emitted and counted in a strict total order; keys have no ordering
// relationship to each other.
//
// Domain carries engine_type<<8|engine_id for v5, source_id for v9, and
// observation_domain_id for IPFIX. v7 has no cross-flow sequence sharing, so every
// v7 entry is its own singleton keyed by its position in the flows list.
type ExporterKey struct {
	Version string
	Domain  uint32
	Entry   int
}

func (k ExporterKey) String() string {
	if k.Version == VersionV7 {
		return fmt.Sprintf("%s/entry=%d", k.Version, k.Entry)
	}
	return fmt.Sprintf("%s/domain=%d", k.Version, k.Domain)
}

// exporterKey classifies one flow entry. index is the entry's position in the
// flows list and only distinguishes v7 singletons.
func exporterKey(index int, f *Flow) ExporterKey {
	switch f.Version {
	case VersionV5:
		var engineType, engineId uint8
		if h := f.V5.Header; h != nil {
			if h.EngineType != nil {
				engineType = *h.EngineType
			}
			if h.EngineId != nil {
				engineId = *h.EngineId
			}
		}
		return ExporterKey{Version: VersionV5, Domain: uint32(engineType)<<8 | uint32(engineId)}
	case VersionV7:
		return ExporterKey{Version: VersionV7, Entry: index}
	case VersionV9:
		domain := uint32(1)
		if h := f.V9.Header; h != nil && h.SourceId != nil {
			domain = *h.SourceId
		}
		return ExporterKey{Version: VersionV9, Domain: domain}
	case VersionIPFIX:
		domain := uint32(1)
		if h := f.IPFIX.Header; h != nil && h.ObservationDomainId != nil {
			domain = *h.ObservationDomainId
		}
		return ExporterKey{Version: VersionIPFIX, Domain: domain}
	}
	return ExporterKey{Version: f.Version}
}

// sequenceSeed is the initial counter value for an identity, taken from the first
// entry's header override. The store owns the counter after the first tick.
func sequenceSeed(f *Flow) uint32 {
	switch f.Version {
	case VersionV5:
		if h := f.V5.Header; h != nil && h.FlowSequence != nil {
			return *h.FlowSequence
		}
	case VersionV9:
		if h := f.V9.Header; h != nil && h.SequenceNumber != nil {
			return *h.SequenceNumber
		}
	case VersionIPFIX:
		if h := f.IPFIX.Header; h != nil && h.SequenceNumber != nil {
			return *h.SequenceNumber
		}
	}
	return 0
}

// SequenceStore maps exporter identities to their next sequence number. Entries
// are created on first encounter and persist across ticks. The store is only
// touched at group boundaries: one Load when a group starts building, one Store
// when it finishes, so a single mutex sees no contention worth engineering around.
type SequenceStore struct {
	mu   sync.Mutex
	seqs map[ExporterKey]uint32
}

func NewSequenceStore() *SequenceStore {
	return &SequenceStore{
		seqs: make(map[ExporterKey]uint32),
	}
}

// Load returns the sequence number for key, creating the entry with seed if the
// identity has not been seen before.
func (s *SequenceStore) Load(key ExporterKey, seed uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq, ok := s.seqs[key]; ok {
		return seq
	}
	s.seqs[key] = seed
	return seed
}

// Store writes back the sequence number for key after a group completed.
func (s *SequenceStore) Store(key ExporterKey, seq uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seqs[key] = seq
}

// Snapshot copies the current store contents.
func (s *SequenceStore) Snapshot() map[ExporterKey]uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := make(map[ExporterKey]uint32, len(s.seqs))
	for k, v := range s.seqs {
		m[k] = v
	}
	return m
}
