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
	"time"
)

// ExporterGroup is the unit of parallelism within a tick: all flow entries that
// share one exporter identity, in input order. Entries inside a group build
// sequentially so the identity's sequence numbers stay strictly monotonic;
// different groups have independent sequence spaces and may build concurrently.
type ExporterGroup struct {
	Key  ExporterKey
	Seed uint32

	Flows []*Flow
}

// GroupFlows buckets the configured flows by exporter identity, preserving input
// order both across groups (by first appearance) and within each group.
func GroupFlows(flows []Flow) []*ExporterGroup {
	var groups []*ExporterGroup
	index := make(map[ExporterKey]*ExporterGroup)

	for i := range flows {
		flow := &flows[i]
		key := exporterKey(i, flow)
		g, ok := index[key]
		if !ok {
			g = &ExporterGroup{Key: key, Seed: sequenceSeed(flow)}
			index[key] = g
			groups = append(groups, g)
		}
		g.Flows = append(g.Flows, flow)
	}

	return groups
}

// Build encodes every flow entry of the group in order, starting from sequence,
// and returns the buffers in emit order together with the advanced counter.
func (g *ExporterGroup) Build(sequence uint32, includeTemplates bool, now time.Time) ([][]byte, uint32, error) {
	var packets [][]byte

	for _, flow := range g.Flows {
		switch flow.Version {
		case VersionV5:
			b, next, err := BuildV5(flow.V5, sequence, now)
			if err != nil {
				return nil, sequence, err
			}
			packets = append(packets, b)
			sequence = next
			observeBuild(VersionV5, [][]byte{b}, len(flow.V5.FlowSets))
		case VersionV7:
			b, err := BuildV7(flow.V7, now)
			if err != nil {
				return nil, sequence, err
			}
			packets = append(packets, b)
			observeBuild(VersionV7, [][]byte{b}, len(flow.V7.FlowSets))
		case VersionV9:
			bs, next, err := BuildV9(flow.V9, sequence, includeTemplates, now)
			if err != nil {
				return nil, sequence, err
			}
			packets = append(packets, bs...)
			observeBuild(VersionV9, bs, int(next-sequence))
			sequence = next
		case VersionIPFIX:
			bs, next, err := BuildIPFIX(flow.IPFIX, sequence, includeTemplates, now)
			if err != nil {
				return nil, sequence, err
			}
			packets = append(packets, bs...)
			observeBuild(VersionIPFIX, bs, int(next-sequence))
			sequence = next
		default:
			return nil, sequence, UnknownVersion(flow.Version)
		}
	}

	return packets, sequence, nil
}
