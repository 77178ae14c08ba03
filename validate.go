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
	"net"
	"slices"
)

// ValidateConfig checks everything that must hold before the first tick: a
// non-empty flows list, a parsable destination, non-empty flowset lists, template
// references resolvable within their entry, data set ids in the valid range, and
// no conflicting redefinition of a template id within one exporter identity.
func ValidateConfig(config *Config) error {
	if len(config.Flows) == 0 {
		return ErrEmptyFlows
	}

	if !config.Destination.IsZero() {
		if net.ParseIP(config.Destination.IP) == nil {
			return InvalidDestination(config.Destination.IP, fmt.Errorf("not an IP address"))
		}
	}

	// template definitions seen so far, per exporter identity
	templates := make(map[ExporterKey]map[uint16][]TemplateField)

	for i := range config.Flows {
		flow := &config.Flows[i]
		key := exporterKey(i, flow)

		switch flow.Version {
		case VersionV5:
			if len(flow.V5.FlowSets) == 0 {
				return fmt.Errorf("flow %d (%s): %w", i, key, ErrEmptyFlowSets)
			}
		case VersionV7:
			if len(flow.V7.FlowSets) == 0 {
				return fmt.Errorf("flow %d (%s): %w", i, key, ErrEmptyFlowSets)
			}
		case VersionV9:
			if len(flow.V9.FlowSets) == 0 {
				return fmt.Errorf("flow %d (%s): %w", i, key, ErrEmptyFlowSets)
			}
			if err := validateTemplatedFlow(key, v9FlowSets(flow.V9.FlowSets), templates, false); err != nil {
				return fmt.Errorf("flow %d: %w", i, err)
			}
		case VersionIPFIX:
			if len(flow.IPFIX.FlowSets) == 0 {
				return fmt.Errorf("flow %d (%s): %w", i, key, ErrEmptyFlowSets)
			}
			if err := validateTemplatedFlow(key, ipfixFlowSets(flow.IPFIX.FlowSets), templates, true); err != nil {
				return fmt.Errorf("flow %d: %w", i, err)
			}
		default:
			return UnknownVersion(flow.Version)
		}
	}

	return nil
}

// taggedFlowSet is the version-independent view validation takes on v9 and IPFIX
// flowsets.
type taggedFlowSet struct {
	kind     string
	template *TemplateFlowSet
	data     *DataFlowSet
}

func v9FlowSets(flowsets []V9FlowSet) []taggedFlowSet {
	out := make([]taggedFlowSet, 0, len(flowsets))
	for _, fs := range flowsets {
		out = append(out, taggedFlowSet{kind: fs.Kind, template: fs.Template, data: fs.Data})
	}
	return out
}

func ipfixFlowSets(flowsets []IPFIXFlowSet) []taggedFlowSet {
	out := make([]taggedFlowSet, 0, len(flowsets))
	for _, fs := range flowsets {
		out = append(out, taggedFlowSet{kind: fs.Kind, template: fs.Template, data: fs.Data})
	}
	return out
}

func validateTemplatedFlow(key ExporterKey, flowsets []taggedFlowSet, templates map[ExporterKey]map[uint16][]TemplateField, requireDataSetIdRange bool) error {
	domain := templates[key]
	if domain == nil {
		domain = make(map[uint16][]TemplateField)
		templates[key] = domain
	}

	// templates first: a data flowset may precede the template it references
	// within the same entry
	entry := make(map[uint16]struct{})
	for _, fs := range flowsets {
		if fs.kind != KindTemplate {
			continue
		}
		t := fs.template
		if requireDataSetIdRange && t.TemplateId < 256 {
			return InvalidTemplateId(t.TemplateId)
		}
		if existing, ok := domain[t.TemplateId]; ok && !slices.Equal(existing, t.Fields) {
			return TemplateConflict(key.Domain, t.TemplateId)
		}
		domain[t.TemplateId] = t.Fields
		entry[t.TemplateId] = struct{}{}
	}

	for _, fs := range flowsets {
		if fs.kind != KindData {
			continue
		}
		if _, ok := entry[fs.data.TemplateId]; !ok {
			return TemplateNotFound(key.Domain, fs.data.TemplateId)
		}
	}

	return nil
}
