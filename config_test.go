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
	"errors"
	"strings"
	"testing"
)

const sampleDocument = `
flows:
  - version: v5
    flowsets:
      - src_addr: "192.168.1.10"
        dst_addr: "10.0.0.50"
        next_hop: "192.168.1.1"
        input: 1
        output: 2
        d_pkts: 100
        d_octets: 65000
        first: 350000
        last: 360000
        src_port: 54321
        dst_port: 443
        tcp_flags: 0x18
        protocol: 6
        tos: 0
        src_as: 65001
        dst_as: 65002
        src_mask: 24
        dst_mask: 24
  - version: v9
    header:
      source_id: 7
    flowsets:
      - type: template
        template_id: 256
        fields:
          - field_type: IPV4_SRC_ADDR
            field_length: 4
          - field_type: L4_SRC_PORT
            field_length: 2
      - type: data
        template_id: 256
        records:
          - src_addr: "10.1.2.3"
            src_port: 8080
destination:
  ip: 192.0.2.7
  port: 9995
`

func TestParseConfig(t *testing.T) {
	t.Run("tagged variants", func(t *testing.T) {
		config, err := ParseConfig(strings.NewReader(sampleDocument))
		if err != nil {
			t.Fatal(err)
		}

		if len(config.Flows) != 2 {
			t.Fatalf("expected 2 flows, got %d", len(config.Flows))
		}

		v5 := config.Flows[0]
		if v5.Version != VersionV5 || v5.V5 == nil {
			t.Fatalf("expected a v5 variant, got %q", v5.Version)
		}
		fs := v5.V5.FlowSets[0]
		if fs.SrcAddr != (IPv4{192, 168, 1, 10}) {
			t.Fatalf("unexpected src_addr %s", fs.SrcAddr)
		}
		if fs.TCPFlags != 0x18 || fs.Protocol != 6 {
			t.Fatalf("unexpected tcp_flags/protocol %#x/%d", fs.TCPFlags, fs.Protocol)
		}

		v9 := config.Flows[1]
		if v9.Version != VersionV9 || v9.V9 == nil {
			t.Fatalf("expected a v9 variant, got %q", v9.Version)
		}
		if v9.V9.Header == nil || v9.V9.Header.SourceId == nil || *v9.V9.Header.SourceId != 7 {
			t.Fatal("expected source_id override 7")
		}
		if v9.V9.FlowSets[0].Kind != KindTemplate {
			t.Fatalf("expected a template flowset, got %q", v9.V9.FlowSets[0].Kind)
		}
		tmpl := v9.V9.FlowSets[0].Template
		if tmpl.TemplateId != 256 || len(tmpl.Fields) != 2 {
			t.Fatalf("unexpected template %d with %d fields", tmpl.TemplateId, len(tmpl.Fields))
		}
		if v9.V9.FlowSets[1].Kind != KindData {
			t.Fatalf("expected a data flowset, got %q", v9.V9.FlowSets[1].Kind)
		}
		records := v9.V9.FlowSets[1].Data.Records
		if len(records) != 1 {
			t.Fatalf("expected 1 record, got %d", len(records))
		}
		if records[0]["src_addr"] != "10.1.2.3" {
			t.Fatalf("unexpected record value %v", records[0]["src_addr"])
		}

		if config.Destination.IP != "192.0.2.7" || config.Destination.Port != 9995 {
			t.Fatalf("unexpected destination %+v", config.Destination)
		}
	})

	t.Run("missing version tag", func(t *testing.T) {
		_, err := ParseConfig(strings.NewReader("flows:\n  - flowsets: []\n"))
		if err == nil {
			t.Fatal("expected an error for a missing version tag")
		}
	})

	t.Run("unknown version tag", func(t *testing.T) {
		_, err := ParseConfig(strings.NewReader("flows:\n  - version: v8\n"))
		if !errors.Is(err, ErrUnknownVersion) {
			t.Fatalf("expected ErrUnknownVersion, got %v", err)
		}
	})

	t.Run("unknown flowset type tag", func(t *testing.T) {
		doc := "flows:\n  - version: v9\n    flowsets:\n      - type: options\n        template_id: 256\n"
		_, err := ParseConfig(strings.NewReader(doc))
		if err == nil {
			t.Fatal("expected an error for an unknown flowset type")
		}
	})

	t.Run("invalid IPv4 address", func(t *testing.T) {
		doc := "flows:\n  - version: v5\n    flowsets:\n      - src_addr: \"::1\"\n"
		_, err := ParseConfig(strings.NewReader(doc))
		if err == nil {
			t.Fatal("expected an error for a non-IPv4 address")
		}
	})

	t.Run("overflowing scalar width", func(t *testing.T) {
		doc := "flows:\n  - version: v5\n    flowsets:\n      - src_addr: \"10.0.0.1\"\n        protocol: 300\n"
		_, err := ParseConfig(strings.NewReader(doc))
		if err == nil {
			t.Fatal("expected an error for protocol exceeding 8 bits")
		}
	})
}

func TestValidateConfig(t *testing.T) {
	t.Run("sample document validates", func(t *testing.T) {
		config, err := ParseConfig(strings.NewReader(sampleDocument))
		if err != nil {
			t.Fatal(err)
		}
		if err := ValidateConfig(config); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("builtin samples validate", func(t *testing.T) {
		if err := ValidateConfig(SampleConfig()); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("empty flows fail", func(t *testing.T) {
		if err := ValidateConfig(&Config{}); !errors.Is(err, ErrEmptyFlows) {
			t.Fatalf("expected ErrEmptyFlows, got %v", err)
		}
	})

	t.Run("invalid destination fails", func(t *testing.T) {
		config := SampleConfig()
		config.Destination = Destination{IP: "collector.invalid", Port: 2055}
		if err := ValidateConfig(config); !errors.Is(err, ErrInvalidDestination) {
			t.Fatalf("expected ErrInvalidDestination, got %v", err)
		}
	})

	t.Run("empty flowsets fail", func(t *testing.T) {
		config := &Config{Flows: []Flow{{Version: VersionV5, V5: &V5Flow{}}}}
		if err := ValidateConfig(config); !errors.Is(err, ErrEmptyFlowSets) {
			t.Fatalf("expected ErrEmptyFlowSets, got %v", err)
		}
	})

	t.Run("undefined template reference fails", func(t *testing.T) {
		config := &Config{Flows: []Flow{
			{Version: VersionV9, V9: &V9Flow{
				FlowSets: []V9FlowSet{
					{Kind: KindData, Data: &DataFlowSet{TemplateId: 300, Records: []Record{{}}}},
				},
			}},
		}}
		if err := ValidateConfig(config); !errors.Is(err, ErrTemplateNotFound) {
			t.Fatalf("expected ErrTemplateNotFound, got %v", err)
		}
	})

	t.Run("template defined in another entry does not satisfy a reference", func(t *testing.T) {
		template := V9FlowSet{Kind: KindTemplate, Template: &TemplateFlowSet{
			TemplateId: 300,
			Fields:     []TemplateField{{Type: "IN_BYTES", Length: 4}},
		}}
		config := &Config{Flows: []Flow{
			{Version: VersionV9, V9: &V9Flow{FlowSets: []V9FlowSet{template}}},
			{Version: VersionV9, V9: &V9Flow{
				FlowSets: []V9FlowSet{
					{Kind: KindData, Data: &DataFlowSet{TemplateId: 300, Records: []Record{{}}}},
				},
			}},
		}}
		if err := ValidateConfig(config); !errors.Is(err, ErrTemplateNotFound) {
			t.Fatalf("expected ErrTemplateNotFound, got %v", err)
		}
	})

	t.Run("conflicting template redefinition within one identity fails", func(t *testing.T) {
		entry := func(fields []TemplateField) Flow {
			return Flow{Version: VersionV9, V9: &V9Flow{
				FlowSets: []V9FlowSet{
					{Kind: KindTemplate, Template: &TemplateFlowSet{TemplateId: 300, Fields: fields}},
				},
			}}
		}
		config := &Config{Flows: []Flow{
			entry([]TemplateField{{Type: "IN_BYTES", Length: 4}}),
			entry([]TemplateField{{Type: "IN_PKTS", Length: 4}}),
		}}
		if err := ValidateConfig(config); !errors.Is(err, ErrTemplateConflict) {
			t.Fatalf("expected ErrTemplateConflict, got %v", err)
		}
	})

	t.Run("identical redefinition within one identity is allowed", func(t *testing.T) {
		entry := func() Flow {
			return Flow{Version: VersionV9, V9: &V9Flow{
				FlowSets: []V9FlowSet{
					{Kind: KindTemplate, Template: &TemplateFlowSet{
						TemplateId: 300,
						Fields:     []TemplateField{{Type: "IN_BYTES", Length: 4}},
					}},
				},
			}}
		}
		config := &Config{Flows: []Flow{entry(), entry()}}
		if err := ValidateConfig(config); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("ipfix template id below 256 fails", func(t *testing.T) {
		config := &Config{Flows: []Flow{
			{Version: VersionIPFIX, IPFIX: &IPFIXFlow{
				FlowSets: []IPFIXFlowSet{
					{Kind: KindTemplate, Template: &TemplateFlowSet{
						TemplateId: 2,
						Fields:     []TemplateField{{Type: "octetDeltaCount", Length: 4}},
					}},
				},
			}},
		}}
		if err := ValidateConfig(config); !errors.Is(err, ErrInvalidTemplateId) {
			t.Fatalf("expected ErrInvalidTemplateId, got %v", err)
		}
	})
}
