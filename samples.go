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

// SampleConfig is the built-in demonstration configuration used when no
// configuration file is given: one flow entry per protocol version, each
// describing a plausible traffic mix towards well-known services.
func SampleConfig() *Config {
	return &Config{
		Destination: DefaultDestination(),
		Flows: []Flow{
			{Version: VersionV5, V5: SampleV5Flow()},
			{Version: VersionV7, V7: SampleV7Flow()},
			{Version: VersionV9, V9: SampleV9Flow()},
			{Version: VersionIPFIX, IPFIX: SampleIPFIXFlow()},
		},
	}
}

// SampleV5Flow is an HTTPS flow, 192.168.1.100:52341 → 172.217.14.206:443.
func SampleV5Flow() *V5Flow {
	return &V5Flow{
		Tag: VersionV5,
		FlowSets: []V5FlowSet{
			{
				SrcAddr:  IPv4{192, 168, 1, 100},
				DstAddr:  IPv4{172, 217, 14, 206},
				NextHop:  IPv4{192, 168, 1, 1},
				Input:    1,
				Output:   2,
				DPkts:    150,
				DOctets:  95000,
				First:    350000,
				Last:     360000,
				SrcPort:  52341,
				DstPort:  443,
				TCPFlags: 0x18,
				Protocol: 6,
				Tos:      0,
				SrcAs:    65000,
				DstAs:    15169,
				SrcMask:  24,
				DstMask:  24,
			},
		},
	}
}

// SampleV7Flow is a DNS exchange, 10.0.0.50:54123 → 8.8.8.8:53.
func SampleV7Flow() *V7Flow {
	return &V7Flow{
		Tag: VersionV7,
		FlowSets: []V7FlowSet{
			{
				SrcAddr:   IPv4{10, 0, 0, 50},
				DstAddr:   IPv4{8, 8, 8, 8},
				NextHop:   IPv4{10, 0, 0, 1},
				Input:     10,
				Output:    20,
				DPkts:     2,
				DOctets:   128,
				First:     355000,
				Last:      355100,
				SrcPort:   54123,
				DstPort:   53,
				Protocol:  17,
				SrcAs:     64512,
				DstAs:     15169,
				SrcMask:   16,
				DstMask:   8,
				RouterSrc: IPv4{10, 0, 0, 1},
			},
		},
	}
}

// SampleV9Flow declares template 256 and one HTTP flow record under it,
// 192.168.10.5:48921 → 93.184.216.34:80.
func SampleV9Flow() *V9Flow {
	return &V9Flow{
		Tag: VersionV9,
		FlowSets: []V9FlowSet{
			{
				Kind: KindTemplate,
				Template: &TemplateFlowSet{
					Tag:        KindTemplate,
					TemplateId: 256,
					Fields: []TemplateField{
						{Type: "IPV4_SRC_ADDR", Length: 4},
						{Type: "IPV4_DST_ADDR", Length: 4},
						{Type: "IN_PKTS", Length: 4},
						{Type: "IN_BYTES", Length: 4},
						{Type: "L4_SRC_PORT", Length: 2},
						{Type: "L4_DST_PORT", Length: 2},
						{Type: "PROTOCOL", Length: 1},
					},
				},
			},
			{
				Kind: KindData,
				Data: &DataFlowSet{
					Tag:        KindData,
					TemplateId: 256,
					Records: []Record{
						{
							"src_addr": "192.168.10.5",
							"dst_addr": "93.184.216.34",
							"in_pkts":  25,
							"in_bytes": 18750,
							"src_port": 48921,
							"dst_port": 80,
							"protocol": 6,
						},
					},
				},
			},
		},
	}
}

// SampleIPFIXFlow declares template 256 and one SSH flow record under it,
// 172.16.5.20:55221 → 198.51.100.9:22.
func SampleIPFIXFlow() *IPFIXFlow {
	return &IPFIXFlow{
		Tag: VersionIPFIX,
		FlowSets: []IPFIXFlowSet{
			{
				Kind: KindTemplate,
				Template: &TemplateFlowSet{
					Tag:        KindTemplate,
					TemplateId: 256,
					Fields: []TemplateField{
						{Type: "sourceIPv4Address", Length: 4},
						{Type: "destinationIPv4Address", Length: 4},
						{Type: "packetDeltaCount", Length: 4},
						{Type: "octetDeltaCount", Length: 4},
						{Type: "sourceTransportPort", Length: 2},
						{Type: "destinationTransportPort", Length: 2},
						{Type: "protocolIdentifier", Length: 1},
					},
				},
			},
			{
				Kind: KindData,
				Data: &DataFlowSet{
					Tag:        KindData,
					TemplateId: 256,
					Records: []Record{
						{
							"source_ipv4_address":        "172.16.5.20",
							"destination_ipv4_address":   "198.51.100.9",
							"packet_delta_count":         310,
							"octet_delta_count":          48200,
							"source_transport_port":      55221,
							"destination_transport_port": 22,
							"protocol_identifier":        6,
						},
					},
				},
			},
		},
	}
}
