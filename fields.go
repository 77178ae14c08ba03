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

// FieldType ties together the three names a flow field goes by: the template-facing
// name used in configuration files (NetFlow v9 field names in the Cisco spelling,
// IPFIX Information Element names in the IANA spelling), the numeric field type id
// emitted in template records, and the canonical snake-case key under which data
// records carry a value for the field.
type FieldType struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Id   uint16 `json:"id,omitempty" yaml:"id,omitempty"`
	Key  string `json:"key,omitempty" yaml:"key,omitempty"`
}

// The v9 registry covers the common subset of the RFC 3954 field type definitions.
// Ids 19/20 (multicast counters) and 23/24 (egress counters) are included because
// the Cisco white paper lists them in the base set.
var v9FieldTypes = []FieldType{
	{Name: "IN_BYTES", Id: 1, Key: "in_bytes"},
	{Name: "IN_PKTS", Id: 2, Key: "in_pkts"},
	{Name: "FLOWS", Id: 3, Key: "flows"},
	{Name: "PROTOCOL", Id: 4, Key: "protocol"},
	{Name: "SRC_TOS", Id: 5, Key: "src_tos"},
	{Name: "TCP_FLAGS", Id: 6, Key: "tcp_flags"},
	{Name: "L4_SRC_PORT", Id: 7, Key: "src_port"},
	{Name: "IPV4_SRC_ADDR", Id: 8, Key: "src_addr"},
	{Name: "SRC_MASK", Id: 9, Key: "src_mask"},
	{Name: "INPUT_SNMP", Id: 10, Key: "input_snmp"},
	{Name: "L4_DST_PORT", Id: 11, Key: "dst_port"},
	{Name: "IPV4_DST_ADDR", Id: 12, Key: "dst_addr"},
	{Name: "DST_MASK", Id: 13, Key: "dst_mask"},
	{Name: "OUTPUT_SNMP", Id: 14, Key: "output_snmp"},
	{Name: "IPV4_NEXT_HOP", Id: 15, Key: "next_hop"},
	{Name: "SRC_AS", Id: 16, Key: "src_as"},
	{Name: "DST_AS", Id: 17, Key: "dst_as"},
	{Name: "BGP_IPV4_NEXT_HOP", Id: 18, Key: "bgp_next_hop"},
	{Name: "MUL_DST_PKTS", Id: 19, Key: "mul_dst_pkts"},
	{Name: "MUL_DST_BYTES", Id: 20, Key: "mul_dst_bytes"},
	{Name: "LAST_SWITCHED", Id: 21, Key: "last_switched"},
	{Name: "FIRST_SWITCHED", Id: 22, Key: "first_switched"},
	{Name: "OUT_BYTES", Id: 23, Key: "out_bytes"},
	{Name: "OUT_PKTS", Id: 24, Key: "out_pkts"},
}

// The IPFIX registry covers the IANA Information Elements shared with the v9 base
// set. Ids 19 and 20 are postNCast counters in IANA-IPFIX and are deliberately not
// aliased onto the v9 multicast names.
var ipfixFieldTypes = []FieldType{
	{Name: "octetDeltaCount", Id: 1, Key: "octet_delta_count"},
	{Name: "packetDeltaCount", Id: 2, Key: "packet_delta_count"},
	{Name: "deltaFlowCount", Id: 3, Key: "delta_flow_count"},
	{Name: "protocolIdentifier", Id: 4, Key: "protocol_identifier"},
	{Name: "ipClassOfService", Id: 5, Key: "ip_class_of_service"},
	{Name: "tcpControlBits", Id: 6, Key: "tcp_control_bits"},
	{Name: "sourceTransportPort", Id: 7, Key: "source_transport_port"},
	{Name: "sourceIPv4Address", Id: 8, Key: "source_ipv4_address"},
	{Name: "sourceIPv4PrefixLength", Id: 9, Key: "source_ipv4_prefix_length"},
	{Name: "ingressInterface", Id: 10, Key: "ingress_interface"},
	{Name: "destinationTransportPort", Id: 11, Key: "destination_transport_port"},
	{Name: "destinationIPv4Address", Id: 12, Key: "destination_ipv4_address"},
	{Name: "destinationIPv4PrefixLength", Id: 13, Key: "destination_ipv4_prefix_length"},
	{Name: "egressInterface", Id: 14, Key: "egress_interface"},
	{Name: "ipNextHopIPv4Address", Id: 15, Key: "ip_next_hop_ipv4_address"},
	{Name: "bgpSourceAsNumber", Id: 16, Key: "bgp_source_as_number"},
	{Name: "bgpDestinationAsNumber", Id: 17, Key: "bgp_destination_as_number"},
	{Name: "bgpNextHopIPv4Address", Id: 18, Key: "bgp_next_hop_ipv4_address"},
	{Name: "flowEndSysUpTime", Id: 21, Key: "flow_end_sys_up_time"},
	{Name: "flowStartSysUpTime", Id: 22, Key: "flow_start_sys_up_time"},
}

var (
	v9FieldsByName    map[string]FieldType = indexByName(v9FieldTypes)
	v9FieldsById      map[uint16]FieldType = indexById(v9FieldTypes)
	ipfixFieldsByName map[string]FieldType = indexByName(ipfixFieldTypes)
	ipfixFieldsById   map[uint16]FieldType = indexById(ipfixFieldTypes)
)

func indexByName(fields []FieldType) map[string]FieldType {
	m := make(map[string]FieldType, len(fields))
	for _, f := range fields {
		m[f.Name] = f
	}
	return m
}

func indexById(fields []FieldType) map[uint16]FieldType {
	m := make(map[uint16]FieldType, len(fields))
	for _, f := range fields {
		m[f.Id] = f
	}
	return m
}

// V9FieldId resolves a v9 template field name to its numeric field type id.
func V9FieldId(name string) (uint16, bool) {
	f, ok := v9FieldsByName[name]
	return f.Id, ok
}

// V9FieldKey returns the canonical record key for a v9 field type id, or "unknown"
// for ids outside the registry.
func V9FieldKey(id uint16) string {
	if f, ok := v9FieldsById[id]; ok {
		return f.Key
	}
	return "unknown"
}

// IPFIXFieldId resolves an IPFIX Information Element name to its numeric id.
func IPFIXFieldId(name string) (uint16, bool) {
	f, ok := ipfixFieldsByName[name]
	return f.Id, ok
}

// IPFIXFieldKey returns the canonical record key for an IPFIX Information Element
// id, or "unknown" for ids outside the registry.
func IPFIXFieldKey(id uint16) string {
	if f, ok := ipfixFieldsById[id]; ok {
		return f.Key
	}
	return "unknown"
}
