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
	"io"
	"net"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// The Version* constants discriminate the flow entry variants in configuration files.
const (
	VersionV5    string = "v5"
	VersionV7    string = "v7"
	VersionV9    string = "v9"
	VersionIPFIX string = "ipfix"
)

// The Kind* constants discriminate template and data flowsets inside v9 and IPFIX
// flow entries.
const (
	KindTemplate string = "template"
	KindData     string = "data"
)

// Config is the root of a flow description document. It is loaded once at startup
// and treated as immutable afterwards.
type Config struct {
	Flows       []Flow      `json:"flows,omitempty" yaml:"flows,omitempty"`
	Destination Destination `json:"destination,omitempty" yaml:"destination,omitempty"`
}

// Destination is the default collector address for UDP transmission, and the
// destination synthesized into capture-file framing.
type Destination struct {
	IP   string `json:"ip,omitempty" yaml:"ip,omitempty"`
	Port uint16 `json:"port,omitempty" yaml:"port,omitempty"`
}

func DefaultDestination() Destination {
	return Destination{IP: "127.0.0.1", Port: 2055}
}

func (d Destination) IsZero() bool {
	return d.IP == "" && d.Port == 0
}

func (d Destination) Addr() string {
	port := d.Port
	if port == 0 {
		port = 2055
	}
	return net.JoinHostPort(d.IP, strconv.Itoa(int(port)))
}

// IPv4 is a four-octet address as it appears in fixed v5/v7 record layouts. It
// unmarshals from the dotted-quad string form used in configuration files.
type IPv4 [4]byte

var _ yaml.Unmarshaler = &IPv4{}

func (i *IPv4) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	ip := net.ParseIP(s)
	if ip == nil || ip.To4() == nil {
		return fmt.Errorf("invalid IPv4 address %q", s)
	}
	copy(i[:], ip.To4())
	return nil
}

func (i IPv4) MarshalYAML() (interface{}, error) {
	return i.String(), nil
}

func (i IPv4) String() string {
	return net.IP(i[:]).String()
}

// Flow is one entry of the flows list, tagged with its protocol version. Exactly
// one of the variant pointers is set after unmarshalling.
type Flow struct {
	Version string

	V5    *V5Flow
	V7    *V7Flow
	V9    *V9Flow
	IPFIX *IPFIXFlow
}

var _ yaml.Unmarshaler = &Flow{}

func (f *Flow) UnmarshalYAML(value *yaml.Node) error {
	var tag struct {
		Version string `yaml:"version"`
	}
	if err := value.Decode(&tag); err != nil {
		return err
	}

	switch tag.Version {
	case VersionV5:
		v := &V5Flow{}
		if err := value.Decode(v); err != nil {
			return err
		}
		*f = Flow{Version: VersionV5, V5: v}
	case VersionV7:
		v := &V7Flow{}
		if err := value.Decode(v); err != nil {
			return err
		}
		*f = Flow{Version: VersionV7, V7: v}
	case VersionV9:
		v := &V9Flow{}
		if err := value.Decode(v); err != nil {
			return err
		}
		*f = Flow{Version: VersionV9, V9: v}
	case VersionIPFIX:
		v := &IPFIXFlow{}
		if err := value.Decode(v); err != nil {
			return err
		}
		*f = Flow{Version: VersionIPFIX, IPFIX: v}
	case "":
		return fmt.Errorf("flow entry is missing a version tag")
	default:
		return UnknownVersion(tag.Version)
	}
	return nil
}

func (f Flow) MarshalYAML() (interface{}, error) {
	switch f.Version {
	case VersionV5:
		return f.V5, nil
	case VersionV7:
		return f.V7, nil
	case VersionV9:
		return f.V9, nil
	case VersionIPFIX:
		return f.IPFIX, nil
	}
	return nil, UnknownVersion(f.Version)
}

// V5Flow describes one NetFlow v5 packet: optional header overrides and the flow
// records it carries.
type V5Flow struct {
	Tag      string      `json:"version" yaml:"version"`
	Header   *V5Header   `json:"header,omitempty" yaml:"header,omitempty"`
	FlowSets []V5FlowSet `json:"flowsets,omitempty" yaml:"flowsets,omitempty"`
}

type V5Header struct {
	SysUpTime        *uint32 `json:"sys_up_time,omitempty" yaml:"sys_up_time,omitempty"`
	UnixSecs         *uint32 `json:"unix_secs,omitempty" yaml:"unix_secs,omitempty"`
	UnixNsecs        *uint32 `json:"unix_nsecs,omitempty" yaml:"unix_nsecs,omitempty"`
	FlowSequence     *uint32 `json:"flow_sequence,omitempty" yaml:"flow_sequence,omitempty"`
	EngineType       *uint8  `json:"engine_type,omitempty" yaml:"engine_type,omitempty"`
	EngineId         *uint8  `json:"engine_id,omitempty" yaml:"engine_id,omitempty"`
	SamplingInterval *uint16 `json:"sampling_interval,omitempty" yaml:"sampling_interval,omitempty"`
}

// V5FlowSet carries the 18 scalar fields of one v5 flow record. The widths are
// enforced by the types, so an overflowing value fails configuration parsing.
type V5FlowSet struct {
	SrcAddr  IPv4   `json:"src_addr" yaml:"src_addr"`
	DstAddr  IPv4   `json:"dst_addr" yaml:"dst_addr"`
	NextHop  IPv4   `json:"next_hop" yaml:"next_hop"`
	Input    uint16 `json:"input" yaml:"input"`
	Output   uint16 `json:"output" yaml:"output"`
	DPkts    uint32 `json:"d_pkts" yaml:"d_pkts"`
	DOctets  uint32 `json:"d_octets" yaml:"d_octets"`
	First    uint32 `json:"first" yaml:"first"`
	Last     uint32 `json:"last" yaml:"last"`
	SrcPort  uint16 `json:"src_port" yaml:"src_port"`
	DstPort  uint16 `json:"dst_port" yaml:"dst_port"`
	TCPFlags uint8  `json:"tcp_flags" yaml:"tcp_flags"`
	Protocol uint8  `json:"protocol" yaml:"protocol"`
	Tos      uint8  `json:"tos" yaml:"tos"`
	SrcAs    uint16 `json:"src_as" yaml:"src_as"`
	DstAs    uint16 `json:"dst_as" yaml:"dst_as"`
	SrcMask  uint8  `json:"src_mask" yaml:"src_mask"`
	DstMask  uint8  `json:"dst_mask" yaml:"dst_mask"`
}

// V7Flow describes one NetFlow v7 packet.
type V7Flow struct {
	Tag      string      `json:"version" yaml:"version"`
	Header   *V7Header   `json:"header,omitempty" yaml:"header,omitempty"`
	FlowSets []V7FlowSet `json:"flowsets,omitempty" yaml:"flowsets,omitempty"`
}

type V7Header struct {
	SysUpTime    *uint32 `json:"sys_up_time,omitempty" yaml:"sys_up_time,omitempty"`
	UnixSecs     *uint32 `json:"unix_secs,omitempty" yaml:"unix_secs,omitempty"`
	UnixNsecs    *uint32 `json:"unix_nsecs,omitempty" yaml:"unix_nsecs,omitempty"`
	FlowSequence *uint32 `json:"flow_sequence,omitempty" yaml:"flow_sequence,omitempty"`
	Reserved     *uint32 `json:"reserved,omitempty" yaml:"reserved,omitempty"`
}

// V7FlowSet is a V5FlowSet extended with the Catalyst fields. FlagsValid occupies
// the single byte after dst_port in the 52-byte record, FlagsInvalid the two bytes
// before router_src.
type V7FlowSet struct {
	SrcAddr      IPv4   `json:"src_addr" yaml:"src_addr"`
	DstAddr      IPv4   `json:"dst_addr" yaml:"dst_addr"`
	NextHop      IPv4   `json:"next_hop" yaml:"next_hop"`
	Input        uint16 `json:"input" yaml:"input"`
	Output       uint16 `json:"output" yaml:"output"`
	DPkts        uint32 `json:"d_pkts" yaml:"d_pkts"`
	DOctets      uint32 `json:"d_octets" yaml:"d_octets"`
	First        uint32 `json:"first" yaml:"first"`
	Last         uint32 `json:"last" yaml:"last"`
	SrcPort      uint16 `json:"src_port" yaml:"src_port"`
	DstPort      uint16 `json:"dst_port" yaml:"dst_port"`
	FlagsValid   uint8  `json:"flags_valid" yaml:"flags_valid"`
	TCPFlags     uint8  `json:"tcp_flags" yaml:"tcp_flags"`
	Protocol     uint8  `json:"protocol" yaml:"protocol"`
	Tos          uint8  `json:"tos" yaml:"tos"`
	SrcAs        uint16 `json:"src_as" yaml:"src_as"`
	DstAs        uint16 `json:"dst_as" yaml:"dst_as"`
	SrcMask      uint8  `json:"src_mask" yaml:"src_mask"`
	DstMask      uint8  `json:"dst_mask" yaml:"dst_mask"`
	FlagsInvalid uint16 `json:"flags_invalid" yaml:"flags_invalid"`
	RouterSrc    IPv4   `json:"router_src" yaml:"router_src"`
}

// V9Flow describes the messages built for one v9 flow entry: optional header
// overrides and an ordered list of template and data flowsets. Templates are
// scoped to the entry defining them.
type V9Flow struct {
	Tag      string      `json:"version" yaml:"version"`
	Header   *V9Header   `json:"header,omitempty" yaml:"header,omitempty"`
	FlowSets []V9FlowSet `json:"flowsets,omitempty" yaml:"flowsets,omitempty"`
}

type V9Header struct {
	SysUpTime      *uint32 `json:"sys_up_time,omitempty" yaml:"sys_up_time,omitempty"`
	UnixSecs       *uint32 `json:"unix_secs,omitempty" yaml:"unix_secs,omitempty"`
	SequenceNumber *uint32 `json:"sequence_number,omitempty" yaml:"sequence_number,omitempty"`
	SourceId       *uint32 `json:"source_id,omitempty" yaml:"source_id,omitempty"`
}

// V9FlowSet is either a template or a data flowset, tagged by its type key.
type V9FlowSet struct {
	Kind string

	Template *TemplateFlowSet
	Data     *DataFlowSet
}

var _ yaml.Unmarshaler = &V9FlowSet{}

func (fs *V9FlowSet) UnmarshalYAML(value *yaml.Node) error {
	kind, tfs, dfs, err := unmarshalTaggedFlowSet(value)
	if err != nil {
		return err
	}
	*fs = V9FlowSet{Kind: kind, Template: tfs, Data: dfs}
	return nil
}

func (fs V9FlowSet) MarshalYAML() (interface{}, error) {
	return marshalTaggedFlowSet(fs.Kind, fs.Template, fs.Data)
}

// IPFIXFlow describes the messages built for one IPFIX flow entry.
type IPFIXFlow struct {
	Tag      string         `json:"version" yaml:"version"`
	Header   *IPFIXHeader   `json:"header,omitempty" yaml:"header,omitempty"`
	FlowSets []IPFIXFlowSet `json:"flowsets,omitempty" yaml:"flowsets,omitempty"`
}

type IPFIXHeader struct {
	ExportTime          *uint32 `json:"export_time,omitempty" yaml:"export_time,omitempty"`
	SequenceNumber      *uint32 `json:"sequence_number,omitempty" yaml:"sequence_number,omitempty"`
	ObservationDomainId *uint32 `json:"observation_domain_id,omitempty" yaml:"observation_domain_id,omitempty"`
}

// IPFIXFlowSet is either a template or a data set, tagged by its type key.
type IPFIXFlowSet struct {
	Kind string

	Template *TemplateFlowSet
	Data     *DataFlowSet
}

var _ yaml.Unmarshaler = &IPFIXFlowSet{}

func (fs *IPFIXFlowSet) UnmarshalYAML(value *yaml.Node) error {
	kind, tfs, dfs, err := unmarshalTaggedFlowSet(value)
	if err != nil {
		return err
	}
	*fs = IPFIXFlowSet{Kind: kind, Template: tfs, Data: dfs}
	return nil
}

func (fs IPFIXFlowSet) MarshalYAML() (interface{}, error) {
	return marshalTaggedFlowSet(fs.Kind, fs.Template, fs.Data)
}

func unmarshalTaggedFlowSet(value *yaml.Node) (string, *TemplateFlowSet, *DataFlowSet, error) {
	var tag struct {
		Type string `yaml:"type"`
	}
	if err := value.Decode(&tag); err != nil {
		return "", nil, nil, err
	}
	switch tag.Type {
	case KindTemplate:
		tfs := &TemplateFlowSet{}
		if err := value.Decode(tfs); err != nil {
			return "", nil, nil, err
		}
		return KindTemplate, tfs, nil, nil
	case KindData:
		dfs := &DataFlowSet{}
		if err := value.Decode(dfs); err != nil {
			return "", nil, nil, err
		}
		return KindData, nil, dfs, nil
	case "":
		return "", nil, nil, fmt.Errorf("flowset is missing a type tag")
	}
	return "", nil, nil, fmt.Errorf("unknown flowset type %q, only template and data are specified", tag.Type)
}

func marshalTaggedFlowSet(kind string, tfs *TemplateFlowSet, dfs *DataFlowSet) (interface{}, error) {
	switch kind {
	case KindTemplate:
		return tfs, nil
	case KindData:
		return dfs, nil
	}
	return nil, fmt.Errorf("unknown flowset type %q", kind)
}

// TemplateFlowSet declares a template: the 16-bit id data flowsets reference, and
// the ordered fields of the records described by it.
type TemplateFlowSet struct {
	Tag        string          `json:"type" yaml:"type"`
	TemplateId uint16          `json:"template_id" yaml:"template_id"`
	Fields     []TemplateField `json:"fields,omitempty" yaml:"fields,omitempty"`
}

type TemplateField struct {
	Type   string `json:"field_type" yaml:"field_type"`
	Length uint16 `json:"field_length" yaml:"field_length"`
}

// DataFlowSet carries the records emitted under a template defined in the same
// flow entry.
type DataFlowSet struct {
	Tag        string   `json:"type" yaml:"type"`
	TemplateId uint16   `json:"template_id" yaml:"template_id"`
	Records    []Record `json:"records,omitempty" yaml:"records,omitempty"`
}

// Record maps canonical field keys to values. Values are either non-negative
// integers or strings holding IPv4 addresses; see EncodeValue for how anything
// else is treated.
type Record map[string]any

// ParseConfig reads a flow description document. Unknown top-level and
// destination fields are rejected. Flow entries, headers included, decode
// through their own UnmarshalYAML, and unknown keys inside them are not
// rejected.
func ParseConfig(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	config := &Config{}
	if err := dec.Decode(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadConfig reads a flow description document from a file.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseConfig(f)
}
