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
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"
)

func TestBuildV9(t *testing.T) {
	now := time.Unix(1700000000, 0)

	t.Run("template and data messages", func(t *testing.T) {
		flow := SampleV9Flow()

		packets, next, err := BuildV9(flow, 5, true, now)
		if err != nil {
			t.Fatal(err)
		}
		if len(packets) != 2 {
			t.Fatalf("expected template and data message, got %d packets", len(packets))
		}
		if next != 6 {
			t.Fatalf("expected sequence 6 after one record, got %d", next)
		}

		tmpl := packets[0]
		if got := binary.BigEndian.Uint16(tmpl[0:]); got != 9 {
			t.Fatalf("expected version 9, got %d", got)
		}
		if got := binary.BigEndian.Uint16(tmpl[2:]); got != 1 {
			t.Fatalf("expected count 1 (one template flowset), got %d", got)
		}
		// template message carries the sequence without consuming it
		if got := binary.BigEndian.Uint32(tmpl[12:]); got != 5 {
			t.Fatalf("expected sequence 5 in template message, got %d", got)
		}
		if got := binary.BigEndian.Uint32(tmpl[16:]); got != 1 {
			t.Fatalf("expected default source_id 1, got %d", got)
		}
		if got := binary.BigEndian.Uint16(tmpl[20:]); got != 0 {
			t.Fatalf("expected template flowset id 0, got %d", got)
		}
		// flowset: id(2) + length(2) + template_id(2) + field_count(2) + 7 fields * 4
		if got := binary.BigEndian.Uint16(tmpl[22:]); got != 36 {
			t.Fatalf("expected template flowset length 36, got %d", got)
		}
		if len(tmpl) != v9HeaderLength+36 {
			t.Fatalf("expected 56 bytes, got %d", len(tmpl))
		}
		if got := binary.BigEndian.Uint16(tmpl[24:]); got != 256 {
			t.Fatalf("expected template id 256, got %d", got)
		}
		if got := binary.BigEndian.Uint16(tmpl[26:]); got != 7 {
			t.Fatalf("expected field count 7, got %d", got)
		}
		// first field: IPV4_SRC_ADDR (8) with length 4
		if got := binary.BigEndian.Uint16(tmpl[28:]); got != 8 {
			t.Fatalf("expected field type 8, got %d", got)
		}
		if got := binary.BigEndian.Uint16(tmpl[30:]); got != 4 {
			t.Fatalf("expected field length 4, got %d", got)
		}

		data := packets[1]
		if got := binary.BigEndian.Uint16(data[2:]); got != 1 {
			t.Fatalf("expected count 1 in data message, got %d", got)
		}
		if got := binary.BigEndian.Uint32(data[12:]); got != 5 {
			t.Fatalf("expected sequence 5 in data message, got %d", got)
		}
		if got := binary.BigEndian.Uint16(data[20:]); got != 256 {
			t.Fatalf("expected data flowset id 256, got %d", got)
		}
		// record is 21 bytes, plus the 4-byte flowset header, padded to 28
		setLength := binary.BigEndian.Uint16(data[22:])
		if setLength != 28 {
			t.Fatalf("expected data flowset length 28, got %d", setLength)
		}
		if setLength%4 != 0 {
			t.Fatalf("flowset length %d is not 4-byte aligned", setLength)
		}
		if len(data) != v9HeaderLength+int(setLength) {
			t.Fatalf("flowset length does not cover the message remainder")
		}
		if !bytes.Equal(data[24:28], []byte{192, 168, 10, 5}) {
			t.Fatalf("unexpected src_addr % x", data[24:28])
		}
		if !bytes.Equal(data[len(data)-3:], []byte{0, 0, 0}) {
			t.Fatal("expected 3 bytes of zero padding")
		}
	})

	t.Run("templates withheld between refreshes", func(t *testing.T) {
		flow := SampleV9Flow()

		packets, next, err := BuildV9(flow, 0, false, now)
		if err != nil {
			t.Fatal(err)
		}
		if len(packets) != 1 {
			t.Fatalf("expected only the data message, got %d packets", len(packets))
		}
		if got := binary.BigEndian.Uint16(packets[0][20:]); got != 256 {
			t.Fatalf("expected data flowset id 256, got %d", got)
		}
		if next != 1 {
			t.Fatalf("expected sequence 1, got %d", next)
		}
	})

	t.Run("sequence advances per record", func(t *testing.T) {
		flow := SampleV9Flow()
		data := flow.FlowSets[1].Data
		data.Records = append(data.Records, Record{"src_addr": "192.168.10.6"}, Record{"src_addr": "192.168.10.7"})

		packets, next, err := BuildV9(flow, 100, false, now)
		if err != nil {
			t.Fatal(err)
		}
		if next != 103 {
			t.Fatalf("expected sequence 103 after three records, got %d", next)
		}
		if got := binary.BigEndian.Uint32(packets[0][12:]); got != 100 {
			t.Fatalf("expected sequence 100 in data message, got %d", got)
		}
	})

	t.Run("omitted record keys encode as zeros", func(t *testing.T) {
		flow := SampleV9Flow()
		flow.FlowSets[1].Data.Records = []Record{{"src_addr": "1.2.3.4"}}

		packets, _, err := BuildV9(flow, 0, false, now)
		if err != nil {
			t.Fatal(err)
		}
		data := packets[0]
		if !bytes.Equal(data[24:28], []byte{1, 2, 3, 4}) {
			t.Fatalf("unexpected src_addr % x", data[24:28])
		}
		for i := 28; i < len(data); i++ {
			if data[i] != 0 {
				t.Fatalf("expected zero fill at offset %d, got %#x", i, data[i])
			}
		}
	})

	t.Run("two byte pad", func(t *testing.T) {
		// a 2 mod 4 record length forces a 2-byte pad
		flow := &V9Flow{
			FlowSets: []V9FlowSet{
				{Kind: KindTemplate, Template: &TemplateFlowSet{
					TemplateId: 260,
					Fields:     []TemplateField{{Type: "L4_SRC_PORT", Length: 2}},
				}},
				{Kind: KindData, Data: &DataFlowSet{
					TemplateId: 260,
					Records:    []Record{{"src_port": 80}},
				}},
			},
		}

		packets, _, err := BuildV9(flow, 0, false, now)
		if err != nil {
			t.Fatal(err)
		}
		data := packets[0]
		if got := binary.BigEndian.Uint16(data[22:]); got != 8 {
			t.Fatalf("expected flowset length 8, got %d", got)
		}
		if !bytes.Equal(data[24:28], []byte{0x00, 0x50, 0x00, 0x00}) {
			t.Fatalf("unexpected flowset payload % x", data[24:28])
		}
	})

	t.Run("undefined template fails", func(t *testing.T) {
		flow := &V9Flow{
			FlowSets: []V9FlowSet{
				{Kind: KindData, Data: &DataFlowSet{TemplateId: 999, Records: []Record{{}}}},
			},
		}
		_, _, err := BuildV9(flow, 0, true, now)
		if !errors.Is(err, ErrTemplateNotFound) {
			t.Fatalf("expected ErrTemplateNotFound, got %v", err)
		}
	})

	t.Run("unknown field type fails", func(t *testing.T) {
		flow := &V9Flow{
			FlowSets: []V9FlowSet{
				{Kind: KindTemplate, Template: &TemplateFlowSet{
					TemplateId: 256,
					Fields:     []TemplateField{{Type: "NOT_A_FIELD", Length: 4}},
				}},
			},
		}
		_, _, err := BuildV9(flow, 0, true, now)
		if !errors.Is(err, ErrUnknownFieldType) {
			t.Fatalf("expected ErrUnknownFieldType, got %v", err)
		}
	})

	t.Run("source id override", func(t *testing.T) {
		sourceId := uint32(23)
		flow := SampleV9Flow()
		flow.Header = &V9Header{SourceId: &sourceId}

		packets, _, err := BuildV9(flow, 0, false, now)
		if err != nil {
			t.Fatal(err)
		}
		if got := binary.BigEndian.Uint32(packets[0][16:]); got != 23 {
			t.Fatalf("expected source_id 23, got %d", got)
		}
	})
}
