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

func TestBuildV7(t *testing.T) {
	now := time.Unix(1700000000, 0)

	t.Run("single flowset", func(t *testing.T) {
		flow := SampleV7Flow()
		flow.FlowSets[0].FlagsValid = 0x0a
		flow.FlowSets[0].FlagsInvalid = 0x0102

		b, err := BuildV7(flow, now)
		if err != nil {
			t.Fatal(err)
		}
		if len(b) != v7HeaderLength+v7RecordLength {
			t.Fatalf("expected 76 bytes, got %d", len(b))
		}

		if got := binary.BigEndian.Uint16(b[0:]); got != 7 {
			t.Fatalf("expected version 7, got %d", got)
		}
		if got := binary.BigEndian.Uint16(b[2:]); got != 1 {
			t.Fatalf("expected count 1, got %d", got)
		}
		// header ends with flow_sequence and the 32-bit reserved field
		if got := binary.BigEndian.Uint32(b[16:]); got != 0 {
			t.Fatalf("expected flow_sequence 0, got %d", got)
		}
		if got := binary.BigEndian.Uint32(b[20:]); got != 0 {
			t.Fatalf("expected reserved 0, got %d", got)
		}

		record := b[v7HeaderLength:]
		if !bytes.Equal(record[0:4], []byte{10, 0, 0, 50}) {
			t.Fatalf("unexpected src_addr % x", record[0:4])
		}
		if !bytes.Equal(record[4:8], []byte{8, 8, 8, 8}) {
			t.Fatalf("unexpected dst_addr % x", record[4:8])
		}
		if got := binary.BigEndian.Uint16(record[34:]); got != 53 {
			t.Fatalf("unexpected dst_port %d", got)
		}
		if record[36] != 0x0a {
			t.Fatalf("unexpected flags_valid %#x", record[36])
		}
		if record[38] != 17 {
			t.Fatalf("unexpected protocol %d", record[38])
		}
		if got := binary.BigEndian.Uint16(record[46:]); got != 0x0102 {
			t.Fatalf("unexpected flags_invalid %#x", got)
		}
		if !bytes.Equal(record[48:52], []byte{10, 0, 0, 1}) {
			t.Fatalf("unexpected router_src % x", record[48:52])
		}
	})

	t.Run("header overrides", func(t *testing.T) {
		flowSequence := uint32(99)
		reserved := uint32(7)
		flow := SampleV7Flow()
		flow.Header = &V7Header{FlowSequence: &flowSequence, Reserved: &reserved}

		b, err := BuildV7(flow, now)
		if err != nil {
			t.Fatal(err)
		}
		if got := binary.BigEndian.Uint32(b[16:]); got != 99 {
			t.Fatalf("expected flow_sequence 99, got %d", got)
		}
		if got := binary.BigEndian.Uint32(b[20:]); got != 7 {
			t.Fatalf("expected reserved 7, got %d", got)
		}
	})

	t.Run("empty flowsets fail", func(t *testing.T) {
		_, err := BuildV7(&V7Flow{}, now)
		if !errors.Is(err, ErrEmptyFlowSets) {
			t.Fatalf("expected ErrEmptyFlowSets, got %v", err)
		}
	})
}
