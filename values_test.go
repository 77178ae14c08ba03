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
	"testing"
)

func TestEncodeValue(t *testing.T) {
	cases := []struct {
		name   string
		value  any
		length uint16
		want   []byte
	}{
		{name: "uint8", value: 6, length: 1, want: []byte{0x06}},
		{name: "uint16", value: 443, length: 2, want: []byte{0x01, 0xbb}},
		{name: "uint32", value: 65000, length: 4, want: []byte{0x00, 0x00, 0xfd, 0xe8}},
		{name: "uint64", value: uint64(1) << 32, length: 8, want: []byte{0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00}},
		{name: "wrapped to lower bytes", value: 0x1ffff, length: 2, want: []byte{0xff, 0xff}},
		{name: "wrapped to one byte", value: 256, length: 1, want: []byte{0x00}},
		{name: "ipv4 string", value: "192.168.1.10", length: 4, want: []byte{192, 168, 1, 10}},
		{name: "ipv4 string under non-4 length", value: "192.168.1.10", length: 2, want: []byte{0, 0}},
		{name: "non-address string", value: "hello", length: 4, want: []byte{0, 0, 0, 0}},
		{name: "absent value", value: nil, length: 4, want: []byte{0, 0, 0, 0}},
		{name: "negative integer", value: -1, length: 2, want: []byte{0, 0}},
		{name: "numeric value under odd length", value: 12, length: 3, want: []byte{0, 0, 0}},
		{name: "numeric value under length 6", value: 12, length: 6, want: []byte{0, 0, 0, 0, 0, 0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EncodeValue(tc.value, tc.length)
			if len(got) != int(tc.length) {
				t.Fatalf("expected %d bytes, got %d", tc.length, len(got))
			}
			if !bytes.Equal(got, tc.want) {
				t.Fatalf("expected % x, got % x", tc.want, got)
			}
		})
	}
}

func TestEncodeValueNeverShort(t *testing.T) {
	// every value/length combination must produce exactly length bytes
	values := []any{nil, 0, 1, -5, "10.0.0.1", "not-an-ip", 3.14, true, uint64(1<<63 + 1)}
	for _, v := range values {
		for _, l := range []uint16{1, 2, 3, 4, 5, 8, 16} {
			if got := EncodeValue(v, l); len(got) != int(l) {
				t.Fatalf("EncodeValue(%v, %d) produced %d bytes", v, l, len(got))
			}
		}
	}
}
