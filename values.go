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
	"encoding/binary"
	"net"
)

// EncodeValue serializes a single data record value into exactly length big-endian
// bytes, as prescribed by the template field the value is emitted under.
//
// Strings are interpreted as IPv4 addresses and contribute their four octets when
// the declared length is 4. Non-negative integers are truncated to the lowest
// length bytes for the fixed widths 1, 2, 4, and 8. Everything else, including
// absent values, negative numbers, unparsable strings, and numeric values under a
// width outside {1,2,4,8}, encodes as length zero bytes; the encoder never fails.
func EncodeValue(value any, length uint16) []byte {
	switch v := value.(type) {
	case string:
		if ip := net.ParseIP(v); ip != nil {
			if ip4 := ip.To4(); ip4 != nil && length == 4 {
				return []byte(ip4)
			}
		}
		return make([]byte, length)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		u, ok := asUint64(v)
		if !ok {
			return make([]byte, length)
		}
		return encodeUint(u, length)
	default:
		return make([]byte, length)
	}
}

func encodeUint(u uint64, length uint16) []byte {
	b := make([]byte, 0, length)
	switch length {
	case 1:
		b = append(b, uint8(u))
	case 2:
		b = binary.BigEndian.AppendUint16(b, uint16(u))
	case 4:
		b = binary.BigEndian.AppendUint32(b, uint32(u))
	case 8:
		b = binary.BigEndian.AppendUint64(b, u)
	default:
		b = make([]byte, length)
	}
	return b
}

func asUint64(value any) (uint64, bool) {
	switch v := value.(type) {
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int8:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int16:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int32:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case uint:
		return uint64(v), true
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint64:
		return v, true
	}
	return 0, false
}
