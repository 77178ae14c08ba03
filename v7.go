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
	"time"
)

const (
	v7HeaderLength int = 24
	v7RecordLength int = 52
)

// BuildV7 encodes one NetFlow v7 (Catalyst 5000) packet. v7 is not sequence
// tracked across ticks; flow_sequence comes from the header override or stays
// zero.
func BuildV7(flow *V7Flow, now time.Time) ([]byte, error) {
	if len(flow.FlowSets) == 0 {
		return nil, ErrEmptyFlowSets
	}
	if len(flow.FlowSets) > 0xFFFF {
		return nil, TooManyFlowSets(len(flow.FlowSets))
	}

	sysUpTime := defaultSysUpTime
	unixSecs := clampUnixSecs(now)
	var unixNsecs, flowSequence, reserved uint32

	if h := flow.Header; h != nil {
		if h.SysUpTime != nil {
			sysUpTime = *h.SysUpTime
		}
		if h.UnixSecs != nil {
			unixSecs = *h.UnixSecs
		}
		if h.UnixNsecs != nil {
			unixNsecs = *h.UnixNsecs
		}
		if h.FlowSequence != nil {
			flowSequence = *h.FlowSequence
		}
		if h.Reserved != nil {
			reserved = *h.Reserved
		}
	}

	b := make([]byte, 0, v7HeaderLength+len(flow.FlowSets)*v7RecordLength)

	// header
	b = binary.BigEndian.AppendUint16(b, 7)
	b = binary.BigEndian.AppendUint16(b, uint16(len(flow.FlowSets)))
	b = binary.BigEndian.AppendUint32(b, sysUpTime)
	b = binary.BigEndian.AppendUint32(b, unixSecs)
	b = binary.BigEndian.AppendUint32(b, unixNsecs)
	b = binary.BigEndian.AppendUint32(b, flowSequence)
	b = binary.BigEndian.AppendUint32(b, reserved)

	for i := range flow.FlowSets {
		b = appendV7Record(b, &flow.FlowSets[i])
	}

	return b, nil
}

func appendV7Record(b []byte, fs *V7FlowSet) []byte {
	b = append(b, fs.SrcAddr[:]...)
	b = append(b, fs.DstAddr[:]...)
	b = append(b, fs.NextHop[:]...)
	b = binary.BigEndian.AppendUint16(b, fs.Input)
	b = binary.BigEndian.AppendUint16(b, fs.Output)
	b = binary.BigEndian.AppendUint32(b, fs.DPkts)
	b = binary.BigEndian.AppendUint32(b, fs.DOctets)
	b = binary.BigEndian.AppendUint32(b, fs.First)
	b = binary.BigEndian.AppendUint32(b, fs.Last)
	b = binary.BigEndian.AppendUint16(b, fs.SrcPort)
	b = binary.BigEndian.AppendUint16(b, fs.DstPort)
	b = append(b, fs.FlagsValid)
	b = append(b, fs.TCPFlags, fs.Protocol, fs.Tos)
	b = binary.BigEndian.AppendUint16(b, fs.SrcAs)
	b = binary.BigEndian.AppendUint16(b, fs.DstAs)
	b = append(b, fs.SrcMask, fs.DstMask)
	b = binary.BigEndian.AppendUint16(b, fs.FlagsInvalid)
	b = append(b, fs.RouterSrc[:]...)
	return b
}
