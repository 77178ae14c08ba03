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
	v5HeaderLength int = 24
	v5RecordLength int = 48

	// sysUpTime defaulted into v5/v7/v9 headers without an override, 6 minutes
	defaultSysUpTime uint32 = 360000
)

// BuildV5 encodes one NetFlow v5 packet from a flow entry. sequence is the
// exporter identity's current counter and becomes the header's flow_sequence;
// the returned counter is advanced by the number of flow records, per the v5
// specification.
func BuildV5(flow *V5Flow, sequence uint32, now time.Time) ([]byte, uint32, error) {
	if len(flow.FlowSets) == 0 {
		return nil, sequence, ErrEmptyFlowSets
	}
	if len(flow.FlowSets) > 0xFFFF {
		return nil, sequence, TooManyFlowSets(len(flow.FlowSets))
	}

	sysUpTime := defaultSysUpTime
	unixSecs := clampUnixSecs(now)
	var unixNsecs uint32
	var engineType, engineId uint8
	var samplingInterval uint16

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
		if h.EngineType != nil {
			engineType = *h.EngineType
		}
		if h.EngineId != nil {
			engineId = *h.EngineId
		}
		if h.SamplingInterval != nil {
			samplingInterval = *h.SamplingInterval
		}
	}

	b := make([]byte, 0, v5HeaderLength+len(flow.FlowSets)*v5RecordLength)

	// header
	b = binary.BigEndian.AppendUint16(b, 5)
	b = binary.BigEndian.AppendUint16(b, uint16(len(flow.FlowSets)))
	b = binary.BigEndian.AppendUint32(b, sysUpTime)
	b = binary.BigEndian.AppendUint32(b, unixSecs)
	b = binary.BigEndian.AppendUint32(b, unixNsecs)
	b = binary.BigEndian.AppendUint32(b, sequence)
	b = append(b, engineType, engineId)
	b = binary.BigEndian.AppendUint16(b, samplingInterval)

	for i := range flow.FlowSets {
		b = appendV5Record(b, &flow.FlowSets[i])
	}

	return b, sequence + uint32(len(flow.FlowSets)), nil
}

func appendV5Record(b []byte, fs *V5FlowSet) []byte {
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
	b = append(b, 0) // pad1
	b = append(b, fs.TCPFlags, fs.Protocol, fs.Tos)
	b = binary.BigEndian.AppendUint16(b, fs.SrcAs)
	b = binary.BigEndian.AppendUint16(b, fs.DstAs)
	b = append(b, fs.SrcMask, fs.DstMask)
	b = append(b, 0, 0) // pad2
	return b
}

func clampUnixSecs(now time.Time) uint32 {
	secs := now.Unix()
	if secs < 0 {
		return 0
	}
	if secs > 0xFFFFFFFF {
		return 0xFFFFFFFF
	}
	return uint32(secs)
}
