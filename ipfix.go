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
	ipfixHeaderLength int = 16

	// set id announcing an IPFIX template set per RFC 7011
	ipfixTemplateSetId uint16 = 2
)

// BuildIPFIX encodes the messages for one IPFIX flow entry, mirroring BuildV9
// with the RFC 7011 differences: a 16-byte header without a count field whose
// total-length covers the whole message, template set id 2, and data set ids
// equal to the (≥256) template id.
//
// Per RFC 7011 §3.1 the sequence number counts data records, so template-only
// messages carry the counter without advancing it and every data message
// advances it by the number of records it contains.
func BuildIPFIX(flow *IPFIXFlow, sequence uint32, includeTemplates bool, now time.Time) ([][]byte, uint32, error) {
	exportTime := clampUnixSecs(now)
	domain := uint32(1)

	if h := flow.Header; h != nil {
		if h.ExportTime != nil {
			exportTime = *h.ExportTime
		}
		if h.ObservationDomainId != nil {
			domain = *h.ObservationDomainId
		}
	}

	var templates []*TemplateFlowSet
	var data []*DataFlowSet
	for i := range flow.FlowSets {
		switch fs := flow.FlowSets[i]; fs.Kind {
		case KindTemplate:
			templates = append(templates, fs.Template)
		case KindData:
			data = append(data, fs.Data)
		}
	}

	packets := make([][]byte, 0, len(data)+1)

	if includeTemplates && len(templates) > 0 {
		b, err := buildIPFIXTemplateMessage(exportTime, sequence, domain, templates)
		if err != nil {
			return nil, sequence, err
		}
		packets = append(packets, b)
	}

	for _, dfs := range data {
		template := lookupTemplate(templates, dfs.TemplateId)
		if template == nil {
			return nil, sequence, TemplateNotFound(domain, dfs.TemplateId)
		}
		b, err := buildIPFIXDataMessage(exportTime, sequence, domain, template, dfs)
		if err != nil {
			return nil, sequence, err
		}
		packets = append(packets, b)
		sequence += uint32(len(dfs.Records))
	}

	return packets, sequence, nil
}

func appendIPFIXHeader(b []byte, exportTime, sequence, domain uint32) []byte {
	b = binary.BigEndian.AppendUint16(b, 10)
	b = binary.BigEndian.AppendUint16(b, 0) // total length, patched last
	b = binary.BigEndian.AppendUint32(b, exportTime)
	b = binary.BigEndian.AppendUint32(b, sequence)
	b = binary.BigEndian.AppendUint32(b, domain)
	return b
}

func buildIPFIXTemplateMessage(exportTime, sequence, domain uint32, templates []*TemplateFlowSet) ([]byte, error) {
	b := make([]byte, 0, ipfixHeaderLength)
	b = appendIPFIXHeader(b, exportTime, sequence, domain)

	for _, t := range templates {
		if t.TemplateId < 256 {
			return nil, InvalidTemplateId(t.TemplateId)
		}

		b = binary.BigEndian.AppendUint16(b, ipfixTemplateSetId)
		lengthPos := len(b)
		b = binary.BigEndian.AppendUint16(b, 0)

		b = binary.BigEndian.AppendUint16(b, t.TemplateId)
		b = binary.BigEndian.AppendUint16(b, uint16(len(t.Fields)))

		for _, f := range t.Fields {
			id, ok := IPFIXFieldId(f.Type)
			if !ok {
				return nil, UnknownFieldType(f.Type)
			}
			b = binary.BigEndian.AppendUint16(b, id)
			b = binary.BigEndian.AppendUint16(b, f.Length)
		}

		var err error
		if b, err = patchSetLength(b, lengthPos); err != nil {
			return nil, err
		}
	}

	return patchMessageLength(b)
}

func buildIPFIXDataMessage(exportTime, sequence, domain uint32, template *TemplateFlowSet, dfs *DataFlowSet) ([]byte, error) {
	if dfs.TemplateId < 256 {
		return nil, InvalidTemplateId(dfs.TemplateId)
	}

	b := make([]byte, 0, ipfixHeaderLength)
	b = appendIPFIXHeader(b, exportTime, sequence, domain)

	b = binary.BigEndian.AppendUint16(b, dfs.TemplateId)
	lengthPos := len(b)
	b = binary.BigEndian.AppendUint16(b, 0)

	var err error
	if b, err = appendDataRecords(b, template, dfs.Records, IPFIXFieldId, IPFIXFieldKey); err != nil {
		return nil, err
	}

	if b, err = patchSetLength(b, lengthPos); err != nil {
		return nil, err
	}
	return patchMessageLength(b)
}

// patchMessageLength back-patches the message's total byte length into the
// 16-bit field at offset 2 of the RFC 7011 header.
func patchMessageLength(b []byte) ([]byte, error) {
	if len(b) > 0xFFFF {
		return nil, MessageTooLarge(len(b))
	}
	binary.BigEndian.PutUint16(b[2:], uint16(len(b)))
	return b, nil
}
