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
	v9HeaderLength int = 20

	// flowset id announcing a v9 template flowset
	v9TemplateFlowSetId uint16 = 0
)

// BuildV9 encodes the messages for one v9 flow entry: when includeTemplates is
// set and the entry defines templates, one template message carrying every
// template flowset of the entry, followed by one data message per data flowset
// in entry order.
//
// sequence is the source_id's current counter. Per RFC 3954 the counter counts
// flow records exported, so the template message carries sequence without
// advancing it, and every data message advances it by the number of records in
// its flowset.
func BuildV9(flow *V9Flow, sequence uint32, includeTemplates bool, now time.Time) ([][]byte, uint32, error) {
	sysUpTime := defaultSysUpTime
	unixSecs := clampUnixSecs(now)
	sourceId := uint32(1)

	if h := flow.Header; h != nil {
		if h.SysUpTime != nil {
			sysUpTime = *h.SysUpTime
		}
		if h.UnixSecs != nil {
			unixSecs = *h.UnixSecs
		}
		if h.SourceId != nil {
			sourceId = *h.SourceId
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
		b, err := buildV9TemplateMessage(sysUpTime, unixSecs, sequence, sourceId, templates)
		if err != nil {
			return nil, sequence, err
		}
		packets = append(packets, b)
	}

	for _, dfs := range data {
		template := lookupTemplate(templates, dfs.TemplateId)
		if template == nil {
			return nil, sequence, TemplateNotFound(sourceId, dfs.TemplateId)
		}
		b, err := buildV9DataMessage(sysUpTime, unixSecs, sequence, sourceId, template, dfs)
		if err != nil {
			return nil, sequence, err
		}
		packets = append(packets, b)
		sequence += uint32(len(dfs.Records))
	}

	return packets, sequence, nil
}

func lookupTemplate(templates []*TemplateFlowSet, id uint16) *TemplateFlowSet {
	for _, t := range templates {
		if t.TemplateId == id {
			return t
		}
	}
	return nil
}

func appendV9Header(b []byte, count uint16, sysUpTime, unixSecs, sequence, sourceId uint32) []byte {
	b = binary.BigEndian.AppendUint16(b, 9)
	b = binary.BigEndian.AppendUint16(b, count)
	b = binary.BigEndian.AppendUint32(b, sysUpTime)
	b = binary.BigEndian.AppendUint32(b, unixSecs)
	b = binary.BigEndian.AppendUint32(b, sequence)
	b = binary.BigEndian.AppendUint32(b, sourceId)
	return b
}

// the header's count field counts flowsets per RFC 3954, so the template message
// carries the number of template flowsets and data messages carry 1
func buildV9TemplateMessage(sysUpTime, unixSecs, sequence, sourceId uint32, templates []*TemplateFlowSet) ([]byte, error) {
	b := make([]byte, 0, v9HeaderLength)
	b = appendV9Header(b, uint16(len(templates)), sysUpTime, unixSecs, sequence, sourceId)

	for _, t := range templates {
		b = binary.BigEndian.AppendUint16(b, v9TemplateFlowSetId)
		lengthPos := len(b)
		b = binary.BigEndian.AppendUint16(b, 0)

		b = binary.BigEndian.AppendUint16(b, t.TemplateId)
		b = binary.BigEndian.AppendUint16(b, uint16(len(t.Fields)))

		for _, f := range t.Fields {
			id, ok := V9FieldId(f.Type)
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

	return b, nil
}

func buildV9DataMessage(sysUpTime, unixSecs, sequence, sourceId uint32, template *TemplateFlowSet, dfs *DataFlowSet) ([]byte, error) {
	b := make([]byte, 0, v9HeaderLength)
	b = appendV9Header(b, 1, sysUpTime, unixSecs, sequence, sourceId)

	b = binary.BigEndian.AppendUint16(b, dfs.TemplateId)
	lengthPos := len(b)
	b = binary.BigEndian.AppendUint16(b, 0)

	var err error
	if b, err = appendDataRecords(b, template, dfs.Records, V9FieldId, V9FieldKey); err != nil {
		return nil, err
	}

	if b, err = patchSetLength(b, lengthPos); err != nil {
		return nil, err
	}
	return b, nil
}

// appendDataRecords serializes every record by walking the template fields in
// order, looking up values under the canonical record key of each field. Fields
// the record omits encode as zeros of the declared length.
func appendDataRecords(b []byte, template *TemplateFlowSet, records []Record, fieldId func(string) (uint16, bool), fieldKey func(uint16) string) ([]byte, error) {
	for _, record := range records {
		for _, f := range template.Fields {
			id, ok := fieldId(f.Type)
			if !ok {
				return nil, UnknownFieldType(f.Type)
			}
			b = append(b, EncodeValue(record[fieldKey(id)], f.Length)...)
		}
	}
	return b, nil
}

// patchSetLength zero-pads the region starting two bytes before lengthPos (the
// set/flowset id) to a multiple of four and back-patches its total length into
// the 16-bit field at lengthPos.
func patchSetLength(b []byte, lengthPos int) ([]byte, error) {
	start := lengthPos - 2
	for (len(b)-start)%4 != 0 {
		b = append(b, 0)
	}
	length := len(b) - start
	if length > 0xFFFF {
		return nil, MessageTooLarge(length)
	}
	binary.BigEndian.PutUint16(b[lengthPos:], uint16(length))
	return b, nil
}
