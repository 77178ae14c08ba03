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
	"bufio"
	"context"
	"encoding/binary"
	"net"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	captureSnapLen uint32 = 65535

	// synthetic endpoints of the capture framing
	captureSourcePort uint16 = 12345

	ethernetHeaderLength int = 14
	ipv4HeaderLength     int = 20
	udpHeaderLength      int = 8
)

var captureSourceIP = [4]byte{10, 0, 0, 1}

// CaptureWriter frames every built NetFlow buffer as Ethernet/IPv4/UDP and
// appends it as one record to a pcap file with microsecond timestamps. The file
// header is written once at startup; records accumulate across ticks until the
// writer is closed on shutdown.
//
// The synthetic framing is fixed: MACs 00:00:00:00:00:01 → 00:00:00:00:00:02,
// IPv4 10.0.0.1 → the configured destination with a valid header checksum, UDP
// 12345 → the configured port with the checksum left zero, which is legal on
// IPv4. Capture output therefore requires an IPv4 destination.
type CaptureWriter struct {
	f  *os.File
	bw *bufio.Writer
	w  *pcapgo.Writer

	dstIP   [4]byte
	dstPort uint16
}

func NewCaptureWriter(path string, dest *net.UDPAddr) (*CaptureWriter, error) {
	ip4 := dest.IP.To4()
	if ip4 == nil {
		return nil, ErrCaptureRequiresIPv4
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	bw := bufio.NewWriter(f)
	w := pcapgo.NewWriter(bw)
	if err := w.WriteFileHeader(captureSnapLen, layers.LinkTypeEthernet); err != nil {
		f.Close()
		return nil, err
	}

	c := &CaptureWriter{
		f:       f,
		bw:      bw,
		w:       w,
		dstPort: uint16(dest.Port),
	}
	copy(c.dstIP[:], ip4)
	return c, nil
}

// Write appends one capture record per buffer, stamped with the current wall
// clock.
func (c *CaptureWriter) Write(ctx context.Context, packets [][]byte) error {
	logger := FromContext(ctx)

	for _, packet := range packets {
		frame := c.frame(packet)
		ci := gopacket.CaptureInfo{
			Timestamp:     time.Now(),
			CaptureLength: len(frame),
			Length:        len(frame),
		}
		if err := c.w.WritePacket(ci, frame); err != nil {
			return err
		}
		CaptureRecordsTotal.Inc()
		CaptureBytesTotal.Add(float64(len(frame)))
		logger.V(1).Info("wrote capture record", "bytes", len(frame))
	}
	return nil
}

// Close flushes buffered records and closes the file.
func (c *CaptureWriter) Close() error {
	if err := c.bw.Flush(); err != nil {
		c.f.Close()
		return err
	}
	return c.f.Close()
}

// frame prepends the synthetic Ethernet/IPv4/UDP headers to one NetFlow buffer.
func (c *CaptureWriter) frame(payload []byte) []byte {
	b := make([]byte, 0, ethernetHeaderLength+ipv4HeaderLength+udpHeaderLength+len(payload))

	// Ethernet
	b = append(b, 0x00, 0x00, 0x00, 0x00, 0x00, 0x02) // dst MAC
	b = append(b, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01) // src MAC
	b = binary.BigEndian.AppendUint16(b, uint16(layers.EthernetTypeIPv4))

	// IPv4, checksum patched after the header is complete
	ipStart := len(b)
	b = append(b, 0x45, 0x00)
	b = binary.BigEndian.AppendUint16(b, uint16(ipv4HeaderLength+udpHeaderLength+len(payload)))
	b = binary.BigEndian.AppendUint16(b, 0)      // identification
	b = binary.BigEndian.AppendUint16(b, 0x4000) // DF, fragment offset 0
	b = append(b, 64, 17)                        // TTL, protocol UDP
	b = binary.BigEndian.AppendUint16(b, 0)      // checksum placeholder
	b = append(b, captureSourceIP[:]...)
	b = append(b, c.dstIP[:]...)
	binary.BigEndian.PutUint16(b[ipStart+10:], ipv4Checksum(b[ipStart:ipStart+ipv4HeaderLength]))

	// UDP, checksum zero
	b = binary.BigEndian.AppendUint16(b, captureSourcePort)
	b = binary.BigEndian.AppendUint16(b, c.dstPort)
	b = binary.BigEndian.AppendUint16(b, uint16(udpHeaderLength+len(payload)))
	b = binary.BigEndian.AppendUint16(b, 0)

	return append(b, payload...)
}

// ipv4Checksum is the one's-complement of the one's-complement 16-bit sum over
// the header with its checksum field zeroed.
func ipv4Checksum(header []byte) uint16 {
	var sum uint32
	for i := 0; i < len(header); i += 2 {
		sum += uint32(binary.BigEndian.Uint16(header[i:]))
	}
	for sum > 0xFFFF {
		sum = (sum & 0xFFFF) + (sum >> 16)
	}
	return ^uint16(sum)
}

var (
	CaptureRecordsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "capture_writer_records_total",
		Help: "Total number of records written to the capture file",
	})
	CaptureBytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "capture_writer_bytes_total",
		Help: "Total number of frame bytes written to the capture file",
	})
)
