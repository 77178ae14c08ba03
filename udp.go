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
	"context"
	"fmt"
	"net"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sys/unix"
)

// DefaultSourcePort is the local port the sender binds. It deliberately differs
// from the common collector port 2055 so a generator and a collector can share a
// host.
const DefaultSourcePort uint16 = 2056

// UDPSender owns the single socket all exporter groups send through. Every
// buffer goes out as one datagram; NetFlow performs no aggregation at the
// transport layer. WriteTo on the shared conn is safe for concurrent use, but
// the runner serializes sends anyway to keep emit order deterministic.
type UDPSender struct {
	sourcePort uint16
	dest       *net.UDPAddr

	conn net.PacketConn
}

func NewUDPSender(dest *net.UDPAddr, sourcePort uint16) *UDPSender {
	if sourcePort == 0 {
		sourcePort = DefaultSourcePort
	}
	return &UDPSender{
		sourcePort: sourcePort,
		dest:       dest,
	}
}

// Open binds 0.0.0.0 on the configured source port. SO_REUSEADDR and
// SO_REUSEPORT are set so quick restarts do not trip over sockets in TIME_WAIT
// and multiple generator processes can share the port.
func (s *UDPSender) Open(ctx context.Context) error {
	logger := FromContext(ctx)

	listenConfig := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var err error
			controlErr := c.Control(func(fd uintptr) {
				err = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
				if err != nil {
					return
				}
				err = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
			if controlErr != nil {
				err = controlErr
			}
			return err
		},
	}

	addr := fmt.Sprintf("0.0.0.0:%d", s.sourcePort)
	conn, err := listenConfig.ListenPacket(ctx, "udp", addr)
	if err != nil {
		logger.Error(err, "failed to bind udp socket", "addr", addr)
		return err
	}
	s.conn = conn

	logger.Info("bound UDP source socket", "addr", conn.LocalAddr(), "dest", s.dest)
	return nil
}

// Write sends each buffer as one datagram to the configured destination. A
// failed send aborts the tick; remaining buffers of the tick are not sent.
func (s *UDPSender) Write(ctx context.Context, packets [][]byte) error {
	logger := FromContext(ctx)

	for i, packet := range packets {
		n, err := s.conn.WriteTo(packet, s.dest)
		if err != nil {
			UDPErrorsTotal.Inc()
			return fmt.Errorf("failed to send packet %d of %d: %w", i+1, len(packets), err)
		}
		UDPPacketsTotal.Inc()
		UDPPacketBytes.Add(float64(n))
		logger.V(1).Info("sent packet", "bytes", n, "dest", s.dest)
	}
	return nil
}

func (s *UDPSender) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

var (
	UDPPacketsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "udp_sender_packets_total",
		Help: "Total number of datagrams sent by the UDP sender",
	})
	UDPErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "udp_sender_errors_total",
		Help: "Total number of send errors in the UDP sender",
	})
	UDPPacketBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "udp_sender_packet_bytes",
		Help: "Total number of bytes sent by the UDP sender",
	})
)
