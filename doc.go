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

/*
Package for generating synthetic NetFlow traffic. Supports encoding NetFlow v5 and v7
(fixed record layouts per the Cisco specifications), NetFlow v9 (RFC 3954), and IPFIX
(RFC 7011) messages from a declarative flow description, and emitting them either as
UDP datagrams towards a collector or as Ethernet/IPv4/UDP-framed records in a pcap file.

# Overview

The package is organized around a per-tick pipeline: a YAML configuration describes an
ordered list of flows, each tagged with its protocol version. Flows are bucketed by
exporter identity (engine type/id for v5, source id for v9, observation domain id for
IPFIX, and a per-entry singleton for v7), and each bucket owns a persistent 32-bit
sequence counter in a SequenceStore. Buckets are built concurrently, bounded by a worker
count, while flows inside one bucket are serialized so that sequence numbers within an
exporter identity are strictly monotonic.

v9 and IPFIX flows carry template and data flowsets. Templates are scoped to the flow
entry defining them; a data flowset referencing a template its entry does not define is
rejected. A RefreshClock decides per tick whether template messages are (re-)emitted;
data messages are emitted every tick. Per RFC 3954 and RFC 7011, template messages do
not advance the sequence counter, data messages advance it by the number of records
they carry.

The two sinks are a UDPSender, which binds a single source socket and sends one
datagram per built message, and a CaptureWriter, which frames each message with
synthetic Ethernet/IPv4/UDP headers and appends it to a pcap file readable by common
packet analyzers.

# Sequence Semantics

Collectors order packets by (exporter identity, sequence number), so correctness of
the counters is the load-bearing part of this package: v5 counts flow records, v9
counts flow records in data messages, IPFIX counts data records. v7 has no
cross-packet sequence tracking; each v7 entry starts from its configured (or zero)
sequence every tick.
*/
package netflowgen
