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

import "time"

// DefaultRefreshInterval is how long template flowsets stay fresh before the
// next tick re-announces them. RFC 3954 recommends periodic retransmission
// because templates sent over UDP can be lost.
const DefaultRefreshInterval = 30 * time.Second

// RefreshClock decides per tick whether v9/IPFIX template flowsets are included
// in the messages built this tick. The first tick always includes them; after
// that they are re-sent once interval has elapsed since the last send. The clock
// is owned by the main loop and must not be shared across goroutines.
type RefreshClock struct {
	interval time.Duration
	lastSend time.Time
}

func NewRefreshClock(interval time.Duration) *RefreshClock {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &RefreshClock{interval: interval}
}

// Tick reports whether templates are due at now, and advances the deadline when
// they are. The same result applies to every exporter group of the tick.
func (c *RefreshClock) Tick(now time.Time) bool {
	if c.lastSend.IsZero() || now.Sub(c.lastSend) >= c.interval {
		c.lastSend = now
		return true
	}
	return false
}
