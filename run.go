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
	"time"
)

// DefaultTickInterval paces continuous mode.
const DefaultTickInterval = 2 * time.Second

// Sink consumes the buffers of one tick. UDPSender and CaptureWriter implement
// it; the runner writes serially, workers never touch the sink.
type Sink interface {
	Write(ctx context.Context, packets [][]byte) error
	Close() error
}

// Runner drives the tick loop: decide template inclusion, build all exporter
// groups, hand the buffers to the sink. In continuous mode it repeats until the
// context is cancelled; a tick in progress always runs to completion, the
// context is only observed while sleeping between ticks.
type Runner struct {
	Groups  []*ExporterGroup
	Store   *SequenceStore
	Clock   *RefreshClock
	Sink    Sink
	Workers int

	// Interval paces continuous mode; Once disables it after the first tick.
	Interval time.Duration
	Once     bool
}

func NewRunner(config *Config, sink Sink) *Runner {
	return &Runner{
		Groups:   GroupFlows(config.Flows),
		Store:    NewSequenceStore(),
		Clock:    NewRefreshClock(DefaultRefreshInterval),
		Sink:     sink,
		Workers:  DefaultWorkers,
		Interval: DefaultTickInterval,
	}
}

// Run executes ticks until the context is cancelled (continuous mode) or after
// one tick (Once). Errors from building or the sink abort the loop; context
// cancellation is a normal termination and returns nil.
func (r *Runner) Run(ctx context.Context) error {
	logger := FromContext(ctx)

	if err := r.tick(ctx); err != nil {
		return err
	}
	if r.Once {
		return nil
	}

	interval := r.Interval
	if interval <= 0 {
		interval = DefaultTickInterval
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case <-timer.C:
			if err := r.tick(ctx); err != nil {
				return err
			}
			timer.Reset(interval)
		}
	}
}

func (r *Runner) tick(ctx context.Context) error {
	logger := FromContext(ctx)

	now := time.Now()
	includeTemplates := r.Clock.Tick(now)
	if includeTemplates {
		TemplateRefreshes.Inc()
	}

	packets, err := BuildTick(ctx, r.Groups, r.Store, includeTemplates, r.Workers, now)
	if err != nil {
		return err
	}
	if err := r.Sink.Write(ctx, packets); err != nil {
		return err
	}

	Ticks.Inc()
	logger.V(1).Info("tick complete", "packets", len(packets), "templates", includeTemplates)
	return nil
}
