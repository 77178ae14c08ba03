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
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds how many exporter groups build concurrently per tick.
const DefaultWorkers = 4

// BuildTick builds every exporter group for one tick. Groups run concurrently,
// bounded by workers; workers only load their identity's counter (seeding it on
// first encounter) and return their results, they do not write advanced
// counters back. Sequence updates are applied once after all groups succeeded, so a
// failed tick leaves every identity's counter untouched and nothing is handed to
// a sink. The returned buffers are concatenated in group order, which is
// deterministic but not meaningful to collectors: each datagram stands alone and
// is ordered by (identity, sequence).
func BuildTick(ctx context.Context, groups []*ExporterGroup, store *SequenceStore, includeTemplates bool, workers int, now time.Time) ([][]byte, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	packets := make([][][]byte, len(groups))
	next := make([]uint32, len(groups))

	for i, g := range groups {
		i, g := i, g
		eg.Go(func() error {
			sequence := store.Load(g.Key, g.Seed)
			bs, seq, err := g.Build(sequence, includeTemplates, now)
			if err != nil {
				BuildErrors.WithLabelValues(g.Key.Version).Inc()
				return fmt.Errorf("exporter %s: %w", g.Key, err)
			}
			packets[i] = bs
			next[i] = seq
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for i, g := range groups {
		store.Store(g.Key, next[i])
	}

	var out [][]byte
	for _, bs := range packets {
		out = append(out, bs...)
	}
	return out, nil
}
