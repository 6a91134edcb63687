// This file is part of livecheck.
//
// livecheck is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// livecheck is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with livecheck.  If not, see <https://www.gnu.org/licenses/>.

package provider

import (
	"context"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"

	"github.com/bobbytrapz/livecheck/stream"
)

// Entry is what a batch provider knows about one account
type Entry struct {
	// account name as the provider spells it
	Name        string
	DisplayName string
	// Public, Rerun or Offline
	Status  stream.Status
	Viewers *int
	// category id, compared against the exclusion list
	Category     string
	CategoryName string
}

// Querier sends one composite request for many accounts
//
// Entries come back in any order and accounts the provider does not know
// are simply missing.
type Querier interface {
	Query(ctx context.Context, names []string) (entries []Entry, code int, err error)
}

// CategoryResolver is implemented by queriers that can name category ids
type CategoryResolver interface {
	ResolveCategories(ctx context.Context, ids []string) (map[string]string, error)
}

// BatchConfig for NewBatch
type BatchConfig struct {
	Kind    stream.Kind
	Querier Querier
	// accounts per composite request, read on every update
	MaxPerRequest func() int
	// category ids that never count as live, read on every update
	Exclude func() []string
	// pause between two composite requests
	Delay func() time.Duration
	Clock clock.Clock
	// provider specific fields for the concrete stream kind
	Extra func(Entry) func(stream.Stream)
}

// Batch is an Updater for providers that answer for many accounts at once
//
// Chunks are sent one after another with a pause in between.
type Batch struct {
	cfg        BatchConfig
	categories *CategoryCache
}

// NewBatch updater
func NewBatch(cfg BatchConfig) *Batch {
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	if cfg.MaxPerRequest == nil {
		cfg.MaxPerRequest = func() int { return 0 }
	}
	if cfg.Exclude == nil {
		cfg.Exclude = func() []string { return nil }
	}
	if cfg.Delay == nil {
		cfg.Delay = func() time.Duration { return 0 }
	}

	return &Batch{
		cfg:        cfg,
		categories: NewCategoryCache(),
	}
}

// Kind of provider
func (b *Batch) Kind() stream.Kind {
	return b.cfg.Kind
}

// Categories cache owned by this updater
func (b *Batch) Categories() *CategoryCache {
	return b.categories
}

// Chunk streams into ordered groups of at most size
// size below one means no limit
func Chunk(streams []stream.Stream, size int) (chunks [][]stream.Stream) {
	if len(streams) == 0 {
		return nil
	}
	if size < 1 {
		size = len(streams)
	}
	for start := 0; start < len(streams); start += size {
		end := start + size
		if end > len(streams) {
			end = len(streams)
		}
		chunks = append(chunks, streams[start:end])
	}
	return
}

// Update every stream, one composite request per chunk
func (b *Batch) Update(ctx context.Context, streams []stream.Stream) []stream.Outcome {
	outcomes := make([]stream.Outcome, 0, len(streams))

	exclude := make(map[string]bool)
	for _, id := range b.cfg.Exclude() {
		exclude[strings.TrimSpace(id)] = true
	}

	chunks := Chunk(streams, b.cfg.MaxPerRequest())
	for ndx, chunk := range chunks {
		if ndx > 0 {
			if err := b.pause(ctx); err != nil {
				for _, rest := range chunks[ndx:] {
					for _, s := range rest {
						outcomes = append(outcomes, stream.Failed(s.Key(), 0, errors.Annotate(err, "batch abandoned")))
					}
				}
				return outcomes
			}
		}

		outcomes = append(outcomes, b.updateChunk(ctx, chunk, exclude)...)
	}

	return outcomes
}

func (b *Batch) pause(ctx context.Context) error {
	d := b.cfg.Delay()
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.cfg.Clock.After(d):
		return nil
	}
}

func (b *Batch) updateChunk(ctx context.Context, chunk []stream.Stream, exclude map[string]bool) []stream.Outcome {
	outcomes := make([]stream.Outcome, 0, len(chunk))

	names := make([]string, 0, len(chunk))
	seen := make(map[string]bool, len(chunk))
	for _, s := range chunk {
		n := strings.ToLower(s.Name())
		if seen[n] {
			continue
		}
		seen[n] = true
		names = append(names, s.Name())
	}

	entries, code, err := b.cfg.Querier.Query(ctx, names)
	if err != nil {
		logger.Debugf("provider.Batch: %s: %d accounts: %s", b.cfg.Kind, len(names), err)
		for _, s := range chunk {
			outcomes = append(outcomes, stream.Failed(s.Key(), code, err))
		}
		return outcomes
	}

	byName := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byName[strings.ToLower(e.Name)] = e
	}

	b.nameCategories(ctx, entries)

	for _, s := range chunk {
		e, ok := byName[strings.ToLower(s.Name())]
		if !ok {
			// the provider does not tell missing, banned and closed accounts apart
			outcomes = append(outcomes, stream.Succeeded(s.Key(), code, stream.Change{Status: stream.Banned}))
			continue
		}

		if e.CategoryName == "" {
			e.CategoryName, _ = b.categories.Get(e.Category)
		}

		c := stream.Change{
			Status:      e.Status,
			DisplayName: e.DisplayName,
			Viewers:     e.Viewers,
		}
		if c.Status.IsLive() && exclude[e.Category] {
			c.Status = stream.Offline
		}
		if b.cfg.Extra != nil {
			c.Extra = b.cfg.Extra(e)
		}

		outcomes = append(outcomes, stream.Succeeded(s.Key(), code, c))
	}

	return outcomes
}

// fill the cache from entries and ask the querier about ids still unknown
func (b *Batch) nameCategories(ctx context.Context, entries []Entry) {
	var ids []string
	for _, e := range entries {
		if e.Category == "" {
			continue
		}
		if e.CategoryName != "" {
			b.categories.Put(e.Category, e.CategoryName)
			continue
		}
		ids = append(ids, e.Category)
	}

	resolver, ok := b.cfg.Querier.(CategoryResolver)
	if !ok {
		return
	}

	missing := b.categories.Missing(ids)
	if len(missing) == 0 {
		return
	}

	names, err := resolver.ResolveCategories(ctx, missing)
	if err != nil {
		logger.Warningf("provider.Batch: %s: could not name %d categories: %s", b.cfg.Kind, len(missing), err)
		return
	}
	for id, name := range names {
		b.categories.Put(id, name)
	}
}
