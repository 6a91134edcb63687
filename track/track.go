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

// Package track keeps the set of tracked streams.
//
// The Registry owns membership. The Consumer is the only goroutine that
// changes stream attributes; everyone else reads the published snapshot.
package track

import (
	"sync"
	"sync/atomic"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/bobbytrapz/livecheck/stream"
)

var logger = loggo.GetLogger("livecheck.track")

// Registry of tracked streams
type Registry struct {
	rw      sync.RWMutex
	streams map[stream.Key]stream.Stream
	order   []stream.Key
	changed chan struct{}

	snapshot atomic.Pointer[[]Info]
}

// NewRegistry that tracks nothing
func NewRegistry() *Registry {
	r := &Registry{
		streams: make(map[stream.Key]stream.Stream),
		changed: make(chan struct{}, 1),
	}
	r.snapshot.Store(&[]Info{})
	return r
}

// Load replaces the tracked set
// streams already tracked keep their object and attributes
// duplicates are tracked once
func (r *Registry) Load(streams []stream.Stream) (added, removed []stream.Stream) {
	r.rw.Lock()
	defer r.rw.Unlock()

	next := make(map[stream.Key]stream.Stream, len(streams))
	order := make([]stream.Key, 0, len(streams))
	for _, s := range streams {
		if s == nil {
			continue
		}
		key := s.Key()
		if _, ok := next[key]; ok {
			logger.Debugf("track.Load: duplicate %s", key)
			continue
		}
		if have, ok := r.streams[key]; ok {
			next[key] = have
		} else {
			next[key] = s
			added = append(added, s)
		}
		order = append(order, key)
	}

	for _, key := range r.order {
		if _, ok := next[key]; !ok {
			removed = append(removed, r.streams[key])
		}
	}

	r.streams = next
	r.order = order

	if len(added) > 0 || len(removed) > 0 {
		logger.Infof("tracking %d streams (+%d -%d)", len(order), len(added), len(removed))
		select {
		case r.changed <- struct{}{}:
		default:
		}
	}

	return
}

// Changed is signalled after membership changes
func (r *Registry) Changed() <-chan struct{} {
	return r.changed
}

// Get a stream by key
func (r *Registry) Get(key stream.Key) (stream.Stream, bool) {
	r.rw.RLock()
	defer r.rw.RUnlock()
	s, ok := r.streams[key]
	return s, ok
}

// Find a stream by any spelling of its link
func (r *Registry) Find(link string) (stream.Stream, error) {
	key, err := stream.NormalizeLink(link)
	if err != nil {
		return nil, err
	}
	s, ok := r.Get(key)
	if !ok {
		return nil, errors.NotFoundf("%s", key)
	}
	return s, nil
}

// All tracked streams in list order
func (r *Registry) All() []stream.Stream {
	r.rw.RLock()
	defer r.rw.RUnlock()
	all := make([]stream.Stream, 0, len(r.order))
	for _, key := range r.order {
		all = append(all, r.streams[key])
	}
	return all
}

// Of one provider kind in list order
func (r *Registry) Of(kind stream.Kind) []stream.Stream {
	r.rw.RLock()
	defer r.rw.RUnlock()
	var of []stream.Stream
	for _, key := range r.order {
		if s := r.streams[key]; s.Kind() == kind {
			of = append(of, s)
		}
	}
	return of
}

// ByKind partitions the tracked streams by provider
func (r *Registry) ByKind() map[stream.Kind][]stream.Stream {
	r.rw.RLock()
	defer r.rw.RUnlock()
	by := make(map[stream.Kind][]stream.Stream)
	for _, key := range r.order {
		s := r.streams[key]
		by[s.Kind()] = append(by[s.Kind()], s)
	}
	return by
}

// Len of tracked streams
func (r *Registry) Len() int {
	r.rw.RLock()
	defer r.rw.RUnlock()
	return len(r.order)
}

// Snapshot is the last published copy of every stream
// safe to read from any goroutine
func (r *Registry) Snapshot() []Info {
	return *r.snapshot.Load()
}

// publish a new snapshot; only the consumer calls this
func (r *Registry) publish(infos []Info) {
	r.snapshot.Store(&infos)
}
