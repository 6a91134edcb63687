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

// Package queue hands outcomes from the schedulers to the one consumer
// allowed to apply them.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/juju/loggo"

	"github.com/bobbytrapz/livecheck/provider"
	"github.com/bobbytrapz/livecheck/stream"
)

var logger = loggo.GetLogger("livecheck.queue")

// Queue of outcomes waiting to be applied
// any number of producers, one consumer
type Queue struct {
	mu      sync.Mutex
	pending []stream.Outcome
	ready   chan struct{}
}

// New empty queue
func New() *Queue {
	return &Queue{
		ready: make(chan struct{}, 1),
	}
}

// Push outcomes; never blocks on the consumer
func (q *Queue) Push(outcomes ...stream.Outcome) {
	if len(outcomes) == 0 {
		return
	}

	q.mu.Lock()
	q.pending = append(q.pending, outcomes...)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Ready is signalled after a push
// a signal may cover several pushes so always Drain everything
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// Drain takes every pending outcome in push order
func (q *Queue) Drain() []stream.Outcome {
	q.mu.Lock()
	defer q.mu.Unlock()
	drained := q.pending
	q.pending = nil
	return drained
}

// Len of pending outcomes
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Refresh one stream right now with its provider's updater
// the outcome is queued like any other and also returned
func (q *Queue) Refresh(ctx context.Context, u provider.Updater, s stream.Stream) stream.Outcome {
	o := provider.One(ctx, u, s)
	if o.At.IsZero() {
		o.At = time.Now()
	}
	logger.Debugf("queue.Refresh: %s: %s", s.Link(), o.Change.Status)
	q.Push(o)
	return o
}
