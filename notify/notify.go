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

// Package notify tells interested parties when a stream changes status.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/bobbytrapz/livecheck/stream"
)

var logger = loggo.GetLogger("livecheck.notify")

// Transition of one stream from one status to another
type Transition struct {
	Key         stream.Key    `json:"key"`
	Kind        stream.Kind   `json:"kind"`
	Name        string        `json:"name"`
	DisplayName string        `json:"display_name"`
	From        stream.Status `json:"from"`
	To          stream.Status `json:"to"`
	Viewers     int           `json:"viewers,omitempty"`
	Game        string        `json:"game,omitempty"`
	At          time.Time     `json:"at"`
	// first status a stream ever had
	Initial bool `json:"initial"`
	// diagnostic when To is Problem
	Message string `json:"message,omitempty"`
}

// WentLive is true for a non-initial change into a live status
func (t Transition) WentLive() bool {
	return !t.Initial && t.To.IsLive() && !t.From.IsLive()
}

// Notifier receives transitions from the consumer
// Notify must not hold on to the consumer for long
type Notifier interface {
	Notify(ctx context.Context, t Transition) error
}

// Func adapts a plain function
type Func func(ctx context.Context, t Transition) error

// Notify calls fn
func (fn Func) Notify(ctx context.Context, t Transition) error {
	return fn(ctx, t)
}

// Multi sends each transition to every notifier
// one failing notifier does not stop the others
type Multi []Notifier

// Notify all
func (m Multi) Notify(ctx context.Context, t Transition) error {
	var first error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, t); err != nil {
			logger.Warningf("notify.Multi: %s: %s", t.Key, err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// Log notifier writes transitions to the module logger
type Log struct {
	// also log initial statuses
	Verbose bool
}

// Notify logs
func (l Log) Notify(ctx context.Context, t Transition) error {
	switch {
	case t.Initial && !l.Verbose:
		return nil
	case t.Initial:
		logger.Debugf("%s is %s", t.DisplayName, t.To)
	case t.WentLive() && t.Game != "":
		logger.Infof("%s is live playing %s (%s)", t.DisplayName, t.Game, t.Key)
	case t.WentLive():
		logger.Infof("%s is live (%s)", t.DisplayName, t.Key)
	case t.To == stream.Problem:
		logger.Warningf("%s: %s -> %s: %s", t.DisplayName, t.From, t.To, t.Message)
	default:
		logger.Infof("%s: %s -> %s", t.DisplayName, t.From, t.To)
	}
	return nil
}

// Feed fans transitions out to subscribers over buffered channels
// a slow subscriber misses transitions rather than blocking the consumer
type Feed struct {
	mu     sync.Mutex
	subs   map[int]chan Transition
	nextID int
	buffer int
}

// NewFeed with the given per-subscriber buffer
func NewFeed(buffer int) *Feed {
	if buffer < 1 {
		buffer = 1
	}
	return &Feed{
		subs:   make(map[int]chan Transition),
		buffer: buffer,
	}
}

// Subscribe returns a channel and a function to stop receiving
func (f *Feed) Subscribe() (<-chan Transition, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++
	ch := make(chan Transition, f.buffer)
	f.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.subs, id)
			close(ch)
		})
	}
}

// Notify every subscriber
func (f *Feed) Notify(ctx context.Context, t Transition) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	dropped := 0
	for _, ch := range f.subs {
		select {
		case ch <- t:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		return errors.Errorf("notify.Feed: %d subscribers missed %s", dropped, t.Key)
	}
	return nil
}

// Len of subscribers
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
