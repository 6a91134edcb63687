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

package track

import (
	"context"
	"time"

	"github.com/bobbytrapz/livecheck/notify"
	"github.com/bobbytrapz/livecheck/queue"
	"github.com/bobbytrapz/livecheck/stream"
)

// Consumer applies queued outcomes to the registry's streams
type Consumer struct {
	reg      *Registry
	q        *queue.Queue
	notifier notify.Notifier

	liveSince map[stream.Key]time.Time
	updatedAt map[stream.Key]time.Time
	message   map[stream.Key]string
}

// NewConsumer for a registry and queue
// notifier may be nil
func NewConsumer(reg *Registry, q *queue.Queue, notifier notify.Notifier) *Consumer {
	return &Consumer{
		reg:       reg,
		q:         q,
		notifier:  notifier,
		liveSince: make(map[stream.Key]time.Time),
		updatedAt: make(map[stream.Key]time.Time),
		message:   make(map[stream.Key]string),
	}
}

// Run until ctx is done
// outcomes already queued when ctx ends are still applied
func (c *Consumer) Run(ctx context.Context) error {
	c.publish()
	for {
		select {
		case <-ctx.Done():
			c.apply(context.WithoutCancel(ctx), c.q.Drain())
			c.publish()
			logger.Debugf("track.Run: %s", ctx.Err())
			return nil
		case <-c.q.Ready():
			c.apply(ctx, c.q.Drain())
			c.publish()
		case <-c.reg.Changed():
			c.prune()
			c.publish()
		}
	}
}

func (c *Consumer) apply(ctx context.Context, outcomes []stream.Outcome) {
	for _, o := range outcomes {
		s, ok := c.reg.Get(o.Key)
		if !ok {
			// removed from the list while its poll was in flight
			logger.Debugf("track.apply: no longer tracking %s", o.Key)
			continue
		}

		from := s.Status()
		o.Change.Apply(s)
		to := s.Status()

		at := o.At
		if at.IsZero() {
			at = time.Now()
		}
		c.updatedAt[o.Key] = at
		c.message[o.Key] = o.Message()

		switch {
		case to.IsLive() && !from.IsLive():
			c.liveSince[o.Key] = at
		case !to.IsLive():
			delete(c.liveSince, o.Key)
		}

		if from == to || c.notifier == nil {
			continue
		}

		t := notify.Transition{
			Key:         s.Key(),
			Kind:        s.Kind(),
			Name:        s.Name(),
			DisplayName: s.DisplayName(),
			From:        from,
			To:          to,
			At:          at,
			Initial:     from == stream.Unset,
			Message:     o.Message(),
		}
		t.Viewers, _ = s.Viewers()
		if g, ok := s.(gamer); ok {
			t.Game = g.Game()
		}
		if err := c.notifier.Notify(ctx, t); err != nil {
			logger.Warningf("track.apply: %s: notify: %s", o.Key, err)
		}
	}
}

// prune bookkeeping for streams that are gone
func (c *Consumer) prune() {
	for key := range c.updatedAt {
		if _, ok := c.reg.Get(key); !ok {
			delete(c.updatedAt, key)
			delete(c.liveSince, key)
			delete(c.message, key)
		}
	}
}

func (c *Consumer) publish() {
	all := c.reg.All()
	infos := make([]Info, 0, len(all))
	for _, s := range all {
		i := InfoOf(s)
		i.LiveSince = c.liveSince[i.Key]
		i.UpdatedAt = c.updatedAt[i.Key]
		i.Message = c.message[i.Key]
		infos = append(infos, i)
	}
	c.reg.publish(infos)
}
