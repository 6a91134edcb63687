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

package poll

import (
	"context"

	"github.com/bobbytrapz/livecheck/stream"
)

// Group of schedulers, one per provider
type Group struct {
	schedulers []*Scheduler
}

// NewGroup of schedulers
func NewGroup(schedulers ...*Scheduler) *Group {
	return &Group{schedulers: schedulers}
}

// Start every scheduler
func (g *Group) Start(ctx context.Context) {
	for _, s := range g.schedulers {
		s.Start(ctx)
	}
}

// Get the scheduler for a provider
func (g *Group) Get(kind stream.Kind) (*Scheduler, bool) {
	for _, s := range g.schedulers {
		if s.Kind() == kind {
			return s, true
		}
	}
	return nil, false
}

// CheckNow wakes every scheduler
func (g *Group) CheckNow() {
	for _, s := range g.schedulers {
		s.CheckNow()
	}
}

// Status of every scheduler
func (g *Group) Status() []Health {
	health := make([]Health, 0, len(g.schedulers))
	for _, s := range g.schedulers {
		health = append(health, s.Status())
	}
	return health
}

// Wait for every scheduler to stop or for ctx to end
// false means some scheduler was still running
func (g *Group) Wait(ctx context.Context) bool {
	for _, s := range g.schedulers {
		select {
		case <-s.Done():
		case <-ctx.Done():
			logger.Warningf("poll.Wait: %s still running", s.Kind())
			return false
		}
	}
	return true
}
