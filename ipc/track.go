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

package ipc

import (
	"context"

	"github.com/juju/errors"

	"github.com/bobbytrapz/livecheck/stream"
	"github.com/bobbytrapz/livecheck/track"
)

// CheckNow wakes every scheduler
func (c *Command) CheckNow(req *Dashboard, res *Dashboard) error {
	logger.Debugf("ipc.CheckNow")
	if c.s.cfg.Group != nil {
		c.s.cfg.Group.CheckNow()
	}
	c.s.replicate(req, res)
	return nil
}

// Refreshed is the answer to a manual refresh
// the outcome is applied by the consumer shortly after
type Refreshed struct {
	Key     stream.Key
	Status  stream.Status
	Code    int
	Message string
}

// Refresh one tracked stream right now
func (c *Command) Refresh(link string, res *Refreshed) error {
	s, err := c.s.cfg.Registry.Find(link)
	if err != nil {
		return err
	}

	u, ok := c.s.cfg.Updaters[s.Kind()]
	if !ok {
		return errors.NotSupportedf("refreshing %s streams", s.Kind())
	}

	ctx, cancel := context.WithTimeout(c.s.ctx, c.s.cfg.RequestTimeout())
	defer cancel()

	o := c.s.cfg.Queue.Refresh(ctx, u, s)
	res.Key = o.Key
	res.Status = o.Change.Status
	res.Code = o.Code
	res.Message = o.Message()
	return nil
}

// Opened is the answer to Open
type Opened struct {
	Key stream.Key
}

// Open a live stream in the player
func (c *Command) Open(link string, res *Opened) error {
	if c.s.cfg.Launcher == nil {
		return errors.NotSupportedf("opening streams")
	}

	key, err := stream.NormalizeLink(link)
	if err != nil {
		return err
	}
	i, ok := findInfo(c.s.cfg.Registry.Snapshot(), key)
	if !ok {
		return errors.NotFoundf("%s", key)
	}
	res.Key = i.Key
	return c.s.cfg.Launcher.Launch(c.s.ctx, i)
}

func findInfo(infos []track.Info, key stream.Key) (track.Info, bool) {
	for _, i := range infos {
		if i.Key == key {
			return i, true
		}
	}
	return track.Info{}, false
}
