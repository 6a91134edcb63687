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
	"time"

	"github.com/bobbytrapz/livecheck/poll"
	"github.com/bobbytrapz/livecheck/track"
)

// Command is the rpc receiver
type Command struct {
	s *Server
}

// Dashboard represents a connected dashboard
type Dashboard struct {
	// "?" asks for the shared selection without changing it
	SelectURL  string
	TrackTable track.DisplayTable
	Streams    []track.Info
	Health     []poll.Health
}

func (s *Server) replicate(req *Dashboard, res *Dashboard) {
	s.mu.Lock()
	if req.SelectURL == "?" {
		res.SelectURL = s.selectURL
	} else {
		s.selectURL = req.SelectURL
		res.SelectURL = req.SelectURL
	}
	s.mu.Unlock()

	infos := s.cfg.Registry.Snapshot()
	res.Streams = append([]track.Info(nil), infos...)
	res.TrackTable = track.Display(infos, time.Now())
	if s.cfg.Group != nil {
		res.Health = s.cfg.Group.Status()
	}
}

// Status for the dashboard
func (c *Command) Status(req *Dashboard, res *Dashboard) error {
	c.s.replicate(req, res)

	return nil
}
