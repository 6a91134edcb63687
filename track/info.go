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
	"time"

	"github.com/bobbytrapz/livecheck/stream"
)

// Info is a read-only copy of a stream for display
type Info struct {
	Key             stream.Key    `json:"key"`
	Kind            stream.Kind   `json:"kind"`
	Name            string        `json:"name"`
	DisplayName     string        `json:"display_name"`
	Link            string        `json:"link"`
	Service         string        `json:"service"`
	Status          stream.Status `json:"status"`
	Viewers         int           `json:"viewers"`
	HasViewers      bool          `json:"has_viewers"`
	Game            string        `json:"game,omitempty"`
	HasBatchSupport bool          `json:"has_batch_support"`
	LiveSince       time.Time     `json:"live_since"`
	UpdatedAt       time.Time     `json:"updated_at"`
	Message         string        `json:"message,omitempty"`
}

// gamer is implemented by streams that know what is being played
type gamer interface {
	Game() string
}

// InfoOf a stream
func InfoOf(s stream.Stream) Info {
	i := Info{
		Key:             s.Key(),
		Kind:            s.Kind(),
		Name:            s.Name(),
		DisplayName:     s.DisplayName(),
		Link:            s.Link(),
		Service:         s.ServiceName(),
		Status:          s.Status(),
		HasBatchSupport: s.HasBatchSupport(),
	}
	i.Viewers, i.HasViewers = s.Viewers()
	if g, ok := s.(gamer); ok {
		i.Game = g.Game()
	}
	return i
}

// IsLive right now
func (i Info) IsLive() bool {
	return i.Status.IsLive()
}

// IsTrouble when we could not tell what the stream is doing
func (i Info) IsTrouble() bool {
	switch i.Status {
	case stream.Problem, stream.Unknown, stream.Unsupported, stream.Unset:
		return true
	}
	return false
}

// ByUrgency sorts live streams first, longest running on top,
// then streams with trouble, then everyone else by name
type ByUrgency []Info

func (s ByUrgency) Len() int {
	return len(s)
}

func (s ByUrgency) Swap(a, b int) {
	s[a], s[b] = s[b], s[a]
}

func (s ByUrgency) Less(a, b int) bool {
	if s[a].IsLive() != s[b].IsLive() {
		return s[a].IsLive()
	}

	if s[a].IsLive() && !s[a].LiveSince.Equal(s[b].LiveSince) {
		return s[a].LiveSince.Before(s[b].LiveSince)
	}

	if s[a].IsTrouble() != s[b].IsTrouble() {
		return s[a].IsTrouble()
	}

	if s[a].DisplayName != s[b].DisplayName {
		return s[a].DisplayName < s[b].DisplayName
	}

	return s[a].Key < s[b].Key
}
