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

// Package twitch checks many channels per request.
//
// Two queriers are available: the public GQL endpoint the website uses and
// the Helix api, which needs application credentials.
package twitch

import (
	"net/url"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/bobbytrapz/livecheck/provider"
	"github.com/bobbytrapz/livecheck/stream"
)

var logger = loggo.GetLogger("livecheck.twitch")

// Kind of twitch streams
const Kind stream.Kind = "twitch"

// Channel on twitch
type Channel struct {
	*stream.Base
	game string
}

// Game being played, only known while live
func (c *Channel) Game() string {
	return c.game
}

// Module for the stream factory
var Module = provider.Module{
	Kind:        Kind,
	ServiceName: "Twitch",
	Hosts:       []string{"twitch.tv", "www.twitch.tv", "m.twitch.tv"},
	NewStream:   NewChannel,
}

// NewChannel from a channel link
// logins are case insensitive so the name is lowercased
func NewChannel(u *url.URL) (stream.Stream, error) {
	segs := stream.Segments(u)
	if len(segs) == 0 {
		return nil, errors.NotValidf("twitch link %q without a channel", u)
	}
	link := url.URL{Scheme: "https", Host: "twitch.tv", Path: "/" + segs[0]}
	return &Channel{
		Base: stream.NewBase(stream.Info{
			Link:            &link,
			Kind:            Kind,
			Name:            strings.ToLower(segs[0]),
			ServiceName:     "Twitch",
			HasBatchSupport: true,
		}),
	}, nil
}

// Config for the twitch updater
type Config struct {
	Querier       provider.Querier
	MaxPerRequest func() int
	// game ids that never count as live
	ExcludeGames func() []string
	Delay        func() time.Duration
	Clock        clock.Clock
}

// NewUpdater for twitch
func NewUpdater(cfg Config) *provider.Batch {
	return provider.NewBatch(provider.BatchConfig{
		Kind:          Kind,
		Querier:       cfg.Querier,
		MaxPerRequest: cfg.MaxPerRequest,
		Exclude:       cfg.ExcludeGames,
		Delay:         cfg.Delay,
		Clock:         cfg.Clock,
		Extra:         setGame,
	})
}

func setGame(e provider.Entry) func(stream.Stream) {
	return func(s stream.Stream) {
		c, ok := s.(*Channel)
		if !ok {
			return
		}
		// status is already applied; excluded games arrive here as offline
		c.game = ""
		if s.Status().IsLive() {
			c.game = e.CategoryName
		}
	}
}
