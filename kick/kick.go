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

// Package kick checks channels through the public channel document.
package kick

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/juju/errors"

	"github.com/bobbytrapz/livecheck/provider"
	"github.com/bobbytrapz/livecheck/stream"
)

// Kind of kick streams
const Kind stream.Kind = "kick"

// DefaultBaseURL of the channel api
const DefaultBaseURL = "https://kick.com/api/v2/channels/"

// Channel on kick
type Channel struct {
	*stream.Base
}

// Module for the stream factory
var Module = provider.Module{
	Kind:        Kind,
	ServiceName: "Kick",
	Hosts:       []string{"kick.com", "www.kick.com"},
	NewStream:   NewChannel,
}

// NewChannel from a channel link
// only the first path segment names the channel
func NewChannel(u *url.URL) (stream.Stream, error) {
	segs := stream.Segments(u)
	if len(segs) == 0 {
		return nil, errors.NotValidf("kick link %q without a channel", u)
	}
	link := url.URL{Scheme: "https", Host: "kick.com", Path: "/" + segs[0]}
	return Channel{
		Base: stream.NewBase(stream.Info{
			Link:            &link,
			Kind:            Kind,
			Name:            strings.ToLower(segs[0]),
			ServiceName:     "Kick",
			HasBatchSupport: true,
		}),
	}, nil
}

// Config for the kick updater
type Config struct {
	Client *provider.Client
	// channel slug is appended
	BaseURL string
	Header  func() http.Header
}

// Updater asks for each channel document on its own
type Updater struct {
	cfg Config
}

// NewUpdater for kick
func NewUpdater(cfg Config) *Updater {
	if cfg.Client == nil {
		cfg.Client = provider.NewClient()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Header == nil {
		cfg.Header = func() http.Header { return nil }
	}
	return &Updater{cfg: cfg}
}

// Kind of provider
func (u *Updater) Kind() stream.Kind {
	return Kind
}

// Update every channel
func (u *Updater) Update(ctx context.Context, streams []stream.Stream) []stream.Outcome {
	return provider.Each(ctx, streams, u.check)
}

type channelResponse struct {
	Slug string `json:"slug"`
	User *struct {
		Username string `json:"username"`
	} `json:"user"`
	Livestream *struct {
		IsLive      bool `json:"is_live"`
		ViewerCount *int `json:"viewer_count"`
	} `json:"livestream"`
}

func (u *Updater) check(ctx context.Context, s stream.Stream) stream.Outcome {
	header := http.Header{}
	header.Set("Accept", "application/json")
	for k, vs := range u.cfg.Header() {
		header[k] = vs
	}

	res, err := u.cfg.Client.Get(ctx, u.cfg.BaseURL+url.PathEscape(s.Name()), header)
	if provider.IsStatus(err, http.StatusNotFound) {
		// kick has no channel by that name
		return stream.Succeeded(s.Key(), res.Code, stream.Change{Status: stream.Banned})
	}
	if err != nil {
		return stream.Failed(s.Key(), res.Code, err)
	}

	var data channelResponse
	if err := json.Unmarshal(res.Body, &data); err != nil {
		return stream.Failed(s.Key(), res.Code, provider.Malformed(err, "kick %s", s.Name()))
	}

	c := stream.Change{Status: stream.Offline}
	if data.User != nil {
		c.DisplayName = data.User.Username
	}
	if data.Livestream != nil && data.Livestream.IsLive {
		c.Status = stream.Public
		c.Viewers = data.Livestream.ViewerCount
	}

	return stream.Succeeded(s.Key(), res.Code, c)
}
