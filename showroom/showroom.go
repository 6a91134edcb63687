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

// Package showroom reads room status from the metadata embedded in a
// showroom-live room page.
package showroom

import (
	"context"
	"net/http"
	"net/url"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/bobbytrapz/livecheck/provider"
	"github.com/bobbytrapz/livecheck/stream"
)

var logger = loggo.GetLogger("livecheck.showroom")

// Kind of showroom streams
const Kind stream.Kind = "showroom"

const domainName = "www.showroom-live.com"

// Room on showroom
type Room struct {
	*stream.Base
}

// Module for the stream factory
var Module = provider.Module{
	Kind:        Kind,
	ServiceName: "Showroom",
	Hosts:       []string{domainName, "showroom-live.com"},
	NewStream:   NewRoom,
}

// NewRoom from a room link
func NewRoom(u *url.URL) (stream.Stream, error) {
	if stream.NameFromLink(u) == "" {
		return nil, errors.NotValidf("showroom link %q without a room", u)
	}
	link := *u
	link.Host = domainName
	return Room{
		Base: stream.NewBase(stream.Info{
			Link:            &link,
			Kind:            Kind,
			ServiceName:     "Showroom",
			HasBatchSupport: true,
		}),
	}, nil
}

// Config for the showroom updater
type Config struct {
	Client *provider.Client
	// extra request headers, read on every request
	Header func() http.Header
	// renders pages in a browser when set
	Renderer *Renderer
}

// Updater checks each room page on its own
type Updater struct {
	cfg Config
}

// NewUpdater for showroom
func NewUpdater(cfg Config) *Updater {
	if cfg.Client == nil {
		cfg.Client = provider.NewClient()
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

// Update every room
func (u *Updater) Update(ctx context.Context, streams []stream.Stream) []stream.Outcome {
	return provider.Each(ctx, streams, u.check)
}

func (u *Updater) check(ctx context.Context, s stream.Stream) stream.Outcome {
	page, code, err := u.fetch(ctx, s.Link())
	if err != nil {
		return stream.Failed(s.Key(), code, err)
	}

	r := parseRoom(page)
	logger.Debugf("showroom.check: %s: %+v", s.Name(), r)

	c := stream.Change{
		Status:      r.status,
		DisplayName: r.name,
	}
	if r.hasViewers {
		c.Viewers = stream.Viewers(r.viewers)
	}

	return stream.Succeeded(s.Key(), code, c)
}

func (u *Updater) fetch(ctx context.Context, link string) (page string, code int, err error) {
	if u.cfg.Renderer != nil {
		page, err = u.cfg.Renderer.Render(ctx, link, u.cfg.Client.Timeout())
		if err != nil {
			return "", 0, errors.Annotatef(err, "showroom.fetch: render")
		}
		return page, http.StatusOK, nil
	}

	header := http.Header{}
	header.Set("Referer", "https://"+domainName+"/")
	for k, vs := range u.cfg.Header() {
		header[k] = vs
	}

	res, err := u.cfg.Client.Get(ctx, link, header)
	if err != nil {
		return "", res.Code, err
	}

	return string(res.Body), res.Code, nil
}
