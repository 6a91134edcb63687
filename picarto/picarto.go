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

// Package picarto decides channel status from marker words on the
// channel page.
package picarto

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/juju/errors"

	"github.com/bobbytrapz/livecheck/provider"
	"github.com/bobbytrapz/livecheck/stream"
)

// Kind of picarto streams
const Kind stream.Kind = "picarto"

// DefaultField is where the status words are expected
const DefaultField = `"status"`

// how far past the field we look for a marker
const window = 64

// markers in the order they win
var markers = []struct {
	word   string
	status stream.Status
}{
	{"banned", stream.Banned},
	{"login-required", stream.Private},
	{"private", stream.Private},
	{"offline", stream.Offline},
	{"online", stream.Public},
}

// Channel on picarto
type Channel struct {
	*stream.Base
}

// Module for the stream factory
var Module = provider.Module{
	Kind:        Kind,
	ServiceName: "Picarto",
	Hosts:       []string{"picarto.tv", "www.picarto.tv"},
	NewStream:   NewChannel,
}

// NewChannel from a channel link
func NewChannel(u *url.URL) (stream.Stream, error) {
	segs := stream.Segments(u)
	if len(segs) == 0 {
		return nil, errors.NotValidf("picarto link %q without a channel", u)
	}
	link := url.URL{Scheme: "https", Host: "picarto.tv", Path: "/" + segs[0]}
	return Channel{
		Base: stream.NewBase(stream.Info{
			Link:        &link,
			Kind:        Kind,
			ServiceName: "Picarto",
		}),
	}, nil
}

// Config for the picarto updater
type Config struct {
	Client *provider.Client
	// page fetched for each channel; the channel name is appended
	// the channel link itself is used when empty
	BaseURL string
	// field marker, read on every check
	Field  func() string
	Header func() http.Header
}

// Updater reads each channel page on its own
type Updater struct {
	cfg Config
}

// NewUpdater for picarto
func NewUpdater(cfg Config) *Updater {
	if cfg.Client == nil {
		cfg.Client = provider.NewClient()
	}
	if cfg.Field == nil {
		cfg.Field = func() string { return DefaultField }
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

func (u *Updater) check(ctx context.Context, s stream.Stream) stream.Outcome {
	link := s.Link()
	if u.cfg.BaseURL != "" {
		link = u.cfg.BaseURL + url.PathEscape(s.Name())
	}

	res, err := u.cfg.Client.Get(ctx, link, u.cfg.Header())
	if err != nil {
		return stream.Failed(s.Key(), res.Code, err)
	}

	field := u.cfg.Field()
	if field == "" {
		field = DefaultField
	}

	return stream.Succeeded(s.Key(), res.Code, stream.Change{
		Status: Scan(string(res.Body), field),
	})
}

// Scan a page for the status markers that follow field
func Scan(page, field string) stream.Status {
	at := strings.Index(page, field)
	if at < 0 {
		return stream.Unknown
	}

	rest := page[at+len(field):]
	if len(rest) > window {
		rest = rest[:window]
	}
	rest = strings.ToLower(rest)

	for _, m := range markers {
		if strings.Contains(rest, m.word) {
			return m.status
		}
	}

	return stream.Unknown
}
