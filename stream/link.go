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

package stream

import (
	"net/url"
	"strings"

	"github.com/juju/errors"
)

// Key is the canonical identity of a stream
type Key string

// ParseLink reads an account reference
// a bare host/path such as "twitch.tv/name" is upgraded to https
func ParseLink(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.NotValidf("empty link")
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + strings.TrimPrefix(raw, "//")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Annotatef(err, "stream.ParseLink: %q", raw)
	}
	if u.Hostname() == "" {
		return nil, errors.NotValidf("link %q without host", raw)
	}

	u.Scheme = "https"
	u.Host = strings.ToLower(u.Host)

	return u, nil
}

// KeyOf gives the identity of a parsed link
// scheme is always https, host is lowercased, query and trailing slash are dropped
func KeyOf(u *url.URL) Key {
	p := strings.TrimRight(u.EscapedPath(), "/")
	return Key("https://" + strings.ToLower(u.Host) + p)
}

// NormalizeLink gives the identity of a link string
func NormalizeLink(raw string) (Key, error) {
	u, err := ParseLink(raw)
	if err != nil {
		return "", err
	}
	return KeyOf(u), nil
}

// Segments of the link path without empty parts
func Segments(u *url.URL) []string {
	var segs []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// NameFromLink gives the last path segment
func NameFromLink(u *url.URL) string {
	segs := Segments(u)
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}
