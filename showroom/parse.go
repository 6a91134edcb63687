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

package showroom

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/bobbytrapz/livecheck/stream"
)

// delimiters around the fields we read
const (
	nameStart    = `"roomName":"`
	nameEnd      = `"`
	viewersStart = `"viewNum":`
	liveTrue     = `"isLive":true`
	liveFalse    = `"isLive":false`
)

type room struct {
	name       string
	status     stream.Status
	viewers    int
	hasViewers bool
}

// parseRoom reads what it can from a room page
// the metadata sits in attributes so the page is entity decoded first
func parseRoom(page string) (r room) {
	page = html.UnescapeString(page)

	if v, ok := between(page, nameStart, nameEnd); ok {
		r.name = unquote(v)
	}

	if at := strings.Index(page, viewersStart); at >= 0 {
		if n, ok := leadingNumber(page[at+len(viewersStart):]); ok {
			r.viewers, r.hasViewers = n, true
		}
	}

	switch {
	case strings.Contains(page, liveTrue):
		r.status = stream.Public
	case strings.Contains(page, liveFalse):
		r.status = stream.Offline
	default:
		r.status = stream.Unknown
	}

	return
}

// between gives the text after the first start up to the next end
func between(s, start, end string) (string, bool) {
	at := strings.Index(s, start)
	if at < 0 {
		return "", false
	}
	s = s[at+len(start):]
	stop := strings.Index(s, end)
	if stop < 0 {
		return "", false
	}
	return s[:stop], true
}

// leadingNumber reads the run of digits at the start of s
// the value may be quoted or padded
func leadingNumber(s string) (int, bool) {
	s = strings.TrimLeft(s, ` "`)
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if end < 0 {
		end = len(s)
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// names may carry json escapes
func unquote(v string) string {
	if !strings.Contains(v, `\`) {
		return strings.TrimSpace(v)
	}
	if u, err := strconv.Unquote(`"` + v + `"`); err == nil {
		return strings.TrimSpace(u)
	}
	return strings.TrimSpace(v)
}
