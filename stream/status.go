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
	"strings"

	"github.com/juju/errors"
)

// Status of a stream
//
// Any status may follow any other. Each provider only produces a subset.
type Status int

// Statuses a stream can hold
const (
	Unset Status = iota
	Unsupported
	Public
	Private
	Banned
	Rerun
	Offline
	Unknown
	Problem
)

var statusNames = [...]string{
	Unset:       "unset",
	Unsupported: "unsupported",
	Public:      "public",
	Private:     "private",
	Banned:      "banned",
	Rerun:       "rerun",
	Offline:     "offline",
	Unknown:     "unknown",
	Problem:     "problem",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "invalid"
	}
	return statusNames[s]
}

// IsLive is true when someone can watch right now
func (s Status) IsLive() bool {
	return s == Public || s == Rerun
}

// MarshalText so statuses read well in json and toml
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name
func (s *Status) UnmarshalText(b []byte) error {
	st, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ParseStatus from its name
func ParseStatus(name string) (Status, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for ndx, n := range statusNames {
		if n == name {
			return Status(ndx), nil
		}
	}
	return Unset, errors.NotValidf("status %q", name)
}
