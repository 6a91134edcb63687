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
	"time"
)

// Change is a deferred mutation
// Status is always assigned; everything else only when the provider found it
type Change struct {
	Status Status
	// empty leaves the display name alone
	DisplayName string
	// nil leaves the count alone while public
	Viewers *int
	// provider specific fields on the concrete kind
	Extra func(Stream)
}

// Apply the change to a live stream
// only the consumer that owns the streams may call this
func (c Change) Apply(s Stream) {
	b := s.base()

	b.status = c.Status

	if c.DisplayName != "" {
		b.displayName = c.DisplayName
	}

	switch {
	case c.Status != Public:
		b.viewers, b.hasViewers = 0, false
	case c.Viewers != nil:
		b.viewers, b.hasViewers = *c.Viewers, true
	}

	if c.Extra != nil {
		c.Extra(s)
	}
}

// Viewers is a helper for building a Change
func Viewers(n int) *int {
	return &n
}

// Outcome of trying to update one stream
type Outcome struct {
	Key    Key
	Change Change
	// http status of the network step or 0 when there was no response
	Code int
	// nil when the network step worked
	Err error
	At  time.Time
	// poll round this outcome belongs to
	Round string
}

// OK is true when the network step succeeded
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Message gives the diagnostic for logs
func (o Outcome) Message() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Succeeded outcome with the given change
func Succeeded(key Key, code int, c Change) Outcome {
	return Outcome{
		Key:    key,
		Change: c,
		Code:   code,
		At:     time.Now(),
	}
}

// Failed outcome
// the stream becomes Problem, viewers are cleared and the display name is kept
func Failed(key Key, code int, err error) Outcome {
	return Outcome{
		Key:    key,
		Change: Change{Status: Problem},
		Code:   code,
		Err:    err,
		At:     time.Now(),
	}
}
