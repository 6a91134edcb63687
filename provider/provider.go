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

// Package provider defines what every streaming platform implements and
// the shared pieces they are built from.
package provider

import (
	"context"
	"net/url"
	"sync"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/bobbytrapz/livecheck/stream"
)

var logger = loggo.GetLogger("livecheck.provider")

// Updater checks the streams of one provider
//
// Update returns exactly one Outcome per input stream and never mutates
// the streams it is given. Every stream passed in belongs to Kind.
type Updater interface {
	Kind() stream.Kind
	Update(ctx context.Context, streams []stream.Stream) []stream.Outcome
}

// Module describes a provider to the stream factory
type Module struct {
	Kind        stream.Kind
	ServiceName string
	// hostnames this provider owns, lowercase
	Hosts []string
	// build a stream from a parsed link on one of Hosts
	NewStream func(u *url.URL) (stream.Stream, error)
}

// CheckFunc updates a single stream
type CheckFunc func(ctx context.Context, s stream.Stream) stream.Outcome

// Each runs fn for every stream at the same time and waits for all of them
// a panic in one check becomes a Problem outcome for that stream only
func Each(ctx context.Context, streams []stream.Stream, fn CheckFunc) []stream.Outcome {
	outcomes := make([]stream.Outcome, len(streams))

	var wg sync.WaitGroup
	for ndx, s := range streams {
		wg.Add(1)
		go func(ndx int, s stream.Stream) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("provider.Each: %s: panic: %v", s.Link(), r)
					outcomes[ndx] = stream.Failed(s.Key(), 0, errors.Errorf("check panicked: %v", r))
				}
			}()

			o := fn(ctx, s)
			o.Key = s.Key()
			outcomes[ndx] = o
		}(ndx, s)
	}
	wg.Wait()

	return outcomes
}

// One updates a single stream through any updater
func One(ctx context.Context, u Updater, s stream.Stream) stream.Outcome {
	outcomes := u.Update(ctx, []stream.Stream{s})
	if len(outcomes) != 1 {
		return stream.Failed(s.Key(), 0, errors.Errorf("%s updater gave %d outcomes for one stream", u.Kind(), len(outcomes)))
	}
	return outcomes[0]
}
