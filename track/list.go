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
	"bufio"
	"context"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/retry"

	"github.com/bobbytrapz/livecheck/stream"
)

// ReadList gives every line of the track list
func ReadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Annotate(err, "track.ReadList")
	}
	defer f.Close()

	var lines []string
	s := bufio.NewScanner(f)
	for s.Scan() {
		lines = append(lines, s.Text())
	}
	if err := s.Err(); err != nil {
		return nil, errors.Annotate(err, "track.ReadList")
	}

	return lines, nil
}

// LoadList reads the track list into the registry
func LoadList(path string, f *Factory, r *Registry) (added, removed []stream.Stream, err error) {
	lines, err := ReadList(path)
	if err != nil {
		return nil, nil, err
	}

	streams, problems := f.Parse(lines)
	for _, p := range problems {
		logger.Warningf("track.LoadList: %s", p)
	}

	added, removed = r.Load(streams)
	return added, removed, nil
}

// WatchList calls fn with the track list lines every time the file changes
// until ctx is done
func WatchList(ctx context.Context, clk clock.Clock, path string, fn func(lines []string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Annotate(err, "track.WatchList: cannot make watcher")
	}
	defer w.Close()

	if err := w.Add(path); err != nil {
		return errors.Annotate(err, "track.WatchList: cannot watch track list")
	}

	reload := func() {
		lines, err := ReadList(path)
		if err != nil {
			logger.Warningf("track.WatchList: %s", err)
			return
		}
		fn(lines)
	}

	for {
		select {
		case <-ctx.Done():
			logger.Debugf("track.WatchList: %s", ctx.Err())
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			logger.Debugf("track.WatchList: update: %s %s", ev.Name, ev.Op)
			switch {
			case ev.Op&fsnotify.Write == fsnotify.Write:
				reload()
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// editors often replace the file so follow the new one
				if rewatch(ctx, clk, w, path) {
					reload()
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warningf("track.WatchList: error: %s", err)
		}
	}
}

// attempts to find the track list again after it goes away
const (
	rewatchAttempts = 10
	rewatchMinDelay = 100 * time.Millisecond
	rewatchMaxDelay = 40 * time.Second
)

// rewatch waits for the track list to come back
func rewatch(ctx context.Context, clk clock.Clock, w *fsnotify.Watcher, path string) bool {
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			_ = w.Remove(path)
			return w.Add(path)
		},
		NotifyFunc: func(err error, attempt int) {
			logger.Debugf("track.WatchList: attempt %d: %s", attempt, err)
		},
		Attempts:    rewatchAttempts,
		Delay:       rewatchMinDelay,
		MaxDelay:    rewatchMaxDelay,
		BackoffFunc: retry.ExpBackoff(rewatchMinDelay, rewatchMaxDelay, 2, true),
		Clock:       clk,
		Stop:        ctx.Done(),
	})
	switch {
	case err == nil:
		return true
	case retry.IsRetryStopped(err):
		return false
	}
	logger.Errorf("track.WatchList: %s is gone: %s", path, err)
	return false
}
