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
	"context"
	"os/exec"
	"sync"

	"github.com/juju/errors"

	"github.com/bobbytrapz/livecheck/stream"
)

// Launcher opens live streams in an external player such as streamlink
type Launcher struct {
	// player executable
	App func() string
	// extra arguments placed before the link
	Args func() []string

	mu      sync.Mutex
	running map[stream.Key]*exec.Cmd
	wg      sync.WaitGroup
}

// NewLauncher for the given player
func NewLauncher(app func() string, args func() []string) *Launcher {
	if args == nil {
		args = func() []string { return nil }
	}
	return &Launcher{
		App:     app,
		Args:    args,
		running: make(map[stream.Key]*exec.Cmd),
	}
}

// IsRunning is true while a player is open for the stream
func (l *Launcher) IsRunning(key stream.Key) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.running[key]
	return ok
}

func (l *Launcher) command(ctx context.Context, i Info) *exec.Cmd {
	args := append([]string(nil), l.Args()...)
	args = append(args, i.Link, "best")
	return exec.CommandContext(ctx, l.App(), args...)
}

// Launch a player for a live stream
// the player is killed when ctx is done
func (l *Launcher) Launch(ctx context.Context, i Info) error {
	if !i.HasBatchSupport {
		return errors.NotSupportedf("launching %s streams", i.Service)
	}
	if !i.IsLive() {
		return errors.NotValidf("%s is %s so launching", i.DisplayName, i.Status)
	}

	l.mu.Lock()
	if _, ok := l.running[i.Key]; ok {
		l.mu.Unlock()
		return errors.AlreadyExistsf("player for %s", i.Key)
	}
	cmd := l.command(ctx, i)
	if err := cmd.Start(); err != nil {
		l.mu.Unlock()
		return errors.Annotate(err, "track.Launch")
	}
	l.running[i.Key] = cmd
	l.mu.Unlock()

	app := cmd.Args[0]
	pid := cmd.Process.Pid
	logger.Infof("track.Launch: %s [%s %d]", i.DisplayName, app, pid)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		err := cmd.Wait()

		l.mu.Lock()
		delete(l.running, i.Key)
		l.mu.Unlock()

		if err != nil {
			logger.Infof("track.Launch: %s exited [%s %d] (%s)", i.DisplayName, app, pid, err)
			return
		}
		logger.Infof("track.Launch: %s exit ok [%s %d]", i.DisplayName, app, pid)
	}()

	return nil
}

// Wait for every player to exit
func (l *Launcher) Wait() {
	l.wg.Wait()
}
