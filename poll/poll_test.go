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

package poll

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/juju/clock/testclock"

	"github.com/bobbytrapz/livecheck/stream"
)

type fakeStream struct {
	*stream.Base
}

func newStream(t *testing.T, link string) stream.Stream {
	t.Helper()
	u, err := stream.ParseLink(link)
	if err != nil {
		t.Fatal(err)
	}
	return fakeStream{stream.NewBase(stream.Info{Link: u, Kind: "fake"})}
}

type fakeUpdater struct {
	kind stream.Kind
	fn   func(ctx context.Context, streams []stream.Stream) []stream.Outcome
}

func (u fakeUpdater) Kind() stream.Kind { return u.kind }

func (u fakeUpdater) Update(ctx context.Context, streams []stream.Stream) []stream.Outcome {
	return u.fn(ctx, streams)
}

func allPublic(ctx context.Context, streams []stream.Stream) []stream.Outcome {
	var outcomes []stream.Outcome
	for _, s := range streams {
		outcomes = append(outcomes, stream.Succeeded(s.Key(), 200, stream.Change{Status: stream.Public}))
	}
	return outcomes
}

type chanSink chan []stream.Outcome

func (c chanSink) Push(outcomes ...stream.Outcome) {
	c <- outcomes
}

func (c chanSink) next(t *testing.T) []stream.Outcome {
	t.Helper()
	select {
	case outcomes := <-c:
		return outcomes
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a round")
	}
	return nil
}

func (c chanSink) none(t *testing.T) {
	t.Helper()
	select {
	case outcomes := <-c:
		t.Fatal("want no round got", len(outcomes), "outcomes")
	case <-time.After(50 * time.Millisecond):
	}
}

type fakeRecorder struct {
	sync.Mutex
	rounds int
	failed int
}

func (r *fakeRecorder) Round(kind stream.Kind, took time.Duration, outcomes []stream.Outcome) {
	r.Lock()
	defer r.Unlock()
	r.rounds++
}

func (r *fakeRecorder) SchedulerFailed(kind stream.Kind) {
	r.Lock()
	defer r.Unlock()
	r.failed++
}

func waitDone(t *testing.T, s *Scheduler) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestRounds(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	sink := make(chanSink, 4)
	rec := &fakeRecorder{}
	streams := []stream.Stream{newStream(t, "fake.tv/a"), newStream(t, "fake.tv/b")}

	s := New(Config{
		Updater:  fakeUpdater{kind: "fake", fn: allPublic},
		Streams:  func() []stream.Stream { return streams },
		Sink:     sink,
		Interval: func() time.Duration { return time.Minute },
		Clock:    clk,
		Metrics:  rec,
	})
	if s.Status().State != Created {
		t.Error("want created got", s.Status().State)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	s.Start(ctx)

	first := sink.next(t)
	if len(first) != 2 {
		t.Fatal("want 2 outcomes got", len(first))
	}
	if first[0].Round == "" || first[0].Round != first[1].Round {
		t.Error("want one round id got", first[0].Round, first[1].Round)
	}

	if err := clk.WaitAdvance(time.Minute, 5*time.Second, 1); err != nil {
		t.Fatal(err)
	}
	second := sink.next(t)
	if second[0].Round == first[0].Round {
		t.Error("want a new round id")
	}

	cancel()
	waitDone(t, s)

	h := s.Status()
	if h.State != Stopped || h.Rounds != 2 || h.Streams != 2 || h.Failed {
		t.Errorf("unexpected health %+v", h)
	}
	rec.Lock()
	if rec.rounds != 2 {
		t.Error("want 2 recorded rounds got", rec.rounds)
	}
	rec.Unlock()
}

func TestIntervalIsReread(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	sink := make(chanSink, 4)
	var interval atomic.Int64
	interval.Store(int64(time.Minute))

	s := New(Config{
		Updater:  fakeUpdater{kind: "fake", fn: allPublic},
		Streams:  func() []stream.Stream { return []stream.Stream{newStream(t, "fake.tv/a")} },
		Sink:     sink,
		Interval: func() time.Duration { return time.Duration(interval.Load()) },
		Clock:    clk,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	sink.next(t)

	// the wait already running keeps its interval
	interval.Store(int64(10 * time.Minute))
	if err := clk.WaitAdvance(time.Minute, 5*time.Second, 1); err != nil {
		t.Fatal(err)
	}
	sink.next(t)

	// the next wait uses the new one
	if err := clk.WaitAdvance(time.Minute, 5*time.Second, 1); err != nil {
		t.Fatal(err)
	}
	sink.none(t)

	clk.Advance(9 * time.Minute)
	sink.next(t)
}

func TestCheckNow(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	sink := make(chanSink, 4)

	s := New(Config{
		Updater:  fakeUpdater{kind: "fake", fn: allPublic},
		Streams:  func() []stream.Stream { return []stream.Stream{newStream(t, "fake.tv/a")} },
		Sink:     sink,
		Interval: func() time.Duration { return time.Hour },
		Clock:    clk,
	})

	// requests pile up into one
	s.CheckNow()
	s.CheckNow()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	sink.next(t)
	sink.next(t)
	sink.none(t)
}

func TestStartDelayAndCancel(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	sink := make(chanSink, 4)

	s := New(Config{
		Updater:    fakeUpdater{kind: "fake", fn: allPublic},
		Streams:    func() []stream.Stream { return []stream.Stream{newStream(t, "fake.tv/a")} },
		Sink:       sink,
		StartDelay: func() time.Duration { return time.Hour },
		Clock:      clk,
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	// the jittered delay is a timer we never fire
	if err := clk.WaitAdvance(0, 5*time.Second, 1); err != nil {
		t.Fatal(err)
	}
	sink.none(t)

	cancel()
	waitDone(t, s)
	if h := s.Status(); h.Rounds != 0 || h.State != Stopped {
		t.Errorf("unexpected health %+v", h)
	}
}

func TestPanicStopsOnlyThatScheduler(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	sink := make(chanSink, 4)
	rec := &fakeRecorder{}
	streams := func() []stream.Stream { return []stream.Stream{newStream(t, "fake.tv/a")} }

	broken := New(Config{
		Updater: fakeUpdater{kind: "broken", fn: func(ctx context.Context, streams []stream.Stream) []stream.Outcome {
			panic("provider exploded")
		}},
		Streams: streams,
		Sink:    sink,
		Clock:   clk,
		Metrics: rec,
	})
	healthy := New(Config{
		Updater:  fakeUpdater{kind: "healthy", fn: allPublic},
		Streams:  streams,
		Sink:     sink,
		Interval: func() time.Duration { return time.Minute },
		Clock:    clk,
	})

	g := NewGroup(broken, healthy)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g.Start(ctx)

	waitDone(t, broken)
	h := broken.Status()
	if !h.Failed || h.State != Stopped || h.Err == "" {
		t.Errorf("want failed scheduler got %+v", h)
	}
	rec.Lock()
	if rec.failed != 1 {
		t.Error("want failure recorded got", rec.failed)
	}
	rec.Unlock()

	sink.next(t)
	if err := clk.WaitAdvance(time.Minute, 5*time.Second, 1); err != nil {
		t.Fatal(err)
	}
	sink.next(t)
	if healthy.Status().Failed {
		t.Error("want healthy scheduler unaffected")
	}

	if s, ok := g.Get("healthy"); !ok || s != healthy {
		t.Error("want healthy scheduler from group")
	}
	if len(g.Status()) != 2 {
		t.Error("want 2 health reports")
	}
}

func TestGracePeriod(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	sink := make(chanSink, 4)
	started := make(chan struct{})
	release := make(chan struct{})
	var sawCancel atomic.Bool

	s := New(Config{
		Updater: fakeUpdater{kind: "slow", fn: func(ctx context.Context, streams []stream.Stream) []stream.Outcome {
			close(started)
			select {
			case <-ctx.Done():
				sawCancel.Store(true)
			case <-release:
			}
			return allPublic(ctx, streams)
		}},
		Streams: func() []stream.Stream { return []stream.Stream{newStream(t, "fake.tv/a")} },
		Sink:    sink,
		Grace:   func() time.Duration { return 10 * time.Second },
		Clock:   clk,
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	<-started
	cancel()

	// the grace timer starts once shutdown begins
	if err := clk.WaitAdvance(5*time.Second, 5*time.Second, 1); err != nil {
		t.Fatal(err)
	}
	if sawCancel.Load() {
		t.Fatal("round cancelled before grace ran out")
	}

	clk.Advance(5 * time.Second)
	waitDone(t, s)
	if !sawCancel.Load() {
		t.Error("want round cancelled after grace")
	}
	// the outcome of the cut short round is still delivered
	sink.next(t)
}

func TestRoundFinishesWithinGrace(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	sink := make(chanSink, 4)
	started := make(chan struct{})
	release := make(chan struct{})

	s := New(Config{
		Updater: fakeUpdater{kind: "slow", fn: func(ctx context.Context, streams []stream.Stream) []stream.Outcome {
			close(started)
			<-release
			if ctx.Err() != nil {
				t.Error("round cancelled inside grace")
			}
			return allPublic(ctx, streams)
		}},
		Streams: func() []stream.Stream { return []stream.Stream{newStream(t, "fake.tv/a")} },
		Sink:    sink,
		Grace:   func() time.Duration { return time.Minute },
		Clock:   clk,
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	<-started
	cancel()
	close(release)

	if outcomes := sink.next(t); len(outcomes) != 1 {
		t.Error("want 1 outcome got", len(outcomes))
	}
	waitDone(t, s)
}

func TestMissingOutcomesAreFilled(t *testing.T) {
	a := newStream(t, "fake.tv/a")
	b := newStream(t, "fake.tv/b")
	stray := newStream(t, "fake.tv/stray")

	outcomes := cover([]stream.Stream{a, b}, []stream.Outcome{
		stream.Succeeded(b.Key(), 200, stream.Change{Status: stream.Offline}),
		stream.Succeeded(b.Key(), 200, stream.Change{Status: stream.Public}),
		stream.Succeeded(stray.Key(), 200, stream.Change{Status: stream.Public}),
	})

	if len(outcomes) != 2 {
		t.Fatal("want 2 got", len(outcomes))
	}
	if outcomes[0].Key != b.Key() || outcomes[0].Change.Status != stream.Offline {
		t.Error("want first outcome for b kept got", outcomes[0].Key, outcomes[0].Change.Status)
	}
	if outcomes[1].Key != a.Key() || outcomes[1].OK() || outcomes[1].Change.Status != stream.Problem {
		t.Error("want problem for a got", outcomes[1].Key, outcomes[1].Change.Status)
	}
}
