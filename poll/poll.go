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

// Package poll drives one provider updater on its own cadence.
//
// Each Scheduler owns a single goroutine. Schedulers share nothing but the
// sink their outcomes are pushed to, so a slow or broken provider never
// holds up another.
package poll

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/bobbytrapz/livecheck/backoff"
	"github.com/bobbytrapz/livecheck/provider"
	"github.com/bobbytrapz/livecheck/stream"
)

var logger = loggo.GetLogger("livecheck.poll")

// State of a scheduler
type State int

// scheduler states
const (
	Created State = iota
	Polling
	Waiting
	Stopped
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Polling:
		return "polling"
	case Waiting:
		return "waiting"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Sink receives outcomes
type Sink interface {
	Push(outcomes ...stream.Outcome)
}

// Recorder is told about every round
type Recorder interface {
	Round(kind stream.Kind, took time.Duration, outcomes []stream.Outcome)
	SchedulerFailed(kind stream.Kind)
}

// Config for a Scheduler
// the func fields are read every time they are needed so they can follow
// configuration reloads
type Config struct {
	Updater provider.Updater
	// streams to check this round
	Streams func() []stream.Stream
	Sink    Sink
	// time between the end of one round and the start of the next
	Interval func() time.Duration
	// the first round starts after a random delay up to this
	StartDelay func() time.Duration
	// how long a round may keep running after shutdown begins
	Grace   func() time.Duration
	Clock   clock.Clock
	Metrics Recorder
}

// Health of a scheduler
type Health struct {
	Kind                stream.Kind
	State               State
	Rounds              int
	Streams             int
	LastRound           string
	LastRoundAt         time.Time
	LastRoundTook       time.Duration
	ConsecutiveFailures int
	// set when a round panicked and the scheduler gave up
	Failed bool
	Err    string
}

// Scheduler polls one provider
type Scheduler struct {
	cfg   Config
	check chan struct{}
	done  chan struct{}

	startMu sync.Mutex
	started bool

	healthMu sync.RWMutex
	health   Health
}

// New scheduler in the Created state
func New(cfg Config) *Scheduler {
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	if cfg.Streams == nil {
		cfg.Streams = func() []stream.Stream { return nil }
	}
	if cfg.Interval == nil {
		cfg.Interval = func() time.Duration { return time.Minute }
	}
	if cfg.StartDelay == nil {
		cfg.StartDelay = func() time.Duration { return 0 }
	}
	if cfg.Grace == nil {
		cfg.Grace = func() time.Duration { return 0 }
	}

	return &Scheduler{
		cfg:    cfg,
		check:  make(chan struct{}, 1),
		done:   make(chan struct{}),
		health: Health{Kind: cfg.Updater.Kind(), State: Created},
	}
}

// Kind of provider this scheduler drives
func (s *Scheduler) Kind() stream.Kind {
	return s.cfg.Updater.Kind()
}

// Start the scheduler goroutine; later calls do nothing
func (s *Scheduler) Start(ctx context.Context) {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	if s.started {
		return
	}
	s.started = true

	go func() {
		if err := s.Run(ctx); err != nil {
			logger.Criticalf("poll.Start: %s: %s", s.Kind(), err)
		}
	}()
}

// Done is closed when the scheduler has stopped
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// CheckNow wakes a waiting scheduler
// a wake up already pending is not doubled
func (s *Scheduler) CheckNow() {
	select {
	case s.check <- struct{}{}:
	default:
	}
}

// Status gives a copy of the scheduler health
func (s *Scheduler) Status() Health {
	s.healthMu.RLock()
	defer s.healthMu.RUnlock()
	return s.health
}

func (s *Scheduler) setState(st State) {
	s.healthMu.Lock()
	defer s.healthMu.Unlock()
	s.health.State = st
}

// Run until ctx is cancelled
// an error is returned only when a round panicked
func (s *Scheduler) Run(ctx context.Context) (err error) {
	kind := s.Kind()
	defer close(s.done)
	defer s.setState(Stopped)

	logger.Infof("poll.Run: %s: started", kind)

	if !s.wait(ctx, backoff.Jitter(s.cfg.StartDelay())) {
		logger.Infof("poll.Run: %s: stopped before the first round", kind)
		return nil
	}

	for {
		if err = s.round(ctx); err != nil {
			s.healthMu.Lock()
			s.health.Failed = true
			s.health.Err = err.Error()
			s.healthMu.Unlock()
			if s.cfg.Metrics != nil {
				s.cfg.Metrics.SchedulerFailed(kind)
			}
			return err
		}

		if ctx.Err() != nil || !s.wait(ctx, s.cfg.Interval()) {
			logger.Infof("poll.Run: %s: stopped", kind)
			return nil
		}
	}
}

// wait for d or a manual check
// false means we should stop
func (s *Scheduler) wait(ctx context.Context, d time.Duration) bool {
	s.setState(Waiting)

	if d <= 0 {
		return ctx.Err() == nil
	}

	select {
	case <-ctx.Done():
		return false
	case <-s.cfg.Clock.After(d):
		return true
	case <-s.check:
		logger.Debugf("poll.wait: %s: checking now", s.Kind())
		return true
	}
}

func (s *Scheduler) round(ctx context.Context) (err error) {
	kind := s.Kind()
	s.setState(Polling)

	id := uuid.NewString()
	streams := s.cfg.Streams()

	// the round keeps going after shutdown starts until grace runs out
	pollCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()
	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-finished:
			return
		case <-ctx.Done():
		}
		select {
		case <-finished:
		case <-s.cfg.Clock.After(s.cfg.Grace()):
			logger.Warningf("poll.round: %s: %s: grace period over, cancelling", kind, id)
			cancel()
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("round %s panicked: %v", id, r)
		}
	}()

	start := s.cfg.Clock.Now()
	var outcomes []stream.Outcome
	if len(streams) > 0 {
		logger.Debugf("poll.round: %s: %s: %d streams", kind, id, len(streams))
		outcomes = cover(streams, s.cfg.Updater.Update(pollCtx, streams))
	}
	took := s.cfg.Clock.Now().Sub(start)

	failed := 0
	for ndx := range outcomes {
		o := &outcomes[ndx]
		o.Round = id
		if o.At.IsZero() {
			o.At = s.cfg.Clock.Now()
		}
		if !o.OK() {
			failed++
			logger.Warningf("poll.round: %s: %s: %s (code %d)", kind, o.Key, o.Message(), o.Code)
		}
	}

	if len(outcomes) > 0 && s.cfg.Sink != nil {
		s.cfg.Sink.Push(outcomes...)
	}
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.Round(kind, took, outcomes)
	}

	s.healthMu.Lock()
	s.health.Rounds++
	s.health.Streams = len(streams)
	s.health.LastRound = id
	s.health.LastRoundAt = start
	s.health.LastRoundTook = took
	switch {
	case len(outcomes) > 0 && failed == len(outcomes):
		s.health.ConsecutiveFailures++
	default:
		s.health.ConsecutiveFailures = 0
	}
	s.healthMu.Unlock()

	logger.Debugf("poll.round: %s: %s: %d outcomes, %d failed, took %s", kind, id, len(outcomes), failed, took)

	return nil
}

// cover makes sure every stream gets exactly one outcome
// an updater that breaks the contract gets Problem outcomes for what it missed
func cover(streams []stream.Stream, outcomes []stream.Outcome) []stream.Outcome {
	want := make(map[stream.Key]bool, len(streams))
	for _, s := range streams {
		want[s.Key()] = true
	}

	covered := make([]stream.Outcome, 0, len(streams))
	for _, o := range outcomes {
		if !want[o.Key] {
			logger.Errorf("poll.cover: dropped outcome for %q", o.Key)
			continue
		}
		want[o.Key] = false
		covered = append(covered, o)
	}

	for _, s := range streams {
		if want[s.Key()] {
			want[s.Key()] = false
			logger.Errorf("poll.cover: no outcome for %s", s.Link())
			covered = append(covered, stream.Failed(s.Key(), 0, errors.New("updater gave no outcome")))
		}
	}

	return covered
}
