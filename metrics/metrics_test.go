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

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/bobbytrapz/livecheck/stream"
)

func TestRound(t *testing.T) {
	r := NewRecorder()
	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(r); err != nil {
		t.Fatal(err)
	}

	r.Round("kick", 250*time.Millisecond, []stream.Outcome{
		stream.Succeeded("a", 200, stream.Change{Status: stream.Public}),
		stream.Succeeded("b", 200, stream.Change{Status: stream.Offline}),
		stream.Failed("c", 503, errors.New("down")),
	})
	r.Round("kick", time.Second, nil)
	r.SchedulerFailed("twitch")

	if got := testutil.ToFloat64(r.rounds.WithLabelValues("kick")); got != 2 {
		t.Error("want 2 rounds got", got)
	}
	if got := testutil.ToFloat64(r.outcomes.WithLabelValues("kick", "problem")); got != 1 {
		t.Error("want 1 problem got", got)
	}
	if got := testutil.ToFloat64(r.failures.WithLabelValues("kick")); got != 1 {
		t.Error("want 1 failure got", got)
	}
	if got := testutil.ToFloat64(r.schedulerFailed.WithLabelValues("twitch")); got != 1 {
		t.Error("want 1 failed scheduler got", got)
	}
	if n := testutil.CollectAndCount(r, "livecheck_poll_round_seconds"); n != 1 {
		t.Error("want one histogram series got", n)
	}
}

func TestTracked(t *testing.T) {
	r := NewRecorder()
	r.Tracked(map[stream.Kind][]stream.Stream{"kick": make([]stream.Stream, 3)})
	r.Tracked(map[stream.Kind][]stream.Stream{"twitch": make([]stream.Stream, 2)})

	if n := testutil.CollectAndCount(r.tracked); n != 1 {
		t.Error("want old kinds dropped got", n)
	}
	if got := testutil.ToFloat64(r.tracked.WithLabelValues("twitch")); got != 2 {
		t.Error("want 2 got", got)
	}
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.Round("kick", time.Second, nil)
	r.SchedulerFailed("kick")
	r.Tracked(nil)
}
