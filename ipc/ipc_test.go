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

package ipc

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bobbytrapz/livecheck/kick"
	"github.com/bobbytrapz/livecheck/metrics"
	"github.com/bobbytrapz/livecheck/notify"
	"github.com/bobbytrapz/livecheck/provider"
	"github.com/bobbytrapz/livecheck/queue"
	"github.com/bobbytrapz/livecheck/stream"
	"github.com/bobbytrapz/livecheck/track"
)

type liveUpdater struct{}

func (liveUpdater) Kind() stream.Kind { return kick.Kind }

func (liveUpdater) Update(ctx context.Context, streams []stream.Stream) []stream.Outcome {
	var outcomes []stream.Outcome
	for _, s := range streams {
		outcomes = append(outcomes, stream.Succeeded(s.Key(), 200, stream.Change{Status: stream.Public, Viewers: stream.Viewers(3)}))
	}
	return outcomes
}

type fixture struct {
	srv  *httptest.Server
	q    *queue.Queue
	feed *notify.Feed
	rec  *metrics.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f, err := track.NewFactory(kick.Module)
	if err != nil {
		t.Fatal(err)
	}
	streams, _ := f.Parse([]string{"kick.com/a", "kick.com/b"})
	reg := track.NewRegistry()
	reg.Load(streams)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	fx := &fixture{
		q:    queue.New(),
		feed: notify.NewFeed(4),
		rec:  metrics.NewRecorder(),
	}

	pr := prometheus.NewRegistry()
	pr.MustRegister(fx.rec)

	// publishes the first snapshot
	go track.NewConsumer(reg, fx.q, fx.feed).Run(ctx)

	s := NewServer(ctx, Config{
		Registry: reg,
		Queue:    fx.q,
		Updaters: map[stream.Kind]provider.Updater{kick.Kind: liveUpdater{}},
		Feed:     fx.feed,
		Gatherer: pr,
	})
	h, err := s.Handler()
	if err != nil {
		t.Fatal(err)
	}
	fx.srv = httptest.NewServer(h)
	t.Cleanup(fx.srv.Close)

	return fx
}

func (fx *fixture) addr() string {
	return strings.TrimPrefix(fx.srv.URL, "http://")
}

func TestStatusAndSelection(t *testing.T) {
	fx := newFixture(t)
	c, err := Dial(fx.addr())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, err := c.Status("https://kick.com/a"); err != nil {
		t.Fatal(err)
	}

	var res Dashboard
	deadline := time.Now().Add(5 * time.Second)
	for {
		res, err = c.Status("?")
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Streams) == 2 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if res.SelectURL != "https://kick.com/a" {
		t.Error("want shared selection got", res.SelectURL)
	}
	if len(res.Streams) != 2 || len(res.TrackTable.Trouble) != 2 {
		t.Error("want two unchecked streams got", res.Streams, res.TrackTable)
	}
}

func TestRefresh(t *testing.T) {
	fx := newFixture(t)
	c, err := Dial(fx.addr())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	res, err := c.Refresh("KICK.com/b/")
	if err != nil {
		t.Fatal(err)
	}
	if res.Key != "https://kick.com/b" || res.Status != stream.Public || res.Code != 200 {
		t.Error("want b public got", res)
	}

	if _, err := c.Refresh("kick.com/nobody"); err == nil {
		t.Error("want error for an untracked stream")
	}
	if err := c.Open("kick.com/b"); err == nil {
		t.Error("want error without a launcher")
	}
}

func TestEvents(t *testing.T) {
	fx := newFixture(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+fx.addr()+"/events", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	// the handler subscribes after the upgrade
	deadline := time.Now().Add(5 * time.Second)
	for fx.feed.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for subscription")
		}
		time.Sleep(5 * time.Millisecond)
	}

	fx.q.Push(stream.Succeeded("https://kick.com/a", 200, stream.Change{Status: stream.Offline}))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var tr notify.Transition
	if err := conn.ReadJSON(&tr); err != nil {
		t.Fatal(err)
	}
	if tr.Key != "https://kick.com/a" || tr.To != stream.Offline || !tr.Initial {
		t.Error("want initial offline for a got", tr)
	}
}

func TestMetrics(t *testing.T) {
	fx := newFixture(t)
	fx.rec.Round(kick.Kind, time.Second, nil)

	res, err := http.Get(fx.srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(body), `livecheck_poll_rounds_total{kind="kick"} 1`) {
		t.Error("want round counter got", string(body))
	}
}
