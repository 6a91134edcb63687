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

package kick

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/juju/errors"

	"github.com/bobbytrapz/livecheck/provider"
	"github.com/bobbytrapz/livecheck/stream"
)

func newChannel(t *testing.T, link string) stream.Stream {
	t.Helper()
	u, err := stream.ParseLink(link)
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewChannel(u)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNewChannel(t *testing.T) {
	s := newChannel(t, "www.kick.com/Somebody/videos?tab=1")
	if s.Link() != "https://kick.com/Somebody" {
		t.Error("want channel link got", s.Link())
	}
	if s.Name() != "somebody" {
		t.Error("want somebody got", s.Name())
	}
	if s.Kind() != Kind {
		t.Error("want kick got", s.Kind())
	}

	u, _ := stream.ParseLink("kick.com")
	if _, err := NewChannel(u); !errors.Is(err, errors.NotValid) {
		t.Error("want not valid got", err)
	}
}

func TestUpdate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimPrefix(r.URL.Path, "/channels/")
		switch slug {
		case "live":
			fmt.Fprint(w, `{"slug":"live","user":{"username":"LiveOne"},"livestream":{"is_live":true,"viewer_count":77}}`)
		case "idle":
			fmt.Fprint(w, `{"slug":"idle","user":{"username":"IdleOne"},"livestream":null}`)
		case "garbled":
			fmt.Fprint(w, `<html>cloudflare</html>`)
		case "down":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	u := NewUpdater(Config{BaseURL: srv.URL + "/channels/"})

	live := newChannel(t, "kick.com/live")
	idle := newChannel(t, "kick.com/idle")
	garbled := newChannel(t, "kick.com/garbled")
	down := newChannel(t, "kick.com/down")
	gone := newChannel(t, "kick.com/gone")

	outcomes := u.Update(context.Background(), []stream.Stream{live, idle, garbled, down, gone})
	if len(outcomes) != 5 {
		t.Fatal("want 5 got", len(outcomes))
	}

	outcomes[0].Change.Apply(live)
	if live.Status() != stream.Public || live.DisplayName() != "LiveOne" {
		t.Error("want public LiveOne got", live.Status(), live.DisplayName())
	}
	if n, ok := live.Viewers(); !ok || n != 77 {
		t.Error("want 77 got", n, ok)
	}

	outcomes[1].Change.Apply(idle)
	if idle.Status() != stream.Offline || idle.DisplayName() != "IdleOne" {
		t.Error("want offline IdleOne got", idle.Status(), idle.DisplayName())
	}

	if !errors.Is(outcomes[2].Err, provider.ErrMalformed) {
		t.Error("want malformed got", outcomes[2].Err)
	}
	outcomes[2].Change.Apply(garbled)
	if garbled.Status() != stream.Problem || garbled.DisplayName() != "garbled" {
		t.Error("want problem with name kept got", garbled.Status(), garbled.DisplayName())
	}

	if outcomes[3].OK() || outcomes[3].Code != http.StatusInternalServerError {
		t.Error("want 500 failure got", outcomes[3].Code, outcomes[3].Err)
	}

	if !outcomes[4].OK() || outcomes[4].Change.Status != stream.Banned {
		t.Error("want banned got", outcomes[4].Change.Status, outcomes[4].Err)
	}
}

func TestGoingOfflineClearsViewers(t *testing.T) {
	var live atomic.Bool
	live.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"user":{"username":"x"},"livestream":{"is_live":%t,"viewer_count":5}}`, live.Load())
	}))
	defer srv.Close()

	u := NewUpdater(Config{BaseURL: srv.URL + "/"})
	s := newChannel(t, "kick.com/x")

	provider.One(context.Background(), u, s).Change.Apply(s)
	if _, ok := s.Viewers(); !ok {
		t.Error("want viewers while live")
	}

	live.Store(false)
	provider.One(context.Background(), u, s).Change.Apply(s)
	if _, ok := s.Viewers(); ok || s.Status() != stream.Offline {
		t.Error("want no viewers while offline got", s.Status())
	}
}
