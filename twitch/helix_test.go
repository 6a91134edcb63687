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

package twitch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bobbytrapz/livecheck/stream"
)

func helixServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Client-Id") != "test-client" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var data []string
		switch {
		case strings.HasSuffix(r.URL.Path, "/users"):
			for _, login := range r.URL.Query()["login"] {
				if login == "beta" {
					continue
				}
				data = append(data, fmt.Sprintf(`{"id":"1%s","login":%q,"display_name":%q}`, login, login, strings.ToUpper(login)))
			}
		case strings.HasSuffix(r.URL.Path, "/streams"):
			for _, login := range r.URL.Query()["user_login"] {
				if login != "alpha" && login != "gamma" {
					continue
				}
				game := "123"
				if login == "gamma" {
					game = "9"
				}
				data = append(data, fmt.Sprintf(`{"user_login":%q,"user_name":%q,"game_id":%q,"game_name":"Game %s","type":"live","viewer_count":10}`, login, login, game, game))
			}
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}

		fmt.Fprintf(w, `{"data":[%s],"pagination":{}}`, strings.Join(data, ","))
	}))
}

func TestHelix(t *testing.T) {
	srv := helixServer(t)
	defer srv.Close()

	q, err := NewHelix(HelixConfig{ClientID: "test-client", AppToken: "token", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	u := NewUpdater(Config{
		Querier:       q,
		MaxPerRequest: func() int { return HelixMaxPerRequest },
		ExcludeGames:  func() []string { return []string{"123"} },
	})

	alpha := newChannel(t, "twitch.tv/alpha")
	beta := newChannel(t, "twitch.tv/beta")
	gamma := newChannel(t, "twitch.tv/gamma")
	delta := newChannel(t, "twitch.tv/delta")
	streams := []stream.Stream{alpha, beta, gamma, delta}

	outcomes := u.Update(context.Background(), streams)
	want := []stream.Status{stream.Offline, stream.Banned, stream.Public, stream.Offline}
	for ndx, o := range outcomes {
		if o.Change.Status != want[ndx] {
			t.Error(streams[ndx].Name(), "want", want[ndx], "got", o.Change.Status, o.Err)
		}
		o.Change.Apply(streams[ndx])
	}

	if gamma.DisplayName() != "GAMMA" || gamma.(*Channel).Game() != "Game 9" {
		t.Error("want GAMMA playing Game 9 got", gamma.DisplayName(), gamma.(*Channel).Game())
	}
	if alpha.(*Channel).Game() != "" {
		t.Error("want no game while excluded got", alpha.(*Channel).Game())
	}
}

func TestHelixNeedsClientID(t *testing.T) {
	if _, err := NewHelix(HelixConfig{}); err == nil {
		t.Error("want error without client id")
	}
}

func TestHelixRejectsBadCredentials(t *testing.T) {
	srv := helixServer(t)
	defer srv.Close()

	q, err := NewHelix(HelixConfig{ClientID: "wrong", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	_, code, err := q.Query(context.Background(), []string{"alpha"})
	if err == nil || code != http.StatusUnauthorized {
		t.Error("want 401 error got", code, err)
	}
}

func TestHelixStopsWithContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	q, err := NewHelix(HelixConfig{ClientID: "test-client", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, _, err := q.Query(ctx, []string{"alpha"})
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Error("want error from a cancelled query")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("query kept running after its context was done")
	}
}
