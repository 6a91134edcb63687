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

package showroom

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/bobbytrapz/livecheck/provider"
	"github.com/bobbytrapz/livecheck/stream"
)

const livePage = `<html><body>
<script id="js-initial-data" data-json="{&quot;roomName&quot;:&quot;Akari & Friends&quot;,&quot;viewNum&quot;:1234,&quot;isLive&quot;:true}"></script>
</body></html>`

const offlinePage = `<html><body>
<script id="js-initial-data" data-json="{&quot;roomName&quot;:&quot;Akari&quot;,&quot;isLive&quot;:false}"></script>
</body></html>`

func TestParseRoom(t *testing.T) {
	r := parseRoom(`{"roomName":"Akari","viewNum":812,"isLive":true}`)
	if r.name != "Akari" || r.status != stream.Public || !r.hasViewers || r.viewers != 812 {
		t.Error("want live Akari with 812 got", r)
	}

	// viewNum closes its object and other numbers follow later in the page
	r = parseRoom(`{"roomName":"Akari","isLive":true,"viewNum":12}</script><script>var cfg = {"a":3,"b":4};</script>`)
	if !r.hasViewers || r.viewers != 12 {
		t.Error("want 12 viewers got", r.viewers, r.hasViewers)
	}

	r = parseRoom(`{"roomName":"Akari","isLive":true,"viewNum":null}`)
	if r.hasViewers {
		t.Error("want no viewers from null got", r.viewers)
	}

	r = parseRoom(offlinePage)
	if r.name != "Akari" || r.status != stream.Offline || r.hasViewers {
		t.Error("want offline Akari got", r)
	}

	r = parseRoom("<html>nothing here</html>")
	if r.name != "" || r.status != stream.Unknown || r.hasViewers {
		t.Error("want unknown got", r)
	}
}

func TestBetween(t *testing.T) {
	if v, ok := between(`a[b]c`, "[", "]"); !ok || v != "b" {
		t.Error("want b got", v, ok)
	}
	if _, ok := between(`a[b`, "[", "]"); ok {
		t.Error("want no match without end")
	}
	if _, ok := between(`abc`, "[", "]"); ok {
		t.Error("want no match without start")
	}
}

func newRoom(t *testing.T, link string) stream.Stream {
	t.Helper()
	u, err := stream.ParseLink(link)
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewRoom(u)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// rewrite every request to the test server
type redirect struct {
	to *url.URL
}

func (r redirect) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = r.to.Scheme
	req.URL.Host = r.to.Host
	return http.DefaultTransport.RoundTrip(req)
}

func TestUpdate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/live_room":
			fmt.Fprint(w, livePage)
		case "/quiet_room":
			fmt.Fprint(w, offlinePage)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	to, _ := url.Parse(srv.URL)
	u := NewUpdater(Config{Client: provider.NewClient(provider.WithHTTPClient(&http.Client{Transport: redirect{to}}))})

	live := newRoom(t, "showroom-live.com/live_room")
	quiet := newRoom(t, "https://www.showroom-live.com/quiet_room")
	broken := newRoom(t, "https://www.showroom-live.com/broken_room")

	if live.Link() != "https://www.showroom-live.com/live_room" {
		t.Error("want www host got", live.Link())
	}

	outcomes := u.Update(context.Background(), []stream.Stream{live, quiet, broken})
	if len(outcomes) != 3 {
		t.Fatal("want 3 got", len(outcomes))
	}

	outcomes[0].Change.Apply(live)
	if live.Status() != stream.Public || live.DisplayName() != "Akari & Friends" {
		t.Error("want public Akari & Friends got", live.Status(), live.DisplayName())
	}
	if n, ok := live.Viewers(); !ok || n != 1234 {
		t.Error("want 1234 viewers got", n, ok)
	}

	outcomes[1].Change.Apply(quiet)
	if quiet.Status() != stream.Offline {
		t.Error("want offline got", quiet.Status())
	}

	if outcomes[2].OK() || outcomes[2].Code != http.StatusServiceUnavailable {
		t.Error("want failure with 503 got", outcomes[2].Code, outcomes[2].Err)
	}
	outcomes[2].Change.Apply(broken)
	if broken.Status() != stream.Problem || broken.DisplayName() != "broken_room" {
		t.Error("want problem with name kept got", broken.Status(), broken.DisplayName())
	}
}
