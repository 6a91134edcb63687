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

package options

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestCheckEvery(t *testing.T) {
	Set("check_every", 2*time.Minute)
	if got := CheckEvery("kick"); got != 2*time.Minute {
		t.Error("want global interval got", got)
	}

	Set("kick.check_every", 45*time.Second)
	if got := CheckEvery("kick"); got != 45*time.Second {
		t.Error("want provider interval got", got)
	}

	// too fast for the platform
	Set("kick.check_every", time.Second)
	if got := CheckEvery("kick"); got != 2*time.Minute {
		t.Error("want global interval got", got)
	}
}

func TestHeader(t *testing.T) {
	Set("twitch.headers", map[string]interface{}{"accept-language": "en-US"})
	h := Header("twitch")
	if h.Get("User-Agent") == "" {
		t.Error("want a user agent")
	}
	if h.Get("Accept-Language") != "en-US" {
		t.Error("want configured header got", h)
	}
	if len(Header("kick")) != 1 {
		t.Error("want only the user agent for kick got", Header("kick"))
	}
}

func TestAreValid(t *testing.T) {
	Set("check_every", 10*time.Second)
	if ok, err := AreValid(); ok || err == nil {
		t.Error("want invalid poll rate")
	}
	if got := GetDuration("check_every"); got != defaultPollRate {
		t.Error("want default read got", got)
	}
	Set("check_every", time.Minute)

	Set("twitch.api", "carrier pigeon")
	if ok, _ := AreValid(); ok {
		t.Error("want invalid twitch api")
	}
	if Get("twitch.api") != "gql" {
		t.Error("want gql read got", Get("twitch.api"))
	}
	Set("twitch.api", "helix")

	if ok, err := AreValid(); !ok {
		t.Error(err)
	}
	if Get("twitch.api") != "helix" {
		t.Error("want helix got", Get("twitch.api"))
	}
	Set("twitch.api", "gql")
}

func TestFixedConfigTakesEffect(t *testing.T) {
	old := v
	defer func() { v = old }()
	v = viper.New()
	v.SetConfigType(Format)

	read := func(conf string) {
		t.Helper()
		m.Lock()
		defer m.Unlock()
		if err := v.ReadConfig(strings.NewReader(conf)); err != nil {
			t.Fatal(err)
		}
	}

	read("check_every = \"10s\"\n[twitch]\napi = \"pigeon\"\n")
	if ok, _ := AreValid(); ok {
		t.Error("want invalid options")
	}
	if got := CheckEvery("kick"); got != defaultPollRate {
		t.Error("want default interval got", got)
	}
	if Get("twitch.api") != "gql" {
		t.Error("want gql got", Get("twitch.api"))
	}

	// the next edit of the file is read as is
	read("check_every = \"45s\"\n[twitch]\napi = \"helix\"\n")
	if ok, err := AreValid(); !ok {
		t.Error(err)
	}
	if got := CheckEvery("kick"); got != 45*time.Second {
		t.Error("want 45s got", got)
	}
	if Get("twitch.api") != "helix" {
		t.Error("want helix got", Get("twitch.api"))
	}
}

func TestDefaults(t *testing.T) {
	if MaxPerRequest("twitch") != 30 {
		t.Error("want 30 got", MaxPerRequest("twitch"))
	}
	if Get("picarto.marker") != `"status"` {
		t.Error("want status marker got", Get("picarto.marker"))
	}
	if TrackListPath() == "" || ConfigFile() == "" {
		t.Error("want paths")
	}
}
