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
	"bytes"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/bobbytrapz/livecheck/stream"
)

func TestSortByUrgency(t *testing.T) {
	a := Info{
		Key:         "https://www.showroom-live.com/48_SUGAHARA_SAKI",
		DisplayName: "菅 原 早 記",
		Status:      stream.Offline,
	}

	b := Info{
		Key:         "https://www.showroom-live.com/46_KYOKO_SAITO",
		DisplayName: "齊 藤 京 子",
		Status:      stream.Offline,
	}

	c := Info{
		Key:         "https://www.showroom-live.com/48_Manaka_Taguchi",
		DisplayName: "田 口 愛 佳",
		Status:      stream.Offline,
	}

	{
		got := []Info{a, b, c}
		sort.Sort(ByUrgency(got))
		// lexagraphical order is the fallback
		want := []Info{c, a, b}
		for ndx := range got {
			if want[ndx].Key != got[ndx].Key {
				t.Error("want", want[ndx].DisplayName, "got", got[ndx].DisplayName)
			}
		}
	}

	{
		got := []Info{a, b, c}
		now := time.Now()
		got[1].Status = stream.Public
		got[1].LiveSince = now
		got[0].Status = stream.Rerun
		got[0].LiveSince = now.Add(-time.Hour)
		got[2].Status = stream.Problem
		sort.Sort(ByUrgency(got))
		want := []Info{a, b, c}
		for ndx := range got {
			if want[ndx].Key != got[ndx].Key {
				t.Error("want", want[ndx].DisplayName, "got", got[ndx].DisplayName)
			}
		}
	}
}

func TestDisplayTable(t *testing.T) {
	now := time.Now()
	infos := []Info{
		{Key: "a", DisplayName: "Alpha", Status: stream.Offline},
		{Key: "b", DisplayName: "Beta", Status: stream.Public, Viewers: 42, HasViewers: true, LiveSince: now.Add(-90 * time.Minute), Game: "Chess"},
		{Key: "c", DisplayName: "Gamma", Status: stream.Problem, Message: "timeout"},
		{Key: "d", DisplayName: "Delta", Status: stream.Banned},
	}

	d := Display(infos, now)
	if len(d.Live) != 1 || len(d.Trouble) != 1 || len(d.Offline) != 2 {
		t.Fatal("want 1 live 1 trouble 2 offline got", len(d.Live), len(d.Trouble), len(d.Offline))
	}
	if d.Live[0].Status != "Now (1h30m)" {
		t.Error("want Now (1h30m) got", d.Live[0].Status)
	}
	if d.Live[0].Detail != "42 watching Chess" {
		t.Error("want viewers and game got", d.Live[0].Detail)
	}
	if d.Offline[0].Name != "Alpha" || d.Offline[1].Status != "Banned" {
		t.Error("want Alpha then banned Delta got", d.Offline)
	}

	var buf bytes.Buffer
	if err := d.Output(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Index(out, "Beta") > strings.Index(out, "Gamma") ||
		strings.Index(out, "Gamma") > strings.Index(out, "Alpha") {
		t.Error("want live then trouble then offline got", out)
	}
}
