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
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/bobbytrapz/livecheck/stream"
)

// DisplayRow is one line of the table
type DisplayRow struct {
	Status  string
	Name    string
	Service string
	Detail  string
	Link    string
}

// DisplayTable groups rows the way we want to read them
type DisplayTable struct {
	Live    []DisplayRow
	Trouble []DisplayRow
	Offline []DisplayRow
}

func displayStatus(i Info, now time.Time) string {
	label := "Now"
	if i.Status == stream.Rerun {
		label = "Rerun"
	}

	if i.IsLive() {
		if i.LiveSince.IsZero() {
			return label
		}
		d := now.Sub(i.LiveSince).Truncate(5 * time.Minute)
		if d > time.Second {
			s := strings.TrimSuffix(d.String(), "0s")
			return fmt.Sprintf("%s (%s)", label, s)
		}
		return label
	}

	name := i.Status.String()
	return strings.ToUpper(name[:1]) + name[1:]
}

func displayDetail(i Info) string {
	var parts []string
	if i.HasViewers {
		parts = append(parts, fmt.Sprintf("%d watching", i.Viewers))
	}
	if i.Game != "" {
		parts = append(parts, i.Game)
	}
	if i.Message != "" {
		parts = append(parts, i.Message)
	}
	return strings.Join(parts, " ")
}

func displayRow(i Info, now time.Time) DisplayRow {
	return DisplayRow{
		Status:  displayStatus(i, now),
		Name:    i.DisplayName,
		Service: i.Service,
		Detail:  displayDetail(i),
		Link:    i.Link,
	}
}

// Display table for the given streams
func Display(infos []Info, now time.Time) (d DisplayTable) {
	sorted := append([]Info(nil), infos...)
	sort.Sort(ByUrgency(sorted))

	for _, i := range sorted {
		row := displayRow(i, now)
		switch {
		case i.IsLive():
			d.Live = append(d.Live, row)
		case i.IsTrouble():
			d.Trouble = append(d.Trouble, row)
		default:
			d.Offline = append(d.Offline, row)
		}
	}

	return
}

// Output the table as aligned text
func (d DisplayTable) Output(dst io.Writer) error {
	tw := tabwriter.NewWriter(dst, 0, 0, 4, ' ', 0)

	groups := [][]DisplayRow{d.Live, d.Trouble, d.Offline}
	for ndx, rows := range groups {
		for _, row := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", row.Status, row.Name, row.Service, row.Detail)
		}
		if len(rows) > 0 && ndx < len(groups)-1 {
			fmt.Fprintln(tw, "\t\t\t")
		}
	}

	return tw.Flush()
}
