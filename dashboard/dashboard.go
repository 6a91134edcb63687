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

package dashboard

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jroimartin/gocui"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/bobbytrapz/livecheck/ipc"
	"github.com/bobbytrapz/livecheck/options"
	"github.com/bobbytrapz/livecheck/poll"
	"github.com/bobbytrapz/livecheck/track"
)

var logger = loggo.GetLogger("livecheck.dashboard")

const headerHeight = 2

type board struct {
	m      sync.Mutex
	remote *ipc.Client
	res    ipc.Dashboard
	// last message shown in the header
	flash string
}

// Run the dashboard against a running livecheck
func Run() error {
	// connect to server
	remote, err := ipc.Dial(options.Get("listen_on"))
	if err != nil {
		return errors.Annotate(err, "we cannot connect to the server, try 'livecheck stop' then try again")
	}
	defer remote.Close()

	b := &board{remote: remote}
	if err := b.call("Status", "?"); err != nil {
		return err
	}

	// initialize tui
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return errors.Trace(err)
	}
	defer g.Close()

	g.Mouse = true
	g.Highlight = true

	g.SetManagerFunc(b.layout)

	if err := b.keys(g); err != nil {
		return errors.Trace(err)
	}

	// poll server for dashboard updates
	tick := time.NewTicker(1 * time.Second)
	defer tick.Stop()
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-tick.C:
				b.redraw(g)
			}
		}
	}()

	// loop
	if err := g.MainLoop(); err != nil && err != gocui.ErrQuit {
		return errors.Trace(err)
	}
	return nil
}

func (b *board) call(method, selectURL string) error {
	var res ipc.Dashboard
	var err error
	switch method {
	case "CheckNow":
		res, err = b.remote.CheckNow(selectURL)
	default:
		res, err = b.remote.Status(selectURL)
	}
	if err != nil {
		return errors.Annotatef(err, "dashboard.call: %s", method)
	}

	b.m.Lock()
	b.res = res
	b.m.Unlock()
	return nil
}

func (b *board) table() track.DisplayTable {
	b.m.Lock()
	defer b.m.Unlock()
	return b.res.TrackTable
}

func (b *board) redraw(g *gocui.Gui) {
	if err := b.call("Status", "?"); err != nil {
		logger.Errorf("%s", err)
		g.Update(func(g *gocui.Gui) error {
			return gocui.ErrQuit
		})
		return
	}

	g.Update(func(g *gocui.Gui) error {
		if v, err := g.View("header"); err == nil {
			b.drawHeader(v)
		}
		if v := g.CurrentView(); v != nil && v.Name() == "stream-list" {
			b.drawStreamList(v)
			// fix cursor
			_, cy := v.Cursor()
			if l, err := v.Line(cy); err == nil && strings.TrimSpace(l) == "" {
				return b.moveUp(g, v)
			}
		}
		return nil
	})
}

func summary(health []poll.Health) string {
	var parts []string
	for _, h := range health {
		s := fmt.Sprintf("%s %s", h.Kind, h.State)
		switch {
		case h.Failed:
			s = fmt.Sprintf("%s FAILED", h.Kind)
		case h.ConsecutiveFailures > 0:
			s += fmt.Sprintf(" (%d failing)", h.ConsecutiveFailures)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " | ")
}

func (b *board) drawHeader(v *gocui.View) {
	v.Clear()

	b.m.Lock()
	defer b.m.Unlock()
	fmt.Fprintln(v, " livecheck  "+summary(b.res.Health))
	if b.flash != "" {
		fmt.Fprintln(v, " "+b.flash)
	} else {
		fmt.Fprintln(v, " [r] check now  [f] refresh  [o] open  [b] browser  [q] quit")
	}
}

func (b *board) drawStreamList(v *gocui.View) {
	v.Clear()
	v.SelBgColor = 0
	v.SelFgColor = 0

	d := b.table()
	if numRows(d) == 0 {
		fmt.Fprintln(v, "Nobody is tracked yet.")
		fmt.Fprintln(v, "use 'livecheck track' to add streams.")

		return
	}
	v.SelBgColor = colorFromString(options.Get("select_bg_color"))
	v.SelFgColor = colorFromString(options.Get("select_fg_color"))

	// write display to view
	d.Output(v)
}

func (b *board) layout(g *gocui.Gui) error {
	w, h := g.Size()
	if v, err := g.SetView("header", -1, -1, w, headerHeight); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Frame = false

		b.drawHeader(v)
	}

	if v, err := g.SetView("stream-list", -1, headerHeight, w, h); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}

		v.Highlight = true

		b.drawStreamList(v)
	}

	if _, err := g.SetCurrentView("stream-list"); err != nil {
		return err
	}

	return nil
}

func (b *board) keys(g *gocui.Gui) (err error) {
	// quit
	for _, k := range []interface{}{'q', gocui.KeyCtrlC, gocui.KeyCtrlD} {
		if err = g.SetKeybinding("", k, gocui.ModNone, quit); err != nil {
			return
		}
	}

	bindings := []struct {
		key interface{}
		fn  func(*gocui.Gui, *gocui.View) error
	}{
		{gocui.KeyArrowUp, b.moveUp},
		{gocui.KeyArrowDown, b.moveDown},
		{'k', b.moveUp},
		{'j', b.moveDown},
		{'r', b.checkNow},
		{'f', b.refresh},
		{'o', b.open},
		{'b', b.browse},
		{gocui.MouseRight, b.browse},
	}
	for _, kb := range bindings {
		if err = g.SetKeybinding("stream-list", kb.key, gocui.ModNone, kb.fn); err != nil {
			return
		}
	}

	return
}

func quit(g *gocui.Gui, v *gocui.View) error {
	return gocui.ErrQuit
}

func numRows(d track.DisplayTable) int {
	return len(d.Live) + len(d.Trouble) + len(d.Offline)
}

// rowAt gives the row printed on a line of DisplayTable.Output
func rowAt(d track.DisplayTable, line int) (track.DisplayRow, bool) {
	groups := [][]track.DisplayRow{d.Live, d.Trouble, d.Offline}
	for ndx, rows := range groups {
		if line < 0 {
			break
		}
		if line < len(rows) {
			return rows[line], true
		}
		line -= len(rows)
		if len(rows) > 0 && ndx < len(groups)-1 {
			// separator
			line--
		}
	}
	return track.DisplayRow{}, false
}

// lastLine printed by DisplayTable.Output
func lastLine(d track.DisplayTable) int {
	n := numRows(d)
	if len(d.Live) > 0 {
		n++
	}
	if len(d.Trouble) > 0 {
		n++
	}
	return n - 1
}

func (b *board) moveUp(g *gocui.Gui, v *gocui.View) error {
	if v == nil {
		return nil
	}

	ox, oy := v.Origin()
	cx, cy := v.Cursor()
	if err := v.SetCursor(cx, cy-1); err != nil && oy > 0 {
		if err := v.SetOrigin(ox, oy-1); err != nil {
			return err
		}
	}
	if l, err := v.Line(cy - 1); err == nil && strings.TrimSpace(l) == "" {
		return b.moveUp(g, v)
	}

	return nil
}

func (b *board) moveDown(g *gocui.Gui, v *gocui.View) error {
	if v == nil {
		return nil
	}

	ox, oy := v.Origin()
	cx, cy := v.Cursor()
	if oy+cy+1 > lastLine(b.table()) {
		return nil
	}

	if err := v.SetCursor(cx, cy+1); err != nil {
		if err := v.SetOrigin(ox, oy+1); err != nil {
			return err
		}
	}
	if l, err := v.Line(cy + 1); err == nil && strings.TrimSpace(l) == "" {
		return b.moveDown(g, v)
	}

	return nil
}

func (b *board) selected(v *gocui.View) (track.DisplayRow, bool) {
	_, oy := v.Origin()
	_, cy := v.Cursor()
	return rowAt(b.table(), oy+cy)
}

func (b *board) say(format string, args ...interface{}) {
	b.m.Lock()
	b.flash = fmt.Sprintf(format, args...)
	b.m.Unlock()
}

func (b *board) checkNow(g *gocui.Gui, v *gocui.View) error {
	if err := b.call("CheckNow", "?"); err != nil {
		return errors.Annotate(err, "dashboard.checkNow")
	}
	b.say("checking everyone now")
	go b.redraw(g)
	return nil
}

func (b *board) refresh(g *gocui.Gui, v *gocui.View) error {
	row, ok := b.selected(v)
	if !ok {
		return nil
	}
	go func() {
		res, err := b.remote.Refresh(row.Link)
		if err != nil {
			b.say("%s: %s", row.Name, err)
		} else {
			b.say("%s is %s", row.Name, res.Status)
		}
		b.redraw(g)
	}()
	return nil
}

func (b *board) open(g *gocui.Gui, v *gocui.View) error {
	row, ok := b.selected(v)
	if !ok {
		return nil
	}
	if err := b.remote.Open(row.Link); err != nil {
		b.say("%s: %s", row.Name, err)
	} else {
		b.say("opening %s", row.Name)
	}
	return nil
}

func (b *board) browse(g *gocui.Gui, v *gocui.View) error {
	row, ok := b.selected(v)
	if !ok {
		return nil
	}
	if err := openLink(row.Link); err != nil {
		b.say("%s", err)
	}
	return nil
}

// Print the table once without the tui
func Print(w io.Writer) error {
	remote, err := ipc.Dial(options.Get("listen_on"))
	if err != nil {
		return err
	}
	defer remote.Close()

	res, err := remote.Status("?")
	if err != nil {
		return errors.Trace(err)
	}
	if s := summary(res.Health); s != "" {
		fmt.Fprintln(w, s)
		fmt.Fprintln(w)
	}
	return res.TrackTable.Output(w)
}
