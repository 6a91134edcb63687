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
	"strings"

	"github.com/jroimartin/gocui"
)

var colors = map[string]gocui.Attribute{
	"black":   gocui.ColorBlack,
	"red":     gocui.ColorRed,
	"green":   gocui.ColorGreen,
	"yellow":  gocui.ColorYellow,
	"blue":    gocui.ColorBlue,
	"magenta": gocui.ColorMagenta,
	"cyan":    gocui.ColorCyan,
	"white":   gocui.ColorWhite,
}

// colorFromString such as "white" or "bold red"
func colorFromString(c string) gocui.Attribute {
	attr := gocui.ColorDefault
	for _, word := range strings.Fields(strings.ToLower(c)) {
		switch word {
		case "bold":
			attr |= gocui.AttrBold
		case "underline":
			attr |= gocui.AttrUnderline
		case "reverse":
			attr |= gocui.AttrReverse
		default:
			if color, ok := colors[word]; ok {
				attr = attr&^0xff | color
			}
		}
	}
	return attr
}
