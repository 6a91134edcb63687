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

//go:build !windows

package dashboard

import (
	"os/exec"
	"runtime"

	"github.com/juju/errors"
)

func openLink(link string) error {
	name := "xdg-open"
	if runtime.GOOS == "darwin" {
		name = "open"
	}

	app, err := exec.LookPath(name)
	if err != nil {
		return errors.NotFoundf("openLink: %s", name)
	}

	// the browser outlives us
	return exec.Command(app, link).Start()
}
