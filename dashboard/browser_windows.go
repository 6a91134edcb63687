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
	"os/exec"
	"strings"
	"syscall"

	"github.com/juju/errors"
)

func openLink(link string) error {
	r := strings.NewReplacer("&", "^&")
	app, err := exec.LookPath("cmd")
	if err != nil {
		return errors.NotFoundf("openLink: cmd")
	}

	cmd := exec.Command(app, "/c", "start", r.Replace(link))
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}

	return cmd.Run()
}
