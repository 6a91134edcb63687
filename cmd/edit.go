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

package cmd

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/juju/errors"
)

// editFile opens fn in an editor and waits for it to close
// fn is created with seed if it does not exist yet
func editFile(editor, fn, seed string) error {
	if err := os.MkdirAll(filepath.Dir(fn), 0700); err != nil {
		return errors.Trace(err)
	}
	if _, err := os.Stat(fn); os.IsNotExist(err) {
		if err := os.WriteFile(fn, []byte(seed), 0600); err != nil {
			return errors.Trace(err)
		}
	}

	var c *exec.Cmd
	switch {
	case editor != "":
		app, err := exec.LookPath(editor)
		if err != nil {
			return errors.Annotatef(err, "could not find %s", editor)
		}
		c = exec.Command(app, fn)
	case runtime.GOOS == "windows":
		c = exec.Command("notepad", fn)
	case runtime.GOOS == "darwin":
		c = exec.Command("open", "-W", "-e", fn)
	default:
		return errors.NotValidf("no editor: set $EDITOR or use --editor")
	}

	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return errors.Trace(c.Run())
}
