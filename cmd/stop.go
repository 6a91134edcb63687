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
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/juju/errors"
	"github.com/spf13/cobra"
)

func readPidAndStop() error {
	data, err := os.ReadFile(pidPath())
	if os.IsNotExist(err) {
		return errors.NotFoundf("livecheck is not running. (pid file)")
	}
	if err != nil {
		return errors.Trace(err)
	}
	defer os.Remove(pidPath())

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return errors.NotValidf("pid file %q", data)
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return errors.Trace(err)
	}

	fmt.Printf("livecheck (%d)\n", pid)

	// ask nicely so rounds in flight can finish
	if runtime.GOOS == "windows" {
		return proc.Kill()
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return errors.Trace(err)
	}
	for n := 0; n < 50; n++ {
		if err := proc.Signal(syscall.Signal(0)); err != nil {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return proc.Kill()
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background livecheck process",
	Long:  `Reads the pid of the background livecheck from the pid file in the config directory and stops the process`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return readPidAndStop()
	},
}
