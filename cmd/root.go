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
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/bobbytrapz/livecheck/dashboard"
	"github.com/bobbytrapz/livecheck/options"
)

const (
	pidFileName = ".livecheck-pid"
)

const backgroundEnvKey = "livecheck_is_now_running_in_the_background"

func pidPath() string {
	return filepath.Join(options.ConfigPath, pidFileName)
}

func isRunningInBackground() bool {
	_, err := os.Stat(pidPath())
	return err == nil
}

func runSelfInBackground() (*exec.Cmd, error) {
	// get the path of our executable
	exePath, err := os.Executable()
	if err != nil {
		return nil, errors.Trace(err)
	}

	// build a command with a modified environment
	cmd := exec.Command(exePath)
	cmd.Env = append(os.Environ(), backgroundEnvKey+"=1")
	if err := cmd.Start(); err != nil {
		return nil, errors.Annotate(err, "we could not start in the background")
	}

	// write a pid file
	runinfo := strconv.Itoa(cmd.Process.Pid)
	if err := os.WriteFile(pidPath(), []byte(runinfo), 0644); err != nil {
		return nil, errors.Trace(err)
	}

	return cmd, nil
}

var rootCmd = &cobra.Command{
	Use:   "livecheck",
	Short: "livecheck: who is live right now",
	Long: `livecheck: who is live right now
livecheck polls twitch, kick, picarto and showroom for the streams in your
track list and tells you when they go live.

This program comes with ABSOLUTELY NO WARRANTY;
This is free software, and you are welcome to redistribute it under certain conditions.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !shouldRunInForeground && os.Getenv(backgroundEnvKey) == "" {
			if isRunningInBackground() {
				return dashboard.Run()
			}

			if _, err := runSelfInBackground(); err != nil {
				return err
			}

			if shouldNotStartDashboard {
				return nil
			}

			<-time.After(1 * time.Second)
			return dashboard.Run()
		}

		// handle interrupt
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if os.Getenv(backgroundEnvKey) == "" {
			fmt.Println("livecheck is running. press ctrl+c to stop.")
		} else {
			defer os.Remove(pidPath())
		}
		return run(ctx)
	},
}

var shouldRunInForeground = false
var shouldNotStartDashboard = false

func init() {
	rootCmd.Flags().BoolVarP(&shouldRunInForeground, "foreground", "f", false, "Run livecheck in the foreground")
	rootCmd.Flags().BoolVarP(&shouldNotStartDashboard, "no-dashboard", "d", false, "Do not start the dashboard")
}

// Execute the command line
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
