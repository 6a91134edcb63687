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

	"github.com/spf13/cobra"

	"github.com/bobbytrapz/livecheck/dashboard"
)

var printOnce bool

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().BoolVar(&printOnce, "once", false, "Print the table once and exit")
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show who is live from the running livecheck",
	RunE: func(cmd *cobra.Command, args []string) error {
		if printOnce {
			return dashboard.Print(os.Stdout)
		}
		return dashboard.Run()
	},
}
