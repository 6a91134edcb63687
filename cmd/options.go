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

	"github.com/spf13/cobra"

	"github.com/bobbytrapz/livecheck/options"
)

var optionsEditor string

func init() {
	rootCmd.AddCommand(optionsCmd)
	optionsCmd.Flags().StringVarP(&optionsEditor, "editor", "e", os.Getenv("EDITOR"), "Command to use for editing.")
}

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "Edit the livecheck config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		// setup already wrote the file
		if err := editFile(optionsEditor, options.ConfigFile(), ""); err != nil {
			return err
		}
		if ok, err := options.AreValid(); !ok {
			fmt.Println("warning:", err)
		}
		return nil
	},
}
