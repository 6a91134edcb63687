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

var trackListEditor string

const trackListSeed = `# one stream link per line
# https://www.twitch.tv/name
# https://kick.com/name
# https://picarto.tv/name
# https://www.showroom-live.com/r/room_url_key
`

func init() {
	rootCmd.AddCommand(trackCmd)
	trackCmd.Flags().StringVarP(&trackListEditor, "editor", "e", os.Getenv("EDITOR"), "Command to use for editing.")
}

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Edit the list of stream links to check",
	Long: `Opens the track list in your editor.
A running livecheck picks up the changes as soon as the file is saved.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fn := options.TrackListPath()
		if err := editFile(trackListEditor, fn, trackListSeed); err != nil {
			return err
		}
		fmt.Println("saved", fn)
		return nil
	},
}
